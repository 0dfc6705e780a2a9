package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// HTTP метрики (общие для всех сервисов)
// =============================================================================

// HttpRequestsTotal - счётчик всех HTTP запросов
// Labels: service, method, path, status
var HttpRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	},
	[]string{"service", "method", "path", "status"},
)

// HttpRequestDuration - гистограмма времени ответа
var HttpRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	},
	[]string{"service", "method", "path"},
)

// HttpRequestsInFlight - текущее количество обрабатываемых запросов
var HttpRequestsInFlight = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "http_requests_in_flight",
		Help: "Current number of HTTP requests being processed",
	},
	[]string{"service"},
)

// =============================================================================
// Database метрики (MongoDB и PostgreSQL)
// =============================================================================

var DbQueryDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Duration of database queries in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	},
	[]string{"service", "operation", "collection"},
)

var DbErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "db_errors_total",
		Help: "Total number of database errors",
	},
	[]string{"service", "operation"},
)

// DbVersionConflicts - проигранные гонки compare-and-swap при сохранении документа
var DbVersionConflicts = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "db_version_conflicts_total",
		Help: "Total number of optimistic concurrency conflicts",
	},
	[]string{"service", "collection"},
)

// DbTransactionFallbacks - операции, выполненные без транзакции (standalone MongoDB)
var DbTransactionFallbacks = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "db_transaction_fallbacks_total",
		Help: "Total number of operations executed without a multi-document transaction",
	},
	[]string{"service"},
)

// =============================================================================
// Redis метрики
// =============================================================================

var RedisOperationDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "redis_operation_duration_seconds",
		Help:    "Duration of Redis operations in seconds",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
	},
	[]string{"service", "operation"},
)

var RedisErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "redis_errors_total",
		Help: "Total number of Redis errors",
	},
	[]string{"service", "operation"},
)

// =============================================================================
// Kafka метрики
// =============================================================================

var KafkaMessagesProduced = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "kafka_messages_produced_total",
		Help: "Total number of Kafka messages produced",
	},
	[]string{"service", "topic"},
)

var KafkaMessagesConsumed = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "kafka_messages_consumed_total",
		Help: "Total number of Kafka messages consumed",
	},
	[]string{"service", "topic", "group"},
)

var KafkaProduceDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "kafka_produce_duration_seconds",
		Help:    "Duration of Kafka produce operations",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	},
	[]string{"service", "topic"},
)

var KafkaConsumeDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "kafka_consume_duration_seconds",
		Help:    "Duration of Kafka message processing",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10},
	},
	[]string{"service", "topic"},
)

// operation: produce, consume, commit
var KafkaErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "kafka_errors_total",
		Help: "Total number of Kafka errors",
	},
	[]string{"service", "topic", "operation"},
)

// =============================================================================
// Business метрики
// =============================================================================

// --- Auth ---

var AuthRegistrations = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "auth_registrations_total",
		Help: "Total number of user registrations",
	},
)

var AuthLogins = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "auth_logins_total",
		Help: "Total number of login attempts",
	},
	[]string{"status"}, // success, failed
)

// --- Groups ---

// GroupMembershipChanges - вступления и выходы из групп
var GroupMembershipChanges = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "group_membership_changes_total",
		Help: "Total number of group membership changes",
	},
	[]string{"action"}, // join, leave
)

// GroupRatingChanges - выставленные и отозванные оценки
var GroupRatingChanges = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "group_rating_changes_total",
		Help: "Total number of group ratings cast or withdrawn",
	},
	[]string{"action"}, // rate, unrate
)

// GroupRatingScore - распределение итоговых баллов одной оценки (сумма шести критериев)
var GroupRatingScore = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "group_rating_score",
		Help:    "Distribution of the summed rubric score of a single rating",
		Buckets: []float64{0, 40, 80, 120, 160, 200, 240},
	},
)

// GroupRuleViolations - отклонённые операции по бизнес-правилам
var GroupRuleViolations = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "group_rule_violations_total",
		Help: "Total number of operations rejected by group rules",
	},
	[]string{"rule"},
)

// --- Forms / Projects ---

var FormsSubmitted = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "forms_submitted_total",
		Help: "Total number of daily activity form submissions",
	},
	[]string{"status"}, // accepted, cooldown
)

var ProjectsCreated = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "projects_created_total",
		Help: "Total number of projects created",
	},
)

// --- Reconciler ---

// ReconcilerRepairs - исправленные расхождения между документами Group и User
var ReconcilerRepairs = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "reconciler_repairs_total",
		Help: "Total number of inconsistencies repaired by the reconciler",
	},
	[]string{"kind"}, // joined_groups, duplicate_membership, aggregates, rating_history
)

var ReconcilerRuns = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "reconciler_runs_total",
		Help: "Total number of reconciliation sweeps",
	},
	[]string{"status"}, // success, failed
)
