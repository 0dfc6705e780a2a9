package entity

import (
	"time"

	"iat/pkg/rubric"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Документы читаются из коллекций tracker-service.
// Здесь только поля, которые участвуют в сверке; запись идет точечными $set/$pull.

type Member struct {
	UserID   primitive.ObjectID `bson:"user_id"`
	Name     string             `bson:"name"`
	JoinDate time.Time          `bson:"join_date"`
}

type Rating struct {
	RaterID       primitive.ObjectID `bson:"rater_id"`
	rubric.Scores `bson:",inline"`
	CreatedAt     time.Time `bson:"created_at"`
}

type Group struct {
	ID               primitive.ObjectID `bson:"_id"`
	Name             string             `bson:"name"`
	Members          []Member           `bson:"members"`
	Ratings          []Rating           `bson:"ratings"`
	rubric.Aggregate `bson:",inline"`
	Version          int64 `bson:"version"`
}

// Scores оценки группы в порядке хранения
func (g *Group) Scores() []rubric.Scores {
	scores := make([]rubric.Scores, 0, len(g.Ratings))
	for _, r := range g.Ratings {
		scores = append(scores, r.Scores)
	}
	return scores
}

// Member возвращает запись участника или nil
func (g *Group) Member(userID primitive.ObjectID) *Member {
	for i := range g.Members {
		if g.Members[i].UserID == userID {
			return &g.Members[i]
		}
	}
	return nil
}

// RatingBy возвращает оценку пользователя или nil
func (g *Group) RatingBy(userID primitive.ObjectID) *Rating {
	for i := range g.Ratings {
		if g.Ratings[i].RaterID == userID {
			return &g.Ratings[i]
		}
	}
	return nil
}

type RatingHistoryEntry struct {
	GroupID   primitive.ObjectID `bson:"group_id"`
	GroupName string             `bson:"group_name"`
	RatedAt   time.Time          `bson:"rated_at"`
}

type User struct {
	ID            primitive.ObjectID   `bson:"_id"`
	Username      string               `bson:"username"`
	JoinedGroups  []primitive.ObjectID `bson:"joined_groups"`
	RatingHistory []RatingHistoryEntry `bson:"rating_history"`
	Version       int64                `bson:"version"`
}

// GroupEvent событие tracker-service из топика group_events
type GroupEvent struct {
	EventType string    `json:"event_type"`
	GroupID   string    `json:"group_id"`
	UserID    string    `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	EventMemberJoined = "MEMBER_JOINED"
	EventMemberLeft   = "MEMBER_LEFT"
	EventGroupRated   = "GROUP_RATED"
	EventGroupUnrated = "GROUP_UNRATED"
	EventGroupCreated = "GROUP_CREATED"
	EventGroupDeleted = "GROUP_DELETED"
)

// Report количество исправлений по видам
type Report struct {
	JoinedGroups        int `json:"joinedGroups"`
	DuplicateMembership int `json:"duplicateMembership"`
	Aggregates          int `json:"aggregates"`
	RatingHistory       int `json:"ratingHistory"`
}

// Add суммирует отчеты
func (r *Report) Add(other Report) {
	r.JoinedGroups += other.JoinedGroups
	r.DuplicateMembership += other.DuplicateMembership
	r.Aggregates += other.Aggregates
	r.RatingHistory += other.RatingHistory
}

// Total общее число исправлений
func (r Report) Total() int {
	return r.JoinedGroups + r.DuplicateMembership + r.Aggregates + r.RatingHistory
}
