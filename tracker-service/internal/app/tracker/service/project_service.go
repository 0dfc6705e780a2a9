package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"iat/pkg/logger"
	"iat/pkg/metrics"
	"iat/tracker-service/internal/app/tracker/entity"
	"iat/tracker-service/internal/app/tracker/repository"
	"iat/tracker-service/internal/app/tracker/util"

	"github.com/google/uuid"
)

// checkpointTargetOffset срок по умолчанию для новых контрольных точек
const checkpointTargetOffset = 30 * 24 * time.Hour

// defaultCheckpoints шаблон контрольных точек нового проекта по разделам
var defaultCheckpoints = []struct {
	section string
	labels  []string
}{
	{
		section: "Project Initiation and Planning",
		labels: []string{
			"Bid Award & Contract Review",
			"Project Kick-off Meeting",
			"Define Project Scope & Objectives",
			"Stakeholder Identification & Analysis",
			"Requirements Gathering & Analysis",
			"Feasibility Study & Risk Assessment",
			"Resource Planning",
			"Budget Allocation & Financial Planning",
			"Project Management Plan Development",
		},
	},
	{
		section: "Preliminary Design & Concept Development",
		labels: []string{
			"Detailed Requirements Specification for Testing Unit",
			"Concept Design & Development",
			"Preliminary Design Review (PDR) Preparation",
			"PDR Presentation & Approval",
		},
	},
	{
		section: "Detailed Design & Engineering",
		labels: []string{
			"System Level Design",
			"Sub-System Detailed Design",
			"Component Selection & Sourcing Strategy",
			"Drawings & Documentation Package Development",
			"Design Validation & Simulation",
		},
	},
	{
		section: "Procurement & Manufacturing",
		labels: []string{
			"Bill of Material (BOM) Finalization",
			"Purchase Order (PO) Issuance & Tracking",
			"Component Manufacturing & Assembly",
			"Quality Control & Inspection of Manufactured Parts",
		},
	},
	{
		section: "Assembly & Integration",
		labels: []string{
			"Assembly & Integration",
			"Sub-system Assembly",
			"Integration of Sub-systems into Main Testing Unit",
			"Cabling & Wiring Installation",
			"Initial Power-up & Basic Functionality Tests",
		},
	},
	{
		section: "Testing & Validation",
		labels: []string{
			"Factory Acceptance Test (FAT) Plan Development",
			"FAT Execution",
			"Defect Identification & Resolution",
			"Client/User Acceptance Test (UAT) Plan Development",
			"UAT Execution",
			"Performance & Safety Compliance Testing",
			"Test Report Generation & Review",
		},
	},
	{
		section: "Deployment & Training",
		labels: []string{
			"Packaging & Transportation of Testing Unit",
			"On-site Installation & Setup",
			"Site Acceptance Test (SAT) Execution",
			"Operational Training for End-Users",
			"Maintenance Training for Technical Staff",
		},
	},
	{
		section: "Project Closure & Post-Deployment",
		labels: []string{
			"Final Documentation Handover",
			"Warranty & Support Agreement Finalization",
			"Final Project Report & Financial Closure",
		},
	},
}

// DefaultCheckpointCount число точек в шаблоне, каждая весит 100/DefaultCheckpointCount
var DefaultCheckpointCount = func() int {
	n := 0
	for _, s := range defaultCheckpoints {
		n += len(s.labels)
	}
	return n
}()

// ProjectService управляет проектами и их контрольными точками (PostgreSQL)
type ProjectService struct {
	projectRepo repository.ProjectRepository
	now         func() time.Time
}

// NewProjectService создает сервис проектов
func NewProjectService(projectRepo repository.ProjectRepository) *ProjectService {
	return &ProjectService{
		projectRepo: projectRepo,
		now:         time.Now,
	}
}

// Create создает проект с шаблоном контрольных точек.
// Ссылки без заголовка или URL отбрасываются.
func (s *ProjectService) Create(ctx context.Context, req *entity.CreateProjectRequest) (*entity.Project, error) {
	name := util.SanitizeText(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if req.Deadline == nil {
		return nil, fmt.Errorf("%w: deadline is required", ErrValidation)
	}

	progress := 0.0
	if req.Progress != nil {
		progress = *req.Progress
		if progress < 0 || progress > 100 {
			return nil, fmt.Errorf("%w: progress must be between 0 and 100", ErrValidation)
		}
	}

	project := &entity.Project{
		ID:          uuid.New(),
		Name:        name,
		Description: util.SanitizeText(req.Description),
		Deadline:    req.Deadline.UTC(),
		Progress:    progress,
	}

	project.Links = make([]entity.ProjectLink, 0, len(req.Links))
	for _, l := range req.Links {
		title := strings.TrimSpace(l.Title)
		url := strings.TrimSpace(l.URL)
		if title == "" || url == "" {
			continue
		}
		project.Links = append(project.Links, entity.ProjectLink{
			ID:        uuid.New(),
			ProjectID: project.ID,
			Title:     title,
			URL:       url,
		})
	}

	project.Checkpoints = s.defaultCheckpoints(project.ID)

	if err := s.projectRepo.Create(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	metrics.ProjectsCreated.Inc()
	logger.Info().Str("project_id", project.ID.String()).Str("name", project.Name).Msg("Project created")

	return project, nil
}

func (s *ProjectService) defaultCheckpoints(projectID uuid.UUID) []entity.Checkpoint {
	target := s.now().UTC().Add(checkpointTargetOffset)
	weight := 100.0 / float64(DefaultCheckpointCount)

	checkpoints := make([]entity.Checkpoint, 0, DefaultCheckpointCount)
	for _, section := range defaultCheckpoints {
		for _, label := range section.labels {
			checkpoints = append(checkpoints, entity.Checkpoint{
				ID:         uuid.New(),
				ProjectID:  projectID,
				Position:   len(checkpoints),
				Label:      label,
				Value:      weight,
				Section:    section.section,
				Status:     entity.CheckpointNotStarted,
				TargetDate: target,
			})
		}
	}
	return checkpoints
}

// List возвращает все проекты, новые первыми
func (s *ProjectService) List(ctx context.Context) ([]entity.Project, error) {
	projects, err := s.projectRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

// Get возвращает проект по ID
func (s *ProjectService) Get(ctx context.Context, id string) (*entity.Project, error) {
	projectID, err := parseProjectID(id)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, projectID)
}

// Update частично обновляет имя, описание, дедлайн и прогресс
func (s *ProjectService) Update(ctx context.Context, id string, req *entity.UpdateProjectRequest) (*entity.Project, error) {
	project, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := util.SanitizeText(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name must not be empty", ErrValidation)
		}
		project.Name = name
	}
	if req.Description != nil {
		project.Description = util.SanitizeText(*req.Description)
	}
	if req.Deadline != nil {
		project.Deadline = req.Deadline.UTC()
	}
	if req.Progress != nil {
		if *req.Progress < 0 || *req.Progress > 100 {
			return nil, fmt.Errorf("%w: progress must be between 0 and 100", ErrValidation)
		}
		project.Progress = *req.Progress
	}

	if err := s.projectRepo.Update(ctx, project); err != nil {
		return nil, mapProjectError(err, "failed to update project")
	}

	return project, nil
}

// UpdateProgress задает прогресс проекта в диапазоне [0, 100]
func (s *ProjectService) UpdateProgress(ctx context.Context, id string, progress float64) (*entity.Project, error) {
	projectID, err := parseProjectID(id)
	if err != nil {
		return nil, err
	}
	if progress < 0 || progress > 100 {
		return nil, fmt.Errorf("%w: progress must be between 0 and 100", ErrValidation)
	}

	if err := s.projectRepo.UpdateProgress(ctx, projectID, progress); err != nil {
		return nil, mapProjectError(err, "failed to update project progress")
	}

	return s.load(ctx, projectID)
}

// ReplaceCheckpoints заменяет все контрольные точки.
// Прогресс пересчитывается как сумма весов завершенных точек.
func (s *ProjectService) ReplaceCheckpoints(ctx context.Context, id string, inputs []entity.CheckpointInput) (*entity.Project, error) {
	projectID, err := parseProjectID(id)
	if err != nil {
		return nil, err
	}

	defaultTarget := s.now().UTC().Add(checkpointTargetOffset)
	checkpoints := make([]entity.Checkpoint, 0, len(inputs))
	for i, in := range inputs {
		status := in.Status
		if status == "" {
			status = entity.CheckpointNotStarted
		}
		if !status.Valid() {
			return nil, fmt.Errorf("%w: invalid checkpoint status %q", ErrValidation, status)
		}
		if in.Value == nil || *in.Value < 0 || *in.Value > 100 {
			return nil, fmt.Errorf("%w: checkpoint value must be between 0 and 100", ErrValidation)
		}

		target := defaultTarget
		if in.TargetDate != nil {
			target = in.TargetDate.UTC()
		}

		checkpoints = append(checkpoints, entity.Checkpoint{
			ID:         uuid.New(),
			ProjectID:  projectID,
			Position:   i,
			Label:      strings.TrimSpace(in.Label),
			Value:      *in.Value,
			Section:    strings.TrimSpace(in.Section),
			Status:     status,
			TargetDate: target,
		})
	}

	progress := entity.CompletedProgress(checkpoints)
	if err := s.projectRepo.ReplaceCheckpoints(ctx, projectID, checkpoints, progress); err != nil {
		return nil, mapProjectError(err, "failed to replace checkpoints")
	}

	return s.load(ctx, projectID)
}

// UpdateCheckpoint частично обновляет одну контрольную точку
func (s *ProjectService) UpdateCheckpoint(ctx context.Context, id, checkpointID string, req *entity.UpdateCheckpointRequest) (*entity.Project, error) {
	project, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	cpID, err := uuid.Parse(checkpointID)
	if err != nil {
		return nil, ErrCheckpointNotFound
	}

	var checkpoint *entity.Checkpoint
	for i := range project.Checkpoints {
		if project.Checkpoints[i].ID == cpID {
			checkpoint = &project.Checkpoints[i]
			break
		}
	}
	if checkpoint == nil {
		return nil, ErrCheckpointNotFound
	}

	if req.Label != nil {
		checkpoint.Label = strings.TrimSpace(*req.Label)
	}
	if req.Value != nil {
		if *req.Value < 0 || *req.Value > 100 {
			return nil, fmt.Errorf("%w: checkpoint value must be between 0 and 100", ErrValidation)
		}
		checkpoint.Value = *req.Value
	}
	if req.Section != nil {
		checkpoint.Section = strings.TrimSpace(*req.Section)
	}
	if req.Status != nil {
		if !req.Status.Valid() {
			return nil, fmt.Errorf("%w: invalid checkpoint status %q", ErrValidation, *req.Status)
		}
		checkpoint.Status = *req.Status
	}
	if req.TargetDate != nil {
		checkpoint.TargetDate = req.TargetDate.UTC()
	}

	if err := s.projectRepo.UpdateCheckpoint(ctx, checkpoint); err != nil {
		return nil, mapProjectError(err, "failed to update checkpoint")
	}

	return project, nil
}

// Delete удаляет проект
func (s *ProjectService) Delete(ctx context.Context, id string) error {
	projectID, err := parseProjectID(id)
	if err != nil {
		return err
	}
	if err := s.projectRepo.Delete(ctx, projectID); err != nil {
		return mapProjectError(err, "failed to delete project")
	}
	logger.Info().Str("project_id", projectID.String()).Msg("Project deleted")
	return nil
}

func (s *ProjectService) load(ctx context.Context, id uuid.UUID) (*entity.Project, error) {
	project, err := s.projectRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapProjectError(err, "failed to get project")
	}
	return project, nil
}

func parseProjectID(id string) (uuid.UUID, error) {
	projectID, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, ErrProjectNotFound
	}
	return projectID, nil
}

func mapProjectError(err error, msg string) error {
	switch {
	case errors.Is(err, repository.ErrProjectNotFound):
		return ErrProjectNotFound
	case errors.Is(err, repository.ErrCheckpointNotFound):
		return ErrCheckpointNotFound
	default:
		return fmt.Errorf("%s: %w", msg, err)
	}
}
