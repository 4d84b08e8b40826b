package services

import (
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"

	"insight-flow/backend/internal/models"
	"insight-flow/backend/internal/monitoring"
)

type CreateTaskInput struct {
	ProjectID   uuid.UUID
	Title       string
	Description *string
	Status      string
	AssigneeID  *uuid.UUID
	DueDate     *time.Time
}

// UpdateTaskInput is a partial update. Status is decoded by the service so
// that every entry point shares one set of accepted values.
type UpdateTaskInput struct {
	Title       *string
	Description *string
	Status      *string
	AssigneeID  *uuid.UUID
	DueDate     *time.Time
}

type TaskFilter struct {
	ProjectID  *uuid.UUID
	AssigneeID *uuid.UUID
	Status     *models.TaskStatus
}

type TaskService interface {
	CreateTask(db *gorm.DB, input CreateTaskInput, creatorID uuid.UUID) (*models.Task, error)
	GetTask(db *gorm.DB, id, callerID uuid.UUID) (*models.Task, error)
	UpdateTask(db *gorm.DB, id uuid.UUID, input UpdateTaskInput, callerID uuid.UUID) (*models.Task, error)
	UpdateStatus(db *gorm.DB, id uuid.UUID, status string, callerID uuid.UUID) (*models.Task, error)
	Assign(db *gorm.DB, id, assigneeID, callerID uuid.UUID) (*models.Task, error)
	DeleteTask(db *gorm.DB, id, callerID uuid.UUID) error
	ListTasks(db *gorm.DB, filter TaskFilter, callerID uuid.UUID, page Page) ([]models.Task, error)
	ListProjectTasks(db *gorm.DB, projectID, callerID uuid.UUID, page Page) ([]models.Task, error)
	ListForUser(db *gorm.DB, userID uuid.UUID, page Page) ([]models.Task, error)
}

type TaskServiceImpl struct {
	authz Authorizer
}

func NewTaskService(authz Authorizer) *TaskServiceImpl {
	return &TaskServiceImpl{authz: authz}
}

func parseStatus(s string) (models.TaskStatus, error) {
	st, err := models.ParseTaskStatus(s)
	if err != nil {
		return "", InvalidArgument("invalid task status %q", s)
	}
	return st, nil
}

func requireUser(db *gorm.DB, id uuid.UUID, what string) error {
	var count int64
	if err := db.Model(&models.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return storeError(err, "check "+what)
	}
	if count == 0 {
		return NotFound("%s not found", what)
	}
	return nil
}

func (s *TaskServiceImpl) CreateTask(db *gorm.DB, input CreateTaskInput, creatorID uuid.UUID) (*models.Task, error) {
	if _, err := s.authz.Authorize(db, input.ProjectID, creatorID, CapabilityRead); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, InvalidArgument("task title is required")
	}
	status := models.StatusTodo
	if input.Status != "" {
		st, err := parseStatus(input.Status)
		if err != nil {
			return nil, err
		}
		status = st
	}
	if input.AssigneeID != nil {
		if err := requireUser(db, *input.AssigneeID, "assignee"); err != nil {
			return nil, err
		}
	}

	task := &models.Task{
		Title:       title,
		Description: input.Description,
		Status:      status,
		ProjectID:   input.ProjectID,
		AssigneeID:  input.AssigneeID,
		CreatedBy:   creatorID,
		DueDate:     input.DueDate,
	}
	if err := db.Create(task).Error; err != nil {
		return nil, storeError(err, "create task")
	}

	monitoring.TasksCreatedTotal.Inc()
	return task, nil
}

// loadForCaller fetches the task and checks the caller may read its project.
func (s *TaskServiceImpl) loadForCaller(db *gorm.DB, id, callerID uuid.UUID) (*models.Task, error) {
	var task models.Task
	if err := db.First(&task, "id = ?", id).Error; err != nil {
		return nil, notFoundOr(err, "task")
	}
	if _, err := s.authz.Authorize(db, task.ProjectID, callerID, CapabilityRead); err != nil {
		return nil, err
	}
	return &task, nil
}

func (s *TaskServiceImpl) GetTask(db *gorm.DB, id, callerID uuid.UUID) (*models.Task, error) {
	if _, err := s.loadForCaller(db, id, callerID); err != nil {
		return nil, err
	}
	return s.withDetails(db, id)
}

func (s *TaskServiceImpl) withDetails(db *gorm.DB, id uuid.UUID) (*models.Task, error) {
	var task models.Task
	err := db.Preload("Project").
		Preload("Assignee").
		Preload("Creator").
		First(&task, "id = ?", id).Error
	if err != nil {
		return nil, notFoundOr(err, "task")
	}
	return &task, nil
}

func (s *TaskServiceImpl) reload(db *gorm.DB, id uuid.UUID) (*models.Task, error) {
	var task models.Task
	if err := db.First(&task, "id = ?", id).Error; err != nil {
		return nil, notFoundOr(err, "task")
	}
	return &task, nil
}

func (s *TaskServiceImpl) UpdateTask(db *gorm.DB, id uuid.UUID, input UpdateTaskInput, callerID uuid.UUID) (*models.Task, error) {
	task, err := s.loadForCaller(db, id, callerID)
	if err != nil {
		return nil, err
	}
	if !task.CanModify(callerID) {
		return nil, Forbidden("only task creator or assignee can update task")
	}

	updates := map[string]interface{}{}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, InvalidArgument("task title cannot be empty")
		}
		updates["title"] = title
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	newStatus := task.Status
	if input.Status != nil {
		st, err := parseStatus(*input.Status)
		if err != nil {
			return nil, err
		}
		updates["status"] = st
		newStatus = st
	}
	if input.AssigneeID != nil {
		if err := requireUser(db, *input.AssigneeID, "assignee"); err != nil {
			return nil, err
		}
		updates["assignee_id"] = *input.AssigneeID
	}
	if input.DueDate != nil {
		updates["due_date"] = *input.DueDate
	}
	if len(updates) == 0 {
		return task, nil
	}

	if err := db.Model(task).Updates(updates).Error; err != nil {
		return nil, storeError(err, "update task")
	}
	if newStatus != task.Status {
		monitoring.TaskStatusChangesTotal.WithLabelValues(string(newStatus)).Inc()
	}
	return s.reload(db, id)
}

func (s *TaskServiceImpl) UpdateStatus(db *gorm.DB, id uuid.UUID, status string, callerID uuid.UUID) (*models.Task, error) {
	task, err := s.loadForCaller(db, id, callerID)
	if err != nil {
		return nil, err
	}
	if !task.CanModify(callerID) {
		return nil, Forbidden("only task creator or assignee can update task status")
	}
	st, err := parseStatus(status)
	if err != nil {
		return nil, err
	}

	if err := db.Model(task).Update("status", st).Error; err != nil {
		return nil, storeError(err, "update task status")
	}
	if st != task.Status {
		monitoring.TaskStatusChangesTotal.WithLabelValues(string(st)).Inc()
	}
	return s.reload(db, id)
}

// Assign is reserved to the task's creator; an assignee cannot hand the
// task on.
func (s *TaskServiceImpl) Assign(db *gorm.DB, id, assigneeID, callerID uuid.UUID) (*models.Task, error) {
	task, err := s.loadForCaller(db, id, callerID)
	if err != nil {
		return nil, err
	}
	if task.CreatedBy != callerID {
		return nil, Forbidden("only task creator can assign task")
	}
	if err := requireUser(db, assigneeID, "assignee"); err != nil {
		return nil, err
	}

	if err := db.Model(task).Update("assignee_id", assigneeID).Error; err != nil {
		return nil, storeError(err, "assign task")
	}
	return s.reload(db, id)
}

func (s *TaskServiceImpl) DeleteTask(db *gorm.DB, id, callerID uuid.UUID) error {
	task, err := s.loadForCaller(db, id, callerID)
	if err != nil {
		return err
	}
	if task.CreatedBy != callerID {
		return Forbidden("only task creator can delete task")
	}
	if err := db.Delete(task).Error; err != nil {
		return storeError(err, "delete task")
	}
	return nil
}

// ListTasks applies every non-nil filter conjunctively. Results are limited
// to projects the caller is a member of; naming another project is Forbidden.
func (s *TaskServiceImpl) ListTasks(db *gorm.DB, filter TaskFilter, callerID uuid.UUID, page Page) ([]models.Task, error) {
	q := db.Model(&models.Task{})
	if filter.ProjectID != nil {
		if _, err := s.authz.Authorize(db, *filter.ProjectID, callerID, CapabilityRead); err != nil {
			return nil, err
		}
		q = q.Where("project_id = ?", *filter.ProjectID)
	} else {
		memberOf := db.Model(&models.ProjectMember{}).Select("project_id").Where("user_id = ?", callerID)
		q = q.Where("project_id IN (?)", memberOf)
	}
	if filter.AssigneeID != nil {
		q = q.Where("assignee_id = ?", *filter.AssigneeID)
	}
	if filter.Status != nil {
		q = q.Where("status = ?", *filter.Status)
	}
	return s.find(q, page, "list tasks")
}

func (s *TaskServiceImpl) ListProjectTasks(db *gorm.DB, projectID, callerID uuid.UUID, page Page) ([]models.Task, error) {
	if _, err := s.authz.Authorize(db, projectID, callerID, CapabilityRead); err != nil {
		return nil, err
	}
	return s.find(db.Where("project_id = ?", projectID), page, "list project tasks")
}

// ListForUser returns tasks the user created or is assigned to.
func (s *TaskServiceImpl) ListForUser(db *gorm.DB, userID uuid.UUID, page Page) ([]models.Task, error) {
	return s.find(db.Where("created_by = ? OR assignee_id = ?", userID, userID), page, "list user tasks")
}

func (s *TaskServiceImpl) find(q *gorm.DB, page Page, op string) ([]models.Task, error) {
	var tasks []models.Task
	if err := page.scope(q.Order("created_at DESC")).Find(&tasks).Error; err != nil {
		return nil, storeError(err, op)
	}
	return tasks, nil
}
