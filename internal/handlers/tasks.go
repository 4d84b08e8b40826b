package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"

	"insight-flow/backend/internal/models"
	"insight-flow/backend/internal/services"
)

type TaskHandler struct {
	tasks services.TaskService
}

func NewTaskHandler(tasks services.TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

type createTaskRequest struct {
	Title       string     `json:"title" binding:"required,max=255"`
	Description *string    `json:"description"`
	ProjectID   uuid.UUID  `json:"project_id" binding:"required"`
	AssigneeID  *uuid.UUID `json:"assignee_id"`
	DueDate     *time.Time `json:"due_date"`
	Status      string     `json:"status" binding:"omitempty,task_status"`
}

type updateTaskRequest struct {
	Title       *string    `json:"title" binding:"omitempty,min=1,max=255"`
	Description *string    `json:"description"`
	Status      *string    `json:"status" binding:"omitempty,task_status"`
	AssigneeID  *uuid.UUID `json:"assignee_id"`
	DueDate     *time.Time `json:"due_date"`
}

type taskStatusRequest struct {
	Status string `json:"status" binding:"required,task_status"`
}

type assignTaskRequest struct {
	AssigneeID uuid.UUID `json:"assignee_id" binding:"required"`
}

// ListTasks filters the caller's projects by project_id, assignee_id and status. my_tasks=true
// lists what the caller created or was assigned instead.
func (h *TaskHandler) ListTasks(c *gin.Context) {
	page, ok := pageParams(c)
	if !ok {
		return
	}
	mine, ok := boolQuery(c, "my_tasks")
	if !ok {
		return
	}
	projectID, ok := uuidQuery(c, "project_id")
	if !ok {
		return
	}
	assigneeID, ok := uuidQuery(c, "assignee_id")
	if !ok {
		return
	}
	filter := services.TaskFilter{ProjectID: projectID, AssigneeID: assigneeID}
	if raw := c.Query("status"); raw != "" {
		st, err := models.ParseTaskStatus(raw)
		if err != nil {
			badRequest(c, "invalid task status")
			return
		}
		filter.Status = &st
	}
	caller, ok := currentUser(c)
	if !ok {
		return
	}
	db, ok := requestDB(c)
	if !ok {
		return
	}

	var (
		tasks []models.Task
		err   error
	)
	if mine {
		tasks, err = h.tasks.ListForUser(db, caller.ID, page)
	} else {
		tasks, err = h.tasks.ListTasks(db, filter, caller.ID, page)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func (h *TaskHandler) CreateTask(c *gin.Context) {
	var req createTaskRequest
	if !bindJSON(c, &req) {
		return
	}
	caller, ok := currentUser(c)
	if !ok {
		return
	}
	db, ok := requestDB(c)
	if !ok {
		return
	}

	task, err := h.tasks.CreateTask(db, services.CreateTaskInput{
		ProjectID:   req.ProjectID,
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		AssigneeID:  req.AssigneeID,
		DueDate:     req.DueDate,
	}, caller.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) GetTask(c *gin.Context) {
	id, ok := uuidParam(c, "id", "task")
	if !ok {
		return
	}
	caller, ok := currentUser(c)
	if !ok {
		return
	}
	db, ok := requestDB(c)
	if !ok {
		return
	}

	task, err := h.tasks.GetTask(db, id, caller.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) UpdateTask(c *gin.Context) {
	id, ok := uuidParam(c, "id", "task")
	if !ok {
		return
	}
	var req updateTaskRequest
	if !bindJSON(c, &req) {
		return
	}
	caller, ok := currentUser(c)
	if !ok {
		return
	}
	db, ok := requestDB(c)
	if !ok {
		return
	}

	task, err := h.tasks.UpdateTask(db, id, services.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		AssigneeID:  req.AssigneeID,
		DueDate:     req.DueDate,
	}, caller.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) DeleteTask(c *gin.Context) {
	id, ok := uuidParam(c, "id", "task")
	if !ok {
		return
	}
	caller, ok := currentUser(c)
	if !ok {
		return
	}
	db, ok := requestDB(c)
	if !ok {
		return
	}

	if err := h.tasks.DeleteTask(db, id, caller.ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully"})
}

func (h *TaskHandler) UpdateStatus(c *gin.Context) {
	id, ok := uuidParam(c, "id", "task")
	if !ok {
		return
	}
	var req taskStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	caller, ok := currentUser(c)
	if !ok {
		return
	}
	db, ok := requestDB(c)
	if !ok {
		return
	}

	task, err := h.tasks.UpdateStatus(db, id, req.Status, caller.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) AssignTask(c *gin.Context) {
	id, ok := uuidParam(c, "id", "task")
	if !ok {
		return
	}
	var req assignTaskRequest
	if !bindJSON(c, &req) {
		return
	}
	caller, ok := currentUser(c)
	if !ok {
		return
	}
	db, ok := requestDB(c)
	if !ok {
		return
	}

	task, err := h.tasks.Assign(db, id, req.AssigneeID, caller.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) ListProjectTasks(c *gin.Context) {
	projectID, ok := uuidParam(c, "id", "project")
	if !ok {
		return
	}
	page, ok := pageParams(c)
	if !ok {
		return
	}
	caller, ok := currentUser(c)
	if !ok {
		return
	}
	db, ok := requestDB(c)
	if !ok {
		return
	}

	tasks, err := h.tasks.ListProjectTasks(db, projectID, caller.ID, page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func (h *TaskHandler) ListMyTasks(c *gin.Context) {
	page, ok := pageParams(c)
	if !ok {
		return
	}
	caller, ok := currentUser(c)
	if !ok {
		return
	}
	db, ok := requestDB(c)
	if !ok {
		return
	}

	tasks, err := h.tasks.ListForUser(db, caller.ID, page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}
