package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"

	"insight-flow/backend/internal/models"
	"insight-flow/backend/internal/services"
)

type ProjectHandler struct {
	projects services.ProjectService
}

func NewProjectHandler(projects services.ProjectService) *ProjectHandler {
	return &ProjectHandler{projects: projects}
}

type createProjectRequest struct {
	Name        string  `json:"name" binding:"required,max=255"`
	Description *string `json:"description"`
}

type updateProjectRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=255"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
}

type addMemberRequest struct {
	UserID uuid.UUID `json:"user_id" binding:"required"`
	Role   string    `json:"role" binding:"required,role"`
}

type memberRoleRequest struct {
	Role string `json:"role" binding:"required,role"`
}

func (h *ProjectHandler) ListProjects(c *gin.Context) {
	page, ok := pageParams(c)
	if !ok {
		return
	}
	onlyMine, ok := boolQuery(c, "user_projects_only")
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

	projects, err := h.projects.ListProjects(db, caller.ID, onlyMine, page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, projects)
}

func (h *ProjectHandler) CreateProject(c *gin.Context) {
	var req createProjectRequest
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

	project, err := h.projects.CreateProject(db, services.CreateProjectInput{
		Name:        req.Name,
		Description: req.Description,
	}, caller.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

func (h *ProjectHandler) GetProject(c *gin.Context) {
	id, ok := uuidParam(c, "id", "project")
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

	project, err := h.projects.GetProject(db, id, caller.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	id, ok := uuidParam(c, "id", "project")
	if !ok {
		return
	}
	var req updateProjectRequest
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

	project, err := h.projects.UpdateProject(db, id, services.UpdateProjectInput{
		Name:        req.Name,
		Description: req.Description,
		IsActive:    req.IsActive,
	}, caller.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	id, ok := uuidParam(c, "id", "project")
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

	if err := h.projects.DeleteProject(db, id, caller.ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Project deleted successfully"})
}

func (h *ProjectHandler) ListMembers(c *gin.Context) {
	id, ok := uuidParam(c, "id", "project")
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

	members, err := h.projects.ListMembers(db, id, caller.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, members)
}

func (h *ProjectHandler) AddMember(c *gin.Context) {
	id, ok := uuidParam(c, "id", "project")
	if !ok {
		return
	}
	var req addMemberRequest
	if !bindJSON(c, &req) {
		return
	}
	role, err := models.ParseMemberRole(req.Role)
	if err != nil {
		badRequest(c, err.Error())
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

	member, err := h.projects.AddMember(db, id, req.UserID, role, caller.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, member)
}

func (h *ProjectHandler) RemoveMember(c *gin.Context) {
	id, ok := uuidParam(c, "id", "project")
	if !ok {
		return
	}
	userID, ok := uuidParam(c, "userId", "user")
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

	if err := h.projects.RemoveMember(db, id, userID, caller.ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Member removed successfully"})
}

// UpdateMemberRole takes the new role from the role query parameter or,
// when absent, from a JSON body.
func (h *ProjectHandler) UpdateMemberRole(c *gin.Context) {
	id, ok := uuidParam(c, "id", "project")
	if !ok {
		return
	}
	userID, ok := uuidParam(c, "userId", "user")
	if !ok {
		return
	}
	raw := c.Query("role")
	if raw == "" {
		var req memberRoleRequest
		if !bindJSON(c, &req) {
			return
		}
		raw = req.Role
	}
	role, err := models.ParseMemberRole(raw)
	if err != nil {
		badRequest(c, err.Error())
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

	member, err := h.projects.UpdateMemberRole(db, id, userID, role, caller.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, member)
}
