package services

import (
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"

	"insight-flow/backend/internal/models"
	"insight-flow/backend/internal/monitoring"
)

type CreateProjectInput struct {
	Name        string
	Description *string
}

type UpdateProjectInput struct {
	Name        *string
	Description *string
	IsActive    *bool
}

type ProjectService interface {
	CreateProject(db *gorm.DB, input CreateProjectInput, ownerID uuid.UUID) (*models.Project, error)
	GetProject(db *gorm.DB, id, callerID uuid.UUID) (*models.Project, error)
	UpdateProject(db *gorm.DB, id uuid.UUID, input UpdateProjectInput, callerID uuid.UUID) (*models.Project, error)
	DeleteProject(db *gorm.DB, id, callerID uuid.UUID) error
	ListProjects(db *gorm.DB, callerID uuid.UUID, onlyMine bool, page Page) ([]models.Project, error)

	ListMembers(db *gorm.DB, projectID, callerID uuid.UUID) ([]models.ProjectMember, error)
	AddMember(db *gorm.DB, projectID, userID uuid.UUID, role models.MemberRole, callerID uuid.UUID) (*models.ProjectMember, error)
	RemoveMember(db *gorm.DB, projectID, userID, callerID uuid.UUID) error
	UpdateMemberRole(db *gorm.DB, projectID, userID uuid.UUID, role models.MemberRole, callerID uuid.UUID) (*models.ProjectMember, error)
}

type ProjectServiceImpl struct {
	authz Authorizer
}

func NewProjectService(authz Authorizer) *ProjectServiceImpl {
	return &ProjectServiceImpl{authz: authz}
}

// CreateProject inserts the project and its owner's OWNER membership
// atomically.
func (s *ProjectServiceImpl) CreateProject(db *gorm.DB, input CreateProjectInput, ownerID uuid.UUID) (*models.Project, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, InvalidArgument("project name is required")
	}

	project := &models.Project{
		Name:        name,
		Description: input.Description,
		OwnerID:     ownerID,
		IsActive:    true,
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		var owners int64
		if err := tx.Model(&models.User{}).Where("id = ?", ownerID).Count(&owners).Error; err != nil {
			return storeError(err, "check owner")
		}
		if owners == 0 {
			return NotFound("user not found")
		}
		if err := tx.Create(project).Error; err != nil {
			return storeError(err, "create project")
		}
		member := &models.ProjectMember{
			ProjectID: project.ID,
			UserID:    ownerID,
			Role:      models.RoleOwner,
			JoinedAt:  time.Now().UTC(),
		}
		if err := tx.Create(member).Error; err != nil {
			return storeError(err, "create owner membership")
		}
		project.Members = []models.ProjectMember{*member}
		return nil
	})
	if err != nil {
		return nil, err
	}

	monitoring.ProjectsCreatedTotal.Inc()
	return project, nil
}

func (s *ProjectServiceImpl) GetProject(db *gorm.DB, id, callerID uuid.UUID) (*models.Project, error) {
	project, err := s.authz.Authorize(db, id, callerID, CapabilityRead)
	if err != nil {
		return nil, err
	}
	members, err := s.members(db, id)
	if err != nil {
		return nil, err
	}
	project.Members = members
	return project, nil
}

func (s *ProjectServiceImpl) UpdateProject(db *gorm.DB, id uuid.UUID, input UpdateProjectInput, callerID uuid.UUID) (*models.Project, error) {
	project, err := s.authz.Authorize(db, id, callerID, CapabilityManage)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, InvalidArgument("project name cannot be empty")
		}
		updates["name"] = name
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if len(updates) == 0 {
		return project, nil
	}

	if err := db.Model(project).Updates(updates).Error; err != nil {
		return nil, storeError(err, "update project")
	}
	var updated models.Project
	if err := db.First(&updated, "id = ?", id).Error; err != nil {
		return nil, notFoundOr(err, "project")
	}
	return &updated, nil
}

// DeleteProject removes the project with its memberships and tasks.
func (s *ProjectServiceImpl) DeleteProject(db *gorm.DB, id, callerID uuid.UUID) error {
	if _, err := s.authz.Authorize(db, id, callerID, CapabilityOwn); err != nil {
		return err
	}
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", id).Delete(&models.Task{}).Error; err != nil {
			return storeError(err, "delete project tasks")
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.ProjectMember{}).Error; err != nil {
			return storeError(err, "delete project members")
		}
		if err := tx.Delete(&models.Project{}, "id = ?", id).Error; err != nil {
			return storeError(err, "delete project")
		}
		return nil
	})
}

// ListProjects returns every project unless onlyMine restricts the result
// to projects the caller owns or belongs to.
func (s *ProjectServiceImpl) ListProjects(db *gorm.DB, callerID uuid.UUID, onlyMine bool, page Page) ([]models.Project, error) {
	q := db.Model(&models.Project{})
	if onlyMine {
		memberOf := db.Model(&models.ProjectMember{}).Select("project_id").Where("user_id = ?", callerID)
		q = q.Where("owner_id = ? OR id IN (?)", callerID, memberOf)
	}

	var projects []models.Project
	if err := page.scope(q.Order("created_at DESC")).Find(&projects).Error; err != nil {
		return nil, storeError(err, "list projects")
	}
	return projects, nil
}

func (s *ProjectServiceImpl) ListMembers(db *gorm.DB, projectID, callerID uuid.UUID) ([]models.ProjectMember, error) {
	if _, err := s.authz.Authorize(db, projectID, callerID, CapabilityRead); err != nil {
		return nil, err
	}
	return s.members(db, projectID)
}

func (s *ProjectServiceImpl) members(db *gorm.DB, projectID uuid.UUID) ([]models.ProjectMember, error) {
	var members []models.ProjectMember
	err := db.Preload("User").
		Where("project_id = ?", projectID).
		Order("joined_at ASC").
		Find(&members).Error
	if err != nil {
		return nil, storeError(err, "list members")
	}
	return members, nil
}

// grantableRole rejects unknown roles and OWNER, which only project
// creation hands out.
func grantableRole(role models.MemberRole) error {
	if !role.Valid() {
		return InvalidArgument("invalid role %q", string(role))
	}
	if role == models.RoleOwner {
		return InvalidArgument("the owner role cannot be granted")
	}
	return nil
}

func (s *ProjectServiceImpl) AddMember(db *gorm.DB, projectID, userID uuid.UUID, role models.MemberRole, callerID uuid.UUID) (*models.ProjectMember, error) {
	if _, err := s.authz.Authorize(db, projectID, callerID, CapabilityManage); err != nil {
		return nil, err
	}
	if err := grantableRole(role); err != nil {
		return nil, err
	}

	var user models.User
	if err := db.First(&user, "id = ?", userID).Error; err != nil {
		return nil, notFoundOr(err, "user")
	}

	existing, err := s.authz.Membership(db, projectID, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, Conflict("user is already a project member")
	}

	member := &models.ProjectMember{
		ProjectID: projectID,
		UserID:    userID,
		Role:      role,
		JoinedAt:  time.Now().UTC(),
	}
	if err := db.Create(member).Error; err != nil {
		return nil, storeError(err, "add member")
	}
	member.User = &user
	return member, nil
}

func (s *ProjectServiceImpl) RemoveMember(db *gorm.DB, projectID, userID, callerID uuid.UUID) error {
	project, err := s.authz.Authorize(db, projectID, callerID, CapabilityManage)
	if err != nil {
		return err
	}
	if project.IsOwner(userID) {
		return Conflict("cannot remove project owner")
	}

	member, err := s.authz.Membership(db, projectID, userID)
	if err != nil {
		return err
	}
	if member == nil {
		return NotFound("member not found")
	}
	if err := db.Delete(member).Error; err != nil {
		return storeError(err, "remove member")
	}
	return nil
}

func (s *ProjectServiceImpl) UpdateMemberRole(db *gorm.DB, projectID, userID uuid.UUID, role models.MemberRole, callerID uuid.UUID) (*models.ProjectMember, error) {
	project, err := s.authz.Authorize(db, projectID, callerID, CapabilityOwn)
	if err != nil {
		return nil, err
	}
	if project.IsOwner(userID) {
		return nil, Conflict("cannot change owner's role")
	}

	member, err := s.authz.Membership(db, projectID, userID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, NotFound("member not found")
	}
	if err := grantableRole(role); err != nil {
		return nil, err
	}

	if err := db.Model(member).Update("role", role).Error; err != nil {
		return nil, storeError(err, "update member role")
	}
	member.Role = role
	return member, nil
}
