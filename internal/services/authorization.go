package services

import (
	"errors"
	"time"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"

	"insight-flow/backend/internal/logger"
	"insight-flow/backend/internal/models"
	"insight-flow/backend/internal/monitoring"
)

// Capability is what a caller wants to do with a project.
type Capability string

const (
	// CapabilityRead requires a membership row.
	CapabilityRead Capability = "read"
	// CapabilityManage requires ownership or an OWNER/ADMIN membership.
	CapabilityManage Capability = "manage"
	// CapabilityOwn requires being the project's owner.
	CapabilityOwn Capability = "own"
)

const (
	DecisionAllowed = "allowed"
	DecisionDenied  = "denied"
)

type AuthorizationRequest struct {
	UserID     uuid.UUID
	Project    *models.Project
	Capability Capability
}

type AuthorizationDecision struct {
	UserID     uuid.UUID         `json:"user_id"`
	ProjectID  uuid.UUID         `json:"project_id"`
	Capability Capability        `json:"capability"`
	Decision   string            `json:"decision"`
	Reason     string            `json:"reason"`
	Role       models.MemberRole `json:"role,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
}

func (d *AuthorizationDecision) Allowed() bool {
	return d.Decision == DecisionAllowed
}

// Authorizer is the single place project access is decided. Every project,
// task and analytics operation goes through it.
type Authorizer interface {
	IsAuthorized(db *gorm.DB, req AuthorizationRequest) (*AuthorizationDecision, error)
	// Authorize loads the project and returns it when userID holds the
	// capability. It fails with NotFound or Forbidden otherwise.
	Authorize(db *gorm.DB, projectID, userID uuid.UUID, capability Capability) (*models.Project, error)
	Membership(db *gorm.DB, projectID, userID uuid.UUID) (*models.ProjectMember, error)
}

type AuthorizerImpl struct{}

func NewAuthorizer() *AuthorizerImpl {
	return &AuthorizerImpl{}
}

// Membership returns the caller's membership row or nil when there is none.
func (a *AuthorizerImpl) Membership(db *gorm.DB, projectID, userID uuid.UUID) (*models.ProjectMember, error) {
	var m models.ProjectMember
	err := db.Where("project_id = ? AND user_id = ?", projectID, userID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError(err, "load membership")
	}
	return &m, nil
}

func (a *AuthorizerImpl) IsAuthorized(db *gorm.DB, req AuthorizationRequest) (*AuthorizationDecision, error) {
	decision := &AuthorizationDecision{
		UserID:     req.UserID,
		ProjectID:  req.Project.ID,
		Capability: req.Capability,
		Decision:   DecisionDenied,
		Timestamp:  time.Now(),
	}

	isOwner := req.Project.IsOwner(req.UserID)
	if req.Capability == CapabilityOwn {
		if isOwner {
			decision.Decision = DecisionAllowed
			decision.Role = models.RoleOwner
			decision.Reason = "caller owns the project"
		} else {
			decision.Reason = "only the project owner can do this"
		}
		return decision, nil
	}

	member, err := a.Membership(db, req.Project.ID, req.UserID)
	if err != nil {
		decision.Reason = "membership lookup failed"
		return decision, err
	}
	if member != nil {
		decision.Role = member.Role
	}

	switch req.Capability {
	case CapabilityRead:
		if member != nil {
			decision.Decision = DecisionAllowed
			decision.Reason = "caller is a project member"
		} else {
			decision.Reason = "not a member of this project"
		}
	case CapabilityManage:
		if isOwner || (member != nil && member.Role.AtLeast(models.RoleAdmin)) {
			decision.Decision = DecisionAllowed
			decision.Reason = "caller is a project owner or admin"
		} else {
			decision.Reason = "only project owners or admins can do this"
		}
	default:
		decision.Reason = "unknown capability"
	}
	return decision, nil
}

func (a *AuthorizerImpl) Authorize(db *gorm.DB, projectID, userID uuid.UUID, capability Capability) (*models.Project, error) {
	var project models.Project
	if err := db.First(&project, "id = ?", projectID).Error; err != nil {
		return nil, notFoundOr(err, "project")
	}

	decision, err := a.IsAuthorized(db, AuthorizationRequest{
		UserID:     userID,
		Project:    &project,
		Capability: capability,
	})
	if err != nil {
		return nil, err
	}

	monitoring.AuthorizationDecisionsTotal.WithLabelValues(string(capability), decision.Decision).Inc()
	log := logger.Get()
	log.Debug().
		Str("user_id", userID.String()).
		Str("project_id", projectID.String()).
		Str("capability", string(capability)).
		Str("decision", decision.Decision).
		Str("reason", decision.Reason).
		Msg("authorization decision")

	if !decision.Allowed() {
		return nil, Forbidden("%s", decision.Reason)
	}
	return &project, nil
}
