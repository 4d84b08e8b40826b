package services

import (
	"strings"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"

	"insight-flow/backend/internal/auth"
	"insight-flow/backend/internal/models"
)

type CreateUserInput struct {
	Email      string
	Name       string
	Password   *string
	AvatarURL  *string
	ExternalID *string
}

// UpdateUserInput carries only the fields to change. Nil means untouched.
type UpdateUserInput struct {
	Name      *string
	AvatarURL *string
}

type UserService interface {
	GetUserByID(db *gorm.DB, id uuid.UUID) (*models.User, error)
	GetUserByEmail(db *gorm.DB, email string) (*models.User, error)
	GetUserByExternalID(db *gorm.DB, externalID string) (*models.User, error)
	GetUsers(db *gorm.DB, page Page) ([]models.User, error)
	CreateUser(db *gorm.DB, input CreateUserInput) (*models.User, error)
	Authenticate(db *gorm.DB, email, password string) (*models.User, error)
	UpdateUser(db *gorm.DB, id uuid.UUID, input UpdateUserInput) (*models.User, error)
	DeleteUser(db *gorm.DB, id, callerID uuid.UUID) error
	UpsertExternalUser(db *gorm.DB, externalID, email, name string, avatarURL *string) (*models.User, error)
}

type UserServiceImpl struct {
	bcryptCost int
}

func NewUserService(bcryptCost int) *UserServiceImpl {
	return &UserServiceImpl{bcryptCost: bcryptCost}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *UserServiceImpl) GetUserByID(db *gorm.DB, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := db.First(&user, "id = ?", id).Error; err != nil {
		return nil, notFoundOr(err, "user")
	}
	return &user, nil
}

func (s *UserServiceImpl) GetUserByEmail(db *gorm.DB, email string) (*models.User, error) {
	var user models.User
	if err := db.Where("email = ?", normalizeEmail(email)).First(&user).Error; err != nil {
		return nil, notFoundOr(err, "user")
	}
	return &user, nil
}

func (s *UserServiceImpl) GetUserByExternalID(db *gorm.DB, externalID string) (*models.User, error) {
	var user models.User
	if err := db.Where("external_id = ?", externalID).First(&user).Error; err != nil {
		return nil, notFoundOr(err, "user")
	}
	return &user, nil
}

func (s *UserServiceImpl) GetUsers(db *gorm.DB, page Page) ([]models.User, error) {
	var users []models.User
	if err := page.scope(db.Order("created_at ASC")).Find(&users).Error; err != nil {
		return nil, storeError(err, "list users")
	}
	return users, nil
}

func (s *UserServiceImpl) CreateUser(db *gorm.DB, input CreateUserInput) (*models.User, error) {
	hasPassword := input.Password != nil && *input.Password != ""
	hasExternal := input.ExternalID != nil && *input.ExternalID != ""
	if !hasPassword && !hasExternal {
		return nil, InvalidArgument("a password or an external identity is required")
	}

	email := normalizeEmail(input.Email)
	if err := s.ensureUnique(db, email, input.ExternalID); err != nil {
		return nil, err
	}

	user := &models.User{
		Email:     email,
		Name:      strings.TrimSpace(input.Name),
		AvatarURL: input.AvatarURL,
		IsActive:  true,
	}
	if hasExternal {
		user.ExternalID = input.ExternalID
	}
	if hasPassword {
		hash, err := auth.HashPassword(*input.Password, s.bcryptCost)
		if err != nil {
			return nil, InvalidArgument("password cannot be hashed: %v", err)
		}
		user.HashedPassword = &hash
	}

	if err := db.Create(user).Error; err != nil {
		return nil, storeError(err, "create user")
	}
	return user, nil
}

func (s *UserServiceImpl) ensureUnique(db *gorm.DB, email string, externalID *string) error {
	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return storeError(err, "check email")
	}
	if count > 0 {
		return Conflict("email already registered")
	}
	if externalID == nil || *externalID == "" {
		return nil
	}
	if err := db.Model(&models.User{}).Where("external_id = ?", *externalID).Count(&count).Error; err != nil {
		return storeError(err, "check external identity")
	}
	if count > 0 {
		return Conflict("external account already linked")
	}
	return nil
}

func (s *UserServiceImpl) Authenticate(db *gorm.DB, email, password string) (*models.User, error) {
	user, err := s.GetUserByEmail(db, email)
	if KindOf(err) == KindNotFound {
		return nil, Unauthenticated("incorrect email or password")
	}
	if err != nil {
		return nil, err
	}
	if !user.HasPassword() || !auth.VerifyPassword(password, *user.HashedPassword) {
		return nil, Unauthenticated("incorrect email or password")
	}
	return user, nil
}

func (s *UserServiceImpl) UpdateUser(db *gorm.DB, id uuid.UUID, input UpdateUserInput) (*models.User, error) {
	user, err := s.GetUserByID(db, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if input.Name != nil {
		updates["name"] = strings.TrimSpace(*input.Name)
	}
	if input.AvatarURL != nil {
		updates["avatar_url"] = *input.AvatarURL
	}
	if len(updates) == 0 {
		return user, nil
	}
	if err := db.Model(user).Updates(updates).Error; err != nil {
		return nil, storeError(err, "update user")
	}
	return s.GetUserByID(db, id)
}

// DeleteUser removes the user together with the projects they own, their
// memberships and notifications. Tasks assigned to them become unassigned.
// Tasks they created in projects owned by someone else block the delete.
func (s *UserServiceImpl) DeleteUser(db *gorm.DB, id, callerID uuid.UUID) error {
	if _, err := s.GetUserByID(db, id); err != nil {
		return err
	}
	if id == callerID {
		return Conflict("cannot delete your own account")
	}

	return db.Transaction(func(tx *gorm.DB) error {
		owned := tx.Model(&models.Project{}).Select("id").Where("owner_id = ?", id)

		var foreign int64
		if err := tx.Model(&models.Task{}).
			Where("created_by = ? AND project_id NOT IN (?)", id, owned).
			Count(&foreign).Error; err != nil {
			return storeError(err, "check user tasks")
		}
		if foreign > 0 {
			return Conflict("cannot delete user - user has associated data")
		}

		steps := []struct {
			op  string
			run func() error
		}{
			{"delete owned tasks", func() error {
				return tx.Where("project_id IN (?)", owned).Delete(&models.Task{}).Error
			}},
			{"delete memberships", func() error {
				return tx.Where("user_id = ? OR project_id IN (?)", id, owned).Delete(&models.ProjectMember{}).Error
			}},
			{"delete owned projects", func() error {
				return tx.Where("owner_id = ?", id).Delete(&models.Project{}).Error
			}},
			{"unassign tasks", func() error {
				return tx.Model(&models.Task{}).Where("assignee_id = ?", id).Update("assignee_id", nil).Error
			}},
			{"delete notifications", func() error {
				return tx.Where("user_id = ?", id).Delete(&models.Notification{}).Error
			}},
			{"delete user", func() error {
				return tx.Delete(&models.User{}, "id = ?", id).Error
			}},
		}
		for _, step := range steps {
			if err := step.run(); err != nil {
				return storeError(err, step.op)
			}
		}
		return nil
	})
}

// UpsertExternalUser links an external identity assertion to a user: the
// user already holding externalID is refreshed, otherwise a user with the
// same email is linked, otherwise a new user is created.
func (s *UserServiceImpl) UpsertExternalUser(db *gorm.DB, externalID, email, name string, avatarURL *string) (*models.User, error) {
	if externalID == "" {
		return nil, InvalidArgument("external identity is required")
	}
	email = normalizeEmail(email)

	user, err := s.GetUserByExternalID(db, externalID)
	switch {
	case err == nil:
		updates := map[string]interface{}{"email": email, "name": name}
		if avatarURL != nil && *avatarURL != "" {
			updates["avatar_url"] = *avatarURL
		}
		if err := db.Model(user).Updates(updates).Error; err != nil {
			return nil, storeError(err, "refresh external user")
		}
		return s.GetUserByID(db, user.ID)
	case KindOf(err) != KindNotFound:
		return nil, err
	}

	user, err = s.GetUserByEmail(db, email)
	switch {
	case err == nil:
		updates := map[string]interface{}{"external_id": externalID, "name": name}
		if avatarURL != nil && *avatarURL != "" {
			updates["avatar_url"] = *avatarURL
		}
		if err := db.Model(user).Updates(updates).Error; err != nil {
			return nil, storeError(err, "link external user")
		}
		return s.GetUserByID(db, user.ID)
	case KindOf(err) != KindNotFound:
		return nil, err
	}

	return s.CreateUser(db, CreateUserInput{
		Email:      email,
		Name:       name,
		AvatarURL:  avatarURL,
		ExternalID: &externalID,
	})
}
