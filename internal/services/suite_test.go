package services_test

import (
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"insight-flow/backend/internal/database/dbtest"
	"insight-flow/backend/internal/models"
	"insight-flow/backend/internal/services"
)

// serviceSuite wires every service against a fresh in-memory database.
type serviceSuite struct {
	suite.Suite
	db *gorm.DB

	authz         *services.AuthorizerImpl
	users         *services.UserServiceImpl
	projects      *services.ProjectServiceImpl
	tasks         *services.TaskServiceImpl
	notifications *services.NotificationServiceImpl
	analytics     *services.AnalyticsServiceImpl

	seq int
}

func (s *serviceSuite) SetupTest() {
	s.db = dbtest.New(s.T())
	s.authz = services.NewAuthorizer()
	s.users = services.NewUserService(bcrypt.MinCost)
	s.projects = services.NewProjectService(s.authz)
	s.tasks = services.NewTaskService(s.authz)
	s.notifications = services.NewNotificationService()
	s.analytics = services.NewAnalyticsService(s.authz)
}

func (s *serviceSuite) newUser(name string) *models.User {
	s.seq++
	pw := "password123"
	u, err := s.users.CreateUser(s.db, services.CreateUserInput{
		Email:    fmt.Sprintf("%s%d@example.com", name, s.seq),
		Name:     name,
		Password: &pw,
	})
	s.Require().NoError(err)
	return u
}

func (s *serviceSuite) newProject(owner *models.User) *models.Project {
	p, err := s.projects.CreateProject(s.db, services.CreateProjectInput{Name: "Project " + owner.Name}, owner.ID)
	s.Require().NoError(err)
	return p
}

func (s *serviceSuite) addMember(p *models.Project, u *models.User, role models.MemberRole) {
	_, err := s.projects.AddMember(s.db, p.ID, u.ID, role, p.OwnerID)
	s.Require().NoError(err)
}

func (s *serviceSuite) newTask(p *models.Project, creator *models.User, assignee *models.User) *models.Task {
	in := services.CreateTaskInput{ProjectID: p.ID, Title: "Task"}
	if assignee != nil {
		in.AssigneeID = &assignee.ID
	}
	t, err := s.tasks.CreateTask(s.db, in, creator.ID)
	s.Require().NoError(err)
	return t
}

func (s *serviceSuite) requireKind(err error, kind services.Kind) {
	s.T().Helper()
	s.Require().Error(err)
	s.Equal(kind, services.KindOf(err), "got %v", err)
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

func randomID() uuid.UUID { return uuid.Must(uuid.NewV4()) }
