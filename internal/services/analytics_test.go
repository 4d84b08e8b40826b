package services_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"insight-flow/backend/internal/models"
	"insight-flow/backend/internal/services"
)

type AnalyticsServiceTestSuite struct {
	serviceSuite
	owner   *models.User
	member  *models.User
	project *models.Project
}

func TestAnalyticsServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AnalyticsServiceTestSuite))
}

func (s *AnalyticsServiceTestSuite) SetupTest() {
	s.serviceSuite.SetupTest()
	s.owner = s.newUser("owner")
	s.member = s.newUser("member")
	s.project = s.newProject(s.owner)
	s.addMember(s.project, s.member, models.RoleMember)
}

func (s *AnalyticsServiceTestSuite) TestDashboard_Empty() {
	m, err := s.analytics.Dashboard(s.db, s.project.ID, s.member.ID)
	s.Require().NoError(err)
	s.Zero(m.TotalTasks)
	s.EqualValues(2, m.TotalMembers)
	s.Zero(m.ProductivityScore)
}

func (s *AnalyticsServiceTestSuite) TestDashboard() {
	done := s.newTask(s.project, s.owner, s.member)
	s.newTask(s.project, s.owner, nil)
	inProgress := s.newTask(s.project, s.member, nil)
	overdue := s.newTask(s.project, s.owner, nil)
	_, err := s.tasks.UpdateStatus(s.db, done.ID, "done", s.member.ID)
	s.Require().NoError(err)
	_, err = s.tasks.UpdateStatus(s.db, inProgress.ID, "in_progress", s.member.ID)
	s.Require().NoError(err)
	past := time.Now().Add(-24 * time.Hour)
	_, err = s.tasks.UpdateTask(s.db, overdue.ID, services.UpdateTaskInput{DueDate: &past}, s.owner.ID)
	s.Require().NoError(err)

	m, err := s.analytics.Dashboard(s.db, s.project.ID, s.owner.ID)
	s.Require().NoError(err)
	s.EqualValues(4, m.TotalTasks)
	s.EqualValues(1, m.CompletedTasks)
	s.EqualValues(1, m.InProgressTasks)
	s.EqualValues(2, m.TodoTasks)
	s.EqualValues(1, m.OverdueTasks)
	s.InDelta(25.0, m.ProductivityScore, 0.001)
}

func (s *AnalyticsServiceTestSuite) TestAccessControl() {
	stranger := s.newUser("stranger")

	_, err := s.analytics.Dashboard(s.db, s.project.ID, stranger.ID)
	s.requireKind(err, services.KindForbidden)
	_, err = s.analytics.Productivity(s.db, s.project.ID, stranger.ID, "7d", "day")
	s.requireKind(err, services.KindForbidden)
	_, err = s.analytics.Contributions(s.db, s.project.ID, stranger.ID)
	s.requireKind(err, services.KindForbidden)
	_, err = s.analytics.Dashboard(s.db, randomID(), s.owner.ID)
	s.requireKind(err, services.KindNotFound)
}

func (s *AnalyticsServiceTestSuite) TestProductivity() {
	t1 := s.newTask(s.project, s.owner, nil)
	s.newTask(s.project, s.owner, nil)
	_, err := s.tasks.UpdateStatus(s.db, t1.ID, "done", s.owner.ID)
	s.Require().NoError(err)

	report, err := s.analytics.Productivity(s.db, s.project.ID, s.owner.ID, "7d", "day")
	s.Require().NoError(err)
	s.Equal("7d", report.Period)
	s.Len(report.Data, 7)

	today := report.Data[len(report.Data)-1]
	s.Equal(time.Now().UTC().Format("2006-01-02"), today.Bucket)
	s.Equal(2, today.Created)
	s.Equal(1, today.Completed)

	created, completed := 0, 0
	for _, p := range report.Data {
		created += p.Created
		completed += p.Completed
	}
	s.Equal(2, created)
	s.Equal(1, completed)

	monthly, err := s.analytics.Productivity(s.db, s.project.ID, s.owner.ID, "90d", "month")
	s.Require().NoError(err)
	s.GreaterOrEqual(len(monthly.Data), 3)
	s.LessOrEqual(len(monthly.Data), 4)

	weekly, err := s.analytics.Productivity(s.db, s.project.ID, s.owner.ID, "30d", "week")
	s.Require().NoError(err)
	for _, p := range weekly.Data {
		d, err := time.Parse("2006-01-02", p.Bucket)
		s.Require().NoError(err)
		s.Equal(time.Monday, d.Weekday())
	}
}

func (s *AnalyticsServiceTestSuite) TestProductivity_InvalidArguments() {
	_, err := s.analytics.Productivity(s.db, s.project.ID, s.owner.ID, "1y", "day")
	s.requireKind(err, services.KindInvalidArgument)
	_, err = s.analytics.Productivity(s.db, s.project.ID, s.owner.ID, "30d", "hour")
	s.requireKind(err, services.KindInvalidArgument)
}

func (s *AnalyticsServiceTestSuite) TestContributions() {
	a := s.newTask(s.project, s.owner, s.member)
	s.newTask(s.project, s.owner, s.member)
	s.newTask(s.project, s.member, nil)
	_, err := s.tasks.UpdateStatus(s.db, a.ID, "done", s.member.ID)
	s.Require().NoError(err)

	report, err := s.analytics.Contributions(s.db, s.project.ID, s.owner.ID)
	s.Require().NoError(err)
	s.Require().Len(report.Contributions, 2)

	byUser := map[string]services.Contribution{}
	for _, c := range report.Contributions {
		byUser[c.UserID.String()] = c
	}
	owner := byUser[s.owner.ID.String()]
	s.Equal(models.RoleOwner, owner.Role)
	s.EqualValues(2, owner.TasksCreated)
	s.Zero(owner.TasksAssigned)

	member := byUser[s.member.ID.String()]
	s.Equal(s.member.Email, member.Email)
	s.EqualValues(1, member.TasksCreated)
	s.EqualValues(2, member.TasksAssigned)
	s.EqualValues(1, member.TasksCompleted)
}
