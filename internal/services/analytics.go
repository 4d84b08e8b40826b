package services

import (
	"time"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"

	"insight-flow/backend/internal/models"
)

type DashboardMetrics struct {
	ProjectID         uuid.UUID `json:"project_id"`
	TotalTasks        int64     `json:"total_tasks"`
	CompletedTasks    int64     `json:"completed_tasks"`
	InProgressTasks   int64     `json:"in_progress_tasks"`
	TodoTasks         int64     `json:"todo_tasks"`
	OverdueTasks      int64     `json:"overdue_tasks"`
	TotalMembers      int64     `json:"total_members"`
	ProductivityScore float64   `json:"productivity_score"`
}

type ProductivityPoint struct {
	Bucket    string `json:"bucket"`
	Created   int    `json:"created"`
	Completed int    `json:"completed"`
}

type ProductivityReport struct {
	ProjectID uuid.UUID           `json:"project_id"`
	Period    string              `json:"period"`
	GroupBy   string              `json:"group_by"`
	From      time.Time           `json:"from"`
	To        time.Time           `json:"to"`
	Data      []ProductivityPoint `json:"data"`
}

type Contribution struct {
	UserID         uuid.UUID         `json:"user_id"`
	Name           string            `json:"name"`
	Email          string            `json:"email"`
	Role           models.MemberRole `json:"role"`
	TasksCreated   int64             `json:"tasks_created"`
	TasksAssigned  int64             `json:"tasks_assigned"`
	TasksCompleted int64             `json:"tasks_completed"`
}

type ContributionReport struct {
	ProjectID     uuid.UUID      `json:"project_id"`
	Contributions []Contribution `json:"contributions"`
}

type AnalyticsService interface {
	Dashboard(db *gorm.DB, projectID, callerID uuid.UUID) (*DashboardMetrics, error)
	Productivity(db *gorm.DB, projectID, callerID uuid.UUID, period, groupBy string) (*ProductivityReport, error)
	Contributions(db *gorm.DB, projectID, callerID uuid.UUID) (*ContributionReport, error)
}

type AnalyticsServiceImpl struct {
	authz Authorizer
	now   func() time.Time
}

func NewAnalyticsService(authz Authorizer) *AnalyticsServiceImpl {
	return &AnalyticsServiceImpl{authz: authz, now: time.Now}
}

var periodDays = map[string]int{"7d": 7, "30d": 30, "90d": 90}

func (s *AnalyticsServiceImpl) Dashboard(db *gorm.DB, projectID, callerID uuid.UUID) (*DashboardMetrics, error) {
	if _, err := s.authz.Authorize(db, projectID, callerID, CapabilityRead); err != nil {
		return nil, err
	}

	var rows []struct {
		Status models.TaskStatus
		Count  int64
	}
	err := db.Model(&models.Task{}).
		Select("status, COUNT(*) AS count").
		Where("project_id = ?", projectID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, storeError(err, "count tasks")
	}

	m := &DashboardMetrics{ProjectID: projectID}
	for _, r := range rows {
		m.TotalTasks += r.Count
		switch r.Status {
		case models.StatusDone:
			m.CompletedTasks = r.Count
		case models.StatusInProgress:
			m.InProgressTasks = r.Count
		case models.StatusTodo:
			m.TodoTasks = r.Count
		}
	}

	if err := db.Model(&models.Task{}).
		Where("project_id = ? AND status <> ? AND due_date IS NOT NULL AND due_date < ?", projectID, models.StatusDone, s.now().UTC()).
		Count(&m.OverdueTasks).Error; err != nil {
		return nil, storeError(err, "count overdue tasks")
	}
	if err := db.Model(&models.ProjectMember{}).
		Where("project_id = ?", projectID).
		Count(&m.TotalMembers).Error; err != nil {
		return nil, storeError(err, "count members")
	}

	if m.TotalTasks > 0 {
		m.ProductivityScore = float64(m.CompletedTasks) / float64(m.TotalTasks) * 100
	}
	return m, nil
}

// Productivity buckets tasks created and tasks completed inside the period.
// A task counts as completed in the bucket of its last update while DONE.
func (s *AnalyticsServiceImpl) Productivity(db *gorm.DB, projectID, callerID uuid.UUID, period, groupBy string) (*ProductivityReport, error) {
	if _, err := s.authz.Authorize(db, projectID, callerID, CapabilityRead); err != nil {
		return nil, err
	}
	days, ok := periodDays[period]
	if !ok {
		return nil, InvalidArgument("period must be one of 7d, 30d, 90d")
	}
	if groupBy != "day" && groupBy != "week" && groupBy != "month" {
		return nil, InvalidArgument("group_by must be one of day, week, month")
	}

	now := s.now().UTC()
	from := truncateDay(now).AddDate(0, 0, -(days - 1))

	var tasks []models.Task
	err := db.Select("id", "status", "created_at", "updated_at").
		Where("project_id = ? AND (created_at >= ? OR (status = ? AND updated_at >= ?))",
			projectID, from, models.StatusDone, from).
		Find(&tasks).Error
	if err != nil {
		return nil, storeError(err, "load tasks")
	}

	var points []ProductivityPoint
	index := map[string]int{}
	for d := bucketStart(from, groupBy); !d.After(now); d = nextBucket(d, groupBy) {
		key := d.Format("2006-01-02")
		index[key] = len(points)
		points = append(points, ProductivityPoint{Bucket: key})
	}

	for _, t := range tasks {
		if c := t.CreatedAt.UTC(); !c.Before(from) {
			if i, ok := index[bucketStart(c, groupBy).Format("2006-01-02")]; ok {
				points[i].Created++
			}
		}
		if u := t.UpdatedAt.UTC(); t.Status == models.StatusDone && !u.Before(from) {
			if i, ok := index[bucketStart(u, groupBy).Format("2006-01-02")]; ok {
				points[i].Completed++
			}
		}
	}

	return &ProductivityReport{
		ProjectID: projectID,
		Period:    period,
		GroupBy:   groupBy,
		From:      from,
		To:        now,
		Data:      points,
	}, nil
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// bucketStart returns the first day of the bucket holding t. Weeks start on
// Monday.
func bucketStart(t time.Time, groupBy string) time.Time {
	d := truncateDay(t)
	switch groupBy {
	case "week":
		offset := (int(d.Weekday()) + 6) % 7
		return d.AddDate(0, 0, -offset)
	case "month":
		return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return d
	}
}

func nextBucket(t time.Time, groupBy string) time.Time {
	switch groupBy {
	case "week":
		return t.AddDate(0, 0, 7)
	case "month":
		return t.AddDate(0, 1, 0)
	default:
		return t.AddDate(0, 0, 1)
	}
}

func (s *AnalyticsServiceImpl) Contributions(db *gorm.DB, projectID, callerID uuid.UUID) (*ContributionReport, error) {
	if _, err := s.authz.Authorize(db, projectID, callerID, CapabilityRead); err != nil {
		return nil, err
	}

	var members []models.ProjectMember
	if err := db.Preload("User").
		Where("project_id = ?", projectID).
		Order("joined_at ASC").
		Find(&members).Error; err != nil {
		return nil, storeError(err, "list members")
	}

	type countRow struct {
		UserID    uuid.UUID
		Total     int64
		Completed int64
	}
	var created, assigned []countRow
	if err := db.Model(&models.Task{}).
		Select("created_by AS user_id, COUNT(*) AS total").
		Where("project_id = ?", projectID).
		Group("created_by").
		Scan(&created).Error; err != nil {
		return nil, storeError(err, "count created tasks")
	}
	if err := db.Model(&models.Task{}).
		Select("assignee_id AS user_id, COUNT(*) AS total, SUM(CASE WHEN status = ? THEN 1 ELSE 0 END) AS completed", models.StatusDone).
		Where("project_id = ? AND assignee_id IS NOT NULL", projectID).
		Group("assignee_id").
		Scan(&assigned).Error; err != nil {
		return nil, storeError(err, "count assigned tasks")
	}

	createdBy := make(map[uuid.UUID]int64, len(created))
	for _, r := range created {
		createdBy[r.UserID] = r.Total
	}
	assignedTo := make(map[uuid.UUID]countRow, len(assigned))
	for _, r := range assigned {
		assignedTo[r.UserID] = r
	}

	report := &ContributionReport{ProjectID: projectID, Contributions: make([]Contribution, 0, len(members))}
	for _, m := range members {
		c := Contribution{
			UserID:         m.UserID,
			Role:           m.Role,
			TasksCreated:   createdBy[m.UserID],
			TasksAssigned:  assignedTo[m.UserID].Total,
			TasksCompleted: assignedTo[m.UserID].Completed,
		}
		if m.User != nil {
			c.Name = m.User.Name
			c.Email = m.User.Email
		}
		report.Contributions = append(report.Contributions, c)
	}
	return report, nil
}
