package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"buildtrack/internal/models"
)

func TestTaskProgressSumsOnlyApproved(t *testing.T) {
	updates := []models.ProgressUpdate{
		{ProgressPercent: 30, Status: models.UpdateApproved},
		{ProgressPercent: 50, Status: models.UpdateApproved},
		{ProgressPercent: 25, Status: models.UpdatePending},
		{ProgressPercent: 40, Status: models.UpdateRejected},
	}
	assert.Equal(t, 80.0, TaskProgress(updates))
}

func TestTaskProgressClampsAt100(t *testing.T) {
	updates := []models.ProgressUpdate{
		{ProgressPercent: 60, Status: models.UpdateApproved},
		{ProgressPercent: 70, Status: models.UpdateApproved},
	}
	assert.Equal(t, 100.0, TaskProgress(updates))
}

func TestTaskProgressEmpty(t *testing.T) {
	assert.Equal(t, 0.0, TaskProgress(nil))
}

func TestTaskStatusFor(t *testing.T) {
	assert.Equal(t, models.TaskPlanned, TaskStatusFor(0))
	assert.Equal(t, models.TaskOngoing, TaskStatusFor(0.5))
	assert.Equal(t, models.TaskOngoing, TaskStatusFor(99.99))
	assert.Equal(t, models.TaskCompleted, TaskStatusFor(100))
}

func TestProjectProgressWeighted(t *testing.T) {
	tasks := []models.ProjectTask{
		{Weight: 50, Progress: 60},
		{Weight: 40, Progress: 100},
	}
	// 60*0.50 + 100*0.40
	assert.Equal(t, 70.0, ProjectProgress(tasks))
}

func TestProjectProgressNoTasks(t *testing.T) {
	assert.Equal(t, 0.0, ProjectProgress(nil))
}

func TestProjectProgressOverAllocatedWeightsCapped(t *testing.T) {
	tasks := []models.ProjectTask{
		{Weight: 80, Progress: 100},
		{Weight: 80, Progress: 100},
	}
	assert.Equal(t, 100.0, ProjectProgress(tasks))
}

func TestProjectStatusFor(t *testing.T) {
	assert.Equal(t, models.StatusPlanned, ProjectStatusFor(0, models.StatusPlanned))
	assert.Equal(t, models.StatusOngoing, ProjectStatusFor(40, models.StatusPlanned))
	assert.Equal(t, models.StatusCompleted, ProjectStatusFor(100, models.StatusOngoing))
}

func TestProjectStatusForKeepsCancelled(t *testing.T) {
	assert.Equal(t, models.StatusCancelled, ProjectStatusFor(100, models.StatusCancelled))
	assert.Equal(t, models.StatusCancelled, ProjectStatusFor(0, models.StatusCancelled))
}

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestPlanned(t *testing.T) {
	start := date(2025, 1, 1)
	target := date(2025, 1, 11)

	assert.Equal(t, 50.0, Planned(start, target, *date(2025, 1, 6)))
	assert.Equal(t, 100.0, Planned(start, target, *date(2025, 2, 1)))
	assert.Equal(t, 0.0, Planned(start, target, *date(2024, 12, 1)))
}

func TestPlannedMissingDates(t *testing.T) {
	today := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 0.0, Planned(nil, date(2025, 1, 11), today))
	assert.Equal(t, 0.0, Planned(date(2025, 1, 1), nil, today))
}

func TestPlannedSameDayWindow(t *testing.T) {
	// A zero-length timeline is treated as a single day.
	start := date(2025, 1, 1)
	assert.Equal(t, 100.0, Planned(start, start, *date(2025, 1, 2)))
	assert.Equal(t, 0.0, Planned(start, start, *date(2025, 1, 1)))
}
