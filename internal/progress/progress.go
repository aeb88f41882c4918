package progress

import (
	"math"
	"time"

	"buildtrack/internal/models"
)

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// TaskProgress sums the approved contributions and clamps to 100. Updates
// are incremental: each approved report is additional work completed since
// the previous approval, so approving more can never lower the figure.
func TaskProgress(updates []models.ProgressUpdate) float64 {
	var total float64
	for _, u := range updates {
		if u.Status == models.UpdateApproved {
			total += u.ProgressPercent
		}
	}
	return round2(math.Min(total, 100))
}

// TaskStatusFor derives the task status from its progress.
func TaskStatusFor(progress float64) models.TaskStatus {
	switch {
	case progress >= 100:
		return models.TaskCompleted
	case progress > 0:
		return models.TaskOngoing
	default:
		return models.TaskPlanned
	}
}

// ProjectProgress weights each task's progress by its declared percentage
// contribution. Weights are not normalized; under- and over-allocated
// totals are tolerated and the result is capped at 100. Zero tasks means
// zero progress.
func ProjectProgress(tasks []models.ProjectTask) float64 {
	if len(tasks) == 0 {
		return 0
	}
	var total float64
	for _, t := range tasks {
		total += t.Progress * t.Weight / 100
	}
	return round2(math.Min(total, 100))
}

// ProjectStatusFor mirrors the task thresholds, except that a cancelled
// project stays cancelled: CN is set externally and must never be reverted
// by a recompute.
func ProjectStatusFor(progress float64, current models.ProjectStatus) models.ProjectStatus {
	if current == models.StatusCancelled {
		return models.StatusCancelled
	}
	switch {
	case progress >= 100:
		return models.StatusCompleted
	case progress > 0:
		return models.StatusOngoing
	default:
		return models.StatusPlanned
	}
}

// Planned returns the schedule-expectation percentage for a project as of
// today: how far along the timeline we are, capped at 100. It is a
// comparison figure for schedule variance and is never stored. Projects
// without both dates have no expectation and report 0.
func Planned(start, target *time.Time, today time.Time) float64 {
	if start == nil || target == nil {
		return 0
	}
	totalDays := target.Sub(*start).Hours() / 24
	if totalDays < 1 {
		totalDays = 1
	}
	elapsedDays := today.Sub(*start).Hours() / 24
	if elapsedDays < 0 {
		elapsedDays = 0
	}
	return round2(math.Min(100, elapsedDays/totalDays*100))
}
