package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"buildtrack/internal/budget"
	"buildtrack/internal/database"
	"buildtrack/internal/models"
	"buildtrack/internal/progress"
)

type taskProgressEntry struct {
	Title    string  `json:"title"`
	Start    *string `json:"start"`
	End      *string `json:"end"`
	Weight   float64 `json:"weight"`
	Progress float64 `json:"progress"`
}

type projectBreakdown struct {
	ID              uint                 `json:"id"`
	Name            string               `json:"name"`
	Status          models.ProjectStatus `json:"status"`
	ActualProgress  float64              `json:"actual_progress"`
	PlannedProgress float64              `json:"planned_progress"`
	Tasks           []taskProgressEntry  `json:"tasks"`
	BudgetSummary   []budget.LineSummary `json:"budget_summary"`
	BudgetTotal     budget.Totals        `json:"budget_total"`
}

func isoDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format("2006-01-02")
	return &s
}

// projectsVisibleTo applies the role scoping used by the dashboards: a PM
// sees only projects they manage, everyone else sees all of them.
func projectsVisibleTo(profile *models.UserProfile) ([]models.ProjectProfile, error) {
	var projects []models.ProjectProfile
	q := database.DB.Order("created_at desc")
	if profile.Role == models.RoleProjectManager {
		q = q.Where("project_manager_id = ?", profile.ID)
	}
	err := q.Find(&projects).Error
	return projects, err
}

func breakdownFor(project models.ProjectProfile, today time.Time) (projectBreakdown, error) {
	var tasks []models.ProjectTask
	if err := database.DB.Where("project_id = ?", project.ID).
		Order("start_date asc").Find(&tasks).Error; err != nil {
		return projectBreakdown{}, err
	}

	entries := make([]taskProgressEntry, 0, len(tasks))
	for _, t := range tasks {
		entries = append(entries, taskProgressEntry{
			Title:    t.TaskName,
			Start:    isoDate(t.StartDate),
			End:      isoDate(t.EndDate),
			Weight:   t.Weight,
			Progress: t.Progress,
		})
	}

	lines, totals, err := budget.ProjectSummary(database.DB, project.ID)
	if err != nil {
		return projectBreakdown{}, err
	}

	return projectBreakdown{
		ID:              project.ID,
		Name:            project.ProjectName,
		Status:          project.Status,
		ActualProgress:  progress.ProjectProgress(tasks),
		PlannedProgress: progress.Planned(project.StartDate, project.TargetCompletionDate, today),
		Tasks:           entries,
		BudgetSummary:   lines,
		BudgetTotal:     totals,
	}, nil
}

// Dashboard is the signed role-scoped landing view: project breakdowns
// with actual vs planned progress, per-category budget summaries, and
// portfolio-level budget totals.
func Dashboard(c *gin.Context) {
	profile := verifiedProfile(c)
	if profile == nil {
		return
	}

	projects, err := projectsVisibleTo(profile)
	if err != nil {
		respond(c, http.StatusInternalServerError, gin.H{"error": "failed to load projects"})
		return
	}

	statusCounts := map[string]int{"planned": 0, "ongoing": 0, "completed": 0, "cancelled": 0}
	for _, p := range projects {
		switch p.Status {
		case models.StatusPlanned:
			statusCounts["planned"]++
		case models.StatusOngoing:
			statusCounts["ongoing"]++
		case models.StatusCompleted:
			statusCounts["completed"]++
		case models.StatusCancelled:
			statusCounts["cancelled"]++
		}
	}

	today := time.Now()
	breakdowns := make([]projectBreakdown, 0, len(projects))
	var overall budget.Totals
	for _, p := range projects {
		b, err := breakdownFor(p, today)
		if err != nil {
			respond(c, http.StatusInternalServerError, gin.H{"error": "failed to aggregate project data"})
			return
		}
		breakdowns = append(breakdowns, b)
		overall.Planned += b.BudgetTotal.Planned
		overall.Allocated += b.BudgetTotal.Allocated
		overall.Spent += b.BudgetTotal.Spent
	}

	respond(c, http.StatusOK, gin.H{
		"profile": gin.H{
			"full_name": profile.FullName,
			"role":      profile.Role,
		},
		"status_counts":          statusCounts,
		"projects":               breakdowns,
		"overall_budget_summary": overall,
		"messages":               takeFlashes(c),
	})
}

// ProgressMonitoring is the read-only roll-up of task progress per project.
func ProgressMonitoring(c *gin.Context) {
	profile := verifiedProfile(c)
	if profile == nil {
		return
	}

	projects, err := projectsVisibleTo(profile)
	if err != nil {
		respond(c, http.StatusInternalServerError, gin.H{"error": "failed to load projects"})
		return
	}

	type monitorEntry struct {
		ProjectName   string               `json:"project_name"`
		ProjectStatus models.ProjectStatus `json:"project_status"`
		Tasks         []taskProgressEntry  `json:"tasks"`
		TotalProgress float64              `json:"total_progress"`
	}

	data := make([]monitorEntry, 0, len(projects))
	for _, p := range projects {
		var tasks []models.ProjectTask
		if err := database.DB.Where("project_id = ?", p.ID).
			Order("start_date asc").Find(&tasks).Error; err != nil {
			respond(c, http.StatusInternalServerError, gin.H{"error": "failed to load tasks"})
			return
		}

		entries := make([]taskProgressEntry, 0, len(tasks))
		for _, t := range tasks {
			entries = append(entries, taskProgressEntry{
				Title:    t.TaskName,
				Start:    isoDate(t.StartDate),
				End:      isoDate(t.EndDate),
				Weight:   t.Weight,
				Progress: t.Progress,
			})
		}

		data = append(data, monitorEntry{
			ProjectName:   p.ProjectName,
			ProjectStatus: p.Status,
			Tasks:         entries,
			TotalProgress: progress.ProjectProgress(tasks),
		})
	}

	respond(c, http.StatusOK, gin.H{"projects": data})
}
