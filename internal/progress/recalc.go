package progress

import (
	"gorm.io/gorm"

	"buildtrack/internal/models"
)

// RecalcTask recomputes a task's aggregate progress from its approved
// updates and derives the matching status. Callers that race on the same
// task must hold a row lock on it (see the approval flow).
func RecalcTask(tx *gorm.DB, task *models.ProjectTask) error {
	var updates []models.ProgressUpdate
	if err := tx.Where("task_id = ?", task.ID).Find(&updates).Error; err != nil {
		return err
	}

	task.Progress = TaskProgress(updates)
	task.Status = TaskStatusFor(task.Progress)
	task.IsCompleted = task.Status == models.TaskCompleted

	return tx.Model(task).Updates(map[string]interface{}{
		"progress":     task.Progress,
		"status":       task.Status,
		"is_completed": task.IsCompleted,
	}).Error
}

// RecalcProject cascades the weighted roll-up to the project and derives
// its status. A cancelled project keeps its status; only the progress
// figure is refreshed.
func RecalcProject(tx *gorm.DB, projectID uint) error {
	var project models.ProjectProfile
	if err := tx.First(&project, projectID).Error; err != nil {
		return err
	}

	var tasks []models.ProjectTask
	if err := tx.Where("project_id = ?", projectID).Find(&tasks).Error; err != nil {
		return err
	}

	project.Progress = ProjectProgress(tasks)
	project.Status = ProjectStatusFor(project.Progress, project.Status)

	return tx.Model(&project).Updates(map[string]interface{}{
		"progress": project.Progress,
		"status":   project.Status,
	}).Error
}
