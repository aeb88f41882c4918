package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"buildtrack/internal/database"
	"buildtrack/internal/models"
	"buildtrack/internal/progress"
)

//
// TASK LIST
//

// ListTasks shows a project's schedule. PMs only see tasks assigned to
// them; OM/EG see the whole schedule.
func ListTasks(c *gin.Context) {
	profile := verifiedProfile(c)
	if profile == nil {
		return
	}

	projectID, ok := paramID(c, "project_id")
	if !ok {
		return
	}

	var project models.ProjectProfile
	if err := database.DB.First(&project, projectID).Error; err != nil {
		respond(c, http.StatusNotFound, gin.H{"error": "project not found"})
		return
	}

	q := database.DB.Preload("AssignedTo").Where("project_id = ?", project.ID).Order("start_date asc")
	if profile.Role == models.RoleProjectManager {
		q = q.Where("assigned_to_id = ?", profile.ID)
	}

	var tasks []models.ProjectTask
	if err := q.Find(&tasks).Error; err != nil {
		respond(c, http.StatusInternalServerError, gin.H{"error": "failed to load tasks"})
		return
	}

	respond(c, http.StatusOK, gin.H{
		"project":  gin.H{"id": project.ID, "name": project.ProjectName},
		"tasks":    tasks,
		"token":    c.Param("token"),
		"role":     profile.Role,
		"messages": takeFlashes(c),
	})
}

//
// CREATE TASK
//

func bindTaskForm(c *gin.Context, task *models.ProjectTask) string {
	name := strings.TrimSpace(c.PostForm("task_name"))
	if name == "" {
		return "task name is required"
	}
	task.TaskName = name
	task.Description = strings.TrimSpace(c.PostForm("description"))
	task.Scope = strings.TrimSpace(c.PostForm("scope"))

	task.StartDate = parseDateField(c, "start_date")
	task.EndDate = parseDateField(c, "end_date")
	task.DurationDays = parseMoneyField(c, "duration_days")
	task.Manhours = parseMoneyField(c, "manhours")

	weightStr := strings.TrimSpace(c.PostForm("weight"))
	if weightStr == "" {
		return "weight is required"
	}
	weight, err := strconv.ParseFloat(weightStr, 64)
	if err != nil || weight < 0 {
		return "invalid weight"
	}
	// Weights are not validated against a 100 total; under- and
	// over-allocation are tolerated by the roll-up.
	task.Weight = weight

	if assignedID := c.PostForm("assigned_to"); assignedID != "" {
		var assignee models.UserProfile
		if err := database.DB.First(&assignee, assignedID).Error; err != nil {
			return "assigned profile does not exist"
		}
		task.AssignedToID = &assignee.ID
	}

	return ""
}

func CreateTask(c *gin.Context) {
	profile := verifiedProfile(c)
	if profile == nil {
		return
	}

	projectID, ok := paramID(c, "project_id")
	if !ok {
		return
	}

	var project models.ProjectProfile
	if err := database.DB.First(&project, projectID).Error; err != nil {
		respond(c, http.StatusNotFound, gin.H{"error": "project not found"})
		return
	}

	task := models.ProjectTask{ProjectID: project.ID, Status: models.TaskPlanned}
	if msg := bindTaskForm(c, &task); msg != "" {
		respond(c, http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	if err := database.DB.Create(&task).Error; err != nil {
		respond(c, http.StatusInternalServerError, gin.H{"error": "failed to save task"})
		return
	}

	database.CreateAuditLog(profile.ID, "task", task.ID, "create", "Created task: "+task.TaskName)

	flash(c, fmt.Sprintf("Task %q was successfully created.", task.TaskName))
	c.Redirect(http.StatusFound, taskListURL(c))
}

func taskListURL(c *gin.Context) string {
	return "/projects/" + c.Param("token") + "/" + c.Param("role") + "/" + c.Param("project_id") + "/tasks"
}

//
// BULK IMPORT SAVE
//

// SaveImportedTasks persists rows that were already extracted from an
// uploaded schedule upstream (PDF/Excel parsing is an external concern).
// Row fields arrive indexed: task_name_0, start_date_0, weight_0, ...
func SaveImportedTasks(c *gin.Context) {
	profile := verifiedProfile(c)
	if profile == nil {
		return
	}

	projectID, ok := paramID(c, "project_id")
	if !ok {
		return
	}

	var project models.ProjectProfile
	if err := database.DB.First(&project, projectID).Error; err != nil {
		respond(c, http.StatusNotFound, gin.H{"error": "project not found"})
		return
	}

	taskCount, _ := strconv.Atoi(c.PostForm("task_count"))
	globalScope := c.PostForm("global_scope")

	var globalAssignee *uint
	if id := c.PostForm("global_assigned_to"); id != "" {
		var p models.UserProfile
		if err := database.DB.First(&p, id).Error; err == nil {
			globalAssignee = &p.ID
		}
	}

	var tasks []models.ProjectTask
	for i := 0; i < taskCount; i++ {
		name := strings.TrimSpace(c.PostForm(fmt.Sprintf("task_name_%d", i)))
		if name == "" {
			continue
		}

		task := models.ProjectTask{
			ProjectID: project.ID,
			TaskName:  name,
			Status:    models.TaskPlanned,
		}

		if raw := c.PostForm(fmt.Sprintf("start_date_%d", i)); raw != "" {
			task.StartDate = parseDateAt(raw)
		}
		if raw := c.PostForm(fmt.Sprintf("end_date_%d", i)); raw != "" {
			task.EndDate = parseDateAt(raw)
		}
		if v, err := strconv.ParseFloat(c.PostForm(fmt.Sprintf("duration_days_%d", i)), 64); err == nil {
			task.DurationDays = &v
		}
		if v, err := strconv.ParseFloat(c.PostForm(fmt.Sprintf("manhours_%d", i)), 64); err == nil {
			task.Manhours = &v
		}
		if v, err := strconv.ParseFloat(strings.TrimSpace(c.PostForm(fmt.Sprintf("weight_%d", i))), 64); err == nil {
			task.Weight = v
		}

		// Per-row scope and assignee override the globals.
		task.Scope = globalScope
		if s := c.PostForm(fmt.Sprintf("scope_%d", i)); s != "" {
			task.Scope = s
		}
		task.AssignedToID = globalAssignee
		if id := c.PostForm(fmt.Sprintf("assigned_to_%d", i)); id != "" {
			var p models.UserProfile
			if err := database.DB.First(&p, id).Error; err == nil {
				task.AssignedToID = &p.ID
			}
		}

		tasks = append(tasks, task)
	}

	if len(tasks) > 0 {
		if err := database.DB.Create(&tasks).Error; err != nil {
			respond(c, http.StatusInternalServerError, gin.H{"error": "failed to save imported tasks"})
			return
		}
		database.CreateAuditLog(profile.ID, "project", project.ID, "import_tasks",
			fmt.Sprintf("Imported %d task(s)", len(tasks)))
	}

	c.Redirect(http.StatusFound, taskListURL(c))
}

//
// EDIT TASK
//

func UpdateTask(c *gin.Context) {
	profile := verifiedProfile(c)
	if profile == nil {
		return
	}

	projectID, ok := paramID(c, "project_id")
	if !ok {
		return
	}
	taskID, ok := paramID(c, "task_id")
	if !ok {
		return
	}

	var task models.ProjectTask
	if err := database.DB.Where("project_id = ?", projectID).First(&task, taskID).Error; err != nil {
		respond(c, http.StatusNotFound, gin.H{"error": "task not found"})
		return
	}

	if msg := bindTaskForm(c, &task); msg != "" {
		respond(c, http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	// A weight change shifts the task's share of the roll-up, so the stored
	// project progress must be refreshed with the save.
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&task).Error; err != nil {
			return err
		}
		return progress.RecalcProject(tx, task.ProjectID)
	})
	if err != nil {
		respond(c, http.StatusInternalServerError, gin.H{"error": "failed to save task"})
		return
	}

	database.CreateAuditLog(profile.ID, "task", task.ID, "update", "Updated task: "+task.TaskName)

	flash(c, fmt.Sprintf("Task %q updated successfully!", task.TaskName))
	c.Redirect(http.StatusFound, taskListURL(c))
}

//
// DELETE TASKS
//

func ConfirmDeleteTask(c *gin.Context) {
	profile := verifiedProfile(c)
	if profile == nil {
		return
	}

	projectID, ok := paramID(c, "project_id")
	if !ok {
		return
	}
	taskID, ok := paramID(c, "task_id")
	if !ok {
		return
	}

	var task models.ProjectTask
	if err := database.DB.Where("project_id = ?", projectID).First(&task, taskID).Error; err != nil {
		respond(c, http.StatusNotFound, gin.H{"error": "task not found"})
		return
	}

	var updateCount int64
	database.DB.Model(&models.ProgressUpdate{}).Where("task_id = ?", task.ID).Count(&updateCount)

	respond(c, http.StatusOK, gin.H{
		"task":         task,
		"update_count": updateCount,
		"confirm":      "POST to this URL to delete the task and its progress updates",
	})
}

// DeleteTask removes a task and its progress updates, then recomputes the
// project roll-up since the weight just left the aggregate.
func DeleteTask(c *gin.Context) {
	profile := verifiedProfile(c)
	if profile == nil {
		return
	}

	projectID, ok := paramID(c, "project_id")
	if !ok {
		return
	}
	taskID, ok := paramID(c, "task_id")
	if !ok {
		return
	}

	var task models.ProjectTask
	if err := database.DB.Where("project_id = ?", projectID).First(&task, taskID).Error; err != nil {
		respond(c, http.StatusNotFound, gin.H{"error": "task not found"})
		return
	}

	if err := deleteTasksCascade(projectID, []uint{task.ID}); err != nil {
		respond(c, http.StatusInternalServerError, gin.H{"error": "failed to delete task"})
		return
	}

	database.CreateAuditLog(profile.ID, "task", task.ID, "delete", "Deleted task: "+task.TaskName)

	flash(c, fmt.Sprintf("Task %q has been deleted successfully.", task.TaskName))
	c.Redirect(http.StatusFound, taskListURL(c))
}

func BulkDeleteTasks(c *gin.Context) {
	profile := verifiedProfile(c)
	if profile == nil {
		return
	}

	projectID, ok := paramID(c, "project_id")
	if !ok {
		return
	}

	var taskIDs []uint
	for _, raw := range c.PostFormArray("task_ids") {
		if id, err := strconv.Atoi(raw); err == nil && id > 0 {
			taskIDs = append(taskIDs, uint(id))
		}
	}

	if len(taskIDs) == 0 {
		flash(c, "No tasks were selected.")
		c.Redirect(http.StatusFound, taskListURL(c))
		return
	}

	if err := deleteTasksCascade(projectID, taskIDs); err != nil {
		respond(c, http.StatusInternalServerError, gin.H{"error": "failed to delete tasks"})
		return
	}

	database.CreateAuditLog(profile.ID, "project", projectID, "bulk_delete_tasks",
		fmt.Sprintf("Deleted %d task(s)", len(taskIDs)))

	flash(c, fmt.Sprintf("Deleted %d task(s).", len(taskIDs)))
	c.Redirect(http.StatusFound, taskListURL(c))
}

func parseDateAt(raw string) *time.Time {
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return &t
	}
	return nil
}

// deleteTasksCascade removes tasks with their updates and proof files in
// one transaction, then refreshes the project roll-up since the deleted
// weights no longer count toward project progress.
func deleteTasksCascade(projectID uint, taskIDs []uint) error {
	return database.DB.Transaction(func(tx *gorm.DB) error {
		var updateIDs []uint
		if err := tx.Model(&models.ProgressUpdate{}).
			Where("task_id IN ?", taskIDs).Pluck("id", &updateIDs).Error; err != nil {
			return err
		}
		if len(updateIDs) > 0 {
			if err := tx.Where("update_id IN ?", updateIDs).Delete(&models.ProgressFile{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("task_id IN ?", taskIDs).Delete(&models.ProgressUpdate{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ? AND id IN ?", projectID, taskIDs).
			Delete(&models.ProjectTask{}).Error; err != nil {
			return err
		}
		return progress.RecalcProject(tx, projectID)
	})
}
