package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"buildtrack/internal/database"
	"buildtrack/internal/models"
	"buildtrack/internal/progress"
)

//
// SUBMIT PROGRESS UPDATE
//

// SubmitProgressUpdate files a pending incremental report against a task.
// It carries the percentage completed since the last approved report and
// waits for OM/EG review before it counts.
func SubmitProgressUpdate(c *gin.Context) {
	profile := verifiedProfile(c)
	if profile == nil {
		return
	}

	taskID, ok := paramID(c, "task_id")
	if !ok {
		return
	}

	var task models.ProjectTask
	if err := database.DB.First(&task, taskID).Error; err != nil {
		respond(c, http.StatusNotFound, gin.H{"error": "task not found"})
		return
	}

	percentStr := strings.TrimSpace(c.PostForm("progress_percent"))
	percent, err := strconv.ParseFloat(percentStr, 64)
	if err != nil || percent <= 0 || percent > 100 {
		respond(c, http.StatusBadRequest, gin.H{"error": "progress percent must be between 0 and 100"})
		return
	}

	update := models.ProgressUpdate{
		TaskID:          task.ID,
		ReportedByID:    &profile.ID,
		ProgressPercent: percent,
		Remarks:         strings.TrimSpace(c.PostForm("remarks")),
		Status:          models.UpdatePending,
	}
	if err := database.DB.Create(&update).Error; err != nil {
		respond(c, http.StatusInternalServerError, gin.H{"error": "failed to save update"})
		return
	}

	// Proof attachments: bytes go to the external store, records keep
	// opaque paths.
	if form, err := c.MultipartForm(); err == nil {
		for _, fh := range form.File["attachments"] {
			stored := filepath.Join("progress_proofs", uuid.NewString()+filepath.Ext(fh.Filename))
			if err := c.SaveUploadedFile(fh, stored); err != nil {
				continue
			}
			_ = database.DB.Create(&models.ProgressFile{
				UpdateID:   update.ID,
				FileName:   fh.Filename,
				StoredPath: stored,
			}).Error
		}
	}

	flash(c, "Your report has been submitted and is waiting for approval.")
	c.Redirect(http.StatusFound,
		"/projects/"+c.Param("token")+"/"+c.Param("role")+"/"+strconv.Itoa(int(task.ProjectID))+"/tasks")
}

//
// REVIEW QUEUE
//

var errAlreadyReviewed = errors.New("update already reviewed")

func ReviewUpdates(c *gin.Context) {
	var pending []models.ProgressUpdate
	err := database.DB.Preload("Task").Preload("ReportedBy").
		Where("status = ?", models.UpdatePending).
		Order("created_at asc").
		Find(&pending).Error
	if err != nil {
		respond(c, http.StatusInternalServerError, gin.H{"error": "failed to load pending updates"})
		return
	}

	respond(c, http.StatusOK, gin.H{
		"updates":  pending,
		"messages": takeFlashes(c),
	})
}

// ApproveUpdate stamps the review, then recomputes the task's aggregate
// inside one transaction holding a row lock on the task. Two reviewers
// approving different updates for the same task serialize on that lock, so
// neither recompute works from a stale sum.
func ApproveUpdate(c *gin.Context) {
	reviewer, err := currentReviewerProfile(c)
	if err != nil {
		respond(c, http.StatusForbidden, gin.H{"error": "reviewer profile not found"})
		return
	}

	updateID, ok := paramID(c, "update_id")
	if !ok {
		return
	}

	var taskName string
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		var update models.ProgressUpdate
		if err := tx.First(&update, updateID).Error; err != nil {
			return err
		}
		if update.Status != models.UpdatePending {
			return errAlreadyReviewed
		}

		// SQLite has no row locks; writes there already serialize on the
		// database lock.
		q := tx
		if tx.Dialector.Name() == "postgres" {
			q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var task models.ProjectTask
		if err := q.First(&task, update.TaskID).Error; err != nil {
			return err
		}
		taskName = task.TaskName

		now := time.Now()
		err := tx.Model(&update).Updates(map[string]interface{}{
			"status":         models.UpdateApproved,
			"reviewed_by_id": reviewer.ID,
			"reviewed_at":    now,
		}).Error
		if err != nil {
			return err
		}

		if err := progress.RecalcTask(tx, &task); err != nil {
			return err
		}
		return progress.RecalcProject(tx, task.ProjectID)
	})
	if err == errAlreadyReviewed {
		respond(c, http.StatusConflict, gin.H{"error": "update has already been reviewed"})
		return
	}
	if err != nil {
		respond(c, http.StatusInternalServerError, gin.H{"error": "failed to approve update"})
		return
	}

	database.CreateAuditLog(reviewer.ID, "update", updateID, "approve",
		"Approved progress update for task: "+taskName)

	flash(c, fmt.Sprintf("Progress update for %q approved successfully.", taskName))
	c.Redirect(http.StatusFound, "/progress/review")
}

func RejectUpdate(c *gin.Context) {
	reviewer, err := currentReviewerProfile(c)
	if err != nil {
		respond(c, http.StatusForbidden, gin.H{"error": "reviewer profile not found"})
		return
	}

	updateID, ok := paramID(c, "update_id")
	if !ok {
		return
	}

	var update models.ProgressUpdate
	if err := database.DB.Preload("Task").First(&update, updateID).Error; err != nil {
		respond(c, http.StatusNotFound, gin.H{"error": "update not found"})
		return
	}
	if update.Status != models.UpdatePending {
		respond(c, http.StatusConflict, gin.H{"error": "update has already been reviewed"})
		return
	}

	now := time.Now()
	err = database.DB.Model(&update).Updates(map[string]interface{}{
		"status":         models.UpdateRejected,
		"reviewed_by_id": reviewer.ID,
		"reviewed_at":    now,
	}).Error
	if err != nil {
		respond(c, http.StatusInternalServerError, gin.H{"error": "failed to reject update"})
		return
	}

	database.CreateAuditLog(reviewer.ID, "update", update.ID, "reject",
		"Rejected progress update for task: "+update.Task.TaskName)

	flash(c, fmt.Sprintf("Progress update for %q has been rejected.", update.Task.TaskName))
	c.Redirect(http.StatusFound, "/progress/review")
}

//
// HISTORY
//

// ProgressHistory lists updates across all projects with optional
// project/status/reporter filters.
func ProgressHistory(c *gin.Context) {
	q := database.DB.Preload("Task").Preload("ReportedBy").Preload("ReviewedBy").
		Preload("Attachments").
		Order("created_at desc")

	if projectID := c.Query("project"); projectID != "" {
		if id, err := strconv.Atoi(projectID); err == nil && id > 0 {
			q = q.Joins("JOIN project_tasks ON project_tasks.id = progress_updates.task_id").
				Where("project_tasks.project_id = ?", id)
		}
	}

	if status := models.UpdateStatus(c.Query("status")); status == models.UpdatePending ||
		status == models.UpdateApproved || status == models.UpdateRejected {
		q = q.Where("progress_updates.status = ?", status)
	}

	if reporter := c.Query("reporter"); reporter != "" {
		if id, err := strconv.Atoi(reporter); err == nil && id > 0 {
			q = q.Where("progress_updates.reported_by_id = ?", id)
		}
	}

	var updates []models.ProgressUpdate
	if err := q.Find(&updates).Error; err != nil {
		respond(c, http.StatusInternalServerError, gin.H{"error": "failed to load history"})
		return
	}

	respond(c, http.StatusOK, gin.H{"updates": updates})
}
