package handlers

import (
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"buildtrack/internal/database"
	"buildtrack/internal/models"
)

//
// PROJECT LIST
//

// ListProjects scopes the list by role: PM sees managed projects, view-only
// users see projects they created or were assigned, OM/EG see everything.
func ListProjects(c *gin.Context) {
	profile := verifiedProfile(c)
	if profile == nil {
		return
	}

	var projects []models.ProjectProfile
	q := database.DB.Preload("ProjectManager").Order("created_at desc")

	switch profile.Role {
	case models.RoleEngineer, models.RoleOperationsManager:
		// unrestricted
	case models.RoleProjectManager:
		q = q.Where("project_manager_id = ?", profile.ID)
	default:
		q = q.Where("created_by_id = ? OR assigned_to_id = ?", profile.ID, profile.ID)
	}

	if err := q.Find(&projects).Error; err != nil {
		respond(c, http.StatusInternalServerError, gin.H{"error": "failed to load projects"})
		return
	}

	respond(c, http.StatusOK, gin.H{
		"projects": projects,
		"token":    c.Param("token"),
		"role":     profile.Role,
		"messages": takeFlashes(c),
	})
}

//
// FILE UPLOAD
//

// UploadProjectFile attaches files to a project the caller is entitled to:
// a PM only to projects they manage, view-only users only to projects they
// created or were assigned. Bytes go to the external file store; the
// record keeps an opaque path.
func UploadProjectFile(c *gin.Context) {
	profile := verifiedProfile(c)
	if profile == nil {
		return
	}

	projectID, err := strconv.Atoi(c.PostForm("project_id"))
	if err != nil || projectID <= 0 {
		respond(c, http.StatusBadRequest, gin.H{"error": "invalid project id"})
		return
	}

	var project models.ProjectProfile
	if err := database.DB.First(&project, projectID).Error; err != nil {
		respond(c, http.StatusNotFound, gin.H{"error": "project not found"})
		return
	}

	switch profile.Role {
	case models.RoleProjectManager:
		if project.ProjectManagerID == nil || *project.ProjectManagerID != profile.ID {
			respond(c, http.StatusForbidden, gin.H{"error": "unauthorized upload"})
			return
		}
	case models.RoleViewOnly:
		owner := project.CreatedByID != nil && *project.CreatedByID == profile.ID
		assignee := project.AssignedToID != nil && *project.AssignedToID == profile.ID
		if !owner && !assignee {
			respond(c, http.StatusForbidden, gin.H{"error": "unauthorized upload"})
			return
		}
	}

	form, err := c.MultipartForm()
	if err != nil {
		respond(c, http.StatusBadRequest, gin.H{"error": "invalid upload"})
		return
	}

	for _, fh := range form.File["file"] {
		stored := filepath.Join("project_files", uuid.NewString()+filepath.Ext(fh.Filename))
		if err := c.SaveUploadedFile(fh, stored); err != nil {
			respond(c, http.StatusInternalServerError, gin.H{"error": "failed to store file"})
			return
		}
		record := models.ProjectFile{
			ProjectID:  project.ID,
			FileName:   fh.Filename,
			StoredPath: stored,
		}
		if err := database.DB.Create(&record).Error; err != nil {
			respond(c, http.StatusInternalServerError, gin.H{"error": "failed to save file record"})
			return
		}
	}

	flash(c, "Files uploaded successfully.")
	c.Redirect(http.StatusFound, "/projects/"+c.Param("token")+"/list/"+c.Param("role"))
}

//
// CREATE PROJECT
//

func parseDateField(c *gin.Context, name string) *time.Time {
	if raw := c.PostForm(name); raw != "" {
		if t, err := time.Parse("2006-01-02", raw); err == nil {
			return &t
		}
	}
	return nil
}

func parseMoneyField(c *gin.Context, name string) *float64 {
	if raw := c.PostForm(name); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			return &v
		}
	}
	return nil
}

func bindProjectForm(c *gin.Context, project *models.ProjectProfile) string {
	name := strings.TrimSpace(c.PostForm("project_name"))
	if len(name) < 3 {
		return "project name must be at least 3 characters"
	}

	ptype := models.ProjectType(c.PostForm("project_type"))
	if !ptype.Valid() {
		return "invalid project type"
	}

	project.ProjectName = name
	project.ProjectType = ptype
	project.ProjectCategory = models.ProjectCategory(c.PostForm("project_category"))
	project.Description = strings.TrimSpace(c.PostForm("description"))

	if code := strings.TrimSpace(c.PostForm("project_code")); code != "" {
		project.ProjectCode = &code
	}

	project.Location = strings.TrimSpace(c.PostForm("location"))
	if project.Location == "" {
		return "location is required"
	}
	project.GPSCoordinates = c.PostForm("gps_coordinates")
	project.CityProvince = c.PostForm("city_province")

	project.GCCompanyName = c.PostForm("gc_company_name")
	project.GCLicenseNumber = c.PostForm("gc_license_number")
	project.GCContactPerson = c.PostForm("gc_contact_person")
	project.GCContactNumber = c.PostForm("gc_contact_number")
	project.GCContactEmail = c.PostForm("gc_contact_email")

	project.ClientName = c.PostForm("client_name")
	project.ClientAddress = c.PostForm("client_address")
	project.ClientContactPerson = c.PostForm("client_contact_person")
	project.ClientContactNumber = c.PostForm("client_contact_number")
	project.ClientContactEmail = c.PostForm("client_contact_email")

	project.StartDate = parseDateField(c, "start_date")
	project.TargetCompletionDate = parseDateField(c, "target_completion_date")
	project.ActualCompletionDate = parseDateField(c, "actual_completion_date")

	project.EstimatedCost = parseMoneyField(c, "estimated_cost")
	project.Expense = parseMoneyField(c, "expense")
	project.PaymentTerms = c.PostForm("payment_terms")

	project.SiteEngineer = c.PostForm("site_engineer")
	project.Subcontractors = c.PostForm("subcontractors")

	// Optional manager assignment; must reference a real PM profile.
	if pmID := c.PostForm("project_manager"); pmID != "" {
		var manager models.UserProfile
		if err := database.DB.Where("id = ? AND role = ?", pmID, models.RoleProjectManager).
			First(&manager).Error; err != nil {
			return "selected project manager does not exist"
		}
		project.ProjectManagerID = &manager.ID
	}

	return ""
}

func CreateProject(c *gin.Context) {
	profile := verifiedProfile(c)
	if profile == nil {
		return
	}

	source := models.ProjectSource(c.Param("project_type"))
	if !source.Valid() {
		respond(c, http.StatusBadRequest, gin.H{"error": "invalid project type"})
		return
	}

	project := models.ProjectProfile{
		ProjectSource: source,
		Status:        models.StatusPlanned,
		CreatedByID:   &profile.ID,
	}

	if msg := bindProjectForm(c, &project); msg != "" {
		respond(c, http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	if err := database.DB.Create(&project).Error; err != nil {
		respond(c, http.StatusInternalServerError, gin.H{"error": "failed to save project"})
		return
	}

	database.CreateAuditLog(profile.ID, "project", project.ID, "create", "Created project: "+project.ProjectName)

	flash(c, "Project created successfully")
	c.Redirect(http.StatusFound, "/projects/"+c.Param("token")+"/list/"+c.Param("role"))
}

//
// VIEW PROJECT
//

func ViewProject(c *gin.Context) {
	profile := verifiedProfile(c)
	if profile == nil {
		return
	}

	pk, ok := paramID(c, "project_id")
	if !ok {
		return
	}

	q := database.DB.Preload("ProjectManager").Preload("Files")
	if profile.Role == models.RoleProjectManager {
		q = q.Where("project_manager_id = ?", profile.ID)
	}

	var project models.ProjectProfile
	if err := q.First(&project, pk).Error; err != nil {
		respond(c, http.StatusNotFound, gin.H{"error": "project not found"})
		return
	}

	respond(c, http.StatusOK, gin.H{
		"project": project,
		"token":   c.Param("token"),
		"role":    profile.Role,
	})
}

// projectEditableBy fetches a project the profile may modify. Engineers
// reach any project; PM/OM only ones they created, manage or are assigned.
func projectEditableBy(profile *models.UserProfile, pk uint) (*models.ProjectProfile, error) {
	q := database.DB
	if profile.Role != models.RoleEngineer {
		q = q.Where(
			"created_by_id = ? OR assigned_to_id = ? OR project_manager_id = ?",
			profile.ID, profile.ID, profile.ID,
		)
	}

	var project models.ProjectProfile
	if err := q.First(&project, pk).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

//
// EDIT PROJECT
//

func UpdateProject(c *gin.Context) {
	profile := verifiedProfile(c)
	if profile == nil {
		return
	}

	pk, ok := paramID(c, "project_id")
	if !ok {
		return
	}

	project, err := projectEditableBy(profile, pk)
	if err != nil {
		respond(c, http.StatusNotFound, gin.H{"error": "project not found"})
		return
	}

	if msg := bindProjectForm(c, project); msg != "" {
		respond(c, http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	// Cancellation is an explicit, externally-set state; the progress
	// recompute never produces it and never clears it.
	if raw := c.PostForm("status"); raw != "" {
		status := models.ProjectStatus(raw)
		switch status {
		case models.StatusPlanned, models.StatusOngoing, models.StatusCompleted, models.StatusCancelled:
			project.Status = status
		default:
			respond(c, http.StatusBadRequest, gin.H{"error": "invalid status"})
			return
		}
	}

	if err := database.DB.Save(project).Error; err != nil {
		respond(c, http.StatusInternalServerError, gin.H{"error": "failed to save project"})
		return
	}

	database.CreateAuditLog(profile.ID, "project", project.ID, "update", "Updated project: "+project.ProjectName)

	flash(c, "Project updated successfully.")
	c.Redirect(http.StatusFound, "/projects/"+c.Param("token")+"/list/"+c.Param("role"))
}

//
// DELETE PROJECT
//

// ConfirmDeleteProject is the first half of the double-confirmation step:
// it shows what is about to be destroyed; the actual delete is the POST.
func ConfirmDeleteProject(c *gin.Context) {
	profile := verifiedProfile(c)
	if profile == nil {
		return
	}

	pk, ok := paramID(c, "project_id")
	if !ok {
		return
	}

	project, err := projectEditableBy(profile, pk)
	if err != nil {
		respond(c, http.StatusNotFound, gin.H{"error": "project not found"})
		return
	}

	var taskCount, budgetCount int64
	database.DB.Model(&models.ProjectTask{}).Where("project_id = ?", project.ID).Count(&taskCount)
	database.DB.Model(&models.ProjectBudget{}).Where("project_id = ?", project.ID).Count(&budgetCount)

	respond(c, http.StatusOK, gin.H{
		"project":      project,
		"task_count":   taskCount,
		"budget_count": budgetCount,
		"confirm":      "POST to this URL to permanently delete the project and everything under it",
	})
}

// DeleteProject cascades in one transaction: tasks with their updates and
// proof files, budget lines with their allocations, costs and files all go
// with the project.
func DeleteProject(c *gin.Context) {
	profile := verifiedProfile(c)
	if profile == nil {
		return
	}

	pk, ok := paramID(c, "project_id")
	if !ok {
		return
	}

	project, err := projectEditableBy(profile, pk)
	if err != nil {
		respond(c, http.StatusNotFound, gin.H{"error": "project not found"})
		return
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		var taskIDs []uint
		if err := tx.Model(&models.ProjectTask{}).
			Where("project_id = ?", project.ID).Pluck("id", &taskIDs).Error; err != nil {
			return err
		}
		if len(taskIDs) > 0 {
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
			if err := tx.Where("project_id = ?", project.ID).Delete(&models.ProjectTask{}).Error; err != nil {
				return err
			}
		}

		var budgetIDs []uint
		if err := tx.Model(&models.ProjectBudget{}).
			Where("project_id = ?", project.ID).Pluck("id", &budgetIDs).Error; err != nil {
			return err
		}
		if len(budgetIDs) > 0 {
			if err := tx.Where("project_budget_id IN ?", budgetIDs).Delete(&models.FundAllocation{}).Error; err != nil {
				return err
			}
			if err := tx.Where("project_id = ?", project.ID).Delete(&models.ProjectBudget{}).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("project_id = ?", project.ID).Delete(&models.ProjectCost{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", project.ID).Delete(&models.ProjectFile{}).Error; err != nil {
			return err
		}

		return tx.Delete(project).Error
	})
	if err != nil {
		respond(c, http.StatusInternalServerError, gin.H{"error": "failed to delete project"})
		return
	}

	database.CreateAuditLog(profile.ID, "project", project.ID, "delete", "Deleted project: "+project.ProjectName)

	flash(c, "Project deleted successfully.")
	c.Redirect(http.StatusFound, "/projects/"+c.Param("token")+"/list/"+c.Param("role"))
}
