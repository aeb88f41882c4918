package handlers

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"buildtrack/internal/budget"
	"buildtrack/internal/database"
	"buildtrack/internal/models"
)

//
// COSTING DASHBOARD
//

// ProjectCostingDashboard lists every project with its planned, allocated
// and remaining figures plus portfolio-wide grand totals.
func ProjectCostingDashboard(c *gin.Context) {
	var projects []models.ProjectProfile
	if err := database.DB.Order("created_at desc").Find(&projects).Error; err != nil {
		respond(c, http.StatusInternalServerError, gin.H{"error": "failed to load projects"})
		return
	}

	type costingRow struct {
		ProjectID   uint     `json:"project_id"`
		ProjectName string   `json:"project_name"`
		Approved    *float64 `json:"approved_budget"`
		Planned     float64  `json:"planned"`
		Allocated   float64  `json:"allocated"`
		Spent       float64  `json:"spent"`

		// Shown as an absolute value plus the flag, never a bare negative.
		Remaining    float64 `json:"remaining"`
		RemainingAbs float64 `json:"remaining_abs"`
		Overrun      bool    `json:"overrun"`
	}

	rows := make([]costingRow, 0, len(projects))
	var grand budget.Totals
	for _, p := range projects {
		_, totals, err := budget.ProjectSummary(database.DB, p.ID)
		if err != nil {
			respond(c, http.StatusInternalServerError, gin.H{"error": "failed to aggregate budgets"})
			return
		}
		remaining := totals.Planned - totals.Allocated
		rows = append(rows, costingRow{
			ProjectID:    p.ID,
			ProjectName:  p.ProjectName,
			Approved:     p.ApprovedBudget,
			Planned:      totals.Planned,
			Allocated:    totals.Allocated,
			Spent:        totals.Spent,
			Remaining:    remaining,
			RemainingAbs: math.Abs(remaining),
			Overrun:      remaining < 0,
		})
		grand.Planned += totals.Planned
		grand.Allocated += totals.Allocated
		grand.Spent += totals.Spent
	}

	respond(c, http.StatusOK, gin.H{
		"projects": rows,
		"totals":   grand,
		"messages": takeFlashes(c),
	})
}

//
// BUDGET LINES
//

// ProjectBudgets shows a project's budget lines with their roll-up figures.
// A POST creates a new line for a category.
func ProjectBudgets(c *gin.Context) {
	projectID, ok := paramID(c, "project_id")
	if !ok {
		return
	}

	var project models.ProjectProfile
	if err := database.DB.First(&project, projectID).Error; err != nil {
		respond(c, http.StatusNotFound, gin.H{"error": "project not found"})
		return
	}

	if c.Request.Method == http.MethodPost {
		category := models.CostCategory(c.PostForm("category"))
		if !category.Valid() {
			flash(c, "Please choose a valid cost category.")
			c.Redirect(http.StatusFound, c.Request.URL.Path)
			return
		}

		amount, err := strconv.ParseFloat(strings.TrimSpace(c.PostForm("planned_amount")), 64)
		if err != nil {
			flash(c, "Planned amount must be a number.")
			c.Redirect(http.StatusFound, c.Request.URL.Path)
			return
		}
		if err := budget.ValidateAmount(amount); err != nil {
			flash(c, budgetAmountMessage(err))
			c.Redirect(http.StatusFound, c.Request.URL.Path)
			return
		}

		line := models.ProjectBudget{
			ProjectID:     project.ID,
			Category:      category,
			PlannedAmount: amount,
		}
		if err := database.DB.Create(&line).Error; err != nil {
			flash(c, "Failed to save the budget line.")
			c.Redirect(http.StatusFound, c.Request.URL.Path)
			return
		}

		if profile, err := currentReviewerProfile(c); err == nil {
			database.CreateAuditLog(profile.ID, "budget", line.ID, "create",
				fmt.Sprintf("Added %s budget of %.2f to project: %s",
					category.Display(), amount, project.ProjectName))
		}

		flash(c, fmt.Sprintf("%s budget line added.", category.Display()))
		c.Redirect(http.StatusFound, c.Request.URL.Path)
		return
	}

	lines, totals, err := budget.ProjectSummary(database.DB, project.ID)
	if err != nil {
		respond(c, http.StatusInternalServerError, gin.H{"error": "failed to aggregate budgets"})
		return
	}

	data := gin.H{
		"project": gin.H{
			"id":              project.ID,
			"name":            project.ProjectName,
			"approved_budget": project.ApprovedBudget,
			"budget_status":   project.BudgetStatus,
			"budget_remarks":  project.BudgetRemarks,
		},
		"budgets":  lines,
		"totals":   totals,
		"messages": takeFlashes(c),
	}
	if project.ApprovedBudget != nil {
		data["unbudgeted"] = *project.ApprovedBudget - totals.Planned
	}
	respond(c, http.StatusOK, data)
}

func budgetAmountMessage(err error) string {
	switch {
	case errors.Is(err, budget.ErrNonPositiveAmount):
		return "Amount must be greater than zero."
	case errors.Is(err, budget.ErrAmountTooLarge):
		return "Amount is too large."
	default:
		return "Invalid amount."
	}
}

// UpdateBudget changes the planned amount of an existing line.
func UpdateBudget(c *gin.Context) {
	budgetID, ok := paramID(c, "budget_id")
	if !ok {
		return
	}

	var line models.ProjectBudget
	if err := database.DB.First(&line, budgetID).Error; err != nil {
		respond(c, http.StatusNotFound, gin.H{"error": "budget line not found"})
		return
	}

	amount, err := strconv.ParseFloat(strings.TrimSpace(c.PostForm("planned_amount")), 64)
	if err != nil {
		flash(c, "Planned amount must be a number.")
		c.Redirect(http.StatusFound, budgetListURL(c, line.ProjectID))
		return
	}
	if err := budget.ValidateAmount(amount); err != nil {
		flash(c, budgetAmountMessage(err))
		c.Redirect(http.StatusFound, budgetListURL(c, line.ProjectID))
		return
	}

	if err := database.DB.Model(&line).Update("planned_amount", amount).Error; err != nil {
		respond(c, http.StatusInternalServerError, gin.H{"error": "failed to update budget line"})
		return
	}

	if profile, err := currentReviewerProfile(c); err == nil {
		database.CreateAuditLog(profile.ID, "budget", line.ID, "update",
			fmt.Sprintf("Set %s planned amount to %.2f", line.Category.Display(), amount))
	}

	flash(c, fmt.Sprintf("%s budget line updated.", line.Category.Display()))
	c.Redirect(http.StatusFound, budgetListURL(c, line.ProjectID))
}

func ConfirmDeleteBudget(c *gin.Context) {
	budgetID, ok := paramID(c, "budget_id")
	if !ok {
		return
	}

	var line models.ProjectBudget
	if err := database.DB.First(&line, budgetID).Error; err != nil {
		respond(c, http.StatusNotFound, gin.H{"error": "budget line not found"})
		return
	}

	var allocations int64
	database.DB.Model(&models.FundAllocation{}).
		Where("project_budget_id = ?", line.ID).Count(&allocations)

	respond(c, http.StatusOK, gin.H{
		"budget": gin.H{
			"id":       line.ID,
			"category": line.Category.Display(),
			"planned":  line.PlannedAmount,
		},
		"allocation_count": allocations,
		"confirm_message": fmt.Sprintf(
			"Deleting this %s budget line also removes %d fund allocation(s).",
			line.Category.Display(), allocations),
	})
}

// DeleteBudget removes a budget line together with its fund allocations.
func DeleteBudget(c *gin.Context) {
	budgetID, ok := paramID(c, "budget_id")
	if !ok {
		return
	}

	var line models.ProjectBudget
	if err := database.DB.First(&line, budgetID).Error; err != nil {
		respond(c, http.StatusNotFound, gin.H{"error": "budget line not found"})
		return
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_budget_id = ?", line.ID).
			Delete(&models.FundAllocation{}).Error; err != nil {
			return err
		}
		return tx.Delete(&line).Error
	})
	if err != nil {
		respond(c, http.StatusInternalServerError, gin.H{"error": "failed to delete budget line"})
		return
	}

	if profile, err := currentReviewerProfile(c); err == nil {
		database.CreateAuditLog(profile.ID, "budget", line.ID, "delete",
			fmt.Sprintf("Deleted %s budget line from project %d",
				line.Category.Display(), line.ProjectID))
	}

	flash(c, fmt.Sprintf("%s budget line deleted.", line.Category.Display()))
	c.Redirect(http.StatusFound, budgetListURL(c, line.ProjectID))
}

func budgetListURL(c *gin.Context, projectID uint) string {
	return "/budgets/projects/" + strconv.Itoa(int(projectID))
}

// SetApprovedBudget records the client-approved total for a project.
func SetApprovedBudget(c *gin.Context) {
	projectID, ok := paramID(c, "project_id")
	if !ok {
		return
	}

	var project models.ProjectProfile
	if err := database.DB.First(&project, projectID).Error; err != nil {
		respond(c, http.StatusNotFound, gin.H{"error": "project not found"})
		return
	}

	amount, err := strconv.ParseFloat(strings.TrimSpace(c.PostForm("approved_budget")), 64)
	if err != nil {
		flash(c, "Approved budget must be a number.")
		c.Redirect(http.StatusFound, budgetListURL(c, project.ID))
		return
	}
	if err := budget.ValidateAmount(amount); err != nil {
		flash(c, budgetAmountMessage(err))
		c.Redirect(http.StatusFound, budgetListURL(c, project.ID))
		return
	}

	err = database.DB.Model(&project).Updates(map[string]interface{}{
		"approved_budget": amount,
		"budget_status":   "APPROVED",
		"budget_remarks":  strings.TrimSpace(c.PostForm("remarks")),
	}).Error
	if err != nil {
		respond(c, http.StatusInternalServerError, gin.H{"error": "failed to save approved budget"})
		return
	}

	if profile, err := currentReviewerProfile(c); err == nil {
		database.CreateAuditLog(profile.ID, "project", project.ID, "approve_budget",
			fmt.Sprintf("Approved budget of %.2f for project: %s", amount, project.ProjectName))
	}

	flash(c, "Approved budget recorded.")
	c.Redirect(http.StatusFound, budgetListURL(c, project.ID))
}

//
// FUND ALLOCATIONS
//

// AllocateFunds draws an amount against a budget line. Pushing the line
// past its planned amount is allowed but flagged with a warning.
func AllocateFunds(c *gin.Context) {
	budgetID, ok := paramID(c, "budget_id")
	if !ok {
		return
	}

	var line models.ProjectBudget
	if err := database.DB.First(&line, budgetID).Error; err != nil {
		respond(c, http.StatusNotFound, gin.H{"error": "budget line not found"})
		return
	}

	amount, err := strconv.ParseFloat(strings.TrimSpace(c.PostForm("amount")), 64)
	if err != nil {
		flash(c, "Allocation amount must be a number.")
		c.Redirect(http.StatusFound, budgetListURL(c, line.ProjectID))
		return
	}
	if err := budget.ValidateAmount(amount); err != nil {
		flash(c, budgetAmountMessage(err))
		c.Redirect(http.StatusFound, budgetListURL(c, line.ProjectID))
		return
	}

	already, err := budget.AllocatedFor(database.DB, line.ID)
	if err != nil {
		respond(c, http.StatusInternalServerError, gin.H{"error": "failed to read allocations"})
		return
	}

	alloc := models.FundAllocation{
		ProjectBudgetID: line.ID,
		Amount:          amount,
		DateAllocated:   time.Now(),
		Note:            strings.TrimSpace(c.PostForm("note")),
	}
	if err := database.DB.Create(&alloc).Error; err != nil {
		respond(c, http.StatusInternalServerError, gin.H{"error": "failed to save allocation"})
		return
	}

	if profile, err := currentReviewerProfile(c); err == nil {
		database.CreateAuditLog(profile.ID, "allocation", alloc.ID, "create",
			fmt.Sprintf("Allocated %.2f to %s budget of project %d",
				amount, line.Category.Display(), line.ProjectID))
	}

	if errors.Is(budget.CheckAllocation(line.PlannedAmount, already, amount), budget.ErrOverAllocation) {
		flash(c, fmt.Sprintf(
			"Warning: %s allocations now exceed the planned amount by %.2f.",
			line.Category.Display(), already+amount-line.PlannedAmount))
	} else {
		flash(c, fmt.Sprintf("Allocated %.2f to %s.", amount, line.Category.Display()))
	}
	c.Redirect(http.StatusFound, budgetListURL(c, line.ProjectID))
}

func ConfirmDeleteAllocation(c *gin.Context) {
	allocationID, ok := paramID(c, "allocation_id")
	if !ok {
		return
	}

	var alloc models.FundAllocation
	if err := database.DB.Preload("ProjectBudget").First(&alloc, allocationID).Error; err != nil {
		respond(c, http.StatusNotFound, gin.H{"error": "allocation not found"})
		return
	}

	respond(c, http.StatusOK, gin.H{
		"allocation": gin.H{
			"id":       alloc.ID,
			"amount":   alloc.Amount,
			"date":     alloc.DateAllocated.Format("2006-01-02"),
			"note":     alloc.Note,
			"category": alloc.ProjectBudget.Category.Display(),
		},
		"confirm_message": fmt.Sprintf("Remove the %.2f allocation dated %s?",
			alloc.Amount, alloc.DateAllocated.Format("2006-01-02")),
	})
}

func DeleteAllocation(c *gin.Context) {
	allocationID, ok := paramID(c, "allocation_id")
	if !ok {
		return
	}

	var alloc models.FundAllocation
	if err := database.DB.Preload("ProjectBudget").First(&alloc, allocationID).Error; err != nil {
		respond(c, http.StatusNotFound, gin.H{"error": "allocation not found"})
		return
	}

	if err := database.DB.Delete(&alloc).Error; err != nil {
		respond(c, http.StatusInternalServerError, gin.H{"error": "failed to delete allocation"})
		return
	}

	if profile, err := currentReviewerProfile(c); err == nil {
		database.CreateAuditLog(profile.ID, "allocation", alloc.ID, "delete",
			fmt.Sprintf("Removed %.2f allocation from %s budget",
				alloc.Amount, alloc.ProjectBudget.Category.Display()))
	}

	flash(c, "Allocation removed.")
	c.Redirect(http.StatusFound, budgetListURL(c, alloc.ProjectBudget.ProjectID))
}

//
// ACTUAL COSTS
//

// CreateCost records an actual expense against a (project, category) pair,
// optionally linked to a specific task.
func CreateCost(c *gin.Context) {
	projectID, ok := paramID(c, "project_id")
	if !ok {
		return
	}

	var project models.ProjectProfile
	if err := database.DB.First(&project, projectID).Error; err != nil {
		respond(c, http.StatusNotFound, gin.H{"error": "project not found"})
		return
	}

	category := models.CostCategory(c.PostForm("category"))
	if !category.Valid() {
		flash(c, "Please choose a valid cost category.")
		c.Redirect(http.StatusFound, budgetListURL(c, project.ID))
		return
	}

	amount, err := strconv.ParseFloat(strings.TrimSpace(c.PostForm("amount")), 64)
	if err != nil {
		flash(c, "Cost amount must be a number.")
		c.Redirect(http.StatusFound, budgetListURL(c, project.ID))
		return
	}
	if err := budget.ValidateAmount(amount); err != nil {
		flash(c, budgetAmountMessage(err))
		c.Redirect(http.StatusFound, budgetListURL(c, project.ID))
		return
	}

	incurred := time.Now()
	if d := parseDateAt(c.PostForm("date_incurred")); d != nil {
		incurred = *d
	}

	cost := models.ProjectCost{
		ProjectID:    project.ID,
		Category:     category,
		Description:  strings.TrimSpace(c.PostForm("description")),
		Amount:       amount,
		DateIncurred: incurred,
	}

	if raw := strings.TrimSpace(c.PostForm("linked_task")); raw != "" {
		taskID, err := strconv.Atoi(raw)
		if err == nil && taskID > 0 {
			var task models.ProjectTask
			if database.DB.Where("id = ? AND project_id = ?", taskID, project.ID).
				First(&task).Error == nil {
				cost.LinkedTaskID = &task.ID
			}
		}
	}

	if err := database.DB.Create(&cost).Error; err != nil {
		respond(c, http.StatusInternalServerError, gin.H{"error": "failed to save cost"})
		return
	}

	if profile, err := currentReviewerProfile(c); err == nil {
		database.CreateAuditLog(profile.ID, "cost", cost.ID, "create",
			fmt.Sprintf("Recorded %s cost of %.2f for project: %s",
				category.Display(), amount, project.ProjectName))
	}

	flash(c, fmt.Sprintf("%s cost of %.2f recorded.", category.Display(), amount))
	c.Redirect(http.StatusFound, budgetListURL(c, project.ID))
}

// ListCosts returns a project's recorded costs, newest first.
func ListCosts(c *gin.Context) {
	projectID, ok := paramID(c, "project_id")
	if !ok {
		return
	}

	var costs []models.ProjectCost
	err := database.DB.Preload("LinkedTask").
		Where("project_id = ?", projectID).
		Order("date_incurred desc").
		Find(&costs).Error
	if err != nil {
		respond(c, http.StatusInternalServerError, gin.H{"error": "failed to load costs"})
		return
	}

	respond(c, http.StatusOK, gin.H{"costs": costs, "messages": takeFlashes(c)})
}
