package budget

import (
	"errors"
	"math"

	"gorm.io/gorm"

	"buildtrack/internal/models"
)

// MaxAmount is the sanity ceiling for a single allocation
// (₱9,999,999,999,999.99).
const MaxAmount = 9_999_999_999_999.99

var (
	ErrNonPositiveAmount = errors.New("amount must be greater than zero")
	ErrAmountTooLarge    = errors.New("amount exceeds the maximum allowed")
	// ErrOverAllocation signals that an allocation would push the line past
	// its planned amount. Soft-enforced: surfaced to the caller, who decides
	// whether to block or warn.
	ErrOverAllocation = errors.New("allocation exceeds planned amount")
)

// ValidateAmount rejects non-positive and absurdly large allocation
// amounts. Values are never clamped silently.
func ValidateAmount(amount float64) error {
	if amount <= 0 {
		return ErrNonPositiveAmount
	}
	if amount > MaxAmount {
		return ErrAmountTooLarge
	}
	return nil
}

// CheckAllocation reports ErrOverAllocation when adding amount to the
// already-allocated total would exceed the planned amount.
func CheckAllocation(planned, allocated, amount float64) error {
	if allocated+amount > planned {
		return ErrOverAllocation
	}
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// LineSummary is the per-(project, category) financial picture.
type LineSummary struct {
	BudgetID uint                `json:"budget_id"`
	Category models.CostCategory `json:"category"`
	Label    string              `json:"category_label"`

	Planned   float64 `json:"planned"`
	Allocated float64 `json:"allocated"`
	Spent     float64 `json:"spent"`

	// Remaining can go negative; RemainingAbs plus the Overrun flag is what
	// the UI shows, never a bare negative number.
	Remaining    float64 `json:"remaining"`
	RemainingAbs float64 `json:"remaining_abs"`
	Overrun      bool    `json:"overrun"`

	AllocationPercent float64 `json:"allocation_percent"`
}

// Totals aggregates planned/allocated/spent across lines or projects.
type Totals struct {
	Planned   float64 `json:"planned"`
	Allocated float64 `json:"allocated"`
	Spent     float64 `json:"spent"`
}

func (t *Totals) add(l LineSummary) {
	t.Planned = round2(t.Planned + l.Planned)
	t.Allocated = round2(t.Allocated + l.Allocated)
	t.Spent = round2(t.Spent + l.Spent)
}

// Summarize computes the derived figures for one budget line. The
// allocation percentage is capped at 100 even when over-allocated, and a
// zero planned amount yields 0 rather than dividing by zero.
func Summarize(b models.ProjectBudget, allocated, spent float64) LineSummary {
	remaining := round2(b.PlannedAmount - allocated)

	var percent float64
	if b.PlannedAmount > 0 {
		percent = round2(math.Min(allocated/b.PlannedAmount*100, 100))
	}

	return LineSummary{
		BudgetID:          b.ID,
		Category:          b.Category,
		Label:             b.Category.Display(),
		Planned:           round2(b.PlannedAmount),
		Allocated:         round2(allocated),
		Spent:             round2(spent),
		Remaining:         remaining,
		RemainingAbs:      math.Abs(remaining),
		Overrun:           remaining < 0,
		AllocationPercent: percent,
	}
}

// AllocatedFor sums fund allocations drawn against one budget line.
func AllocatedFor(db *gorm.DB, budgetID uint) (float64, error) {
	var total float64
	err := db.Model(&models.FundAllocation{}).
		Where("project_budget_id = ?", budgetID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	return total, err
}

// SpentFor sums actual costs for a (project, category) pair. Costs link by
// category rather than budget row, so spend recorded before the budget
// line existed still counts against it.
func SpentFor(db *gorm.DB, projectID uint, category models.CostCategory) (float64, error) {
	var total float64
	err := db.Model(&models.ProjectCost{}).
		Where("project_id = ? AND category = ?", projectID, category).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	return total, err
}

// LineFor builds the full summary for one budget line.
func LineFor(db *gorm.DB, b models.ProjectBudget) (LineSummary, error) {
	allocated, err := AllocatedFor(db, b.ID)
	if err != nil {
		return LineSummary{}, err
	}
	spent, err := SpentFor(db, b.ProjectID, b.Category)
	if err != nil {
		return LineSummary{}, err
	}
	return Summarize(b, allocated, spent), nil
}

// ProjectSummary rolls up every budget line of a project plus the grand
// total across categories.
func ProjectSummary(db *gorm.DB, projectID uint) ([]LineSummary, Totals, error) {
	var budgets []models.ProjectBudget
	if err := db.Where("project_id = ?", projectID).Order("category asc").Find(&budgets).Error; err != nil {
		return nil, Totals{}, err
	}

	lines := make([]LineSummary, 0, len(budgets))
	var totals Totals
	for _, b := range budgets {
		line, err := LineFor(db, b)
		if err != nil {
			return nil, Totals{}, err
		}
		lines = append(lines, line)
		totals.add(line)
	}
	return lines, totals, nil
}
