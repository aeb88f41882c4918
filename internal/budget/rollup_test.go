package budget

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"buildtrack/internal/database"
	"buildtrack/internal/models"
)

func TestValidateAmount(t *testing.T) {
	assert.NoError(t, ValidateAmount(100))
	assert.NoError(t, ValidateAmount(0.01))
	assert.NoError(t, ValidateAmount(MaxAmount))

	assert.ErrorIs(t, ValidateAmount(0), ErrNonPositiveAmount)
	assert.ErrorIs(t, ValidateAmount(-5000), ErrNonPositiveAmount)
	assert.ErrorIs(t, ValidateAmount(MaxAmount+1), ErrAmountTooLarge)
}

func TestCheckAllocation(t *testing.T) {
	assert.NoError(t, CheckAllocation(10000, 7000, 3000))
	assert.ErrorIs(t, CheckAllocation(10000, 7000, 3000.01), ErrOverAllocation)
	assert.ErrorIs(t, CheckAllocation(0, 0, 1), ErrOverAllocation)
}

func TestSummarize(t *testing.T) {
	line := models.ProjectBudget{Category: models.CategoryLabor, PlannedAmount: 10000}

	s := Summarize(line, 7000, 3000)
	assert.Equal(t, 10000.0, s.Planned)
	assert.Equal(t, 7000.0, s.Allocated)
	assert.Equal(t, 3000.0, s.Spent)
	assert.Equal(t, 3000.0, s.Remaining)
	assert.Equal(t, 3000.0, s.RemainingAbs)
	assert.False(t, s.Overrun)
	assert.Equal(t, 70.0, s.AllocationPercent)
	assert.Equal(t, "Labor", s.Label)
}

func TestSummarizeOverrun(t *testing.T) {
	line := models.ProjectBudget{Category: models.CategoryMaterials, PlannedAmount: 10000}

	s := Summarize(line, 12000, 0)
	assert.Equal(t, -2000.0, s.Remaining)
	assert.Equal(t, 2000.0, s.RemainingAbs)
	assert.True(t, s.Overrun)
	// Capped even when over-allocated.
	assert.Equal(t, 100.0, s.AllocationPercent)
}

func TestSummarizeZeroPlanned(t *testing.T) {
	line := models.ProjectBudget{Category: models.CategoryOtherCost, PlannedAmount: 0}

	s := Summarize(line, 500, 0)
	assert.Equal(t, 0.0, s.AllocationPercent)
	assert.True(t, s.Overrun)
}

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func TestProjectSummary(t *testing.T) {
	db := testDB(t)

	project := models.ProjectProfile{ProjectName: "Plant B", Status: models.StatusOngoing}
	require.NoError(t, db.Create(&project).Error)

	labor := models.ProjectBudget{ProjectID: project.ID, Category: models.CategoryLabor, PlannedAmount: 10000}
	materials := models.ProjectBudget{ProjectID: project.ID, Category: models.CategoryMaterials, PlannedAmount: 5000}
	require.NoError(t, db.Create(&labor).Error)
	require.NoError(t, db.Create(&materials).Error)

	now := time.Now()
	require.NoError(t, db.Create(&models.FundAllocation{
		ProjectBudgetID: labor.ID, Amount: 4000, DateAllocated: now,
	}).Error)
	require.NoError(t, db.Create(&models.FundAllocation{
		ProjectBudgetID: labor.ID, Amount: 3000, DateAllocated: now,
	}).Error)

	// Costs link by (project, category), not by budget row.
	require.NoError(t, db.Create(&models.ProjectCost{
		ProjectID: project.ID, Category: models.CategoryLabor, Amount: 3000, DateIncurred: now,
	}).Error)
	require.NoError(t, db.Create(&models.ProjectCost{
		ProjectID: project.ID, Category: models.CategoryEquipment, Amount: 999, DateIncurred: now,
	}).Error)

	lines, totals, err := ProjectSummary(db, project.ID)
	require.NoError(t, err)
	require.Len(t, lines, 2)

	byCategory := map[models.CostCategory]LineSummary{}
	for _, l := range lines {
		byCategory[l.Category] = l
	}

	gotLabor := byCategory[models.CategoryLabor]
	assert.Equal(t, 7000.0, gotLabor.Allocated)
	assert.Equal(t, 3000.0, gotLabor.Spent)
	assert.Equal(t, 3000.0, gotLabor.Remaining)
	assert.Equal(t, 70.0, gotLabor.AllocationPercent)

	gotMaterials := byCategory[models.CategoryMaterials]
	assert.Equal(t, 0.0, gotMaterials.Allocated)
	assert.Equal(t, 0.0, gotMaterials.Spent)
	assert.Equal(t, 5000.0, gotMaterials.Remaining)

	// The equipment cost has no budget line and stays out of the totals.
	assert.Equal(t, 15000.0, totals.Planned)
	assert.Equal(t, 7000.0, totals.Allocated)
	assert.Equal(t, 3000.0, totals.Spent)
}

func TestAllocatedForEmpty(t *testing.T) {
	db := testDB(t)

	total, err := AllocatedFor(db, 42)
	require.NoError(t, err)
	assert.Equal(t, 0.0, total)
}
