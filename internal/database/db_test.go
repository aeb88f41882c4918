package database

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"buildtrack/internal/models"
)

// Migrate must resolve every declared relation, including the project's
// has-many associations keyed by ProjectID.
func TestMigrateResolvesAllRelations(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	project := models.ProjectProfile{ProjectName: "Yard", Status: models.StatusPlanned}
	require.NoError(t, db.Create(&project).Error)
	require.NoError(t, db.Create(&models.ProjectTask{
		ProjectID: project.ID, TaskName: "Clearing", Weight: 100,
	}).Error)
	require.NoError(t, db.Create(&models.ProjectBudget{
		ProjectID: project.ID, Category: models.CategoryLabor, PlannedAmount: 1000,
	}).Error)

	var got models.ProjectProfile
	require.NoError(t, db.Preload("Tasks").Preload("Budgets").
		Preload("Costs").Preload("Files").
		First(&got, project.ID).Error)
	assert.Len(t, got.Tasks, 1)
	assert.Len(t, got.Budgets, 1)
	assert.Empty(t, got.Costs)
	assert.Empty(t, got.Files)
}
