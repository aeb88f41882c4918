package progress

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"buildtrack/internal/database"
	"buildtrack/internal/models"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func TestRecalcTaskAndProjectCascade(t *testing.T) {
	db := testDB(t)

	project := models.ProjectProfile{ProjectName: "Warehouse A", Status: models.StatusPlanned}
	require.NoError(t, db.Create(&project).Error)

	heavy := models.ProjectTask{ProjectID: project.ID, TaskName: "Structural", Weight: 50}
	light := models.ProjectTask{ProjectID: project.ID, TaskName: "Finishing", Weight: 40}
	require.NoError(t, db.Create(&heavy).Error)
	require.NoError(t, db.Create(&light).Error)

	require.NoError(t, db.Create(&models.ProgressUpdate{
		TaskID: heavy.ID, ProgressPercent: 60, Status: models.UpdateApproved,
	}).Error)
	require.NoError(t, db.Create(&models.ProgressUpdate{
		TaskID: heavy.ID, ProgressPercent: 25, Status: models.UpdatePending,
	}).Error)
	require.NoError(t, db.Create(&models.ProgressUpdate{
		TaskID: light.ID, ProgressPercent: 100, Status: models.UpdateApproved,
	}).Error)

	require.NoError(t, RecalcTask(db, &heavy))
	require.NoError(t, RecalcTask(db, &light))
	require.NoError(t, RecalcProject(db, project.ID))

	var gotHeavy models.ProjectTask
	require.NoError(t, db.First(&gotHeavy, heavy.ID).Error)
	assert.Equal(t, 60.0, gotHeavy.Progress)
	assert.Equal(t, models.TaskOngoing, gotHeavy.Status)
	assert.False(t, gotHeavy.IsCompleted)

	var gotLight models.ProjectTask
	require.NoError(t, db.First(&gotLight, light.ID).Error)
	assert.Equal(t, 100.0, gotLight.Progress)
	assert.Equal(t, models.TaskCompleted, gotLight.Status)
	assert.True(t, gotLight.IsCompleted)

	var gotProject models.ProjectProfile
	require.NoError(t, db.First(&gotProject, project.ID).Error)
	assert.Equal(t, 70.0, gotProject.Progress)
	assert.Equal(t, models.StatusOngoing, gotProject.Status)
}

func TestRecalcProjectKeepsCancelledStatus(t *testing.T) {
	db := testDB(t)

	project := models.ProjectProfile{ProjectName: "Halted", Status: models.StatusCancelled}
	require.NoError(t, db.Create(&project).Error)

	task := models.ProjectTask{ProjectID: project.ID, TaskName: "Groundwork", Weight: 100}
	require.NoError(t, db.Create(&task).Error)
	require.NoError(t, db.Create(&models.ProgressUpdate{
		TaskID: task.ID, ProgressPercent: 100, Status: models.UpdateApproved,
	}).Error)

	require.NoError(t, RecalcTask(db, &task))
	require.NoError(t, RecalcProject(db, project.ID))

	var got models.ProjectProfile
	require.NoError(t, db.First(&got, project.ID).Error)
	assert.Equal(t, 100.0, got.Progress)
	assert.Equal(t, models.StatusCancelled, got.Status)
}

func TestRecalcTaskNoApprovedUpdates(t *testing.T) {
	db := testDB(t)

	project := models.ProjectProfile{ProjectName: "Empty", Status: models.StatusPlanned}
	require.NoError(t, db.Create(&project).Error)

	task := models.ProjectTask{ProjectID: project.ID, TaskName: "Survey", Weight: 100, Progress: 10}
	require.NoError(t, db.Create(&task).Error)
	require.NoError(t, db.Create(&models.ProgressUpdate{
		TaskID: task.ID, ProgressPercent: 50, Status: models.UpdatePending,
	}).Error)

	require.NoError(t, RecalcTask(db, &task))

	var got models.ProjectTask
	require.NoError(t, db.First(&got, task.ID).Error)
	assert.Equal(t, 0.0, got.Progress)
	assert.Equal(t, models.TaskPlanned, got.Status)
}
