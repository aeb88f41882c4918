package database

import (
	"log"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"buildtrack/internal/models"
)

var DB *gorm.DB

func Init(dsn string) {
	var err error

	const maxAttempts = 10
	for i := 1; i <= maxAttempts; i++ {
		log.Printf("trying to connect to DB (attempt %d/%d)...", i, maxAttempts)

		DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
		if err == nil {
			log.Println("connected to DB successfully")
			break
		}

		log.Printf("failed to connect to DB: %v", err)
		time.Sleep(2 * time.Second)
	}

	if err != nil {
		log.Fatalf("failed to connect to db after %d attempts: %v", maxAttempts, err)
	}

	if err := Migrate(DB); err != nil {
		log.Fatalf("failed to migrate: %v", err)
	}
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.UserProfile{},
		&models.ProjectProfile{},
		&models.ProjectFile{},
		&models.ProjectTask{},
		&models.ProgressUpdate{},
		&models.ProgressFile{},
		&models.ProjectBudget{},
		&models.ProjectCost{},
		&models.FundAllocation{},
		&models.AuditLog{},
	)
}

// BootstrapAdmin provisions a single superuser account. It runs only when
// explicitly enabled (BOOTSTRAP_ADMIN=1) and is idempotent: if any
// superuser exists it does nothing. Intentionally a deployment-time step,
// not a migration side effect.
func BootstrapAdmin(username, password string) error {
	if username == "" || password == "" {
		log.Println("BOOTSTRAP_ADMIN set but ADMIN_USERNAME/ADMIN_PASSWORD missing; skipping")
		return nil
	}

	var count int64
	if err := DB.Model(&models.User{}).
		Where("is_superuser = ?", true).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := models.User{
		Username:      username,
		Email:         username + "@example.com",
		EmailVerified: true,
		IsSuperuser:   true,
		PasswordHash:  string(hash),
	}
	if err := DB.Create(&admin).Error; err != nil {
		return err
	}

	profile := models.UserProfile{
		UserID:   admin.ID,
		Role:     models.RoleOperationsManager,
		FullName: username,
	}
	if err := DB.Create(&profile).Error; err != nil {
		return err
	}

	log.Printf("bootstrapped superuser %q", username)
	return nil
}
