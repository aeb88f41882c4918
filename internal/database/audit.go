package database

import "buildtrack/internal/models"

// CreateAuditLog records who did what to which entity. Best effort: a
// failed audit write never blocks the operation it describes.
func CreateAuditLog(profileID uint, entity string, entityID uint, action, details string) {
	if DB == nil || profileID == 0 {
		return
	}
	record := models.AuditLog{
		ProfileID: profileID,
		Entity:    entity,
		EntityID:  entityID,
		Action:    action,
		Details:   details,
	}
	_ = DB.Create(&record).Error
}
