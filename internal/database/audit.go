package database

import (
	"site-projects/internal/models"

	"gorm.io/gorm"
)

// helper для записи в журнал аудита; tx: текущая транзакция или обычный *gorm.DB
func CreateAuditLog(tx *gorm.DB, userID uint, entity string, entityID uint, action, details string) error {
	if tx == nil {
		return nil
	}
	record := models.AuditLog{
		UserID:   userID,
		Entity:   entity,
		EntityID: entityID,
		Action:   action,
		Details:  details,
	}
	return tx.Create(&record).Error
}

// AuditLogs возвращает записи журнала, свежие сверху.
func AuditLogs(db *gorm.DB, entity string, entityID uint, limit int) ([]models.AuditLog, error) {
	q := db.Preload("User").Order("created_at desc, id desc")
	if entity != "" {
		q = q.Where("entity = ?", entity)
	}
	if entityID != 0 {
		q = q.Where("entity_id = ?", entityID)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var logs []models.AuditLog
	err := q.Find(&logs).Error
	return logs, err
}
