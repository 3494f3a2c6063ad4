package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/clinicline/go-sms-backend/internal/domain"
)

// AuditLog records handled messages. It satisfies the engine's AuditLog
// contract; a nil receiver or DB degrades to a no-op so audit persistence
// can be optional.
type AuditLog struct {
	DB *gorm.DB
}

// NewAuditLog wraps a GORM handle; db may be nil.
func NewAuditLog(db *gorm.DB) *AuditLog {
	return &AuditLog{DB: db}
}

// Record inserts one audit row, assigning it a UUID.
func (a *AuditLog) Record(ctx context.Context, entry domain.MessageLog) error {
	if a == nil || a.DB == nil {
		return nil
	}
	entry.ID = uuid.NewString()
	return a.DB.WithContext(ctx).Create(&entry).Error
}

// MessageStats returns aggregate metadata for one sender's handled messages:
// the total number of rows and the most recent CreatedAt among them. When
// the sender has no rows, count is 0 and latest is nil.
func MessageStats(ctx context.Context, db *gorm.DB, sender string) (count int64, latest *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.MessageLog{}).Where("sender = ?", sender)

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest created_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		CreatedAt time.Time
	}
	if err = q.Select("created_at").Order("created_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.CreatedAt, nil
}

// ListRecent returns up to limit most recent audit rows for a sender,
// newest first.
func ListRecent(ctx context.Context, db *gorm.DB, sender string, limit int) ([]domain.MessageLog, error) {
	if limit <= 0 {
		limit = 20
	}
	var rows []domain.MessageLog
	err := db.WithContext(ctx).
		Where("sender = ?", sender).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
