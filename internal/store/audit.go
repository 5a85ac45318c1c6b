package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/diewo77/eventdesk/internal/models"
)

// Audit appends and lists mutation records.
type Audit struct {
	db *gorm.DB
}

func NewAudit(db *gorm.DB) *Audit { return &Audit{db: db} }

func (a *Audit) Record(ctx context.Context, e *models.AuditEntry) error {
	if err := a.db.WithContext(ctx).Create(e).Error; err != nil {
		return fmt.Errorf("record audit entry: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (a *Audit) Recent(ctx context.Context, limit int) ([]models.AuditEntry, error) {
	if limit <= 0 {
		limit = 500
	}
	var out []models.AuditEntry
	err := a.db.WithContext(ctx).Order("created_at DESC, id DESC").Limit(limit).Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	return out, nil
}
