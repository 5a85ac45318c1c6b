package store

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/diewo77/eventdesk/internal/models"
)

// Drafts keeps one unsaved form per session and resource key.
type Drafts struct {
	db *gorm.DB
}

func NewDrafts(db *gorm.DB) *Drafts { return &Drafts{db: db} }

// Save replaces the draft for sessionID and resource with form.
func (d *Drafts) Save(ctx context.Context, sessionID, resource string, form url.Values) error {
	draft := models.Draft{SessionID: sessionID, Resource: resource, Payload: form.Encode()}
	err := d.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}, {Name: "resource"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(&draft).Error
	if err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	return nil
}

// Load returns the saved draft, or ok=false when there is none.
func (d *Drafts) Load(ctx context.Context, sessionID, resource string) (form url.Values, ok bool, err error) {
	var draft models.Draft
	err = d.db.WithContext(ctx).Where("session_id = ? AND resource = ?", sessionID, resource).First(&draft).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load draft: %w", err)
	}
	form, err = url.ParseQuery(draft.Payload)
	if err != nil {
		return nil, false, fmt.Errorf("decode draft: %w", err)
	}
	return form, true, nil
}

func (d *Drafts) Delete(ctx context.Context, sessionID, resource string) error {
	err := d.db.WithContext(ctx).Where("session_id = ? AND resource = ?", sessionID, resource).Delete(&models.Draft{}).Error
	if err != nil {
		return fmt.Errorf("delete draft: %w", err)
	}
	return nil
}
