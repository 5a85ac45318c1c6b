package models

import "time"

// The types below are the only data eventdesk persists itself. Business
// records live upstream.

// Session is a server-side login. The browser only holds a signed ID.
type Session struct {
	ID              string `gorm:"primaryKey;size:36"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
	AccountID       int64     `gorm:"index;not null"`
	Username        string    `gorm:"size:255;not null"`
	Email           string    `gorm:"size:255"`
	Role            string    `gorm:"size:50;not null"`
	UpstreamToken   string    `gorm:"type:text"`
	UpstreamCookies string    `gorm:"type:text"` // raw Set-Cookie lines, newline separated
	ExpiresAt       time.Time `gorm:"index;not null"`
}

// Expired reports whether the session is no longer valid at now.
func (s *Session) Expired(now time.Time) bool { return !now.Before(s.ExpiresAt) }

// Draft is an unsaved form for one resource, kept per session. Payload is
// the url-encoded form.
type Draft struct {
	ID        uint `gorm:"primaryKey"`
	UpdatedAt time.Time
	SessionID string `gorm:"size:36;not null;uniqueIndex:idx_draft_owner"`
	Resource  string `gorm:"size:100;not null;uniqueIndex:idx_draft_owner"`
	Payload   string `gorm:"type:text;not null"`
}

// AuditEntry records one successful upstream mutation.
type AuditEntry struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"index"`
	AccountID int64     `gorm:"index"`
	Username  string    `gorm:"size:255"`
	Action    string    `gorm:"size:20;not null"`
	Resource  string    `gorm:"size:100;not null"`
	EventID   string    `gorm:"size:36"`
	RecordIDs string    `gorm:"type:text"` // comma separated
	Detail    string    `gorm:"size:500"`
}

// Snapshot is the last list successfully fetched for a session and
// resource key. It is shown when a later fetch fails.
type Snapshot struct {
	ID        uint `gorm:"primaryKey"`
	UpdatedAt time.Time
	SessionID string `gorm:"size:36;not null;uniqueIndex:idx_snapshot_owner"`
	ListKey   string `gorm:"size:200;not null;uniqueIndex:idx_snapshot_owner"`
	Payload   []byte `gorm:"not null"`
}
