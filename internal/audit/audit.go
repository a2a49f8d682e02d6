// Package audit keeps a local trail of every mutation performed through
// the console. The gateway backend is the system of record for the data
// itself; this trail answers "who did what from this console, and when".
package audit

import (
	"time"

	"gateway-console/internal/logger"

	"gorm.io/gorm"
)

type Entry struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Actor     string    `gorm:"type:varchar(255);index" json:"actor"`
	Action    string    `gorm:"type:varchar(100);not null" json:"action"`
	Target    string    `gorm:"type:varchar(255)" json:"target"`
	Outcome   string    `gorm:"type:varchar(20);default:'ok'" json:"outcome"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Entry{})
}

type Recorder struct {
	db *gorm.DB
}

func NewRecorder(db *gorm.DB) *Recorder {
	return &Recorder{db: db}
}

// Record appends one entry. Failures are logged and swallowed: an audit
// write must never fail the operation it describes.
func (r *Recorder) Record(actor, action, target string) {
	r.record(actor, action, target, "ok")
}

// RecordFailure appends one entry for a mutation the backend rejected.
func (r *Recorder) RecordFailure(actor, action, target string) {
	r.record(actor, action, target, "failed")
}

func (r *Recorder) record(actor, action, target, outcome string) {
	if r == nil || r.db == nil {
		return
	}
	entry := &Entry{
		Actor:     actor,
		Action:    action,
		Target:    target,
		Outcome:   outcome,
		CreatedAt: time.Now(),
	}
	if err := r.db.Create(entry).Error; err != nil {
		logger.Sugar.Errorw("failed to record audit entry", "action", action, "err", err)
	}
}

// Recent returns the newest entries, newest first.
func (r *Recorder) Recent(limit int) ([]Entry, error) {
	if r == nil || r.db == nil {
		return nil, nil
	}
	var entries []Entry
	err := r.db.Order("created_at DESC").Limit(limit).Find(&entries).Error
	return entries, err
}
