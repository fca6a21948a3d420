// Package auditlog implements the structured audit log pipeline: append-only
// event recording with per-actor anti-log suppression, the unread/read status
// workflow, and external ingestion with token authentication.
package auditlog

import (
	"context"
	"errors"
	"strings"

	"github.com/jzelenk/adminboard/internal/models"
	"gorm.io/gorm"
)

// Log level constants. Levels are stored as-is and are informational only;
// they never drive suppression except for the critical bypass.
const (
	// LevelInfo marks routine events.
	LevelInfo = 1
	// LevelWarning marks suspicious but non-failing events.
	LevelWarning = 2
	// LevelError marks failed operations.
	LevelError = 3
	// LevelCritical marks system errors; never suppressed by anti-log.
	LevelCritical = 4
)

// StatusAll is the virtual status meaning no filter.
const StatusAll = "all"

// Pipeline errors.
var (
	// ErrInvalidEntry indicates missing name/message or a non-positive level.
	ErrInvalidEntry = errors.New("auditlog: invalid entry")
	// ErrUnknownStatus indicates a status filter outside the workflow values.
	ErrUnknownStatus = errors.New("auditlog: unknown status")
)

// Actor carries the per-request identity and suppression state into Log.
// AntiLog is an explicit field here rather than ambient session state so
// suppression stays testable and safe under concurrent requests. External
// and anonymous events use the zero Actor and are never suppressed.
type Actor struct {
	UserID    *uint64 // Acting user, nil for anonymous or external sources.
	IPAddress string  // Requester IP.
	UserAgent string  // Requester user agent.
	AntiLog   bool    // Suppress the actor's own routine entries.
}

// OpResult reports the outcome of a bulk operation without raising.
type OpResult struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
}

// Service is the audit log pipeline.
type Service struct {
	db *gorm.DB
}

// NewService constructs a Service.
func NewService(conn *gorm.DB) *Service {
	return &Service{db: conn}
}

// Log appends one entry. Suppression is evaluated here, at write time: when
// the actor has anti-log enabled, their own sub-critical events are dropped.
// Events without an acting user (external API, anonymous) always land.
func (s *Service) Log(ctx context.Context, actor Actor, name, message string, level int) error {
	name = strings.TrimSpace(name)
	if name == "" || message == "" || level <= 0 {
		return ErrInvalidEntry
	}

	if actor.AntiLog && actor.UserID != nil && level < LevelCritical {
		return nil
	}

	entry := models.LogEntry{
		Name:      name,
		Message:   message,
		Level:     level,
		UserID:    actor.UserID,
		IPAddress: actor.IPAddress,
		UserAgent: actor.UserAgent,
		Status:    models.LogStatusUnread,
	}
	return s.db.WithContext(ctx).Create(&entry).Error
}

// statusFilter validates a status value and reports whether it filters.
func statusFilter(status string) (string, bool, error) {
	switch status {
	case StatusAll:
		return "", false, nil
	case models.LogStatusUnread, models.LogStatusRead:
		return status, true, nil
	default:
		return "", false, ErrUnknownStatus
	}
}

// ListByStatus returns entries matching the status, newest first. The
// virtual status "all" disables the filter.
func (s *Service) ListByStatus(ctx context.Context, status string) ([]models.LogEntry, error) {
	value, filtered, errStatus := statusFilter(status)
	if errStatus != nil {
		return nil, errStatus
	}

	query := s.db.WithContext(ctx).Model(&models.LogEntry{})
	if filtered {
		query = query.Where("status = ?", value)
	}

	var entries []models.LogEntry
	if errFind := query.Order("time DESC, id DESC").Find(&entries).Error; errFind != nil {
		return nil, errFind
	}
	return entries, nil
}

// CountByStatus returns the entry count for the same filter as ListByStatus.
func (s *Service) CountByStatus(ctx context.Context, status string) (int64, error) {
	value, filtered, errStatus := statusFilter(status)
	if errStatus != nil {
		return 0, errStatus
	}

	query := s.db.WithContext(ctx).Model(&models.LogEntry{})
	if filtered {
		query = query.Where("status = ?", value)
	}

	var count int64
	if errCount := query.Count(&count).Error; errCount != nil {
		return 0, errCount
	}
	return count, nil
}

// MarkAllRead transitions every unread entry to read in one bulk update.
func (s *Service) MarkAllRead(ctx context.Context) error {
	return s.db.WithContext(ctx).Model(&models.LogEntry{}).
		Where("status = ?", models.LogStatusUnread).
		Update("status", models.LogStatusRead).Error
}

// ClearLogs deletes all entries inside one transaction and reports the
// outcome instead of raising, so a failure leaves no partial deletion.
func (s *Service) ClearLogs(ctx context.Context) OpResult {
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Where("1 = 1").Delete(&models.LogEntry{}).Error
	})
	if errTx != nil {
		return OpResult{Status: false, Message: errTx.Error()}
	}
	return OpResult{Status: true, Message: "logs cleared"}
}
