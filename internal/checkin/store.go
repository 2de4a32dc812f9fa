// Package checkin is the check-in service terminals talk to: registrations,
// idempotent attendance and the HTTP API over them.
package checkin

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/okian/turnstile/pkg/metrics"
)

// Registration is one ticket holder imported before the event.
type Registration struct {
	TicketNumber string `gorm:"primaryKey;type:varchar(64)"`
	FirstName    string
	LastName     string `gorm:"index:idx_reg_last_name"`
	CreatedAt    time.Time
}

// FullName joins first and last name.
func (r Registration) FullName() string {
	switch {
	case r.FirstName == "":
		return r.LastName
	case r.LastName == "":
		return r.FirstName
	default:
		return r.FirstName + " " + r.LastName
	}
}

// Attendance is the first check-in of a ticket. There is at most one row
// per ticket.
type Attendance struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"`
	TicketNumber string    `gorm:"type:varchar(64);uniqueIndex:idx_att_ticket;not null"`
	AttendeeName string    `gorm:"type:varchar(256)"`
	ScanTimeUTC  time.Time `gorm:"index:idx_att_time;not null"`
	RawQR        string    `gorm:"type:varchar(2048)"`
}

// TableName keeps the historical table name.
func (Attendance) TableName() string { return "attendance_log" }

// Store persists registrations and attendance in SQLite.
type Store struct {
	db  *gorm.DB
	sql *sql.DB

	// mark serializes the check-then-insert of Mark.
	mark sync.Mutex
}

// OpenStore opens or creates the database at path and migrates it.
func OpenStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("%w: creating db dir: %w", ErrStore, err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: opening sqlite db: %w", ErrStore, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("%w: getting sql.DB from gorm: %w", ErrStore, err)
	}
	// SQLite allows one writer; a single connection avoids busy errors.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&Registration{}, &Attendance{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("%w: auto migrate: %w", ErrStore, err)
	}
	return &Store{db: db, sql: sqlDB}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	if s == nil || s.sql == nil {
		return nil
	}
	return s.sql.Close()
}

// Lookup returns the registration for ticket.
func (s *Store) Lookup(ctx context.Context, ticket string) (Registration, error) {
	defer observe("lookup", time.Now())
	var reg Registration
	err := s.db.WithContext(ctx).Where("ticket_number = ?", ticket).Take(&reg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Registration{}, fmt.Errorf("%w: ticket %s", ErrNotFound, ticket)
	}
	if err != nil {
		return Registration{}, fmt.Errorf("%w: lookup: %w", ErrStore, err)
	}
	return reg, nil
}

// Mark records the first check-in of a ticket. A repeat leaves the row
// untouched and returns inserted=false with the original time.
func (s *Store) Mark(ctx context.Context, a Attendance) (inserted bool, first time.Time, err error) { //nolint:gocritic // hugeParam: Attendance is a value row
	defer observe("mark", time.Now())
	s.mark.Lock()
	defer s.mark.Unlock()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing Attendance
		err := tx.Where("ticket_number = ?", a.TicketNumber).Take(&existing).Error
		switch {
		case err == nil:
			first = existing.ScanTimeUTC.UTC()
			return nil
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}
		a.ScanTimeUTC = a.ScanTimeUTC.UTC()
		if err := tx.Create(&a).Error; err != nil {
			return err
		}
		inserted, first = true, a.ScanTimeUTC
		return nil
	})
	if err != nil {
		return false, time.Time{}, fmt.Errorf("%w: mark attendance: %w", ErrStore, err)
	}
	return inserted, first, nil
}

// Count returns the number of attendees checked in.
func (s *Store) Count(ctx context.Context) (int64, error) {
	defer observe("count", time.Now())
	var n int64
	if err := s.db.WithContext(ctx).Model(&Attendance{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("%w: count attendance: %w", ErrStore, err)
	}
	return n, nil
}

// Recent returns the latest check-ins, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Attendance, error) {
	defer observe("recent", time.Now())
	var rows []Attendance
	err := s.db.WithContext(ctx).Order("scan_time_utc DESC").Order("id DESC").Limit(limit).Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("%w: recent attendance: %w", ErrStore, err)
	}
	return rows, nil
}

// EachAttendance calls fn for every check-in in scan order.
func (s *Store) EachAttendance(ctx context.Context, fn func(Attendance) error) error {
	defer observe("export", time.Now())
	rows, err := s.db.WithContext(ctx).Model(&Attendance{}).Order("scan_time_utc").Order("id").Rows()
	if err != nil {
		return fmt.Errorf("%w: export attendance: %w", ErrStore, err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var a Attendance
		if err := s.db.ScanRows(rows, &a); err != nil {
			return fmt.Errorf("%w: export attendance: %w", ErrStore, err)
		}
		if err := fn(a); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: export attendance: %w", ErrStore, err)
	}
	return nil
}

// AddRegistrations inserts registrations, ignoring tickets already present.
// It reports how many rows were inserted and how many ignored.
func (s *Store) AddRegistrations(ctx context.Context, regs []Registration) (inserted, ignored int, err error) {
	defer observe("import", time.Now())
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range regs {
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&regs[i])
			if res.Error != nil {
				return fmt.Errorf("ticket %s: %w", regs[i].TicketNumber, res.Error)
			}
			if res.RowsAffected > 0 {
				inserted++
			} else {
				ignored++
			}
		}
		return nil
	})
	if err != nil {
		return 0, 0, fmt.Errorf("%w: add registrations: %w", ErrStore, err)
	}
	if n, cerr := s.CountRegistrations(ctx); cerr == nil {
		metrics.UpdateRegistrations(int(n))
	}
	return inserted, ignored, nil
}

// CountRegistrations returns the number of registered tickets.
func (s *Store) CountRegistrations(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&Registration{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("%w: count registrations: %w", ErrStore, err)
	}
	return n, nil
}

func observe(op string, start time.Time) {
	metrics.RecordStoreLatency(op, float64(time.Since(start).Microseconds())/1000)
}
