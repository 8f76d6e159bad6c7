// Package store keeps the export history in sqlite. A Store observes the
// compositor and records the latest state of every job.
package store

import (
	"context"
	"time"

	"github.com/ZacxDev/video-captioner/internal/compositor"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

var ErrNotFound = errors.New("export record not found")

// ExportRecord is the latest known state of one export job.
type ExportRecord struct {
	ID         string    `gorm:"primaryKey;size:64" json:"id"`
	Source     string    `gorm:"size:1024" json:"source"`
	Tier       string    `gorm:"size:16;index" json:"tier"`
	State      string    `gorm:"size:32;index" json:"state"`
	OutputPath string    `gorm:"size:1024" json:"output_path,omitempty"`
	ErrorKind  string    `gorm:"size:32" json:"error_kind,omitempty"`
	Error      string    `gorm:"type:text" json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type Store struct {
	db     *gorm.DB
	logger zerolog.Logger
}

// Open opens or creates the sqlite database at path.
func Open(path string, log zerolog.Logger) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}
	return New(db, log)
}

// New wraps an open database and migrates the schema.
func New(db *gorm.DB, log zerolog.Logger) (*Store, error) {
	if err := db.AutoMigrate(&ExportRecord{}); err != nil {
		return nil, errors.Wrap(err, "failed to migrate database")
	}
	return &Store{
		db:     db,
		logger: log.With().Str("component", "store").Logger(),
	}, nil
}

// OnStateChange records e. Write failures are logged, never returned to the
// export.
func (s *Store) OnStateChange(e compositor.Event) {
	if err := s.Save(context.Background(), e); err != nil {
		s.logger.Error().Err(err).Str("job", e.JobID).Msg("failed to record export state")
	}
}

// Save upserts the record of the event's job.
func (s *Store) Save(ctx context.Context, e compositor.Event) error {
	at := e.Time
	if at.IsZero() {
		at = time.Now()
	}
	rec := ExportRecord{
		ID:         e.JobID,
		Source:     e.Source,
		Tier:       string(e.Tier),
		State:      string(e.State),
		OutputPath: e.OutputPath,
		CreatedAt:  at,
		UpdatedAt:  at,
	}
	if e.Err != nil {
		rec.ErrorKind = string(compositor.KindOf(e.Err))
		rec.Error = e.Err.Error()
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"state", "output_path", "error_kind", "error", "updated_at"}),
	}).Create(&rec).Error
	return errors.Wrapf(err, "failed to save export %s", e.JobID)
}

// Get returns the record of job id.
func (s *Store) Get(ctx context.Context, id string) (*ExportRecord, error) {
	var rec ExportRecord
	err := s.db.WithContext(ctx).First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Wrap(ErrNotFound, id)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load export %s", id)
	}
	return &rec, nil
}

type ListOptions struct {
	// State filters by job state when set.
	State compositor.State
	Limit int
}

// List returns records, most recently updated first.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]ExportRecord, error) {
	q := s.db.WithContext(ctx).Order("updated_at DESC")
	if opts.State != "" {
		q = q.Where("state = ?", string(opts.State))
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}

	var recs []ExportRecord
	if err := q.Find(&recs).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list exports")
	}
	return recs, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return errors.WithStack(err)
	}
	return sqlDB.Close()
}
