// Package store persists raw metadata documents in a SQL database so that a model
// can be converted again later under a stable identity.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/nlstn/go-odata-metamodel/internal/csdl"
)

// Supported dialects for Open.
const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
)

// ErrNotFound is returned when no document exists for a name or version.
var ErrNotFound = errors.New("metadata document not found")

// DocumentRecord is one stored version of a metadata document.
type DocumentRecord struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"size:255;not null;uniqueIndex:idx_metadata_documents_name_version"`
	Version     int    `gorm:"not null;uniqueIndex:idx_metadata_documents_name_version"`
	Fingerprint string `gorm:"size:16;not null"`
	Content     []byte `gorm:"not null"`
	CreatedAt   time.Time
}

func (DocumentRecord) TableName() string {
	return "metadata_documents"
}

// Identity names the version, e.g. "orders@v3".
func (r *DocumentRecord) Identity() string {
	return r.Name + "@v" + strconv.Itoa(r.Version)
}

// Document parses the stored content.
func (r *DocumentRecord) Document(ctx context.Context) (csdl.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return csdl.ParseBytes(r.Content)
}

// Fingerprint returns the content hash used to detect unchanged documents.
func Fingerprint(content []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(content))
}

// Open connects to a database with the given dialect.
func Open(dialect, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch dialect {
	case DialectSQLite:
		dialector = sqlite.Open(dsn)
	case DialectPostgres:
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported dialect %q", dialect)
	}
	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", dialect, err)
	}
	return db, nil
}

// Store reads and writes metadata documents.
type Store struct {
	db     *gorm.DB
	logger *slog.Logger
}

// New creates a Store and migrates its table. A nil logger uses slog.Default().
func New(db *gorm.DB, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := db.AutoMigrate(&DocumentRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate metadata documents: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// SetLogger replaces the logger. nil resets it to slog.Default().
func (s *Store) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	s.logger = logger
}

// Save stores content as the next version of name. When content is identical to
// the latest version, that version is returned and created is false.
func (s *Store) Save(ctx context.Context, name string, content []byte) (record *DocumentRecord, created bool, err error) {
	if name == "" {
		return nil, false, errors.New("document name is required")
	}
	if _, err := csdl.ParseBytes(content); err != nil {
		return nil, false, fmt.Errorf("invalid metadata document %q: %w", name, err)
	}
	fingerprint := Fingerprint(content)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var latest DocumentRecord
		findErr := tx.Where("name = ?", name).Order("version DESC").First(&latest).Error
		switch {
		case findErr == nil && latest.Fingerprint == fingerprint:
			record = &latest
			return nil
		case findErr != nil && !errors.Is(findErr, gorm.ErrRecordNotFound):
			return findErr
		}

		record = &DocumentRecord{
			Name:        name,
			Version:     latest.Version + 1,
			Fingerprint: fingerprint,
			Content:     content,
		}
		created = true
		return tx.Create(record).Error
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to save metadata document %q: %w", name, err)
	}

	if created {
		s.logger.Info("Metadata document stored", "name", name, "version", record.Version, "fingerprint", fingerprint)
	} else {
		s.logger.Debug("Metadata document unchanged", "name", name, "version", record.Version)
	}
	return record, created, nil
}

// Latest returns the newest version of name.
func (s *Store) Latest(ctx context.Context, name string) (*DocumentRecord, error) {
	var record DocumentRecord
	err := s.db.WithContext(ctx).Where("name = ?", name).Order("version DESC").First(&record).Error
	return s.found(&record, err, name)
}

// Version returns a specific version of name.
func (s *Store) Version(ctx context.Context, name string, version int) (*DocumentRecord, error) {
	var record DocumentRecord
	err := s.db.WithContext(ctx).Where("name = ? AND version = ?", name, version).First(&record).Error
	return s.found(&record, err, name)
}

// Versions lists the stored versions of name, oldest first, without content.
func (s *Store) Versions(ctx context.Context, name string) ([]DocumentRecord, error) {
	var records []DocumentRecord
	err := s.db.WithContext(ctx).
		Select("id", "name", "version", "fingerprint", "created_at").
		Where("name = ?", name).
		Order("version ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list metadata documents %q: %w", name, err)
	}
	return records, nil
}

func (s *Store) found(record *DocumentRecord, err error, name string) (*DocumentRecord, error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load metadata document %q: %w", name, err)
	}
	return record, nil
}
