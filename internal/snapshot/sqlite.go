package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gorm.io/gorm"

	"github.com/jmylchreest/somafm/internal/channel"
	"github.com/jmylchreest/somafm/internal/database"
)

// channelRow is one channel of the snapshot, keyed by its position in the feed.
type channelRow struct {
	Position    int    `gorm:"primaryKey;autoIncrement:false"`
	ChannelID   string `gorm:"column:channel_id"`
	Title       string `gorm:"not null"`
	Description string
	Genre       string
	DJ          string `gorm:"column:dj"`
	Listeners   int
	Playlists   []channel.Playlist `gorm:"serializer:json"`
}

func (channelRow) TableName() string { return "snapshot_channels" }

// snapshotMeta records when the stored directory was fetched.
type snapshotMeta struct {
	ID        int `gorm:"primaryKey;autoIncrement:false"`
	FetchedAt time.Time
	Count     int
}

func (snapshotMeta) TableName() string { return "snapshot_meta" }

const metaRowID = 1

// SQLiteStore keeps the snapshot in a SQLite database. Each save replaces
// every row inside one transaction.
type SQLiteStore struct {
	path   string
	logger *slog.Logger
}

// NewSQLiteStore creates a SQLiteStore for the database at path.
// The database is opened per operation; nothing is created until Save.
func NewSQLiteStore(path string, logger *slog.Logger) *SQLiteStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLiteStore{path: path, logger: logger}
}

// Path returns the database path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Save implements Store.
func (s *SQLiteStore) Save(ctx context.Context, dir *channel.Directory) error {
	db, err := database.Open(s.path, "error", s.logger)
	if err != nil {
		return &WriteError{Path: s.path, Err: err}
	}
	defer db.Close()

	if err := db.WithContext(ctx).AutoMigrate(&channelRow{}, &snapshotMeta{}); err != nil {
		return &WriteError{Path: s.path, Err: fmt.Errorf("migrating snapshot schema: %w", err)}
	}

	rows := make([]channelRow, len(dir.Channels))
	for i, ch := range dir.Channels {
		rows[i] = channelRow{
			Position:    i,
			ChannelID:   ch.ID,
			Title:       ch.Title,
			Description: ch.Description,
			Genre:       ch.Genre,
			DJ:          ch.DJ,
			Listeners:   int(ch.Listeners),
			Playlists:   ch.Playlists,
		}
	}

	err = db.Transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&channelRow{}).Error; err != nil {
			return fmt.Errorf("clearing channels: %w", err)
		}
		if err := tx.Where("1 = 1").Delete(&snapshotMeta{}).Error; err != nil {
			return fmt.Errorf("clearing metadata: %w", err)
		}
		if len(rows) > 0 {
			if err := tx.CreateInBatches(rows, 100).Error; err != nil {
				return fmt.Errorf("inserting channels: %w", err)
			}
		}
		meta := snapshotMeta{ID: metaRowID, FetchedAt: dir.FetchedAt, Count: len(rows)}
		if err := tx.Create(&meta).Error; err != nil {
			return fmt.Errorf("inserting metadata: %w", err)
		}
		return nil
	})
	if err != nil {
		return &WriteError{Path: s.path, Err: err}
	}
	s.logger.DebugContext(ctx, "snapshot saved",
		slog.String("path", db.Path()),
		slog.Int("channels", len(rows)),
	)
	return nil
}

// Exists implements Store.
func (s *SQLiteStore) Exists() bool {
	info, err := os.Stat(s.path)
	return err == nil && !info.IsDir()
}

// Load implements Store.
func (s *SQLiteStore) Load(ctx context.Context) (*channel.Directory, error) {
	if !s.Exists() {
		return nil, ErrNoSnapshot
	}

	db, err := database.Open(s.path, "silent", s.logger)
	if err != nil {
		return nil, &CorruptSnapshotError{Path: s.path, Err: err}
	}
	defer db.Close()
	if err := db.Ping(ctx); err != nil {
		return nil, &CorruptSnapshotError{Path: s.path, Err: err}
	}

	var meta snapshotMeta
	if err := db.WithContext(ctx).First(&meta, metaRowID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = fmt.Errorf("snapshot was never completed")
		}
		return nil, &CorruptSnapshotError{Path: s.path, Err: err}
	}

	var rows []channelRow
	if err := db.WithContext(ctx).Order("position ASC").Find(&rows).Error; err != nil {
		return nil, &CorruptSnapshotError{Path: s.path, Err: err}
	}
	if len(rows) != meta.Count {
		return nil, &CorruptSnapshotError{
			Path: s.path,
			Err:  fmt.Errorf("expected %d channels, found %d", meta.Count, len(rows)),
		}
	}

	dir := &channel.Directory{
		Channels:  make([]channel.Channel, len(rows)),
		FetchedAt: meta.FetchedAt,
	}
	for i, row := range rows {
		dir.Channels[i] = channel.Channel{
			ID:          row.ChannelID,
			Title:       row.Title,
			Description: row.Description,
			Genre:       row.Genre,
			DJ:          row.DJ,
			Listeners:   channel.ListenerCount(row.Listeners),
			Playlists:   row.Playlists,
		}
	}

	return dir, nil
}
