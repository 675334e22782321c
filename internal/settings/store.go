package settings

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"renamer/internal/config"
	"renamer/internal/naming"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema
// changes; users must delete the settings database after a bump.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the
// expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// MetadataTags holds the tag values injected into delivered files when the
// metadata toggle is on. Empty fields are skipped at injection time.
type MetadataTags struct {
	Title         string
	Artist        string
	Author        string
	VideoTitle    string
	AudioTitle    string
	SubtitleTitle string
}

// Settings is one user's stored preferences. The zero value means "nothing
// configured": no template, metadata off, deliver to the source chat.
type Settings struct {
	UserID          int64
	FormatTemplate  string
	MetadataEnabled bool
	Metadata        MetadataTags
	ThumbnailRef    string
	CaptionTemplate string
	MediaPreference string
	Destination     int64
	UpdatedAt       time.Time
}

// Store persists user settings backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the settings database at the configured
// path.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.Paths.SettingsDB)
}

// OpenPath opens the settings database at an explicit path.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
		return nil
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete the settings database)",
			ErrSchemaMismatch, version, schemaVersion)
	}
	return nil
}

// Get loads a user's settings. Unknown users get the zero-value Settings
// with only UserID filled in.
func (s *Store) Get(ctx context.Context, userID int64) (Settings, error) {
	out := Settings{UserID: userID}
	var (
		metadataEnabled int
		updatedAt       string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT format_template, metadata_enabled,
		       meta_title, meta_artist, meta_author,
		       meta_video_title, meta_audio_title, meta_subtitle_title,
		       thumbnail_ref, caption_template, media_preference,
		       destination, updated_at
		FROM user_settings WHERE user_id = ?`, userID).Scan(
		&out.FormatTemplate, &metadataEnabled,
		&out.Metadata.Title, &out.Metadata.Artist, &out.Metadata.Author,
		&out.Metadata.VideoTitle, &out.Metadata.AudioTitle, &out.Metadata.SubtitleTitle,
		&out.ThumbnailRef, &out.CaptionTemplate, &out.MediaPreference,
		&out.Destination, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return out, nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("load settings for user %d: %w", userID, err)
	}
	out.MetadataEnabled = metadataEnabled != 0
	if updatedAt != "" {
		if ts, parseErr := time.Parse(time.RFC3339, updatedAt); parseErr == nil {
			out.UpdatedAt = ts
		}
	}
	return out, nil
}

// setColumn upserts a single column for a user, creating the row on first
// write.
func (s *Store) setColumn(ctx context.Context, userID int64, column string, value any) error {
	now := time.Now().UTC().Format(time.RFC3339)
	query := fmt.Sprintf(`
		INSERT INTO user_settings (user_id, %s, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET %s = excluded.%s, updated_at = excluded.updated_at`,
		column, column, column)
	if _, err := s.db.ExecContext(ctx, query, userID, value, now); err != nil {
		return fmt.Errorf("set %s for user %d: %w", column, userID, err)
	}
	return nil
}

// SetFormatTemplate stores the rename template. An empty template is allowed
// and means "not configured".
func (s *Store) SetFormatTemplate(ctx context.Context, userID int64, template string) error {
	return s.setColumn(ctx, userID, "format_template", strings.TrimSpace(template))
}

// SetMetadataEnabled toggles tag injection.
func (s *Store) SetMetadataEnabled(ctx context.Context, userID int64, enabled bool) error {
	value := 0
	if enabled {
		value = 1
	}
	return s.setColumn(ctx, userID, "metadata_enabled", value)
}

// SetMetadataTags replaces all tag values at once.
func (s *Store) SetMetadataTags(ctx context.Context, userID int64, tags MetadataTags) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_settings (
			user_id, meta_title, meta_artist, meta_author,
			meta_video_title, meta_audio_title, meta_subtitle_title, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			meta_title = excluded.meta_title,
			meta_artist = excluded.meta_artist,
			meta_author = excluded.meta_author,
			meta_video_title = excluded.meta_video_title,
			meta_audio_title = excluded.meta_audio_title,
			meta_subtitle_title = excluded.meta_subtitle_title,
			updated_at = excluded.updated_at`,
		userID, tags.Title, tags.Artist, tags.Author,
		tags.VideoTitle, tags.AudioTitle, tags.SubtitleTitle, now)
	if err != nil {
		return fmt.Errorf("set metadata tags for user %d: %w", userID, err)
	}
	return nil
}

// SetThumbnail stores a transport file reference used as the upload
// thumbnail.
func (s *Store) SetThumbnail(ctx context.Context, userID int64, ref string) error {
	return s.setColumn(ctx, userID, "thumbnail_ref", strings.TrimSpace(ref))
}

// ClearThumbnail removes the stored thumbnail reference.
func (s *Store) ClearThumbnail(ctx context.Context, userID int64) error {
	return s.setColumn(ctx, userID, "thumbnail_ref", "")
}

// SetCaption stores the caption template.
func (s *Store) SetCaption(ctx context.Context, userID int64, caption string) error {
	return s.setColumn(ctx, userID, "caption_template", caption)
}

// SetMediaPreference stores the preferred delivery kind. Empty clears the
// preference; anything else must parse as a known kind.
func (s *Store) SetMediaPreference(ctx context.Context, userID int64, preference string) error {
	preference = strings.ToLower(strings.TrimSpace(preference))
	if preference != "" {
		if _, ok := naming.ParseKind(preference); !ok {
			return fmt.Errorf("unknown media preference %q", preference)
		}
	}
	return s.setColumn(ctx, userID, "media_preference", preference)
}

// SetDestination stores an alternate delivery chat.
func (s *Store) SetDestination(ctx context.Context, userID, chatID int64) error {
	return s.setColumn(ctx, userID, "destination", chatID)
}

// ClearDestination restores delivery to the source chat.
func (s *Store) ClearDestination(ctx context.Context, userID int64) error {
	return s.setColumn(ctx, userID, "destination", int64(0))
}
