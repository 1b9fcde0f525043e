package scenes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Store is the single source of truth for session scene state, backed by an
// in-memory SQLite database. State is created empty at process start and is
// never persisted across runs.
type Store struct {
	db  *sql.DB
	hub *changeHub
}

// Open initializes a fresh session store.
func Open() (*Store, error) {
	// A named in-memory database with a shared cache so every pooled
	// connection sees the same data; the uuid keeps concurrent stores (tests)
	// isolated from each other.
	dsn := fmt.Sprintf("file:scenes-%s?mode=memory&cache=shared", uuid.NewString())
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open scene store: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init scene schema: %w", err)
	}

	return &Store{db: db, hub: newChangeHub()}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	s.hub.close()
	return s.db.Close()
}

// ReplaceAll atomically replaces the entire store with the provided scenes.
// Either every scene commits or none do.
func (s *Store) ReplaceAll(ctx context.Context, batch []Scene) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM scenes`); err != nil {
		return fmt.Errorf("clear scenes: %w", err)
	}
	for _, scene := range batch {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO scenes (id, text, image_ref, video_ref, created_at, updated_at, last_animated_at)
             VALUES (?, ?, ?, ?, ?, ?, ?)`,
			scene.ID,
			scene.Text,
			scene.ImageRef,
			nullableString(scene.VideoRef),
			formatTime(scene.CreatedAt),
			formatTime(scene.UpdatedAt),
			nullableTime(scene.LastAnimatedAt),
		); err != nil {
			return fmt.Errorf("insert scene %d: %w", scene.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace: %w", err)
	}

	s.hub.publish(Change{Op: ChangeReplaced})
	return nil
}

// List returns all scenes in script order.
func (s *Store) List(ctx context.Context) ([]Scene, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+` FROM scenes ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list scenes: %w", err)
	}
	defer rows.Close()

	var result []Scene
	for rows.Next() {
		scene, err := scanScene(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, scene)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scenes: %w", err)
	}
	return result, nil
}

// GetByID fetches a single scene.
func (s *Store) GetByID(ctx context.Context, id int64) (*Scene, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` FROM scenes WHERE id = ?`, id)
	scene, err := scanScene(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &scene, nil
}

// UpdateImage replaces the scene's image reference. Any existing video
// reference and last-animated timestamp are cleared because they were derived
// from the previous image; the updated timestamp is refreshed.
func (s *Store) UpdateImage(ctx context.Context, id int64, imageRef string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE scenes SET image_ref = ?, video_ref = NULL, last_animated_at = NULL, updated_at = ? WHERE id = ?`,
		imageRef, formatTime(time.Now().UTC()), id,
	)
	if err != nil {
		return fmt.Errorf("update scene image: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}

	s.hub.publish(Change{Op: ChangeImageUpdated, SceneID: id})
	return nil
}

// SetVideoIfImage commits a video reference only when the scene's current
// image still matches expectImage, failing with ErrImageChanged otherwise.
// This closes the window where a concurrent regeneration invalidates an
// in-flight animation.
func (s *Store) SetVideoIfImage(ctx context.Context, id int64, videoRef, expectImage string, animatedAt time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE scenes SET video_ref = ?, last_animated_at = ? WHERE id = ? AND image_ref = ?`,
		videoRef, formatTime(animatedAt.UTC()), id, expectImage,
	)
	if err != nil {
		return fmt.Errorf("set scene video: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		if _, getErr := s.GetByID(ctx, id); getErr != nil {
			return getErr
		}
		return ErrImageChanged
	}

	s.hub.publish(Change{Op: ChangeVideoSet, SceneID: id})
	return nil
}

// Clear removes every scene; used when the user starts a new project.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM scenes`); err != nil {
		return fmt.Errorf("clear scenes: %w", err)
	}
	s.hub.publish(Change{Op: ChangeCleared})
	return nil
}

// Stats returns aggregate counts.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COUNT(video_ref) FROM scenes`)
	if err := row.Scan(&stats.Total, &stats.Animated); err != nil {
		return Stats{}, fmt.Errorf("scene stats: %w", err)
	}
	return stats, nil
}

const selectColumns = `SELECT id, text, image_ref, video_ref, created_at, updated_at, last_animated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanScene(row rowScanner) (Scene, error) {
	var (
		scene        Scene
		videoRef     sql.NullString
		createdAt    string
		updatedAt    string
		lastAnimated sql.NullString
	)
	if err := row.Scan(&scene.ID, &scene.Text, &scene.ImageRef, &videoRef, &createdAt, &updatedAt, &lastAnimated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Scene{}, err
		}
		return Scene{}, fmt.Errorf("scan scene: %w", err)
	}
	scene.VideoRef = videoRef.String
	scene.CreatedAt = parseTime(createdAt)
	scene.UpdatedAt = parseTime(updatedAt)
	if lastAnimated.Valid {
		at := parseTime(lastAnimated.String)
		scene.LastAnimatedAt = &at
	}
	return scene, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) time.Time {
	parsed, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return parsed
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}
