package state

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/0khacha/web-scraper/internal/model"
)

// ErrEmptySessionID is returned by operations that require an explicit
// session handle. Session identifiers are threaded explicitly through
// every call instead of relying on an ambient "current session".
var ErrEmptySessionID = errors.New("session id must not be empty")

// Store provides SQLite-backed storage for crawl state.
//
// Design decision: We use a single database file holding all sessions
// rather than one file per session. Resumption and maintenance queries
// span sessions, and one file simplifies backup.
type Store struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures Store behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent
	// performance. Recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default store options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a Store at the specified directory.
func Open(dir string, opts Options) (*Store, error) {
	dbPath := filepath.Join(dir, "webscrape.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("state database not found at %s", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create state directory: %w", err)
		}
	}

	// modernc.org/sqlite uses mode=rw to prevent creating new files and
	// mode=rwc to allow creation.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}

	// SQLite supports only one writer; multiple connections buy nothing
	// for this workload.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{db: db, dbPath: dbPath}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

// createTables creates the schema if it doesn't exist.
func (s *Store) createTables() error {
	schema := `
	-- Visited URLs, unique per (url_hash, session_id) so the same URL can
	-- be legitimately revisited in a different session.
	CREATE TABLE IF NOT EXISTS visited_urls (
		url_hash TEXT NOT NULL,
		url TEXT NOT NULL,
		session_id TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'success',
		visited_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(url_hash, session_id)
	);

	CREATE INDEX IF NOT EXISTS idx_visited_hash ON visited_urls(url_hash);
	CREATE INDEX IF NOT EXISTS idx_visited_session ON visited_urls(session_id);

	-- Sessions scope visits and saved items to one logical crawl attempt.
	CREATE TABLE IF NOT EXISTS sessions (
		session_id TEXT PRIMARY KEY,
		start_url TEXT NOT NULL,
		started_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		completed_at DATETIME,
		status TEXT NOT NULL DEFAULT 'active',
		metadata TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_status ON sessions(status);

	-- Append-only item log for session-scoped recovery.
	CREATE TABLE IF NOT EXISTS scraped_items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		url TEXT NOT NULL,
		data TEXT NOT NULL,
		scraped_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_items_session ON scraped_items(session_id);
	`

	_, err := s.db.ExecContext(context.Background(), schema)
	return err
}

// StartSession creates a new session and returns its id.
// Ids are time-derived with a random suffix so two sessions started in the
// same second never collide.
func (s *Store) StartSession(ctx context.Context, startURL string, metadata map[string]any) (string, error) {
	sessionID := fmt.Sprintf("session_%s_%s",
		time.Now().Format("20060102_150405"),
		uuid.NewString()[:8],
	)

	var metadataJSON sql.NullString
	if len(metadata) > 0 {
		data, err := json.Marshal(metadata)
		if err != nil {
			return "", fmt.Errorf("failed to serialize session metadata: %w", err)
		}
		metadataJSON = sql.NullString{String: string(data), Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (session_id, start_url, metadata) VALUES (?, ?, ?)`,
		sessionID, startURL, metadataJSON,
	)
	if err != nil {
		return "", fmt.Errorf("failed to start session: %w", err)
	}

	return sessionID, nil
}

// EndSession marks a session as completed. Calling it on an already-ended
// session is a no-op: the first completion timestamp is preserved.
func (s *Store) EndSession(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrEmptySessionID
	}

	_, err := s.db.ExecContext(ctx,
		`UPDATE sessions
		 SET completed_at = CURRENT_TIMESTAMP, status = 'completed'
		 WHERE session_id = ? AND status = 'active'`,
		sessionID,
	)
	if err != nil {
		return fmt.Errorf("failed to end session: %w", err)
	}
	return nil
}

// IsVisited reports whether a URL was visited. A non-empty sessionID
// scopes the check to that session; empty checks across all sessions,
// which is what resumption across runs uses.
func (s *Store) IsVisited(ctx context.Context, rawURL, sessionID string) (bool, error) {
	hash := hashURL(rawURL)

	var count int
	var err error
	if sessionID != "" {
		err = s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM visited_urls WHERE url_hash = ? AND session_id = ?`,
			hash, sessionID,
		).Scan(&count)
	} else {
		err = s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM visited_urls WHERE url_hash = ?`,
			hash,
		).Scan(&count)
	}
	if err != nil {
		return false, fmt.Errorf("failed to check visited: %w", err)
	}
	return count > 0, nil
}

// MarkVisited records a URL visit. It is idempotent: marking the same URL
// again in the same session updates status and timestamp via UPSERT
// rather than failing on the uniqueness constraint, which also makes it
// safe under concurrent callers.
func (s *Store) MarkVisited(ctx context.Context, rawURL, sessionID string, status model.Status) error {
	if sessionID == "" {
		return ErrEmptySessionID
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO visited_urls (url_hash, url, session_id, status)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(url_hash, session_id) DO UPDATE SET
			status = excluded.status,
			visited_at = CURRENT_TIMESTAMP`,
		hashURL(rawURL), rawURL, sessionID, status.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to mark visited: %w", err)
	}
	return nil
}

// GetVisit retrieves the visit record for a URL within a session.
// Returns nil when the URL was not visited in that session.
func (s *Store) GetVisit(ctx context.Context, rawURL, sessionID string) (*model.VisitRecord, error) {
	var rec model.VisitRecord
	var status, visitedAt string

	err := s.db.QueryRowContext(ctx,
		`SELECT url_hash, url, session_id, status, visited_at
		 FROM visited_urls WHERE url_hash = ? AND session_id = ?`,
		hashURL(rawURL), sessionID,
	).Scan(&rec.URLHash, &rec.URL, &rec.SessionID, &status, &visitedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get visit record: %w", err)
	}

	rec.Status = model.Status(status)
	rec.VisitedAt = parseTimestamp(visitedAt)
	return &rec, nil
}

// SaveItem appends a scraped item to the session's item log.
// The log is append-only; records are never mutated after insert.
func (s *Store) SaveItem(ctx context.Context, rawURL string, payload model.Item, sessionID string) error {
	if sessionID == "" {
		return ErrEmptySessionID
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to serialize item: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO scraped_items (session_id, url, data) VALUES (?, ?, ?)`,
		sessionID, rawURL, string(data),
	)
	if err != nil {
		return fmt.Errorf("failed to save item: %w", err)
	}
	return nil
}

// SessionItems retrieves all items saved during a session, in insertion
// order. This is the session-scoped recovery path.
func (s *Store) SessionItems(ctx context.Context, sessionID string) ([]model.SavedItem, error) {
	if sessionID == "" {
		return nil, ErrEmptySessionID
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT url, data, scraped_at FROM scraped_items
		 WHERE session_id = ?
		 ORDER BY scraped_at, id`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query session items: %w", err)
	}
	defer rows.Close()

	var items []model.SavedItem
	for rows.Next() {
		var (
			rec       model.SavedItem
			dataJSON  string
			scrapedAt string
		)
		if err := rows.Scan(&rec.URL, &dataJSON, &scrapedAt); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}

		if err := json.Unmarshal([]byte(dataJSON), &rec.Payload); err != nil {
			continue // Skip malformed payloads
		}
		rec.SessionID = sessionID
		rec.ScrapedAt = parseTimestamp(scrapedAt)
		items = append(items, rec)
	}

	return items, rows.Err()
}

// VisitedCount returns the number of visited URLs, scoped to a session
// when sessionID is non-empty.
func (s *Store) VisitedCount(ctx context.Context, sessionID string) (int, error) {
	var count int
	var err error
	if sessionID != "" {
		err = s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM visited_urls WHERE session_id = ?`, sessionID,
		).Scan(&count)
	} else {
		err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM visited_urls`).Scan(&count)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to count visits: %w", err)
	}
	return count, nil
}

// GetSession retrieves a session by id. Returns nil when unknown.
func (s *Store) GetSession(ctx context.Context, sessionID string) (*model.Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT session_id, start_url, started_at, completed_at, status, metadata
		 FROM sessions WHERE session_id = ?`,
		sessionID,
	)
	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return sess, err
}

// ActiveSessions returns all sessions still marked active, newest first.
// A session stuck in active indicates an interrupted crawl; callers use
// this for detection and recovery.
func (s *Store) ActiveSessions(ctx context.Context) ([]model.Session, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, start_url, started_at, completed_at, status, metadata
		 FROM sessions WHERE status = 'active'
		 ORDER BY started_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query active sessions: %w", err)
	}
	defer rows.Close()

	var sessions []model.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *sess)
	}
	return sessions, rows.Err()
}

// rowScanner abstracts *sql.Row and *sql.Rows for scanSession.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*model.Session, error) {
	var (
		sess         model.Session
		startedAt    string
		completedAt  sql.NullString
		status       string
		metadataJSON sql.NullString
	)

	err := row.Scan(&sess.SessionID, &sess.StartURL, &startedAt, &completedAt, &status, &metadataJSON)
	if err != nil {
		return nil, err
	}

	sess.StartedAt = parseTimestamp(startedAt)
	if completedAt.Valid {
		sess.CompletedAt = parseTimestamp(completedAt.String)
	}
	sess.Status = model.SessionStatus(status)
	if metadataJSON.Valid && metadataJSON.String != "" {
		if err := json.Unmarshal([]byte(metadataJSON.String), &sess.Metadata); err != nil {
			sess.Metadata = nil
		}
	}

	return &sess, nil
}

// ClearSession removes all data for one session.
func (s *Store) ClearSession(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrEmptySessionID
	}

	for _, q := range []string{
		`DELETE FROM visited_urls WHERE session_id = ?`,
		`DELETE FROM scraped_items WHERE session_id = ?`,
		`DELETE FROM sessions WHERE session_id = ?`,
	} {
		if _, err := s.db.ExecContext(ctx, q, sessionID); err != nil {
			return fmt.Errorf("failed to clear session: %w", err)
		}
	}
	return nil
}

// ClearAll removes all state data.
func (s *Store) ClearAll(ctx context.Context) error {
	for _, q := range []string{
		`DELETE FROM visited_urls`,
		`DELETE FROM scraped_items`,
		`DELETE FROM sessions`,
	} {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("failed to clear state: %w", err)
		}
	}
	return nil
}

// hashURL returns the hex-encoded hash of the normalized URL. The hash is
// the primary key for visit records so equivalent URL spellings collapse
// into one record.
func hashURL(rawURL string) string {
	sum := sha256.Sum256([]byte(normalizeURL(rawURL)))
	return hex.EncodeToString(sum[:])
}

// normalizeURL normalizes a URL for deduplication: fragments are dropped,
// scheme and host are lowercased, and the empty path becomes "/" so
// http://example.com and http://example.com/ hash identically.
func normalizeURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	u.Fragment = ""
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	if u.Path == "" {
		u.Path = "/"
	}

	return u.String()
}

// timestampFormats contains the timestamp formats SQLite may return.
// More specific formats come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts each known format, returning zero time when
// none matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
