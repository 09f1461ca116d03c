package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/joescharf/crf/internal/models"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const settingCurrentReview = "current_review"

// SQLiteStore implements Store using modernc.org/sqlite (pure Go, no CGO).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// One writer at a time; the API server shares this handle across requests.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", strings.ToLower(pragma), err)
		}
	}

	return &SQLiteStore{db: db}, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// newULID generates a new ULID string.
func newULID() string {
	entropy := rand.New(rand.NewSource(time.Now().UnixNano()))
	return ulid.MustNew(ulid.Timestamp(time.Now()), ulid.Monotonic(entropy, 0)).String()
}

func sqlLimit(n int) int {
	if n <= 0 {
		return -1
	}
	return n
}

// Migrate runs all embedded SQL migration files in filename order, skipping
// those already recorded in schema_migrations.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		filename TEXT PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT (datetime('now'))
	)`)
	if err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()

		var count int
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations WHERE filename = ?", name).Scan(&count); err != nil {
			return fmt.Errorf("check migration %s: %w", name, err)
		}
		if count > 0 {
			continue
		}

		data, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := s.db.ExecContext(ctx, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
		if _, err := s.db.ExecContext(ctx, "INSERT INTO schema_migrations (filename) VALUES (?)", name); err != nil {
			return fmt.Errorf("record migration %s: %w", name, err)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Reviews ---

// SaveReview writes r and replaces its suggestions, preserving their order.
func (s *SQLiteStore) SaveReview(ctx context.Context, r *models.Review) error {
	if r.ID == "" {
		return fmt.Errorf("save review: empty review id")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save review: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var createdAt sql.NullTime
	if !r.CreatedAt.IsZero() {
		createdAt = sql.NullTime{Time: r.CreatedAt.UTC(), Valid: true}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO reviews (id, created_at, file_count, total_changes, changes_known, saved_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET created_at=excluded.created_at, file_count=excluded.file_count,
			total_changes=excluded.total_changes, changes_known=excluded.changes_known, saved_at=excluded.saved_at`,
		r.ID, createdAt, r.FileCount, r.TotalChanges, boolToInt(r.TotalChangesKnown), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("save review: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM suggestions WHERE review_id = ?", r.ID); err != nil {
		return fmt.Errorf("save review suggestions: %w", err)
	}

	for i := range r.Suggestions {
		sg := &r.Suggestions[i]
		status := sg.Status
		if status == "" {
			status = models.SuggestionStatusPending
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO suggestions (review_id, id, position, file_path, line_number, end_line_number, category, confidence, text, code_snippet, status, edited_text, reject_reason)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.ID, sg.ID, i, sg.FilePath, sg.LineNumber, nullableInt(sg.EndLineNumber), sg.Category, sg.Confidence,
			sg.Text, nullable(sg.CodeSnippet), string(status), nullable(sg.EditedText), nullable(sg.RejectReason),
		)
		if err != nil {
			return fmt.Errorf("save suggestion %s: %w", sg.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save review: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetReview(ctx context.Context, id string) (*models.Review, error) {
	r := &models.Review{}
	var createdAt sql.NullTime
	var known bool

	err := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, file_count, total_changes, changes_known FROM reviews WHERE id = ?`, id,
	).Scan(&r.ID, &createdAt, &r.FileCount, &r.TotalChanges, &known)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("review not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get review: %w", err)
	}
	if createdAt.Valid {
		r.CreatedAt = createdAt.Time.UTC()
	}
	r.TotalChangesKnown = known

	r.Suggestions, err = s.listSuggestions(ctx, id)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (s *SQLiteStore) listSuggestions(ctx context.Context, reviewID string) ([]models.Suggestion, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, file_path, line_number, end_line_number, category, confidence, text, code_snippet, status, edited_text, reject_reason
		FROM suggestions WHERE review_id = ? ORDER BY position`, reviewID)
	if err != nil {
		return nil, fmt.Errorf("list suggestions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []models.Suggestion{}
	for rows.Next() {
		var (
			sg                            models.Suggestion
			status                        string
			endLine                       sql.NullInt64
			snippet, edited, rejectReason sql.NullString
		)
		if err := rows.Scan(&sg.ID, &sg.FilePath, &sg.LineNumber, &endLine, &sg.Category, &sg.Confidence,
			&sg.Text, &snippet, &status, &edited, &rejectReason); err != nil {
			return nil, fmt.Errorf("scan suggestion: %w", err)
		}
		sg.Status = models.SuggestionStatus(status)
		if endLine.Valid {
			n := int(endLine.Int64)
			sg.EndLineNumber = &n
		}
		sg.CodeSnippet = nullString(snippet)
		sg.EditedText = nullString(edited)
		sg.RejectReason = nullString(rejectReason)
		out = append(out, sg)
	}
	return out, rows.Err()
}

func nullable(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func nullableInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

// ListReviews returns summaries of locally saved reviews, most recently
// saved first.
func (s *SQLiteStore) ListReviews(ctx context.Context, limit int) ([]models.ReviewSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.id, r.created_at, COUNT(sg.id)
		FROM reviews r LEFT JOIN suggestions sg ON sg.review_id = r.id
		GROUP BY r.id ORDER BY r.saved_at DESC, r.id LIMIT ?`, sqlLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}

	out := []models.ReviewSummary{}
	for rows.Next() {
		var sum models.ReviewSummary
		var createdAt sql.NullTime
		if err := rows.Scan(&sum.ID, &createdAt, &sum.SuggestionCount); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan review: %w", err)
		}
		if createdAt.Valid {
			sum.CreatedAt = models.Timestamp{Time: createdAt.Time.UTC()}
		}
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	_ = rows.Close()

	// The single connection must be released before the per-review queries.
	for i := range out {
		files, err := s.reviewFiles(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Files = files
	}
	return out, nil
}

func (s *SQLiteStore) reviewFiles(ctx context.Context, reviewID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT file_path FROM suggestions WHERE review_id = ? GROUP BY file_path ORDER BY MIN(position)`, reviewID)
	if err != nil {
		return nil, fmt.Errorf("list review files: %w", err)
	}
	defer func() { _ = rows.Close() }()

	files := []string{}
	for rows.Next() {
		var f string
		if err := rows.Scan(&f); err != nil {
			return nil, fmt.Errorf("scan review file: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// UpdateSuggestion persists the disposition fields of one suggestion.
func (s *SQLiteStore) UpdateSuggestion(ctx context.Context, reviewID string, sg *models.Suggestion) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE suggestions SET status=?, edited_text=?, reject_reason=? WHERE review_id=? AND id=?`,
		string(sg.Status), nullable(sg.EditedText), nullable(sg.RejectReason), reviewID, sg.ID,
	)
	if err != nil {
		return fmt.Errorf("update suggestion: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("suggestion not found: %s/%s", reviewID, sg.ID)
	}
	return nil
}

// --- Session pointer ---

func (s *SQLiteStore) SetCurrentReview(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at`,
		settingCurrentReview, id, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("set current review: %w", err)
	}
	return nil
}

// CurrentReview loads the review last made current. It returns
// ErrNoCurrentReview when there is none.
func (s *SQLiteStore) CurrentReview(ctx context.Context) (*models.Review, error) {
	var id string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", settingCurrentReview).Scan(&id)
	if err == sql.ErrNoRows || (err == nil && id == "") {
		return nil, ErrNoCurrentReview
	}
	if err != nil {
		return nil, fmt.Errorf("current review: %w", err)
	}
	return s.GetReview(ctx, id)
}

// --- Feedback journal ---

func (s *SQLiteStore) RecordAttempt(ctx context.Context, a *models.FeedbackAttempt) error {
	if a.ID == "" {
		a.ID = newULID()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO feedback_attempts (id, review_id, suggestion_id, action, outcome, detail, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.ReviewID, a.SuggestionID, string(a.Action), string(a.Outcome), a.Detail, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("record attempt: %w", err)
	}
	return nil
}

// ListAttempts returns journal entries, newest first.
func (s *SQLiteStore) ListAttempts(ctx context.Context, filter AttemptFilter) ([]*models.FeedbackAttempt, error) {
	query := `SELECT id, review_id, suggestion_id, action, outcome, detail, created_at FROM feedback_attempts`
	var where []string
	var args []any
	if filter.ReviewID != "" {
		where = append(where, "review_id = ?")
		args = append(args, filter.ReviewID)
	}
	if filter.Outcome != "" {
		where = append(where, "outcome = ?")
		args = append(args, string(filter.Outcome))
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ?"
	args = append(args, sqlLimit(filter.Limit))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*models.FeedbackAttempt
	for rows.Next() {
		a := &models.FeedbackAttempt{}
		var action, outcome string
		if err := rows.Scan(&a.ID, &a.ReviewID, &a.SuggestionID, &action, &outcome, &a.Detail, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		a.Action = models.FeedbackAction(action)
		a.Outcome = models.AttemptOutcome(outcome)
		out = append(out, a)
	}
	return out, rows.Err()
}
