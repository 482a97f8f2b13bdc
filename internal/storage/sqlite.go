package storage

import (
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/bidwise/bidwise/internal/models"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store wraps a SQLite database holding projects, bids, traffic samples and
// project progress for the development backend.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) a SQLite database in dataDir and runs pending migrations.
// Pass ":memory:" as dataDir for an in-memory database (used by tests).
func Open(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "bidwise.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Limit to single connection to avoid "database is locked" errors.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping reports whether the database is reachable.
func (s *Store) Ping() error {
	return s.db.Ping()
}

// migrate reads embedded SQL migration files and applies any that haven't been run yet.
func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		version, err := parseMigrationVersion(entry.Name())
		if err != nil {
			return err
		}

		var exists int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version WHERE version = ?", version).Scan(&exists); err != nil {
			return fmt.Errorf("checking migration %d: %w", version, err)
		}
		if exists > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning transaction for migration %d: %w", version, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", version, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", version, err)
		}
	}

	return nil
}

func parseMigrationVersion(filename string) (int, error) {
	var version int
	if _, err := fmt.Sscanf(filename, "%d_", &version); err != nil {
		return 0, fmt.Errorf("parsing migration version from %q: %w", filename, err)
	}
	return version, nil
}

// AppliedMigrations returns the list of applied migration versions in ascending order.
func (s *Store) AppliedMigrations() ([]int, error) {
	rows, err := s.db.Query("SELECT version FROM schema_version ORDER BY version ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
	QueryRow(query string, args ...any) *sql.Row
}

// --- Projects ---

// ListProjects returns every project in creation order.
func (s *Store) ListProjects() ([]models.Project, error) {
	rows, err := s.db.Query(`SELECT name, status, schools FROM projects ORDER BY rowid ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []models.Project{}
	for rows.Next() {
		var p models.Project
		if err := rows.Scan(&p.Name, &p.Status, &p.Schools); err != nil {
			return nil, err
		}
		results = append(results, p)
	}
	return results, rows.Err()
}

func (s *Store) GetProject(name string) (models.Project, error) {
	var p models.Project
	err := s.db.QueryRow(`SELECT name, status, schools FROM projects WHERE name = ?`, name).
		Scan(&p.Name, &p.Status, &p.Schools)
	if err == sql.ErrNoRows {
		return models.Project{}, ErrNotFound
	}
	return p, err
}

// CreateProject inserts a project. A project with the same name yields ErrConflict.
func (s *Store) CreateProject(p models.NewProject) (models.Project, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return models.Project{}, fmt.Errorf("beginning create transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertProject(tx, models.Project{Name: p.Name, Status: p.Status, Schools: p.Schools}); err != nil {
		return models.Project{}, err
	}
	if err := tx.Commit(); err != nil {
		return models.Project{}, fmt.Errorf("committing project: %w", err)
	}
	return models.Project{Name: p.Name, Status: p.Status, Schools: p.Schools}, nil
}

func insertProject(x execer, p models.Project) error {
	var exists int
	if err := x.QueryRow(`SELECT COUNT(*) FROM projects WHERE name = ?`, p.Name).Scan(&exists); err != nil {
		return fmt.Errorf("checking project %q: %w", p.Name, err)
	}
	if exists > 0 {
		return fmt.Errorf("project %q: %w", p.Name, ErrConflict)
	}
	ts := now()
	_, err := x.Exec(`INSERT INTO projects (name, status, schools, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		p.Name, p.Status, p.Schools, ts, ts)
	return err
}

// UpdateProjectStatus sets the status of the named project.
func (s *Store) UpdateProjectStatus(name, status string) error {
	res, err := s.db.Exec(`UPDATE projects SET status = ?, updated_at = ? WHERE name = ?`, status, now(), name)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Bids ---

// SaveBid inserts a bid, assigning a BID_ identifier when none is set.
func (s *Store) SaveBid(b models.Bid) (models.Bid, error) {
	return saveBid(s.db, b)
}

func saveBid(x execer, b models.Bid) (models.Bid, error) {
	if b.BidID == "" {
		b.BidID = "BID_" + uuid.New().String()
	}
	_, err := x.Exec(`
		INSERT INTO bids (bid_id, project_id, provider, cost, coverage, ai_score, bidder_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		b.BidID, b.ProjectID, b.Provider, b.Cost, b.Coverage, b.AIScore, b.BidderID, now(),
	)
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return models.Bid{}, fmt.Errorf("bid %q: %w", b.BidID, ErrConflict)
	}
	return b, err
}

// ListBids returns the bids of projectID, or every bid when projectID is empty.
func (s *Store) ListBids(projectID string) ([]models.Bid, error) {
	query := `SELECT bid_id, project_id, provider, cost, coverage, ai_score, bidder_id FROM bids`
	var args []any
	if projectID != "" {
		query += ` WHERE project_id = ?`
		args = append(args, projectID)
	}
	query += ` ORDER BY rowid ASC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []models.Bid{}
	for rows.Next() {
		var b models.Bid
		if err := rows.Scan(&b.BidID, &b.ProjectID, &b.Provider, &b.Cost, &b.Coverage, &b.AIScore, &b.BidderID); err != nil {
			return nil, err
		}
		results = append(results, b)
	}
	return results, rows.Err()
}

// --- Traffic ---

// AppendTraffic adds samples to the end of the traffic series.
func (s *Store) AppendTraffic(points ...models.TrafficPoint) error {
	for _, p := range points {
		if err := appendTraffic(s.db, p); err != nil {
			return err
		}
	}
	return nil
}

func appendTraffic(x execer, p models.TrafficPoint) error {
	_, err := x.Exec(`INSERT INTO traffic (time, bandwidth) VALUES (?, ?)`, p.Time, p.Bandwidth)
	return err
}

// TrafficSeries returns all samples in insertion order.
func (s *Store) TrafficSeries() ([]models.TrafficPoint, error) {
	rows, err := s.db.Query(`SELECT time, bandwidth FROM traffic ORDER BY seq ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []models.TrafficPoint{}
	for rows.Next() {
		var p models.TrafficPoint
		if err := rows.Scan(&p.Time, &p.Bandwidth); err != nil {
			return nil, err
		}
		results = append(results, p)
	}
	return results, rows.Err()
}

// --- Progress ---

// SaveProgress inserts or replaces the progress record of p.Project,
// including its milestones. Milestones without an ID get a fresh one.
func (s *Store) SaveProgress(p models.ProjectProgress) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning progress transaction: %w", err)
	}
	defer tx.Rollback()

	if err := saveProgress(tx, p); err != nil {
		return err
	}
	return tx.Commit()
}

func saveProgress(x execer, p models.ProjectProgress) error {
	_, err := x.Exec(`
		INSERT INTO project_progress (project, start_date, expected_completion, progress, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(project) DO UPDATE SET
			start_date = excluded.start_date,
			expected_completion = excluded.expected_completion,
			progress = excluded.progress,
			updated_at = excluded.updated_at`,
		p.Project, p.StartDate, p.ExpectedCompletion, models.ClampPercent(p.Progress), now(),
	)
	if err != nil {
		return fmt.Errorf("saving progress for %q: %w", p.Project, err)
	}

	if _, err := x.Exec(`DELETE FROM milestones WHERE project = ?`, p.Project); err != nil {
		return fmt.Errorf("clearing milestones for %q: %w", p.Project, err)
	}
	for i, m := range p.Milestones {
		if m.ID == "" {
			m.ID = models.MilestoneID(uuid.New().String())
		}
		_, err := x.Exec(`
			INSERT INTO milestones (id, project, position, title, status, verification_method, date, verifier)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			string(m.ID), p.Project, i, m.Title, m.Status, m.VerificationMethod, m.Date, m.Verifier,
		)
		if err != nil {
			return fmt.Errorf("saving milestone %q: %w", m.Title, err)
		}
	}
	return nil
}

// GetProgress returns the progress record of project.
func (s *Store) GetProgress(project string) (models.ProjectProgress, error) {
	var p models.ProjectProgress
	err := s.db.QueryRow(`
		SELECT project, start_date, expected_completion, progress
		FROM project_progress WHERE project = ?`, project,
	).Scan(&p.Project, &p.StartDate, &p.ExpectedCompletion, &p.Progress)
	if err == sql.ErrNoRows {
		return models.ProjectProgress{}, ErrNotFound
	}
	if err != nil {
		return models.ProjectProgress{}, err
	}

	if p.Milestones, err = s.milestones(project); err != nil {
		return models.ProjectProgress{}, err
	}
	return p, nil
}

// ListProgress returns every progress record.
func (s *Store) ListProgress() ([]models.ProjectProgress, error) {
	rows, err := s.db.Query(`
		SELECT project, start_date, expected_completion, progress
		FROM project_progress ORDER BY rowid ASC`)
	if err != nil {
		return nil, err
	}

	results := []models.ProjectProgress{}
	for rows.Next() {
		var p models.ProjectProgress
		if err := rows.Scan(&p.Project, &p.StartDate, &p.ExpectedCompletion, &p.Progress); err != nil {
			rows.Close()
			return nil, err
		}
		results = append(results, p)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, err
	}

	// Milestones are loaded after the cursor closes; the pool has a single connection.
	for i := range results {
		if results[i].Milestones, err = s.milestones(results[i].Project); err != nil {
			return nil, err
		}
	}
	return results, nil
}

func (s *Store) milestones(project string) ([]models.Milestone, error) {
	rows, err := s.db.Query(`
		SELECT id, title, status, verification_method, date, verifier
		FROM milestones WHERE project = ? ORDER BY position ASC`, project)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []models.Milestone{}
	for rows.Next() {
		var m models.Milestone
		if err := rows.Scan(&m.ID, &m.Title, &m.Status, &m.VerificationMethod, &m.Date, &m.Verifier); err != nil {
			return nil, err
		}
		results = append(results, m)
	}
	return results, rows.Err()
}

// Empty reports whether the database holds no projects.
func (s *Store) Empty() (bool, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM projects`).Scan(&n); err != nil {
		return false, err
	}
	return n == 0, nil
}
