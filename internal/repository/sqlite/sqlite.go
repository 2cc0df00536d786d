package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"hydraimport/internal/domain"
	"hydraimport/internal/repository"

	_ "modernc.org/sqlite"
)

// Repository implements repository.Repository using SQLite
type Repository struct {
	db *sql.DB
}

var _ repository.Repository = (*Repository)(nil)

// New creates a new SQLite repository
func New(dbPath string) (*Repository, error) {
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	if dbPath == ":memory:" {
		dsn = "file::memory:?_pragma=foreign_keys(1)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// every connection would get its own empty database
		db.SetMaxOpenConns(1)
	}

	repo := &Repository{db: db}
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return repo, nil
}

// Close closes the database
func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS projects (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS templates (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE
	);

	CREATE TABLE IF NOT EXISTS template_types (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		template_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		resource_type TEXT NOT NULL DEFAULT '',
		UNIQUE (template_id, name),
		FOREIGN KEY (template_id) REFERENCES templates(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS attributes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		dimension TEXT,
		UNIQUE (name, dimension)
	);

	CREATE TABLE IF NOT EXISTS users (
		username TEXT PRIMARY KEY,
		password_hash BLOB NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL,
		expires_at DATETIME NOT NULL,
		FOREIGN KEY (username) REFERENCES users(username) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS networks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		project_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		projection TEXT,
		types JSON,
		attributes JSON,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS nodes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		network_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		x REAL NOT NULL,
		y REAL NOT NULL,
		types JSON,
		attributes JSON,
		FOREIGN KEY (network_id) REFERENCES networks(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS links (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		network_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		node_1_id INTEGER NOT NULL,
		node_2_id INTEGER NOT NULL,
		types JSON,
		attributes JSON,
		FOREIGN KEY (network_id) REFERENCES networks(id) ON DELETE CASCADE,
		FOREIGN KEY (node_1_id) REFERENCES nodes(id) ON DELETE CASCADE,
		FOREIGN KEY (node_2_id) REFERENCES nodes(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS resource_groups (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		network_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		types JSON,
		attributes JSON,
		FOREIGN KEY (network_id) REFERENCES networks(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS scenarios (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		network_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (network_id) REFERENCES networks(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS resource_group_items (
		scenario_id INTEGER NOT NULL,
		ref_key TEXT NOT NULL,
		ref_id INTEGER NOT NULL,
		group_id INTEGER NOT NULL,
		FOREIGN KEY (scenario_id) REFERENCES scenarios(id) ON DELETE CASCADE,
		FOREIGN KEY (group_id) REFERENCES resource_groups(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS resource_scenarios (
		scenario_id INTEGER NOT NULL,
		resource_attr_id INTEGER NOT NULL,
		value TEXT NOT NULL,
		PRIMARY KEY (scenario_id, resource_attr_id),
		FOREIGN KEY (scenario_id) REFERENCES scenarios(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_nodes_network ON nodes(network_id);
	CREATE INDEX IF NOT EXISTS idx_links_network ON links(network_id);
	CREATE INDEX IF NOT EXISTS idx_groups_network ON resource_groups(network_id);
	CREATE INDEX IF NOT EXISTS idx_scenarios_network ON scenarios(network_id);
	CREATE INDEX IF NOT EXISTS idx_group_items_scenario ON resource_group_items(scenario_id);
	`

	_, err := r.db.Exec(schema)
	return err
}

// ============================================================================
// Projects
// ============================================================================

// CreateProject inserts a project and sets its ID
func (r *Repository) CreateProject(ctx context.Context, project *domain.Project) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO projects (name, description) VALUES (?, ?)`,
		project.Name, project.Description)
	if err != nil {
		return fmt.Errorf("failed to insert project: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get project id: %w", err)
	}
	project.ID = id
	return nil
}

// GetProject retrieves a project by ID
func (r *Repository) GetProject(ctx context.Context, id int64) (*domain.Project, error) {
	var p domain.Project
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, description FROM projects WHERE id = ?`, id,
	).Scan(&p.ID, &p.Name, &p.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("project %d: %w", id, repository.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query project: %w", err)
	}
	return &p, nil
}

// ============================================================================
// Templates and attributes
// ============================================================================

// SaveTemplate inserts a template with its types and sets their IDs
func (r *Repository) SaveTemplate(ctx context.Context, tmpl *domain.Template) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `INSERT INTO templates (name) VALUES (?)`, tmpl.Name)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("template %q: %w", tmpl.Name, repository.ErrConflict)
		}
		return fmt.Errorf("failed to insert template: %w", err)
	}
	if tmpl.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("failed to get template id: %w", err)
	}

	for i := range tmpl.Types {
		t := &tmpl.Types[i]
		res, err := tx.ExecContext(ctx,
			`INSERT INTO template_types (template_id, name, resource_type) VALUES (?, ?, ?)`,
			tmpl.ID, t.Name, string(t.ResourceType))
		if err != nil {
			return fmt.Errorf("failed to insert type %q: %w", t.Name, err)
		}
		if t.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("failed to get type id: %w", err)
		}
		t.TemplateID = tmpl.ID
	}

	return tx.Commit()
}

// GetTemplate retrieves a template and its types
func (r *Repository) GetTemplate(ctx context.Context, id int64) (*domain.Template, error) {
	return r.getTemplate(ctx, `SELECT id, name FROM templates WHERE id = ?`, id)
}

// GetTemplateByName retrieves a template by its unique name
func (r *Repository) GetTemplateByName(ctx context.Context, name string) (*domain.Template, error) {
	return r.getTemplate(ctx, `SELECT id, name FROM templates WHERE name = ?`, name)
}

func (r *Repository) getTemplate(ctx context.Context, query string, key any) (*domain.Template, error) {
	var tmpl domain.Template
	err := r.db.QueryRowContext(ctx, query, key).Scan(&tmpl.ID, &tmpl.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("template %v: %w", key, repository.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query template: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, template_id, name, resource_type FROM template_types WHERE template_id = ? ORDER BY id`,
		tmpl.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to query template types: %w", err)
	}
	defer rows.Close()

	tmpl.Types = make([]domain.TypeDescriptor, 0)
	for rows.Next() {
		var (
			t            domain.TypeDescriptor
			resourceType string
		)
		if err := rows.Scan(&t.ID, &t.TemplateID, &t.Name, &resourceType); err != nil {
			return nil, fmt.Errorf("failed to scan template type: %w", err)
		}
		t.ResourceType = domain.ResourceType(resourceType)
		tmpl.Types = append(tmpl.Types, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating template types: %w", err)
	}

	return &tmpl, nil
}

// SaveAttribute inserts an attribute, or reuses the ID of an existing one
// with the same name and dimension
func (r *Repository) SaveAttribute(ctx context.Context, attr *domain.Attribute) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO attributes (name, dimension) VALUES (?, ?) ON CONFLICT (name, dimension) DO NOTHING`,
		attr.Name, stringToNull(attr.Dimension))
	if err != nil {
		return fmt.Errorf("failed to insert attribute: %w", err)
	}
	err = r.db.QueryRowContext(ctx,
		`SELECT id FROM attributes WHERE name = ? AND dimension IS ?`,
		attr.Name, stringToNull(attr.Dimension)).Scan(&attr.ID)
	if err != nil {
		return fmt.Errorf("failed to query attribute id: %w", err)
	}
	return nil
}

// ListAttributes returns the full attribute catalogue
func (r *Repository) ListAttributes(ctx context.Context) ([]domain.Attribute, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, dimension FROM attributes ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query attributes: %w", err)
	}
	defer rows.Close()

	attrs := make([]domain.Attribute, 0)
	for rows.Next() {
		var (
			a   domain.Attribute
			dim sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.Name, &dim); err != nil {
			return nil, fmt.Errorf("failed to scan attribute: %w", err)
		}
		a.Dimension = nullToString(dim)
		attrs = append(attrs, a)
	}
	return attrs, rows.Err()
}

// ============================================================================
// Users and sessions
// ============================================================================

// CreateUser stores a user with an already hashed password
func (r *Repository) CreateUser(ctx context.Context, username string, passwordHash []byte) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash) VALUES (?, ?)`, username, passwordHash)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("user %q: %w", username, repository.ErrConflict)
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// GetPasswordHash returns the stored password hash of username
func (r *Repository) GetPasswordHash(ctx context.Context, username string) ([]byte, error) {
	var hash []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT password_hash FROM users WHERE username = ?`, username).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %q: %w", username, repository.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return hash, nil
}

// CreateSession stores a session
func (r *Repository) CreateSession(ctx context.Context, id, username string, expires time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (id, username, expires_at) VALUES (?, ?, ?)`, id, username, expires.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

// GetSession returns the owner and expiry of a session
func (r *Repository) GetSession(ctx context.Context, id string) (string, time.Time, error) {
	var (
		username string
		expires  time.Time
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT username, expires_at FROM sessions WHERE id = ?`, id).Scan(&username, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return "", time.Time{}, fmt.Errorf("session: %w", repository.ErrNotFound)
	}
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to query session: %w", err)
	}
	return username, expires, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
