package db

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// ErrNotFound is returned when a profile or generation does not exist
var ErrNotFound = errors.New("not found")

// DB wraps the SQL database connection
type DB struct {
	conn *sql.DB
	path string
}

// Open creates or opens a SQLite database
func Open(path string) (*DB, error) {
	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{
		conn: conn,
		path: path,
	}

	if err := db.Migrate(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// Path returns the database file path
func (db *DB) Path() string {
	return db.path
}

// Migrate creates or updates the database schema
func (db *DB) Migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS profiles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		description TEXT,
		form TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS generations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		profile TEXT,
		config_name TEXT NOT NULL,
		mode TEXT NOT NULL,
		skipped INTEGER DEFAULT 0,
		output TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_generations_profile ON generations(profile);
	CREATE INDEX IF NOT EXISTS idx_generations_created_at ON generations(created_at);
	`

	_, err := db.conn.Exec(schema)
	return err
}

// SaveProfile creates the named profile or replaces its form
func (db *DB) SaveProfile(p *Profile) error {
	if p.Name == "" {
		return fmt.Errorf("profile name cannot be empty")
	}

	now := time.Now()
	_, err := db.conn.Exec(
		`INSERT INTO profiles (name, description, form, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET
		 description = excluded.description, form = excluded.form, updated_at = excluded.updated_at`,
		p.Name, p.Description, p.Form, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}

	saved, err := db.GetProfile(p.Name)
	if err != nil {
		return err
	}
	*p = *saved
	return nil
}

// GetProfile retrieves a profile by name
func (db *DB) GetProfile(name string) (*Profile, error) {
	p := &Profile{}
	var description sql.NullString
	err := db.conn.QueryRow(
		`SELECT id, name, description, form, created_at, updated_at
		 FROM profiles WHERE name = ?`,
		name,
	).Scan(&p.ID, &p.Name, &description, &p.Form, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("profile %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	p.Description = description.String
	return p, nil
}

// ListProfiles retrieves every profile ordered by name
func (db *DB) ListProfiles() ([]*Profile, error) {
	rows, err := db.conn.Query(
		`SELECT id, name, description, form, created_at, updated_at
		 FROM profiles ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var profiles []*Profile
	for rows.Next() {
		p := &Profile{}
		var description sql.NullString
		if err := rows.Scan(&p.ID, &p.Name, &description, &p.Form, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		p.Description = description.String
		profiles = append(profiles, p)
	}

	return profiles, rows.Err()
}

// DeleteProfile removes a profile by name
func (db *DB) DeleteProfile(name string) error {
	result, err := db.conn.Exec(`DELETE FROM profiles WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("profile %q: %w", name, ErrNotFound)
	}
	return nil
}

// CreateGeneration records a rendered configuration
func (db *DB) CreateGeneration(g *Generation) error {
	g.CreatedAt = time.Now()

	result, err := db.conn.Exec(
		`INSERT INTO generations (profile, config_name, mode, skipped, output, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		g.Profile, g.ConfigName, g.Mode, g.Skipped, g.Output, g.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create generation: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	g.ID = id
	return nil
}

// GetGeneration retrieves a generation by ID
func (db *DB) GetGeneration(id int64) (*Generation, error) {
	g := &Generation{}
	var profile, output sql.NullString
	err := db.conn.QueryRow(
		`SELECT id, profile, config_name, mode, skipped, output, created_at
		 FROM generations WHERE id = ?`,
		id,
	).Scan(&g.ID, &profile, &g.ConfigName, &g.Mode, &g.Skipped, &output, &g.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("generation %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get generation: %w", err)
	}
	g.Profile = profile.String
	g.Output = output.String
	return g, nil
}

// ListGenerations retrieves generations based on filters, newest first. The
// rendered output is not loaded.
func (db *DB) ListGenerations(filter GenerationFilter) ([]*Generation, error) {
	query := `SELECT id, profile, config_name, mode, skipped, created_at
	          FROM generations WHERE 1=1`
	args := []interface{}{}

	if filter.Profile != "" {
		query += " AND profile = ?"
		args = append(args, filter.Profile)
	}

	if filter.StartTime != nil {
		query += " AND created_at >= ?"
		args = append(args, filter.StartTime)
	}

	if filter.EndTime != nil {
		query += " AND created_at <= ?"
		args = append(args, filter.EndTime)
	}

	query += " ORDER BY created_at DESC, id DESC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)

		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list generations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var generations []*Generation
	for rows.Next() {
		g := &Generation{}
		var profile sql.NullString
		if err := rows.Scan(&g.ID, &profile, &g.ConfigName, &g.Mode, &g.Skipped, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan generation: %w", err)
		}
		g.Profile = profile.String
		generations = append(generations, g)
	}

	return generations, rows.Err()
}
