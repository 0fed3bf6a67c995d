package db

import (
	"database/sql"
	"fmt"
	"time"
)

// SeedFixtures populates an empty database with development fixtures: one
// user per role, a demo project with its dataset and a few labels. Data
// items are not seeded since they need stored files; ingest a directory
// for those.
func SeedFixtures(database *sql.DB) error {
	var users int
	if err := database.QueryRow("SELECT COUNT(*) FROM users").Scan(&users); err != nil {
		return fmt.Errorf("seed: count users: %w", err)
	}
	if users > 0 {
		return fmt.Errorf("seed: database already has %d user(s)", users)
	}

	now := time.Now().UTC().Format("2006-01-02 15:04:05.000000")

	tx, err := database.Begin()
	if err != nil {
		return fmt.Errorf("seed: begin: %w", err)
	}
	defer tx.Rollback()

	// Users
	people := []struct{ username, fullName, role string }{
		{"root", "Admin", "admin"},
		{"mia", "Mia Manager", "manager"},
		{"ann", "Ann Annotator", "annotator"},
		{"otto", "Otto Annotator", "annotator"},
		{"rex", "Rex Reviewer", "reviewer"},
	}
	var adminID int64
	for _, p := range people {
		res, err := tx.Exec(
			"INSERT INTO users (username, email, full_name, role, is_active, created_at, updated_at) VALUES (?, ?, ?, ?, 1, ?, ?)",
			p.username, p.username+"@labelr.local", p.fullName, p.role, now, now,
		)
		if err != nil {
			return fmt.Errorf("seed users: %w", err)
		}
		if p.role == "admin" {
			adminID, _ = res.LastInsertId()
		}
	}

	// Project and its dataset
	res, err := tx.Exec(
		"INSERT INTO projects (name, description, created_by, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
		"Demo Streets", "Street scenes for object detection", adminID, now, now,
	)
	if err != nil {
		return fmt.Errorf("seed projects: %w", err)
	}
	projectID, _ := res.LastInsertId()

	if _, err := tx.Exec(
		"INSERT INTO datasets (project_id, name, created_at, updated_at) VALUES (?, ?, ?, ?)",
		projectID, "Demo Streets", now, now,
	); err != nil {
		return fmt.Errorf("seed datasets: %w", err)
	}

	// Labels
	labels := []struct{ name, typ, color string }{
		{"car", "bbox", "#3b82f6"},
		{"pedestrian", "polygon", "#ef4444"},
		{"daytime", "classification", "#f59e0b"},
	}
	for _, l := range labels {
		if _, err := tx.Exec(
			"INSERT INTO labels (project_id, name, type, color, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
			projectID, l.name, l.typ, l.color, now, now,
		); err != nil {
			return fmt.Errorf("seed labels: %w", err)
		}
	}

	return tx.Commit()
}
