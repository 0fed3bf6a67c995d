// Package sqlite_test contains integration tests for SQLite repositories.
//
// # Schema Protection
//
// This file is the SINGLE POINT where the database schema is loaded for tests.
// setupTestDB runs the embedded migrations, so tests always see the schema
// production sees. Do not hardcode CREATE TABLE statements in test files;
// use setupTestDB() and the seed* helpers instead.
package sqlite_test

import (
	"database/sql"
	"testing"

	"github.com/example/labelr/internal/db"
)

const seedTime = "2026-01-20 10:00:00.000000"

// setupTestDB creates a migrated in-memory database.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	testDB, err := db.OpenInMemory(db.DriverCGO)
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() {
		testDB.Close()
	})
	return testDB
}

// seedUser inserts a test user and returns its ID.
func seedUser(t *testing.T, db *sql.DB, username, role string) int64 {
	t.Helper()
	res, err := db.Exec(
		"INSERT INTO users (username, role, is_active, created_at, updated_at) VALUES (?, ?, 1, ?, ?)",
		username, role, seedTime, seedTime,
	)
	if err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	id, _ := res.LastInsertId()
	return id
}

// seedProject inserts a project with its dataset and returns both IDs.
func seedProject(t *testing.T, db *sql.DB, name string) (projectID, datasetID int64) {
	t.Helper()
	res, err := db.Exec("INSERT INTO projects (name, created_at, updated_at) VALUES (?, ?, ?)", name, seedTime, seedTime)
	if err != nil {
		t.Fatalf("failed to seed project: %v", err)
	}
	projectID, _ = res.LastInsertId()

	res, err = db.Exec(
		"INSERT INTO datasets (project_id, name, created_at, updated_at) VALUES (?, ?, ?, ?)",
		projectID, name+" images", seedTime, seedTime,
	)
	if err != nil {
		t.Fatalf("failed to seed dataset: %v", err)
	}
	datasetID, _ = res.LastInsertId()
	return projectID, datasetID
}

// seedDataItem inserts a data item with the given status and returns its ID.
func seedDataItem(t *testing.T, db *sql.DB, datasetID int64, status string) int64 {
	t.Helper()
	res, err := db.Exec(
		`INSERT INTO data_items (dataset_id, file_name, file_path, file_size, status, created_at, updated_at)
		 VALUES (?, 'img.png', 'ab/img.png', 2048, ?, ?, ?)`,
		datasetID, status, seedTime, seedTime,
	)
	if err != nil {
		t.Fatalf("failed to seed data item: %v", err)
	}
	id, _ := res.LastInsertId()
	return id
}

// seedTask inserts an assigned task and returns its ID.
func seedTask(t *testing.T, db *sql.DB, projectID, annotatorID, managerID int64) int64 {
	t.Helper()
	res, err := db.Exec(
		`INSERT INTO annotation_tasks (project_id, annotator_id, assigned_by, title, status, created_at, updated_at)
		 VALUES (?, ?, ?, 'Batch', 'assigned', ?, ?)`,
		projectID, annotatorID, managerID, seedTime, seedTime,
	)
	if err != nil {
		t.Fatalf("failed to seed task: %v", err)
	}
	id, _ := res.LastInsertId()
	return id
}

// seedLabel inserts a label and returns its ID.
func seedLabel(t *testing.T, db *sql.DB, projectID int64, name, typ string) int64 {
	t.Helper()
	res, err := db.Exec(
		"INSERT INTO labels (project_id, name, type, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
		projectID, name, typ, seedTime, seedTime,
	)
	if err != nil {
		t.Fatalf("failed to seed label: %v", err)
	}
	id, _ := res.LastInsertId()
	return id
}
