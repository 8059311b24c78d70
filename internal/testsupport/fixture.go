package testsupport

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/amonks/taskowner/store"
)

// DefaultFixture seeds a small WebODM-shaped dataset.
//
// Projects: 7 "Harbor survey" (private), 3 "City park" (public),
// 9 "Quarry" (private).
// Tasks: 42 and 43 in project 7, 99 in project 3, 50 in project 9.
// carol holds all four project permissions on 7 and dave on 3, so they
// own those tasks. alice holds view_project and change_project on 7 and
// three permissions on 9, below the ownership threshold. root is a
// superuser. dave belongs to surveyors, which holds view_project on 9.
const DefaultFixture = `
INSERT INTO auth_permission (id, codename) VALUES
	(1, 'view_project'),
	(2, 'change_project'),
	(3, 'delete_project'),
	(4, 'add_project');

INSERT INTO auth_user (id, username, is_superuser) VALUES
	(1, 'alice', 0),
	(2, 'bob', 0),
	(3, 'carol', 0),
	(4, 'root', 1),
	(5, 'dave', 0);

INSERT INTO auth_group (id, name) VALUES
	(1, 'surveyors'),
	(2, 'reviewers');

INSERT INTO auth_user_groups (id, user_id, group_id) VALUES
	(1, 3, 1),
	(2, 5, 1),
	(3, 5, 2),
	(4, 1, 2);

INSERT INTO app_project (id, name, public) VALUES
	(7, 'Harbor survey', 0),
	(3, 'City park', 1),
	(9, 'Quarry', 0);

INSERT INTO app_task (id, uuid, name, status, project_id, created_at) VALUES
	(42, '1b9d6bcd-bbfd-4b2d-9b5d-ab8dfbbd4bed', 'Harbor orthophoto', 40, 7, '2025-01-01T00:00:00Z'),
	(43, '6ec0bd7f-11c0-43da-975e-2a8ad9ebae0b', 'Harbor DSM', 15, 7, '2025-02-01 10:00:00+00:00'),
	(99, '9f1c2a1e-3c55-4c0e-8a57-6c1e7a0f4d21', 'Park flyover', 20, 3, NULL),
	(50, 'c3a5e2b4-7d8f-4a61-b2c9-0e4f5a6b7c8d', 'Quarry volume', 10, 9, '2025-03-15T08:30:00Z');

INSERT INTO app_projectuserobjectpermission (id, content_object_id, user_id, permission_id) VALUES
	(1, 7, 1, 1),
	(2, 7, 1, 2),
	(10, 7, 3, 4),
	(11, 7, 3, 2),
	(12, 7, 3, 3),
	(13, 7, 3, 1),
	(20, 3, 5, 1),
	(21, 3, 5, 2),
	(22, 3, 5, 3),
	(23, 3, 5, 4),
	(30, 9, 1, 2),
	(31, 9, 1, 3),
	(32, 9, 1, 4);

INSERT INTO app_projectgroupobjectpermission (id, content_object_id, group_id, permission_id) VALUES
	(1, 9, 1, 1),
	(2, 9, 1, 2),
	(3, 9, 2, 2);
`

// WriteFixtureDB creates a SQLite database at path with the bundled schema
// and runs each seed script against it.
func WriteFixtureDB(path string, seeds ...string) error {
	db, err := store.Open(store.Options{Driver: store.DriverSQLite, DSN: path, MaxOpenConns: 1})
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.ApplySchema(ctx); err != nil {
		return err
	}
	for _, seed := range seeds {
		if err := db.Exec(ctx, seed); err != nil {
			return fmt.Errorf("seed fixture: %w", err)
		}
	}
	return nil
}

// NewFixtureDB creates a seeded SQLite database in a temp dir and opens a
// pool over it. The pool is closed when the test ends.
func NewFixtureDB(t testing.TB, seeds ...string) *store.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "taskowner.db")
	if err := WriteFixtureDB(path, seeds...); err != nil {
		t.Fatalf("write fixture db: %v", err)
	}

	db, err := store.Open(store.Options{Driver: store.DriverSQLite, DSN: path})
	if err != nil {
		t.Fatalf("open fixture db: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}
