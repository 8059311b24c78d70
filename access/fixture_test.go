package access_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/amonks/taskowner/access"
	"github.com/amonks/taskowner/internal/testsupport"
)

func check(t *testing.T, taskID int64, username string) (access.Report, error) {
	t.Helper()

	db := testsupport.NewFixtureDB(t, testsupport.DefaultFixture)
	ctx := context.Background()
	session, err := db.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer session.Close()

	verdict, err := access.NewEvaluator(session).Check(ctx, taskID, username)
	if err != nil {
		return access.Report{}, err
	}
	return verdict.Report(), nil
}

func TestCheckFixture(t *testing.T) {
	cases := []struct {
		name     string
		taskID   int64
		username string
		access   bool
		want     []string
	}{
		{name: "superuser", taskID: 50, username: "root", access: true, want: []string{"superuser"}},
		{name: "public project", taskID: 99, username: "bob", access: true, want: []string{"public project (view)"}},
		{name: "direct grant", taskID: 42, username: "alice", access: true, want: []string{"direct permissions: view_project, change_project"}},
		{name: "group grant", taskID: 50, username: "dave", access: true, want: []string{"group permissions: surveyors: view_project, change_project"}},
		{name: "no grants", taskID: 42, username: "bob", access: false, want: []string{"no access"}},
		{name: "grants without view", taskID: 50, username: "alice", access: false, want: []string{"no access"}},
		{name: "public and direct", taskID: 99, username: "dave", access: true, want: []string{"public project (view)", "direct permissions: view_project, change_project, delete_project, add_project"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			report, err := check(t, tc.taskID, tc.username)
			if err != nil {
				t.Fatalf("check: %v", err)
			}
			if report.HasAccess != tc.access {
				t.Fatalf("expected has_access=%v, got %v", tc.access, report.HasAccess)
			}
			if !reflect.DeepEqual(report.AccessType, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, report.AccessType)
			}
		})
	}
}

func TestCheckFixtureReport(t *testing.T) {
	report, err := check(t, 42, "alice")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	want := access.Report{
		TaskID:          42,
		TaskName:        "Harbor orthophoto",
		TaskStatus:      40,
		StatusName:      "COMPLETED",
		ProjectID:       7,
		ProjectName:     "Harbor survey",
		Username:        "alice",
		IsSuperuser:     false,
		HasAccess:       true,
		AccessType:      []string{"direct permissions: view_project, change_project"},
		UserGroups:      "reviewers",
		IsPublicProject: false,
	}
	if !reflect.DeepEqual(report, want) {
		t.Fatalf("expected %+v, got %+v", want, report)
	}
}

func TestCheckFixtureNotFound(t *testing.T) {
	cases := []struct {
		name     string
		taskID   int64
		username string
	}{
		{name: "missing task", taskID: 404, username: "alice"},
		{name: "missing user", taskID: 42, username: "mallory"},
		{name: "case sensitive", taskID: 42, username: "Alice"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := check(t, tc.taskID, tc.username)
			if !errors.Is(err, access.ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
		})
	}
}
