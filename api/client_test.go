package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/amonks/taskowner/access"
	"github.com/amonks/taskowner/internal/testsupport"
	"github.com/amonks/taskowner/ownership"
	"github.com/amonks/taskowner/store"
)

func newTestClient(t *testing.T, seeds ...string) (*Client, *Service) {
	t.Helper()
	server := newTestServer(t, testsupport.NewFixtureDB(t, seeds...))
	httpServer := httptest.NewServer(server.Handler())
	t.Cleanup(httpServer.Close)
	return NewClient(httpServer.URL), server.service
}

func TestNewClientAddsScheme(t *testing.T) {
	cases := []struct {
		addr string
		want string
	}{
		{addr: "127.0.0.1:8080", want: "http://127.0.0.1:8080"},
		{addr: "http://localhost:8080/", want: "http://localhost:8080"},
		{addr: "https://owners.example.com", want: "https://owners.example.com"},
	}
	for _, tc := range cases {
		if got := NewClient(tc.addr).baseURL; got != tc.want {
			t.Fatalf("%s: expected %q, got %q", tc.addr, tc.want, got)
		}
	}
}

func TestClientMatchesService(t *testing.T) {
	client, service := newTestClient(t, testsupport.DefaultFixture)
	ctx := context.Background()

	remote, err := client.TaskOwnership(ctx)
	if err != nil {
		t.Fatalf("client ownership: %v", err)
	}
	local, err := service.TaskOwnership(ctx)
	if err != nil {
		t.Fatalf("service ownership: %v", err)
	}
	if len(remote) != len(local) {
		t.Fatalf("expected %d records, got %d", len(local), len(remote))
	}
	for i := range local {
		if remote[i].TaskUUID != local[i].TaskUUID || remote[i].Permissions != local[i].Permissions || remote[i].GroupMemberships != local[i].GroupMemberships {
			t.Fatalf("record %d differs: %+v vs %+v", i, remote[i], local[i])
		}
	}

	statuses, err := client.TaskStatus(ctx)
	if err != nil {
		t.Fatalf("client status: %v", err)
	}
	if len(statuses) != len(local) || statuses[0].OwnerUsername != local[0].ProbableOwner {
		t.Fatalf("unexpected statuses %+v", statuses)
	}

	owner, err := client.TaskOwner(ctx, 42)
	if err != nil {
		t.Fatalf("client owner: %v", err)
	}
	if owner.ProbableOwner != "carol" || owner.DaysSinceProcessed == nil || *owner.DaysSinceProcessed != 10 {
		t.Fatalf("unexpected owner %+v", owner)
	}

	report, err := client.CheckAccess(ctx, 50, "dave")
	if err != nil {
		t.Fatalf("client access: %v", err)
	}
	want := []string{"group permissions: surveyors: view_project, change_project"}
	if !report.HasAccess || !reflect.DeepEqual(report.AccessType, want) {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestClientRootAndHealth(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	root, err := client.Root(ctx)
	if err != nil {
		t.Fatalf("root: %v", err)
	}
	if root.Message != Message || len(root.Endpoints) != len(Endpoints) {
		t.Fatalf("unexpected root %+v", root)
	}
	if err := client.Health(ctx); err != nil {
		t.Fatalf("health: %v", err)
	}
}

func TestClientErrors(t *testing.T) {
	client, _ := newTestClient(t, testsupport.DefaultFixture)
	ctx := context.Background()

	_, err := client.TaskOwner(ctx, 50)
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %T %v", err, err)
	}
	if apiErr.Status != http.StatusNotFound || apiErr.Message != "Task 50 not found or has no owner" {
		t.Fatalf("unexpected error %+v", apiErr)
	}
	if !errors.Is(err, ownership.ErrNotFound) || !store.IsNotFound(err) {
		t.Fatalf("expected ownership not-found, got %v", err)
	}

	_, err = client.CheckAccess(ctx, 42, "mallory")
	if !errors.Is(err, access.ErrNotFound) {
		t.Fatalf("expected access not-found, got %v", err)
	}
}

func TestClientStorageFailure(t *testing.T) {
	client, _ := newTestClient(t, testsupport.DefaultFixture, "DROP TABLE auth_user_groups;")

	_, err := client.TaskOwnership(context.Background())
	if !errors.Is(err, store.ErrUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
	if store.IsNotFound(err) {
		t.Fatalf("did not expect not-found, got %v", err)
	}
}

func TestClientUnreachable(t *testing.T) {
	httpServer := httptest.NewServer(http.NotFoundHandler())
	addr := httpServer.URL
	httpServer.Close()

	_, err := NewClient(addr).TaskOwnership(context.Background())
	if !errors.Is(err, store.ErrUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
}
