package strings

import (
	"reflect"
	"testing"
)

func TestDistinctKeepsFirstOccurrence(t *testing.T) {
	got := Distinct([]string{"view_project", "change_project", "view_project", "", "delete_project", "change_project"})
	want := []string{"view_project", "change_project", "delete_project"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestDistinctNeverNil(t *testing.T) {
	if got := Distinct(nil); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}

func TestJoinList(t *testing.T) {
	if got := JoinList([]string{"a", "b"}); got != "a, b" {
		t.Fatalf("unexpected join %q", got)
	}
	if got := JoinList(nil); got != "" {
		t.Fatalf("expected empty join, got %q", got)
	}
}

func TestContainsIsExact(t *testing.T) {
	values := []string{"view_project_extra", "change_project"}
	if Contains(values, "view_project") {
		t.Fatal("expected substring not to match")
	}
	if !Contains(values, "change_project") {
		t.Fatal("expected exact match")
	}
}
