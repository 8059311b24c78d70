// Package access decides whether a user can see a task and records which
// rules granted it.
//
// Four rules can grant access, each on its own: the user is a superuser,
// the task's project is public, the user holds view_project on the project
// directly, or a group the user belongs to holds view_project on it. The
// decision only reports access; it does not enforce it.
package access

import (
	"context"
	"fmt"

	internalstrings "github.com/amonks/taskowner/internal/strings"
	"github.com/amonks/taskowner/store"
	"github.com/amonks/taskowner/task"
)

// ViewPermission is the codename that grants visibility of a project.
const ViewPermission = "view_project"

// ErrNotFound indicates the task or the user does not exist.
var ErrNotFound = fmt.Errorf("task or user %w", store.ErrNotFound)

// Subject is the task/user pair being checked with everything the rules
// need.
type Subject struct {
	TaskID          int64
	TaskName        string
	TaskStatus      int
	ProjectID       int64
	ProjectName     string
	IsPublicProject bool
	Username        string
	IsSuperuser     bool
	// DirectPermissions are the user's distinct codenames on the project.
	DirectPermissions []string
	// Groups are the names of every group the user belongs to.
	Groups []string
}

// GroupPermissions is the distinct codenames a group holds on the project.
type GroupPermissions struct {
	Group     string
	Codenames []string
}

// Verdict is the access decision for a subject.
type Verdict struct {
	Subject   Subject
	HasAccess bool
	// Reasons lists every rule that granted access, in precedence order.
	Reasons []Reason
}

// Evaluate applies the access rules. It is pure.
func Evaluate(subject Subject, groups []GroupPermissions) Verdict {
	var reasons []Reason
	if subject.IsSuperuser {
		reasons = append(reasons, Superuser())
	}
	if subject.IsPublicProject {
		reasons = append(reasons, PublicProject())
	}
	if internalstrings.Contains(subject.DirectPermissions, ViewPermission) {
		reasons = append(reasons, DirectGrant(subject.DirectPermissions))
	}
	for _, group := range groups {
		if internalstrings.Contains(group.Codenames, ViewPermission) {
			reasons = append(reasons, GroupGrant(group.Group, group.Codenames))
		}
	}
	return Verdict{
		Subject:   subject,
		HasAccess: len(reasons) > 0,
		Reasons:   reasons,
	}
}

// Report is the rendered verdict returned to callers.
type Report struct {
	TaskID          int64    `json:"task_id"`
	TaskName        string   `json:"task_name"`
	TaskStatus      int      `json:"task_status"`
	StatusName      string   `json:"status_name"`
	ProjectID       int64    `json:"project_id"`
	ProjectName     string   `json:"project_name"`
	Username        string   `json:"username"`
	IsSuperuser     bool     `json:"is_superuser"`
	HasAccess       bool     `json:"has_access"`
	AccessType      []string `json:"access_type"`
	UserGroups      string   `json:"user_groups"`
	IsPublicProject bool     `json:"is_public_project"`
}

// Report renders the verdict.
func (v Verdict) Report() Report {
	return Report{
		TaskID:          v.Subject.TaskID,
		TaskName:        v.Subject.TaskName,
		TaskStatus:      v.Subject.TaskStatus,
		StatusName:      task.StatusName(v.Subject.TaskStatus),
		ProjectID:       v.Subject.ProjectID,
		ProjectName:     v.Subject.ProjectName,
		Username:        v.Subject.Username,
		IsSuperuser:     v.Subject.IsSuperuser,
		HasAccess:       v.HasAccess,
		AccessType:      RenderReasons(v.Reasons),
		UserGroups:      internalstrings.JoinList(v.Subject.Groups),
		IsPublicProject: v.Subject.IsPublicProject,
	}
}

// Source supplies the rows an access check needs.
type Source interface {
	Subject(ctx context.Context, taskID int64, username string) (store.SubjectRow, error)
	DirectPermissions(ctx context.Context, projectID, userID int64) ([]string, error)
	GroupPermissions(ctx context.Context, taskID int64, username string) ([]store.GroupGrantRow, error)
	UserGroups(ctx context.Context, usernames []string) (map[string][]string, error)
}

// Evaluator answers access checks against a Source.
type Evaluator struct {
	source Source
}

// NewEvaluator creates an evaluator.
func NewEvaluator(source Source) *Evaluator {
	return &Evaluator{source: source}
}

// Check loads the subject and its grants and evaluates them.
func (e *Evaluator) Check(ctx context.Context, taskID int64, username string) (Verdict, error) {
	row, err := e.source.Subject(ctx, taskID, username)
	if err != nil {
		if store.IsNotFound(err) {
			return Verdict{}, fmt.Errorf("task %d or user %s: %w", taskID, username, ErrNotFound)
		}
		return Verdict{}, fmt.Errorf("check access: %w", err)
	}

	direct, err := e.source.DirectPermissions(ctx, row.ProjectID, row.UserID)
	if err != nil {
		return Verdict{}, fmt.Errorf("check access: %w", err)
	}
	memberships, err := e.source.UserGroups(ctx, []string{row.Username})
	if err != nil {
		return Verdict{}, fmt.Errorf("check access: %w", err)
	}
	groupRows, err := e.source.GroupPermissions(ctx, taskID, row.Username)
	if err != nil {
		return Verdict{}, fmt.Errorf("check access: %w", err)
	}

	subject := Subject{
		TaskID:            row.TaskID,
		TaskName:          row.TaskName,
		TaskStatus:        row.TaskStatus,
		ProjectID:         row.ProjectID,
		ProjectName:       row.ProjectName,
		IsPublicProject:   row.ProjectPublic,
		Username:          row.Username,
		IsSuperuser:       row.IsSuperuser,
		DirectPermissions: internalstrings.Distinct(direct),
		Groups:            internalstrings.Distinct(memberships[row.Username]),
	}
	return Evaluate(subject, collectGroups(groupRows)), nil
}

// collectGroups folds rows into one entry per group, preserving row order
// and dropping duplicate codenames.
func collectGroups(rows []store.GroupGrantRow) []GroupPermissions {
	index := make(map[string]int)
	var groups []GroupPermissions
	for _, row := range rows {
		i, ok := index[row.GroupName]
		if !ok {
			i = len(groups)
			index[row.GroupName] = i
			groups = append(groups, GroupPermissions{Group: row.GroupName})
		}
		groups[i].Codenames = append(groups[i].Codenames, row.Codename)
	}
	for i := range groups {
		groups[i].Codenames = internalstrings.Distinct(groups[i].Codenames)
	}
	return groups
}
