package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/amonks/taskowner/task"
)

// GrantRow is one user permission grant on a task's project.
type GrantRow struct {
	TaskID      int64
	TaskUUID    uuid.UUID
	TaskName    string
	TaskStatus  int
	CreatedAt   task.Timestamp
	ProjectID   int64
	ProjectName string
	Username    string
	Codename    string
}

// SubjectRow joins a task, its project and a user for an access check.
type SubjectRow struct {
	TaskID        int64
	TaskName      string
	TaskStatus    int
	ProjectID     int64
	ProjectName   string
	ProjectPublic bool
	UserID        int64
	Username      string
	IsSuperuser   bool
}

// GroupGrantRow is one permission a group holds on a task's project.
type GroupGrantRow struct {
	GroupName string
	Codename  string
}

const grantColumns = `
	SELECT
		t.id,
		t.uuid,
		t.name,
		t.status,
		t.created_at,
		p.id,
		p.name,
		u.username,
		perm.codename
	FROM app_task t
	JOIN app_project p ON t.project_id = p.id
	JOIN app_projectuserobjectpermission puop ON puop.content_object_id = p.id
	JOIN auth_user u ON puop.user_id = u.id
	JOIN auth_permission perm ON puop.permission_id = perm.id`

const grantOrder = `
	ORDER BY t.id, u.username, puop.id, perm.codename`

// Grants returns every user grant for every task, ordered by task id,
// username and grant id.
func (s *Session) Grants(ctx context.Context) ([]GrantRow, error) {
	rows, err := s.query(ctx, grantColumns+grantOrder)
	if err != nil {
		return nil, unavailable("query grants", err)
	}
	return scanGrants(rows)
}

// TaskGrants returns the user grants for a single task. A missing task
// yields no rows.
func (s *Session) TaskGrants(ctx context.Context, taskID int64) ([]GrantRow, error) {
	rows, err := s.query(ctx, grantColumns+`
	WHERE t.id = ?`+grantOrder, taskID)
	if err != nil {
		return nil, unavailable("query task grants", err)
	}
	return scanGrants(rows)
}

func scanGrants(rows *sql.Rows) ([]GrantRow, error) {
	defer rows.Close()

	var grants []GrantRow
	for rows.Next() {
		var g GrantRow
		var status sql.NullInt64
		if err := rows.Scan(
			&g.TaskID,
			&g.TaskUUID,
			&g.TaskName,
			&status,
			&g.CreatedAt,
			&g.ProjectID,
			&g.ProjectName,
			&g.Username,
			&g.Codename,
		); err != nil {
			return nil, unavailable("scan grant", err)
		}
		// A NULL status scans as 0, which renders as "Unknown (0)".
		g.TaskStatus = int(status.Int64)
		grants = append(grants, g)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("read grants", err)
	}
	return grants, nil
}

// UserGroups returns the group names of each requested user, ordered by
// group name. Users without groups are absent from the map.
func (s *Session) UserGroups(ctx context.Context, usernames []string) (map[string][]string, error) {
	groups := make(map[string][]string)
	if len(usernames) == 0 {
		return groups, nil
	}

	args := make([]any, len(usernames))
	for i, username := range usernames {
		args[i] = username
	}
	rows, err := s.query(ctx, fmt.Sprintf(`
	SELECT u.username, g.name
	FROM auth_user u
	JOIN auth_user_groups ug ON ug.user_id = u.id
	JOIN auth_group g ON ug.group_id = g.id
	WHERE u.username IN (%s)
	ORDER BY u.username, g.name`, placeholders(len(usernames))), args...)
	if err != nil {
		return nil, unavailable("query user groups", err)
	}
	defer rows.Close()

	for rows.Next() {
		var username, group string
		if err := rows.Scan(&username, &group); err != nil {
			return nil, unavailable("scan user group", err)
		}
		groups[username] = append(groups[username], group)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("read user groups", err)
	}
	return groups, nil
}

// Subject loads a task, its project and the user with the exact username.
// It returns ErrNotFound if either the task or the user is missing.
func (s *Session) Subject(ctx context.Context, taskID int64, username string) (SubjectRow, error) {
	var row SubjectRow
	var status sql.NullInt64
	err := s.queryRow(ctx, `
	SELECT
		t.id,
		t.name,
		t.status,
		p.id,
		p.name,
		p.public,
		u.id,
		u.username,
		u.is_superuser
	FROM app_task t
	JOIN app_project p ON t.project_id = p.id
	JOIN auth_user u ON u.username = ?
	WHERE t.id = ?`, username, taskID).Scan(
		&row.TaskID,
		&row.TaskName,
		&status,
		&row.ProjectID,
		&row.ProjectName,
		&row.ProjectPublic,
		&row.UserID,
		&row.Username,
		&row.IsSuperuser,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return SubjectRow{}, fmt.Errorf("task %d or user %s: %w", taskID, username, ErrNotFound)
	}
	if err != nil {
		return SubjectRow{}, unavailable("query access subject", err)
	}
	// NULL status becomes 0, as in scanGrants.
	row.TaskStatus = int(status.Int64)
	return row, nil
}

// DirectPermissions returns the codenames granted to the user on the
// project, in grant order. Duplicates are preserved.
func (s *Session) DirectPermissions(ctx context.Context, projectID, userID int64) ([]string, error) {
	rows, err := s.query(ctx, `
	SELECT perm.codename
	FROM app_projectuserobjectpermission puop
	JOIN auth_permission perm ON puop.permission_id = perm.id
	WHERE puop.content_object_id = ? AND puop.user_id = ?
	ORDER BY puop.id, perm.codename`, projectID, userID)
	if err != nil {
		return nil, unavailable("query direct permissions", err)
	}
	defer rows.Close()

	codenames := []string{}
	for rows.Next() {
		var codename string
		if err := rows.Scan(&codename); err != nil {
			return nil, unavailable("scan direct permission", err)
		}
		codenames = append(codenames, codename)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("read direct permissions", err)
	}
	return codenames, nil
}

// GroupPermissions returns the permissions held on the task's project by
// groups the user belongs to, ordered by group name and grant id.
func (s *Session) GroupPermissions(ctx context.Context, taskID int64, username string) ([]GroupGrantRow, error) {
	rows, err := s.query(ctx, `
	SELECT g.name, perm.codename
	FROM app_task t
	JOIN app_project p ON t.project_id = p.id
	JOIN app_projectgroupobjectpermission pgop ON pgop.content_object_id = p.id
	JOIN auth_group g ON pgop.group_id = g.id
	JOIN auth_permission perm ON pgop.permission_id = perm.id
	WHERE t.id = ? AND g.id IN (
		SELECT ug.group_id
		FROM auth_user_groups ug
		JOIN auth_user u ON ug.user_id = u.id
		WHERE u.username = ?
	)
	ORDER BY g.name, pgop.id, perm.codename`, taskID, username)
	if err != nil {
		return nil, unavailable("query group permissions", err)
	}
	defer rows.Close()

	var grants []GroupGrantRow
	for rows.Next() {
		var g GroupGrantRow
		if err := rows.Scan(&g.GroupName, &g.Codename); err != nil {
			return nil, unavailable("scan group permission", err)
		}
		grants = append(grants, g)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("read group permissions", err)
	}
	return grants, nil
}
