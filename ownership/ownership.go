// Package ownership infers the probable owner of each task from the
// object-level permission grants on the task's project.
//
// Ownership is not stored anywhere. A user is a candidate owner of a task
// when they hold at least Threshold distinct permission codenames on the
// task's project; candidates are ranked by that count.
package ownership

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	internalstrings "github.com/amonks/taskowner/internal/strings"
	"github.com/amonks/taskowner/store"
	"github.com/amonks/taskowner/task"
)

// DefaultThreshold is the minimum distinct codename count for ownership.
const DefaultThreshold = 4

// ErrNotFound indicates the task has no grantee meeting the threshold, or
// does not exist.
var ErrNotFound = fmt.Errorf("task owner %w", store.ErrNotFound)

// Record describes a task and one of its candidate owners.
type Record struct {
	TaskID             int64      `json:"task_id"`
	TaskUUID           uuid.UUID  `json:"task_uuid"`
	TaskName           string     `json:"task_name"`
	ProcessingDate     *time.Time `json:"processing_date"`
	TaskStatus         int        `json:"task_status"`
	StatusName         string     `json:"status_name"`
	ProjectID          int64      `json:"project_id"`
	ProjectName        string     `json:"project_name"`
	ProbableOwner      string     `json:"probable_owner"`
	PermissionCount    int        `json:"permission_count"`
	Permissions        string     `json:"permissions"`
	GroupMemberships   string     `json:"group_memberships"`
	DaysSinceProcessed *int       `json:"days_since_processed"`
}

// StatusRecord is a Record without permission detail.
type StatusRecord struct {
	TaskID        int64     `json:"task_id"`
	TaskUUID      uuid.UUID `json:"task_uuid"`
	TaskName      string    `json:"task_name"`
	TaskStatus    int       `json:"task_status"`
	StatusName    string    `json:"status_name"`
	ProjectID     int64     `json:"project_id"`
	ProjectName   string    `json:"project_name"`
	OwnerUsername string    `json:"owner_username"`
}

// Status projects the record down to its status fields.
func (r Record) Status() StatusRecord {
	return StatusRecord{
		TaskID:        r.TaskID,
		TaskUUID:      r.TaskUUID,
		TaskName:      r.TaskName,
		TaskStatus:    r.TaskStatus,
		StatusName:    r.StatusName,
		ProjectID:     r.ProjectID,
		ProjectName:   r.ProjectName,
		OwnerUsername: r.ProbableOwner,
	}
}

// Options configures ownership inference.
type Options struct {
	// Threshold is the minimum distinct codename count. Values below 1 use
	// DefaultThreshold.
	Threshold int
	// Now returns the current time for elapsed-day computation.
	Now func() time.Time
}

func (o Options) threshold() int {
	if o.Threshold < 1 {
		return DefaultThreshold
	}
	return o.Threshold
}

func (o Options) now() time.Time {
	if o.Now == nil {
		return time.Now().UTC()
	}
	return o.Now().UTC()
}

// Source supplies raw grant rows.
type Source interface {
	Grants(ctx context.Context) ([]store.GrantRow, error)
	TaskGrants(ctx context.Context, taskID int64) ([]store.GrantRow, error)
	UserGroups(ctx context.Context, usernames []string) (map[string][]string, error)
}

// Resolver answers ownership queries against a Source.
type Resolver struct {
	source Source
	opts   Options
}

// NewResolver creates a resolver.
func NewResolver(source Source, opts Options) *Resolver {
	return &Resolver{source: source, opts: opts}
}

// ListAll returns every candidate owner of every task, ordered by task id
// and then by permission count descending.
func (r *Resolver) ListAll(ctx context.Context) ([]Record, error) {
	rows, err := r.source.Grants(ctx)
	if err != nil {
		return nil, fmt.Errorf("list task ownership: %w", err)
	}
	records, err := r.resolve(ctx, rows)
	if err != nil {
		return nil, fmt.Errorf("list task ownership: %w", err)
	}
	return records, nil
}

// Get returns the top-ranked candidate owner of one task.
func (r *Resolver) Get(ctx context.Context, taskID int64) (Record, error) {
	rows, err := r.source.TaskGrants(ctx, taskID)
	if err != nil {
		return Record{}, fmt.Errorf("get task owner: %w", err)
	}
	records, err := r.resolve(ctx, rows)
	if err != nil {
		return Record{}, fmt.Errorf("get task owner: %w", err)
	}
	if len(records) == 0 {
		return Record{}, fmt.Errorf("task %d: %w", taskID, ErrNotFound)
	}
	return records[0], nil
}

// ListStatus returns the status projection of ListAll. Group memberships
// are not loaded.
func (r *Resolver) ListStatus(ctx context.Context) ([]StatusRecord, error) {
	rows, err := r.source.Grants(ctx)
	if err != nil {
		return nil, fmt.Errorf("list task status: %w", err)
	}
	records := Resolve(rows, nil, r.opts)
	statuses := make([]StatusRecord, 0, len(records))
	for _, record := range records {
		statuses = append(statuses, record.Status())
	}
	return statuses, nil
}

func (r *Resolver) resolve(ctx context.Context, rows []store.GrantRow) ([]Record, error) {
	owners := candidateUsernames(rows, r.opts.threshold())
	groups, err := r.source.UserGroups(ctx, owners)
	if err != nil {
		return nil, err
	}
	return Resolve(rows, groups, r.opts), nil
}

type candidateKey struct {
	taskID   int64
	username string
}

type candidate struct {
	first     store.GrantRow
	codenames []string
	seen      map[string]bool
}

// Resolve groups rows by (task, user), keeps users holding at least the
// threshold of distinct codenames, and returns one record per surviving
// candidate. Records are ordered by task id, then permission count
// descending, then username. groups maps usernames to group names.
func Resolve(rows []store.GrantRow, groups map[string][]string, opts Options) []Record {
	threshold := opts.threshold()
	now := opts.now()

	candidates, order := groupCandidates(rows)

	records := make([]Record, 0, len(order))
	for _, key := range order {
		c := candidates[key]
		if len(c.codenames) < threshold {
			continue
		}
		records = append(records, Record{
			TaskID:             c.first.TaskID,
			TaskUUID:           c.first.TaskUUID,
			TaskName:           c.first.TaskName,
			ProcessingDate:     c.first.CreatedAt.Ptr(),
			TaskStatus:         c.first.TaskStatus,
			StatusName:         task.StatusName(c.first.TaskStatus),
			ProjectID:          c.first.ProjectID,
			ProjectName:        c.first.ProjectName,
			ProbableOwner:      c.first.Username,
			PermissionCount:    len(c.codenames),
			Permissions:        internalstrings.JoinList(c.codenames),
			GroupMemberships:   internalstrings.JoinList(internalstrings.Distinct(groups[c.first.Username])),
			DaysSinceProcessed: task.DaysSincePtr(c.first.CreatedAt, now),
		})
	}

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].TaskID != records[j].TaskID {
			return records[i].TaskID < records[j].TaskID
		}
		if records[i].PermissionCount != records[j].PermissionCount {
			return records[i].PermissionCount > records[j].PermissionCount
		}
		return records[i].ProbableOwner < records[j].ProbableOwner
	})
	return records
}

func groupCandidates(rows []store.GrantRow) (map[candidateKey]*candidate, []candidateKey) {
	candidates := make(map[candidateKey]*candidate)
	var order []candidateKey
	for _, row := range rows {
		key := candidateKey{taskID: row.TaskID, username: row.Username}
		c, ok := candidates[key]
		if !ok {
			c = &candidate{first: row, seen: make(map[string]bool)}
			candidates[key] = c
			order = append(order, key)
		}
		if row.Codename == "" || c.seen[row.Codename] {
			continue
		}
		c.seen[row.Codename] = true
		c.codenames = append(c.codenames, row.Codename)
	}
	return candidates, order
}

func candidateUsernames(rows []store.GrantRow, threshold int) []string {
	candidates, order := groupCandidates(rows)
	seen := make(map[string]bool)
	var usernames []string
	for _, key := range order {
		if len(candidates[key].codenames) < threshold || seen[key.username] {
			continue
		}
		seen[key.username] = true
		usernames = append(usernames, key.username)
	}
	sort.Strings(usernames)
	return usernames
}
