// Package api serves ownership and access queries over HTTP and provides a
// client for them.
package api

import (
	"context"
	"fmt"

	"github.com/amonks/taskowner/access"
	"github.com/amonks/taskowner/ownership"
	"github.com/amonks/taskowner/store"
)

// Queries answers every query the HTTP surface exposes. Service answers
// them against the store and Client against a running server.
type Queries interface {
	TaskOwnership(ctx context.Context) ([]ownership.Record, error)
	TaskStatus(ctx context.Context) ([]ownership.StatusRecord, error)
	TaskOwner(ctx context.Context, taskID int64) (ownership.Record, error)
	CheckAccess(ctx context.Context, taskID int64, username string) (access.Report, error)
}

var (
	_ Queries = (*Service)(nil)
	_ Queries = (*Client)(nil)
)

// Service runs queries against a store pool. Each call holds one session
// for its duration.
type Service struct {
	db        *store.DB
	ownership ownership.Options
}

// NewService creates a service over db.
func NewService(db *store.DB, opts ownership.Options) *Service {
	return &Service{db: db, ownership: opts}
}

// TaskOwnership lists every candidate owner of every task.
func (s *Service) TaskOwnership(ctx context.Context) ([]ownership.Record, error) {
	session, err := s.db.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	return ownership.NewResolver(session, s.ownership).ListAll(ctx)
}

// TaskStatus lists every candidate owner of every task without permission
// detail.
func (s *Service) TaskStatus(ctx context.Context) ([]ownership.StatusRecord, error) {
	session, err := s.db.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	return ownership.NewResolver(session, s.ownership).ListStatus(ctx)
}

// TaskOwner returns the top-ranked owner of one task.
func (s *Service) TaskOwner(ctx context.Context, taskID int64) (ownership.Record, error) {
	session, err := s.db.Acquire(ctx)
	if err != nil {
		return ownership.Record{}, err
	}
	defer session.Close()

	return ownership.NewResolver(session, s.ownership).Get(ctx, taskID)
}

// CheckAccess reports whether username can see the task.
func (s *Service) CheckAccess(ctx context.Context, taskID int64, username string) (access.Report, error) {
	session, err := s.db.Acquire(ctx)
	if err != nil {
		return access.Report{}, err
	}
	defer session.Close()

	verdict, err := access.NewEvaluator(session).Check(ctx, taskID, username)
	if err != nil {
		return access.Report{}, err
	}
	return verdict.Report(), nil
}

// Health pings the store.
func (s *Service) Health(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return fmt.Errorf("health: %w", err)
	}
	return nil
}
