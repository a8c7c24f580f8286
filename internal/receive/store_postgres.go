package receive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"bloodline/pkg/domain"
	"bloodline/pkg/platform/sentinel"
)

// PostgresStore persists receive requests in PostgreSQL with a version
// column for the optimistic concurrency check.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, r *Request) error {
	query := `
		INSERT INTO receive_requests (
			id, requester_id, blood_group_id, quantity_ml, facility_id,
			status, assignment_id, created_at, status_changed_at, version
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 1)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(r.ID), uuid.UUID(r.RequesterID), uuid.UUID(r.BloodGroupID),
		r.QuantityML, uuid.UUID(r.FacilityID), string(r.Status),
		assignmentValue(r.AssignmentID), r.CreatedAt, r.StatusChangedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrAlreadyExists
		}
		return fmt.Errorf("create receive request: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id domain.RequestID) (*Request, int64, error) {
	query := `
		SELECT id, requester_id, blood_group_id, quantity_ml, facility_id,
		       status, assignment_id, created_at, status_changed_at, version
		FROM receive_requests WHERE id = $1
	`
	var (
		r          Request
		rawID      uuid.UUID
		requester  uuid.UUID
		bg         uuid.UUID
		fac        uuid.UUID
		status     string
		assignment uuid.NullUUID
		version    int64
	)
	err := s.db.QueryRowContext(ctx, query, uuid.UUID(id)).Scan(
		&rawID, &requester, &bg, &r.QuantityML, &fac, &status, &assignment,
		&r.CreatedAt, &r.StatusChangedAt, &version,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, 0, sentinel.ErrNotFound
		}
		return nil, 0, fmt.Errorf("get receive request: %w", err)
	}
	r.ID = domain.RequestID(rawID)
	r.RequesterID = domain.ActorID(requester)
	r.BloodGroupID = domain.BloodGroupID(bg)
	r.FacilityID = domain.FacilityID(fac)
	r.Status = domain.Status(status)
	if assignment.Valid {
		a := domain.AssignmentID(assignment.UUID)
		r.AssignmentID = &a
	}
	return &r, version, nil
}

func (s *PostgresStore) Put(ctx context.Context, r *Request, expectedVersion int64) (int64, error) {
	query := `
		UPDATE receive_requests
		SET status = $3, assignment_id = $4, status_changed_at = $5,
		    version = version + 1
		WHERE id = $1 AND version = $2
		RETURNING version
	`
	var newVersion int64
	err := s.db.QueryRowContext(ctx, query,
		uuid.UUID(r.ID), expectedVersion,
		string(r.Status), assignmentValue(r.AssignmentID), r.StatusChangedAt,
	).Scan(&newVersion)
	if err == nil {
		return newVersion, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("put receive request: %w", err)
	}
	var exists bool
	if err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM receive_requests WHERE id = $1)`, uuid.UUID(r.ID),
	).Scan(&exists); err != nil {
		return 0, fmt.Errorf("put receive request: %w", err)
	}
	if !exists {
		return 0, sentinel.ErrNotFound
	}
	return 0, sentinel.ErrVersionConflict
}

func assignmentValue(id *domain.AssignmentID) any {
	if id == nil {
		return nil
	}
	return uuid.UUID(*id)
}
