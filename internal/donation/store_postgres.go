package donation

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

// PostgresStore persists donations in PostgreSQL. The version column carries
// the optimistic concurrency check; see schema.sql for the table definition.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, d *Donation) error {
	query := `
		INSERT INTO donations (
			id, code, donor_id, staff_id, facility_id, blood_group_id,
			registration_id, quantity_ml, status, notes, created_at,
			status_changed_at, version
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, 1)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(d.ID), d.Code, uuid.UUID(d.DonorID), uuid.UUID(d.StaffID),
		uuid.UUID(d.FacilityID), uuid.UUID(d.BloodGroupID),
		uuid.UUID(d.RegistrationID), d.QuantityML, string(d.Status), d.Notes,
		d.CreatedAt, d.StatusChangedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrAlreadyExists
		}
		return fmt.Errorf("create donation: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id domain.DonationID) (*Donation, int64, error) {
	query := `
		SELECT id, code, donor_id, staff_id, facility_id, blood_group_id,
		       registration_id, quantity_ml, status, notes, created_at,
		       status_changed_at, version
		FROM donations WHERE id = $1
	`
	var (
		d       Donation
		rawID   uuid.UUID
		donor   uuid.UUID
		staff   uuid.UUID
		fac     uuid.UUID
		bg      uuid.UUID
		reg     uuid.UUID
		status  string
		version int64
	)
	err := s.db.QueryRowContext(ctx, query, uuid.UUID(id)).Scan(
		&rawID, &d.Code, &donor, &staff, &fac, &bg, &reg,
		&d.QuantityML, &status, &d.Notes, &d.CreatedAt, &d.StatusChangedAt,
		&version,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, 0, sentinel.ErrNotFound
		}
		return nil, 0, fmt.Errorf("get donation: %w", err)
	}
	d.ID = domain.DonationID(rawID)
	d.DonorID = domain.ActorID(donor)
	d.StaffID = domain.ActorID(staff)
	d.FacilityID = domain.FacilityID(fac)
	d.BloodGroupID = domain.BloodGroupID(bg)
	d.RegistrationID = domain.RegistrationID(reg)
	d.Status = domain.Status(status)
	return &d, version, nil
}

func (s *PostgresStore) Put(ctx context.Context, d *Donation, expectedVersion int64) (int64, error) {
	query := `
		UPDATE donations
		SET quantity_ml = $3, status = $4, notes = $5, status_changed_at = $6,
		    version = version + 1
		WHERE id = $1 AND version = $2
		RETURNING version
	`
	var newVersion int64
	err := s.db.QueryRowContext(ctx, query,
		uuid.UUID(d.ID), expectedVersion,
		d.QuantityML, string(d.Status), d.Notes, d.StatusChangedAt,
	).Scan(&newVersion)
	if err == nil {
		return newVersion, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("put donation: %w", err)
	}
	// Zero rows: either the id is unknown or the version moved on.
	var exists bool
	if err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM donations WHERE id = $1)`, uuid.UUID(d.ID),
	).Scan(&exists); err != nil {
		return 0, fmt.Errorf("put donation: %w", err)
	}
	if !exists {
		return 0, sentinel.ErrNotFound
	}
	return 0, sentinel.ErrVersionConflict
}
