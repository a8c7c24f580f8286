package monitoring

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bloodline/pkg/domain"
	"bloodline/pkg/platform/sentinel"
)

// PostgresStore persists monitoring logs in PostgreSQL via pgx. The unique
// index on donation_id is what makes CreateIfAbsent race-safe: concurrent
// creators for the same donation collapse onto a single row.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) CreateIfAbsent(ctx context.Context, l *Log) (*Log, bool, error) {
	query := `
		INSERT INTO monitoring_logs (id, donation_id, donor_id, vitals, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (donation_id) DO NOTHING
		RETURNING id
	`
	var insertedID uuid.UUID
	err := s.pool.QueryRow(ctx, query,
		uuid.UUID(l.ID), uuid.UUID(l.DonationID), uuid.UUID(l.DonorID),
		l.Vitals, l.CreatedAt,
	).Scan(&insertedID)
	if err == nil {
		return l.Clone(), true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fmt.Errorf("create monitoring log: %w", err)
	}
	// Conflict: a log already exists for this donation, return it unchanged.
	existing, err := s.GetByDonation(ctx, l.DonationID)
	if err != nil {
		return nil, false, fmt.Errorf("load existing monitoring log: %w", err)
	}
	return existing, false, nil
}

func (s *PostgresStore) Get(ctx context.Context, id domain.LogID) (*Log, error) {
	return s.scanOne(ctx,
		`SELECT id, donation_id, donor_id, vitals, recorded_at, created_at
		 FROM monitoring_logs WHERE id = $1`, uuid.UUID(id))
}

func (s *PostgresStore) GetByDonation(ctx context.Context, donationID domain.DonationID) (*Log, error) {
	return s.scanOne(ctx,
		`SELECT id, donation_id, donor_id, vitals, recorded_at, created_at
		 FROM monitoring_logs WHERE donation_id = $1`, uuid.UUID(donationID))
}

func (s *PostgresStore) Seal(ctx context.Context, id domain.LogID, recordedAt time.Time, vitals string) (*Log, error) {
	query := `
		UPDATE monitoring_logs
		SET recorded_at = $2, vitals = $3
		WHERE id = $1 AND recorded_at IS NULL
		RETURNING id, donation_id, donor_id, vitals, recorded_at, created_at
	`
	l, err := scanLog(s.pool.QueryRow(ctx, query, uuid.UUID(id), recordedAt, vitals))
	if err == nil {
		return l, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("seal monitoring log: %w", err)
	}
	// Zero rows: unknown id or already sealed.
	if _, getErr := s.Get(ctx, id); getErr != nil {
		return nil, getErr
	}
	return nil, sentinel.ErrInvalidState
}

func (s *PostgresStore) scanOne(ctx context.Context, query string, arg any) (*Log, error) {
	l, err := scanLog(s.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get monitoring log: %w", err)
	}
	return l, nil
}

func scanLog(row pgx.Row) (*Log, error) {
	var (
		l          Log
		rawID      uuid.UUID
		donationID uuid.UUID
		donorID    uuid.UUID
		recordedAt *time.Time
	)
	if err := row.Scan(&rawID, &donationID, &donorID, &l.Vitals, &recordedAt, &l.CreatedAt); err != nil {
		return nil, err
	}
	l.ID = domain.LogID(rawID)
	l.DonationID = domain.DonationID(donationID)
	l.DonorID = domain.ActorID(donorID)
	l.RecordedAt = recordedAt
	return &l, nil
}
