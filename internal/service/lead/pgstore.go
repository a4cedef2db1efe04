package lead

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	pgInsertLead = `INSERT INTO leads (name, phone, normalized_phone, preferred_start, preferred_end, reason, utc_offset, call_id, created_at, fx_usd_eur, fun_fact_short)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING id`
	pgUpdateLead = `UPDATE leads SET name = $1, phone = $2, normalized_phone = $3, preferred_start = $4, preferred_end = $5, reason = $6,
utc_offset = $7, call_id = $8, fx_usd_eur = $9, fun_fact_short = $10 WHERE id = $11`
	pgListLeads = `SELECT id, name, phone, normalized_phone, preferred_start, preferred_end, reason, utc_offset, call_id, created_at, fx_usd_eur, fun_fact_short
FROM leads ORDER BY id DESC`
)

// pgQuerier is satisfied by *pgxpool.Pool, *pgxpool.Conn and pgxmock pools.
type pgQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore keeps leads in Postgres.
type PostgresStore struct {
	pool *pgxpool.Pool
	q    pgQuerier
}

// OpenPostgresStore applies pending migrations and connects a pool.
func OpenPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	if err := Migrate(dsn, MigrateUp); err != nil {
		return nil, err
	}
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse config: %w", err)
	}
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return &PostgresStore{pool: pool, q: pool}, nil
}

// NewPostgresStoreWithQuerier builds a store whose sessions all share q.
func NewPostgresStoreWithQuerier(q pgQuerier) *PostgresStore {
	return &PostgresStore{q: q}
}

// Open acquires a pooled connection for the session.
func (s *PostgresStore) Open(ctx context.Context) (Session, error) {
	if s.pool == nil {
		return &pgSession{q: s.q, release: func() {}}, nil
	}
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("postgres: acquire connection: %w", err)
	}
	return &pgSession{q: conn, release: conn.Release}, nil
}

func (s *PostgresStore) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

type pgSession struct {
	q       pgQuerier
	release func()
}

func (s *pgSession) Insert(ctx context.Context, l *Lead) (int64, error) {
	var id int64
	err := s.q.QueryRow(ctx, pgInsertLead,
		l.Name, l.Phone, l.NormalizedPhone, l.PreferredStart, l.PreferredEnd, l.Reason,
		l.UTCOffset, l.CallID, l.CreatedAt.UTC(), l.FXUSDEUR, l.FunFactShort,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("postgres: insert lead: %w", err)
	}
	return id, nil
}

func (s *pgSession) Update(ctx context.Context, l *Lead) error {
	tag, err := s.q.Exec(ctx, pgUpdateLead,
		l.Name, l.Phone, l.NormalizedPhone, l.PreferredStart, l.PreferredEnd, l.Reason,
		l.UTCOffset, l.CallID, l.FXUSDEUR, l.FunFactShort, l.ID,
	)
	if err != nil {
		return fmt.Errorf("postgres: update lead %d: %w", l.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres: update lead %d: %w", l.ID, ErrNotFound)
	}
	return nil
}

func (s *pgSession) ListAll(ctx context.Context) ([]Lead, error) {
	rows, err := s.q.Query(ctx, pgListLeads)
	if err != nil {
		return nil, fmt.Errorf("postgres: list leads: %w", err)
	}
	defer rows.Close()

	var out []Lead
	for rows.Next() {
		var l Lead
		if err := rows.Scan(&l.ID, &l.Name, &l.Phone, &l.NormalizedPhone, &l.PreferredStart, &l.PreferredEnd,
			&l.Reason, &l.UTCOffset, &l.CallID, &l.CreatedAt, &l.FXUSDEUR, &l.FunFactShort); err != nil {
			return nil, fmt.Errorf("postgres: scan lead: %w", err)
		}
		l.CreatedAt = l.CreatedAt.UTC()
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list leads: %w", err)
	}
	return out, nil
}

func (s *pgSession) Close() error {
	s.release()
	return nil
}

var _ Store = (*PostgresStore)(nil)
