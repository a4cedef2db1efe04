package lead

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS leads (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	name             TEXT NOT NULL,
	phone            TEXT NOT NULL,
	normalized_phone TEXT,
	preferred_start  TEXT NOT NULL,
	preferred_end    TEXT,
	reason           TEXT NOT NULL,
	utc_offset       TEXT,
	call_id          TEXT,
	created_at       TEXT NOT NULL,
	fx_usd_eur       REAL,
	fun_fact_short   TEXT
);
`

const (
	sqlInsertLead = `INSERT INTO leads (name, phone, normalized_phone, preferred_start, preferred_end, reason, utc_offset, call_id, created_at, fx_usd_eur, fun_fact_short)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	sqlUpdateLead = `UPDATE leads SET name = ?, phone = ?, normalized_phone = ?, preferred_start = ?, preferred_end = ?, reason = ?,
utc_offset = ?, call_id = ?, fx_usd_eur = ?, fun_fact_short = ? WHERE id = ?`
	sqlListLeads = `SELECT id, name, phone, normalized_phone, preferred_start, preferred_end, reason, utc_offset, call_id, created_at, fx_usd_eur, fun_fact_short
FROM leads ORDER BY id DESC`
)

// SQLStore keeps leads in SQLite through database/sql.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore wraps an open database whose schema already exists.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// sqlitePragmas apply to every pooled connection.
var sqlitePragmas = []string{
	"busy_timeout(5000)",
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
	"foreign_keys(1)",
}

// OpenSQLStore opens the SQLite database at dsn in WAL mode and creates the
// leads table when missing.
func OpenSQLStore(ctx context.Context, dsn string) (*SQLStore, error) {
	db, err := sql.Open("sqlite", withPragmas(dsn))
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	s := &SQLStore{db: db}
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func withPragmas(dsn string) string {
	q := url.Values{}
	for _, p := range sqlitePragmas {
		q.Add("_pragma", p)
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + q.Encode()
}

func (s *SQLStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("sqlite: migrate: %w", err)
	}
	return nil
}

// Open reserves a connection for the session.
func (s *SQLStore) Open(ctx context.Context) (Session, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("sqlite: acquire connection: %w", err)
	}
	return &sqlSession{conn: conn}, nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

type sqlSession struct {
	conn *sql.Conn
}

func (s *sqlSession) Insert(ctx context.Context, l *Lead) (int64, error) {
	res, err := s.conn.ExecContext(ctx, sqlInsertLead,
		l.Name, l.Phone, nullable(l.NormalizedPhone), l.PreferredStart, nullable(l.PreferredEnd), l.Reason,
		nullable(l.UTCOffset), nullable(l.CallID), l.CreatedAt.UTC().Format(time.RFC3339Nano),
		nullable(l.FXUSDEUR), nullable(l.FunFactShort),
	)
	if err != nil {
		return 0, fmt.Errorf("sqlite: insert lead: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("sqlite: insert lead id: %w", err)
	}
	return id, nil
}

func (s *sqlSession) Update(ctx context.Context, l *Lead) error {
	res, err := s.conn.ExecContext(ctx, sqlUpdateLead,
		l.Name, l.Phone, nullable(l.NormalizedPhone), l.PreferredStart, nullable(l.PreferredEnd), l.Reason,
		nullable(l.UTCOffset), nullable(l.CallID), nullable(l.FXUSDEUR), nullable(l.FunFactShort), l.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: update lead %d: %w", l.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: update lead %d: %w", l.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("sqlite: update lead %d: %w", l.ID, ErrNotFound)
	}
	return nil
}

func (s *sqlSession) ListAll(ctx context.Context) ([]Lead, error) {
	rows, err := s.conn.QueryContext(ctx, sqlListLeads)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list leads: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Lead
	for rows.Next() {
		var (
			l       Lead
			created string
		)
		if err := rows.Scan(&l.ID, &l.Name, &l.Phone, &l.NormalizedPhone, &l.PreferredStart, &l.PreferredEnd,
			&l.Reason, &l.UTCOffset, &l.CallID, &created, &l.FXUSDEUR, &l.FunFactShort); err != nil {
			return nil, fmt.Errorf("sqlite: scan lead: %w", err)
		}
		if l.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("sqlite: lead %d created_at: %w", l.ID, err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list leads: %w", err)
	}
	return out, nil
}

// Close returns the connection to the pool.
func (s *sqlSession) Close() error {
	return s.conn.Close()
}

// nullable maps a nil pointer to SQL NULL.
func nullable[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

var _ Store = (*SQLStore)(nil)
