package lead

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janisto/lead-intake/internal/service/lead/migrations"
)

func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresStoreWithQuerier(mock), mock
}

func TestPostgresInsertReturnsID(t *testing.T) {
	store, mock := newMockPostgresStore(t)
	created := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	l := &Lead{
		Name:            "John Doe",
		Phone:           "+14155552671",
		NormalizedPhone: ptr("+14155552671"),
		PreferredStart:  "2026-03-13T12:00:00Z",
		Reason:          "Severe headache",
		CreatedAt:       created,
	}

	mock.ExpectQuery("INSERT INTO leads").
		WithArgs(l.Name, l.Phone, l.NormalizedPhone, l.PreferredStart, l.PreferredEnd, l.Reason,
			l.UTCOffset, l.CallID, created, l.FXUSDEUR, l.FunFactShort).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(42)))

	sess, err := store.Open(context.Background())
	require.NoError(t, err)
	defer func() { _ = sess.Close() }()

	id, err := sess.Insert(context.Background(), l)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresInsertError(t *testing.T) {
	store, mock := newMockPostgresStore(t)
	mock.ExpectQuery("INSERT INTO leads").WillReturnError(errors.New("connection reset"))

	sess, err := store.Open(context.Background())
	require.NoError(t, err)

	_, err = sess.Insert(context.Background(), &Lead{Name: "John Doe"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres: insert lead")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdate(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		wantErr  error
	}{
		{"updated", 1, nil},
		{"missing", 0, ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock := newMockPostgresStore(t)
			mock.ExpectExec("UPDATE leads SET").
				WillReturnResult(pgxmock.NewResult("UPDATE", tt.affected))

			sess, err := store.Open(context.Background())
			require.NoError(t, err)

			err = sess.Update(context.Background(), &Lead{ID: 7, FXUSDEUR: ptr(0.9)})
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostgresListAll(t *testing.T) {
	store, mock := newMockPostgresStore(t)
	created := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	rows := pgxmock.NewRows([]string{
		"id", "name", "phone", "normalized_phone", "preferred_start", "preferred_end", "reason",
		"utc_offset", "call_id", "created_at", "fx_usd_eur", "fun_fact_short",
	}).
		AddRow(int64(2), "Jane Roe", "4155552672", (*string)(nil), "2026-03-14T09:30:00", ptr("2026-03-14T10:00:00"),
			"Follow-up visit", (*string)(nil), (*string)(nil), created.Add(time.Second), (*float64)(nil), (*string)(nil)).
		AddRow(int64(1), "John Doe", "+14155552671", ptr("+14155552671"), "2026-03-13T12:00:00Z", (*string)(nil),
			"Severe headache", (*string)(nil), ptr("call-1"), created, ptr(0.92), ptr("Cats purr."))
	mock.ExpectQuery("SELECT id, name").WillReturnRows(rows)

	sess, err := store.Open(context.Background())
	require.NoError(t, err)

	all, err := sess.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, int64(2), all[0].ID)
	assert.Nil(t, all[0].FXUSDEUR)
	require.NotNil(t, all[1].FXUSDEUR)
	assert.InDelta(t, 0.92, *all[1].FXUSDEUR, 1e-9)
	assert.Equal(t, "call-1", *all[1].CallID)
	assert.True(t, all[1].CreatedAt.Equal(created))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresListQueryError(t *testing.T) {
	store, mock := newMockPostgresStore(t)
	mock.ExpectQuery("SELECT id, name").WillReturnError(errors.New("relation \"leads\" does not exist"))

	sess, err := store.Open(context.Background())
	require.NoError(t, err)

	_, err = sess.ListAll(context.Background())
	assert.Error(t, err)
}

func TestMigrateValidatesArguments(t *testing.T) {
	assert.Error(t, Migrate("", MigrateUp))
	assert.Error(t, Migrate("postgres://localhost/leads", "sideways"))
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := migrations.FS.ReadDir(".")
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Contains(t, names, "000001_create_leads.up.sql")
	assert.Contains(t, names, "000001_create_leads.down.sql")
}
