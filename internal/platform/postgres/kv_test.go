package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/smartmark/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockKV(t *testing.T) (*KV, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewKV(db), mock
}

func TestKVGet(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		kv, mock := newMockKV(t)
		mock.ExpectQuery(`SELECT value FROM kv_entries WHERE key = \$1`).
			WithArgs(store.KeyBookmarks).
			WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow([]byte(`[]`)))

		got, err := kv.Get(ctx, store.KeyBookmarks)
		require.NoError(t, err)
		assert.Equal(t, `[]`, string(got))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing", func(t *testing.T) {
		kv, mock := newMockKV(t)
		mock.ExpectQuery(`SELECT value FROM kv_entries`).
			WithArgs(store.KeyAIConfig).
			WillReturnError(sql.ErrNoRows)

		_, err := kv.Get(ctx, store.KeyAIConfig)
		assert.ErrorIs(t, err, store.ErrKeyNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestKVSet(t *testing.T) {
	ctx := context.Background()
	kv, mock := newMockKV(t)

	mock.ExpectExec(`INSERT INTO kv_entries`).
		WithArgs(store.KeyAuthToken, []byte(`"jwt"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, kv.Set(ctx, store.KeyAuthToken, []byte(`"jwt"`)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestKVSetMapsInvalidJSON(t *testing.T) {
	ctx := context.Background()
	kv, mock := newMockKV(t)

	mock.ExpectExec(`INSERT INTO kv_entries`).
		WillReturnError(&pgconn.PgError{Code: invalidJSONCode})

	err := kv.Set(ctx, store.KeyAuthToken, []byte(`not json`))
	assert.ErrorIs(t, err, store.ErrInvalidEntity)
}

func TestKVDeleteIsTransactional(t *testing.T) {
	ctx := context.Background()

	t.Run("all keys committed together", func(t *testing.T) {
		kv, mock := newMockKV(t)
		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM kv_entries`).WithArgs(store.KeyBookmarks).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`DELETE FROM kv_entries`).WithArgs(store.KeySmartCategories).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		require.NoError(t, kv.Delete(ctx, store.KeyBookmarks, store.KeySmartCategories))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failure rolls back", func(t *testing.T) {
		kv, mock := newMockKV(t)
		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM kv_entries`).WithArgs(store.KeyBookmarks).
			WillReturnError(errors.New("connection reset"))
		mock.ExpectRollback()

		err := kv.Delete(ctx, store.KeyBookmarks, store.KeySmartCategories)
		assert.ErrorContains(t, err, "connection reset")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no keys is a no-op", func(t *testing.T) {
		kv, mock := newMockKV(t)
		require.NoError(t, kv.Delete(ctx))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestEntryStatementsRunInsideTransaction(t *testing.T) {
	ctx := context.Background()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO kv_entries`).
		WithArgs(store.KeyPreferences, []byte(`{}`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT value FROM kv_entries`).
		WithArgs(store.KeyPreferences).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow([]byte(`{}`)))
	mock.ExpectCommit()

	err = store.RunInTransaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
		if err := setEntry(ctx, tx, store.KeyPreferences, []byte(`{}`)); err != nil {
			return err
		}
		got, err := getEntry(ctx, tx, store.KeyPreferences)
		if err != nil {
			return err
		}
		assert.Equal(t, `{}`, string(got))
		return nil
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
	}{
		{"no rows", sql.ErrNoRows, store.ErrKeyNotFound},
		{"unique", &pgconn.PgError{Code: uniqueViolationCode}, store.ErrDuplicate},
		{"check", &pgconn.PgError{Code: checkViolationCode}, store.ErrInvalidEntity},
		{"not null", &pgconn.PgError{Code: notNullViolationCode}, store.ErrInvalidEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, MapError(tt.err), tt.target)
		})
	}

	assert.NoError(t, MapError(nil))
	plain := errors.New("plain")
	assert.Equal(t, plain, MapError(plain))
}

func TestSlogGooseLogger(t *testing.T) {
	log, buf := newTestLogger()
	l := &slogGooseLogger{logger: log}

	assert.NotPanics(t, func() {
		l.Printf("OK   %s\n", "00001_create_kv_entries.sql")
		l.Fatalf("failed %s", "boom")
	})
	assert.Contains(t, buf.String(), "00001_create_kv_entries.sql")
	assert.Contains(t, buf.String(), `"level":"ERROR"`)
}
