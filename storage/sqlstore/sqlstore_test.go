package sqlstore

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/kennyzlei/rippled/ledger"
)

var columns = []string{"seq", "hash", "parent_hash", "closed", "validated"}

func newMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return New(sqlx.NewDb(db, "postgres")), mock
}

func fill(b byte) []byte {
	out := make([]byte, 32)
	for i := range out {
		out[i] = b
	}
	return out
}

func TestSnapshotQueries(t *testing.T) {
	ctx := context.Background()
	hash, _ := ledger.KeyFromBytes(fill(0xAB))

	cases := []struct {
		name  string
		ref   ledger.Ref
		query string
	}{
		{"current", ledger.Ref{}, queryCurrent},
		{"closed", ledger.Ref{Shortcut: ledger.ShortcutClosed}, queryClosed},
		{"validated", ledger.Ref{Shortcut: ledger.ShortcutValidated}, queryValidated},
		{"seq", ledger.Ref{Seq: 12}, queryBySeq},
		{"hash", ledger.Ref{Hash: hash}, queryByHash},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, mock := newMock(t)
			mock.ExpectQuery(regexp.QuoteMeta(tc.query)).
				WillReturnRows(sqlmock.NewRows(columns).AddRow(int64(12), fill(0xAB), fill(0x01), true, true))

			snap, err := s.Snapshot(ctx, tc.ref)
			require.NoError(t, err)
			h := snap.Header()
			require.EqualValues(t, 12, h.Seq)
			require.Equal(t, hash, h.Hash)
			require.True(t, h.Validated)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestSnapshotNotFound(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(queryBySeq)).WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows(columns))

	_, err := s.Snapshot(context.Background(), ledger.Ref{Seq: 5})
	require.True(t, errors.Is(err, ledger.ErrLedgerNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotRejectsMalformedHash(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(queryCurrent)).
		WillReturnRows(sqlmock.NewRows(columns).AddRow(int64(1), []byte{1, 2}, fill(0), false, false))

	_, err := s.Snapshot(context.Background(), ledger.Ref{})
	require.Error(t, err)
	require.False(t, errors.Is(err, ledger.ErrLedgerNotFound))
}

func TestRead(t *testing.T) {
	ctx := context.Background()
	s, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(queryCurrent)).
		WillReturnRows(sqlmock.NewRows(columns).AddRow(int64(3), fill(0xAA), fill(0), true, false))
	snap, err := s.Snapshot(ctx, ledger.Ref{})
	require.NoError(t, err)

	entry := &ledger.Entry{Type: ledger.TypeOffer, Fields: map[string]any{"Sequence": 9}}
	data, err := entry.Marshal()
	require.NoError(t, err)
	k, _ := ledger.KeyFromBytes(fill(0x11))

	mock.ExpectQuery(regexp.QuoteMeta(queryEntry)).WithArgs(int64(3), k[:]).
		WillReturnRows(sqlmock.NewRows([]string{"data"}).AddRow(data))
	got, err := snap.Read(ctx, k)
	require.NoError(t, err)
	require.Equal(t, ledger.TypeOffer, got.Type)

	mock.ExpectQuery(regexp.QuoteMeta(queryEntry)).WithArgs(int64(3), k[:]).
		WillReturnRows(sqlmock.NewRows([]string{"data"}))
	_, err = snap.Read(ctx, k)
	require.True(t, errors.Is(err, ledger.ErrEntryNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSealCommitsInOneTransaction(t *testing.T) {
	s, mock := newMock(t)
	hash, _ := ledger.KeyFromBytes(fill(0xCD))
	k, _ := ledger.KeyFromBytes(fill(0x22))

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(insertLedger)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(insertLedgerItem)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := s.Seal(context.Background(), ledger.Header{Seq: 4, Hash: hash}, []Item{
		{Key: k, Entry: &ledger.Entry{Type: ledger.TypeTicket, Fields: map[string]any{}}},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSealRollsBackOnError(t *testing.T) {
	s, mock := newMock(t)
	hash, _ := ledger.KeyFromBytes(fill(0xCD))

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(insertLedger)).WillReturnError(errors.New("duplicate key"))
	mock.ExpectRollback()

	err := s.Seal(context.Background(), ledger.Header{Seq: 4, Hash: hash}, nil)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	require.Error(t, s.Seal(context.Background(), ledger.Header{Seq: 4}, nil))
}
