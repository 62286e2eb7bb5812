package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kennyzlei/rippled/ledger"
)

func key(b byte) ledger.Key {
	var k ledger.Key
	k[31] = b
	return k
}

func TestLedgerPutReadSeal(t *testing.T) {
	ctx := context.Background()
	l := NewLedger(ledger.Header{Seq: 3, Validated: true})
	require.NoError(t, l.Put(key(1), &ledger.Entry{Type: ledger.TypeAccountRoot, Fields: map[string]any{"Balance": "100"}}))

	e, err := l.Read(ctx, key(1))
	require.NoError(t, err)
	require.Equal(t, ledger.TypeAccountRoot, e.Type)
	require.Equal(t, "100", e.Fields["Balance"])

	_, err = l.Read(ctx, key(2))
	require.True(t, errors.Is(err, ledger.ErrEntryNotFound))

	l.Seal()
	require.False(t, l.Header().Hash.IsZero())
	require.Error(t, l.Put(key(2), &ledger.Entry{Type: ledger.TypeTicket, Fields: map[string]any{}}))
	require.Error(t, NewLedger(ledger.Header{Seq: 1}).Put(ledger.Key{}, &ledger.Entry{Type: ledger.TypeTicket}))
}

func TestReadReturnsPrivateCopy(t *testing.T) {
	ctx := context.Background()
	l := NewLedger(ledger.Header{Seq: 1})
	require.NoError(t, l.Put(key(1), &ledger.Entry{Type: ledger.TypeCheck, Fields: map[string]any{"Flags": "0"}}))
	a, err := l.Read(ctx, key(1))
	require.NoError(t, err)
	a.Fields["Flags"] = "1"
	b, err := l.Read(ctx, key(1))
	require.NoError(t, err)
	require.Equal(t, "0", b.Fields["Flags"])
}

func TestDigestIsDeterministic(t *testing.T) {
	build := func() ledger.Key {
		l := NewLedger(ledger.Header{Seq: 9})
		require.NoError(t, l.Put(key(2), &ledger.Entry{Type: ledger.TypeTicket, Fields: map[string]any{"TicketSequence": 4}}))
		require.NoError(t, l.Put(key(1), &ledger.Entry{Type: ledger.TypeCheck, Fields: map[string]any{}}))
		l.Seal()
		return l.Header().Hash
	}
	require.Equal(t, build(), build())
}

func TestSourceSelect(t *testing.T) {
	ctx := context.Background()
	s := NewSource()
	require.NoError(t, s.Add(NewLedger(ledger.Header{Seq: 1, Closed: true, Validated: true})))
	require.NoError(t, s.Add(NewLedger(ledger.Header{Seq: 2, Closed: true})))
	require.NoError(t, s.Add(NewLedger(ledger.Header{Seq: 3})))
	require.Error(t, s.Add(NewLedger(ledger.Header{Seq: 3})))
	require.Error(t, s.Add(NewLedger(ledger.Header{})))

	snap, err := s.Snapshot(ctx, ledger.Ref{})
	require.NoError(t, err)
	require.EqualValues(t, 3, snap.Header().Seq)

	snap, err = s.Snapshot(ctx, ledger.Ref{Shortcut: ledger.ShortcutClosed})
	require.NoError(t, err)
	require.EqualValues(t, 2, snap.Header().Seq)

	snap, err = s.Snapshot(ctx, ledger.Ref{Shortcut: ledger.ShortcutValidated})
	require.NoError(t, err)
	require.EqualValues(t, 1, snap.Header().Seq)

	byHash, err := s.Snapshot(ctx, ledger.Ref{Hash: snap.Header().Hash})
	require.NoError(t, err)
	require.EqualValues(t, 1, byHash.Header().Seq)

	_, err = s.Snapshot(ctx, ledger.Ref{Seq: 99})
	require.True(t, errors.Is(err, ledger.ErrLedgerNotFound))

	require.Len(t, s.Headers(), 3)
	require.EqualValues(t, 1, s.Headers()[0].Seq)
}
