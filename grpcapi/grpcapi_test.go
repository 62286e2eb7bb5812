package grpcapi

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/kennyzlei/rippled/keylet"
	"github.com/kennyzlei/rippled/ledger"
	"github.com/kennyzlei/rippled/storage/memory"
)

var owner = ledger.AccountID{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1}

func newSource(t *testing.T) (*memory.Source, ledger.Header) {
	t.Helper()
	v := memory.NewLedger(ledger.Header{Seq: 7, Closed: true, Validated: true})
	require.NoError(t, v.Put(keylet.Account(owner), &ledger.Entry{
		Type:   ledger.TypeAccountRoot,
		Fields: map[string]any{"Balance": "100"},
	}))
	// any type is served; there is no type guard on this path
	require.NoError(t, v.Put(keylet.Escrow(owner, 3), &ledger.Entry{
		Type:   ledger.TypeOffer,
		Fields: map[string]any{"TakerPays": "1"},
	}))
	src := memory.NewSource()
	require.NoError(t, src.Add(v))
	return src, v.Header()
}

func newClient(t *testing.T, src ledger.Source) *Client {
	t.Helper()
	lis := bufconn.Listen(1024 * 1024)
	srv := NewGRPCServer(src, nil)
	go func() {
		_ = srv.Serve(lis)
	}()
	t.Cleanup(srv.Stop)

	dialer := func(ctx context.Context, s string) (net.Conn, error) { return lis.DialContext(ctx) }
	c, err := Dial("passthrough:///bufnet", DialOptions{
		Timeout: 2 * time.Second,
		Extra:   []grpc.DialOption{grpc.WithContextDialer(dialer)},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestGetLedgerEntry_RoundTrip(t *testing.T) {
	src, h := newSource(t)
	c := newClient(t, src)
	key := keylet.Account(owner)

	refs := []struct {
		name   string
		ledger LedgerSpecifier
	}{
		{"current", LedgerSpecifier{}},
		{"sequence", LedgerSpecifier{Sequence: h.Seq}},
		{"hash", LedgerSpecifier{Hash: h.Hash[:]}},
		{"shortcut", LedgerSpecifier{Shortcut: "validated"}},
	}
	for _, tc := range refs {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := c.GetLedgerEntry(context.Background(), &Request{Key: key[:], Ledger: tc.ledger})
			require.NoError(t, err)
			require.Equal(t, key[:], resp.Key)
			require.Equal(t, tc.ledger.Sequence, resp.Ledger.Sequence)
			require.Equal(t, tc.ledger.Shortcut, resp.Ledger.Shortcut)
			if tc.ledger.Hash == nil {
				require.Empty(t, resp.Ledger.Hash)
			} else {
				require.Equal(t, tc.ledger.Hash, resp.Ledger.Hash)
			}

			e, err := ledger.Unmarshal(resp.Data)
			require.NoError(t, err)
			require.Equal(t, ledger.TypeAccountRoot, e.Type)
			require.Equal(t, "100", e.Fields["Balance"])
		})
	}
}

func TestGetLedgerEntry_NoTypeGuard(t *testing.T) {
	src, _ := newSource(t)
	c := newClient(t, src)
	key := keylet.Escrow(owner, 3)

	resp, err := c.GetLedgerEntry(context.Background(), &Request{Key: key[:], Ledger: LedgerSpecifier{Shortcut: "validated"}})
	require.NoError(t, err)
	e, err := ledger.Unmarshal(resp.Data)
	require.NoError(t, err)
	require.Equal(t, ledger.TypeOffer, e.Type)
}

func TestGetLedgerEntry_Errors(t *testing.T) {
	src, h := newSource(t)
	c := newClient(t, src)
	key := keylet.Account(owner)
	missing := keylet.Ticket(owner, 1)

	cases := []struct {
		name string
		req  *Request
		want error
	}{
		{"short key", &Request{Key: key[:31]}, ErrInvalidArgument},
		{"missing object", &Request{Key: missing[:]}, ledger.ErrEntryNotFound},
		{"missing ledger by seq", &Request{Key: key[:], Ledger: LedgerSpecifier{Sequence: 99}}, ledger.ErrLedgerNotFound},
		{"missing ledger by hash", &Request{Key: key[:], Ledger: LedgerSpecifier{Hash: missing[:]}}, ledger.ErrLedgerNotFound},
		{"bad shortcut", &Request{Key: key[:], Ledger: LedgerSpecifier{Shortcut: "latest"}}, ErrInvalidArgument},
		{"short hash", &Request{Key: key[:], Ledger: LedgerSpecifier{Hash: h.Hash[:4]}}, ErrInvalidArgument},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := c.GetLedgerEntry(context.Background(), tc.req)
			require.Error(t, err)
			require.True(t, errors.Is(err, tc.want), "got %v", err)
		})
	}
}

func TestGetLedgerEntry_LedgerCheckedBeforeKey(t *testing.T) {
	src, _ := newSource(t)
	s := &Server{Source: src}

	in := (&Request{Key: []byte{1, 2, 3}, Ledger: LedgerSpecifier{Sequence: 99}}).Struct()
	_, err := s.GetLedgerEntry(context.Background(), in)
	require.Equal(t, codes.NotFound, status.Code(err))

	in = (&Request{Key: []byte{1, 2, 3}}).Struct()
	_, err = s.GetLedgerEntry(context.Background(), in)
	require.Equal(t, codes.InvalidArgument, status.Code(err))
	require.Equal(t, msgIndexMalformed, status.Convert(err).Message())
}

func TestServer_MissingSource(t *testing.T) {
	_, err := (&Server{}).GetLedgerEntry(context.Background(), &structpb.Struct{})
	require.Equal(t, codes.FailedPrecondition, status.Code(err))
}

func TestLedgerSpecifier_Ref(t *testing.T) {
	ref, err := LedgerSpecifier{}.ref()
	require.NoError(t, err)
	require.Equal(t, ledger.ShortcutCurrent, ref.Shortcut)

	_, err = LedgerSpecifier{Sequence: 3, Shortcut: "closed"}.ref()
	require.ErrorIs(t, err, errBadLedger)

	ref, err = LedgerSpecifier{Sequence: 3}.ref()
	require.NoError(t, err)
	require.Equal(t, uint32(3), ref.Seq)
}

func TestLedgerFromValue_RejectsBadSequence(t *testing.T) {
	for _, n := range []float64{0, -1, 1.5, 1 << 33} {
		v := structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
			"sequence": structpb.NewNumberValue(n),
		}})
		_, err := ledgerFromValue(v)
		require.ErrorIs(t, err, errBadLedger, "sequence %v", n)
	}
	_, err := ledgerFromValue(structpb.NewStringValue("7"))
	require.ErrorIs(t, err, errBadLedger)
}
