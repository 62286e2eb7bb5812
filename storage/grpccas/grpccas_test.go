package grpccas

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/ipfs/go-cid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"

	"github.com/kennyzlei/rippled/cidutil"
	"github.com/kennyzlei/rippled/storage"
	"github.com/kennyzlei/rippled/storage/localfs"
)

func serve(t *testing.T, cas storage.CAS) *Client {
	t.Helper()
	lis := bufconn.Listen(1024 * 1024)
	srv := grpc.NewServer()
	RegisterBlockServer(srv, &Server{CAS: cas})
	go func() {
		_ = srv.Serve(lis)
	}()
	t.Cleanup(srv.Stop)

	dialer := func(ctx context.Context, s string) (net.Conn, error) { return lis.DialContext(ctx) }
	client, err := Dial("passthrough:///bufnet", DialOptions{
		Timeout: 2 * time.Second,
		Extra:   []grpc.DialOption{grpc.WithContextDialer(dialer)},
	})
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestGRPCCAS_LocalFS_RoundTrip(t *testing.T) {
	ctx := context.Background()
	cas, err := localfs.New(t.TempDir())
	if err != nil {
		t.Fatalf("localfs.New: %v", err)
	}
	payload := []byte("sealed manifest bytes")
	id, err := cas.Put(ctx, payload)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	client := serve(t, cas)
	if !client.Has(ctx, id) {
		t.Fatalf("Has: expected true")
	}
	got, err := client.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != string(payload) {
		t.Fatalf("payload mismatch")
	}
}

func TestGRPCCAS_NotFoundAndInvalid(t *testing.T) {
	ctx := context.Background()
	cas, err := localfs.New(t.TempDir())
	if err != nil {
		t.Fatalf("localfs.New: %v", err)
	}
	client := serve(t, cas)

	id, err := cidutil.BlockID([]byte("never stored"))
	if err != nil {
		t.Fatalf("BlockID: %v", err)
	}
	if client.Has(ctx, id) {
		t.Fatalf("Has: expected false")
	}
	if _, err := client.Get(ctx, id); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Get: expected ErrNotFound, got %v", err)
	}
	if _, err := client.Get(ctx, cid.Undef); !errors.Is(err, storage.ErrInvalidCID) {
		t.Fatalf("Get(Undef): expected ErrInvalidCID, got %v", err)
	}
}

func TestGRPCCAS_PutIsRejected(t *testing.T) {
	client := &Client{}
	if _, err := client.Put(context.Background(), []byte("x")); !errors.Is(err, ErrReadOnly) {
		t.Fatalf("Put: expected ErrReadOnly, got %v", err)
	}
}

func TestGRPCCAS_FallbackBehindLocal(t *testing.T) {
	ctx := context.Background()
	primary, err := localfs.New(t.TempDir())
	if err != nil {
		t.Fatalf("localfs.New: %v", err)
	}
	replica, err := localfs.New(t.TempDir())
	if err != nil {
		t.Fatalf("localfs.New: %v", err)
	}
	id, err := primary.Put(ctx, []byte("only on primary"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	multi := storage.MultiCAS{Stores: []storage.CAS{replica, serve(t, primary)}}
	got, err := multi.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "only on primary" {
		t.Fatalf("payload mismatch")
	}
}
