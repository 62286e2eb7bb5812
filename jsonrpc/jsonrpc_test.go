package jsonrpc

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/kennyzlei/rippled/addresscodec"
	"github.com/kennyzlei/rippled/keylet"
	"github.com/kennyzlei/rippled/ledger"
	"github.com/kennyzlei/rippled/ledgerentry"
	"github.com/kennyzlei/rippled/storage/memory"
)

var alice = ledger.AccountID{0: 0xA1, 19: 0x01}

func newServer(t *testing.T) (*httptest.Server, ledger.Header) {
	t.Helper()
	l := memory.NewLedger(ledger.Header{Seq: 3, Closed: true, Validated: true})
	require.NoError(t, l.Put(keylet.Account(alice), &ledger.Entry{
		Type:   ledger.TypeAccountRoot,
		Fields: map[string]any{"Account": addresscodec.EncodeAccountID(alice), "Balance": "42"},
	}))
	src := memory.NewSource()
	require.NoError(t, src.Add(l))

	srv := httptest.NewServer(NewHandler(ledgerentry.NewService(src, nil), nil).Router())
	t.Cleanup(srv.Close)
	return srv, l.Header()
}

func call(t *testing.T, srv *httptest.Server, body string) (int, gjson.Result, http.Header) {
	t.Helper()
	resp, err := http.Post(srv.URL+"/", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.True(t, gjson.ValidBytes(b), string(b))
	return resp.StatusCode, gjson.GetBytes(b, "result"), resp.Header
}

func ledgerEntry(params string) string {
	return `{"method": "ledger_entry", "params": [` + params + `]}`
}

func TestLedgerEntrySuccess(t *testing.T) {
	srv, h := newServer(t)
	addr := addresscodec.EncodeAccountID(alice)

	code, res, hdr := call(t, srv, ledgerEntry(`{"account_root": "`+addr+`"}`))
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "success", res.Get("status").String())
	require.Equal(t, keylet.Account(alice).String(), res.Get("index").String())
	require.Equal(t, "42", res.Get("node.Balance").String())
	require.Equal(t, "AccountRoot", res.Get("node.LedgerEntryType").String())
	require.Equal(t, h.Hash.String(), res.Get("ledger_hash").String())
	require.EqualValues(t, 3, res.Get("ledger_index").Int())
	require.True(t, res.Get("validated").Bool())
	require.False(t, res.Get("request").Exists())
	require.NotEmpty(t, hdr.Get("X-Request-Id"))
}

func TestLedgerEntryBinary(t *testing.T) {
	srv, _ := newServer(t)
	addr := addresscodec.EncodeAccountID(alice)

	_, res, _ := call(t, srv, ledgerEntry(`{"account_root": "`+addr+`", "binary": true}`))
	require.Equal(t, "success", res.Get("status").String())
	require.False(t, res.Get("node").Exists())
	require.Regexp(t, "^[0-9A-F]+$", res.Get("node_binary").String())
}

func TestLedgerEntryRequestError(t *testing.T) {
	srv, _ := newServer(t)
	params := `{"escrow": {"owner": "` + addresscodec.EncodeAccountID(alice) + `", "seq": 1}}`

	code, res, _ := call(t, srv, ledgerEntry(params))
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "error", res.Get("status").String())
	require.Equal(t, "entryNotFound", res.Get("error").String())
	require.EqualValues(t, 1, res.Get("request.escrow.seq").Int())
	require.NotEmpty(t, res.Get("error_message").String())
	require.False(t, res.Get("node").Exists())
}

func TestAPIVersionNegotiation(t *testing.T) {
	srv, _ := newServer(t)
	for _, v := range []string{`0`, `3`, `1.5`, `"2"`} {
		_, res, _ := call(t, srv, ledgerEntry(`{"foo": 1, "api_version": `+v+`}`))
		require.Equal(t, "invalid_API_version", res.Get("error").String(), v)
	}

	_, res, _ := call(t, srv, ledgerEntry(`{"foo": 1}`))
	require.Equal(t, "unknownOption", res.Get("error").String())
	_, res, _ = call(t, srv, ledgerEntry(`{"foo": 1, "api_version": 2}`))
	require.Equal(t, "invalidParams", res.Get("error").String())
}

func TestStructuralErrorsRenderAsInternalOnVersion1(t *testing.T) {
	srv, _ := newServer(t)

	code, res, _ := call(t, srv, ledgerEntry(`{"index": {}}`))
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "internal", res.Get("error").String())
	require.Equal(t, "error", res.Get("status").String())

	_, res, _ = call(t, srv, ledgerEntry(`{"index": {}, "api_version": 2}`))
	require.Equal(t, "invalidParams", res.Get("error").String())

	_, res, _ = call(t, srv, `{"method": "ledger_entry", "params": ["x"]}`)
	require.Equal(t, "internal", res.Get("error").String())
}

func TestEnvelopeErrors(t *testing.T) {
	srv, _ := newServer(t)

	code, res, _ := call(t, srv, `{"method": "account_info", "params": [{}]}`)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "unknownCmd", res.Get("error").String())

	code, res, _ = call(t, srv, `not json`)
	require.Equal(t, http.StatusBadRequest, code)
	require.Equal(t, "invalidParams", res.Get("error").String())

	// missing params behaves like an empty object
	_, res, _ = call(t, srv, `{"method": "ledger_entry"}`)
	require.Equal(t, "unknownOption", res.Get("error").String())
}

func TestBodyLimit(t *testing.T) {
	src := memory.NewSource()
	h := NewHandler(ledgerentry.NewService(src, nil), nil, WithMaxBodyBytes(16))
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(ledgerEntry(`{"index": "`+strings.Repeat("A", 64)+`"}`)))
	h.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

type failingSource struct{}

func (failingSource) Snapshot(context.Context, ledger.Ref) (ledger.Snapshot, error) {
	return nil, errors.New("disk on fire")
}

func TestFaultIsLoggedAndHidden(t *testing.T) {
	log, hook := test.NewNullLogger()
	h := NewHandler(ledgerentry.NewService(failingSource{}, nil), log)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(ledgerEntry(`{"index": "`+strings.Repeat("A", 64)+`"}`)))
	h.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	res := gjson.Get(rec.Body.String(), "result")
	require.Equal(t, "internal", res.Get("error").String())
	require.NotContains(t, rec.Body.String(), "disk on fire")

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	require.Equal(t, logrus.ErrorLevel, entry.Level)
	require.Equal(t, rec.Header().Get("X-Request-Id"), entry.Data["request_id"])
}

func TestHealthAndMetrics(t *testing.T) {
	srv, _ := newServer(t)
	for _, path := range []string{"/healthz", "/metrics"} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}
