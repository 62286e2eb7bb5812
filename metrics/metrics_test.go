package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRecordLookup(t *testing.T) {
	before := testutil.ToFloat64(lookups.WithLabelValues("account_root", "success"))
	RecordLookup("account_root", "success", time.Millisecond)
	require.Equal(t, before+1, testutil.ToFloat64(lookups.WithLabelValues("account_root", "success")))

	RecordLookup("", "malformedRequest", time.Millisecond)
	require.GreaterOrEqual(t, testutil.ToFloat64(lookups.WithLabelValues("unknown", "malformedRequest")), 1.0)
}

func TestInstrumentHandlerAndExposition(t *testing.T) {
	h := InstrumentHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", nil))
	require.GreaterOrEqual(t, testutil.ToFloat64(httpRequests.WithLabelValues("POST", "/", "418")), 1.0)

	RecordGRPC("GetLedgerEntry", "OK")
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, strings.Contains(rec.Body.String(), "ledgerentry_grpc_requests_total"))
}
