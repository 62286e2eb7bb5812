// Package jsonrpc exposes the ledger_entry method over HTTP in the rippled
// JSON-RPC envelope:
//
//	POST /  {"method": "ledger_entry", "params": [{...}]}
//
// Responses are wrapped in {"result": {...}} with "status" set to "success"
// or "error".
package jsonrpc

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/kennyzlei/rippled/ledgerentry"
	"github.com/kennyzlei/rippled/metrics"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	MethodLedgerEntry = "ledger_entry"

	// API versions accepted in params[0].api_version.
	APIVersionMin     = 1
	APIVersionMax     = 2
	APIVersionDefault = 1

	DefaultMaxBodyBytes = 1 << 20

	headerRequestID = "X-Request-Id"
)

// Error tokens produced by the transport itself.
const (
	errInternal          = "internal"
	errInvalidAPIVersion = "invalid_API_version"
	errUnknownCmd        = "unknownCmd"
	errInvalidParams     = "invalidParams"
)

// Handler serves JSON-RPC requests.
type Handler struct {
	svc          *ledgerentry.Service
	log          logrus.FieldLogger
	maxBodyBytes int64
}

type Option func(*Handler)

// WithMaxBodyBytes caps the request body size.
func WithMaxBodyBytes(n int64) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxBodyBytes = n
		}
	}
}

func NewHandler(svc *ledgerentry.Service, log logrus.FieldLogger, opts ...Option) *Handler {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	h := &Handler{svc: svc, log: log, maxBodyBytes: DefaultMaxBodyBytes}
	for _, o := range opts {
		o(h)
	}
	return h
}

// Router mounts the RPC endpoint, /healthz and /metrics.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestID)
	r.Post("/", h.serveRPC)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "ok\n")
	})
	r.Handle("/metrics", metrics.Handler())
	return metrics.InstrumentHandler(r)
}

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(headerRequestID)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(headerRequestID, id)
		next.ServeHTTP(w, r)
	})
}

type envelope struct {
	Result any `json:"result"`
}

// response is a ledger_entry result plus the envelope fields.
type response struct {
	*ledgerentry.Result
	ErrorMessage string              `json:"error_message,omitempty"`
	Request      jsoniter.RawMessage `json:"request,omitempty"`
	Status       string              `json:"status"`
}

type transportError struct {
	Error        string              `json:"error"`
	ErrorMessage string              `json:"error_message,omitempty"`
	Request      jsoniter.RawMessage `json:"request,omitempty"`
	Status       string              `json:"status"`
}

func (h *Handler) serveRPC(w http.ResponseWriter, r *http.Request) {
	log := h.log.WithField("request_id", w.Header().Get(headerRequestID))

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, errInvalidParams, "request body too large", nil)
			return
		}
		writeError(w, http.StatusBadRequest, errInvalidParams, "unable to read request", nil)
		return
	}
	if !gjson.ValidBytes(body) || !gjson.ParseBytes(body).IsObject() {
		writeError(w, http.StatusBadRequest, errInvalidParams, "unable to parse request", nil)
		return
	}

	env := gjson.ParseBytes(body)
	method := env.Get("method")
	params := requestParams(env)
	if method.Type != gjson.String || method.Str != MethodLedgerEntry {
		log.WithField("method", method.String()).Debug("jsonrpc: unknown method")
		writeError(w, http.StatusOK, errUnknownCmd, "unknown command", params)
		return
	}

	apiVersion, ok := negotiateVersion(gjson.ParseBytes(params))
	if !ok {
		writeError(w, http.StatusOK, errInvalidAPIVersion, "API version must be an integer between 1 and 2", params)
		return
	}

	res, err := h.svc.LedgerEntry(r.Context(), params, apiVersion)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ledgerentry.ErrStructural) {
			status = http.StatusOK
			log.WithError(err).Debug("jsonrpc: structural request error")
		} else {
			log.WithError(err).Error("jsonrpc: ledger_entry failed")
		}
		writeError(w, status, errInternal, "internal error", params)
		return
	}

	out := response{Result: res, Status: "success"}
	if !res.OK() {
		out.Status = "error"
		out.ErrorMessage = res.ErrorMessage
		out.Request = params
	}
	writeJSON(w, http.StatusOK, envelope{Result: out})
}

// requestParams returns params[0] verbatim, or {} when params is absent. A
// params value that is not an array is handed to the engine as is, so it is
// reported as a structural error there.
func requestParams(env gjson.Result) []byte {
	p := env.Get("params")
	switch {
	case !p.Exists():
		return []byte("{}")
	case p.IsArray():
		first := p.Get("0")
		if !first.Exists() {
			return []byte("{}")
		}
		return []byte(first.Raw)
	default:
		return []byte(p.Raw)
	}
}

func negotiateVersion(params gjson.Result) (uint, bool) {
	v := params.Get("api_version")
	if !v.Exists() {
		return APIVersionDefault, true
	}
	if v.Type != gjson.Number || v.Float() != float64(v.Int()) {
		return 0, false
	}
	n := v.Int()
	if n < APIVersionMin || n > APIVersionMax {
		return 0, false
	}
	return uint(n), true
}

func writeError(w http.ResponseWriter, status int, token, msg string, request []byte) {
	writeJSON(w, status, envelope{Result: transportError{
		Error:        token,
		ErrorMessage: msg,
		Request:      request,
		Status:       "error",
	}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"result":{"error":"internal","status":"error"}}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(b, '\n'))
}
