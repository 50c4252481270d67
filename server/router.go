package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"bridge-lin/server/corpus"
	"bridge-lin/server/lin"
	"bridge-lin/server/store"
)

// API serves decoding and stored deals over HTTP. Store and Metrics are
// optional.
type API struct {
	Options lin.Options
	Store   store.Store
	Metrics *corpus.Metrics
	Logger  *zap.Logger
	MaxBody int64
}

// decodeFailure is the 422 body of POST /api/decode.
type decodeFailure struct {
	Kind   string `json:"kind"`
	Offset int    `json:"offset"`
	Tag    string `json:"tag,omitempty"`
	Error  string `json:"error"`
}

func (a *API) Router() http.Handler {
	if a.Logger == nil {
		a.Logger = zap.NewNop()
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(a.logRequests)

	r.Get("/api/health", a.health)
	r.Post("/api/decode", a.decode)
	r.Get("/api/deals/{id}", a.getDeal)
	r.Get("/api/stats/contracts", a.contractStats)
	if a.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", a.Metrics.Handler())
	}
	return r
}

func (a *API) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		a.Logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

func (a *API) health(w http.ResponseWriter, r *http.Request) {
	out := map[string]any{"ok": true, "store": a.Store != nil}
	if a.Store != nil {
		if err := a.Store.Ping(r.Context()); err != nil {
			out["ok"] = false
			out["error"] = err.Error()
			writeJSONStatus(w, http.StatusServiceUnavailable, out)
			return
		}
	}
	writeJSON(w, out)
}

// decode accepts a raw .lin body. Query parameters: format=lin echoes the
// canonical encoding instead of JSON, save=1 stores the deal, dealer_rule
// and seating override the server options for this request.
func (a *API) decode(w http.ResponseWriter, r *http.Request) {
	opts, err := a.requestOptions(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	maxBody := a.MaxBody
	if maxBody <= 0 {
		maxBody = 1 << 20
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			http.Error(w, "body too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	start := time.Now()
	d, warns, err := lin.NewDecoder(opts).DecodeWithWarnings(string(body))
	for _, w := range warns {
		a.Logger.Warn("transcript warning", zap.String("tag", w.Tag), zap.Int("offset", w.Offset), zap.String("detail", w.Msg))
	}
	res := corpus.Result{File: "request", Deal: d, Err: err, Offset: -1, Warnings: warns}
	if err != nil {
		res.Kind, res.Offset = lin.KindOf(err), lin.OffsetOf(err)
	}
	a.Metrics.Observe(res, time.Since(start))

	if err != nil {
		fail := decodeFailure{Kind: res.Kind.String(), Offset: res.Offset, Error: err.Error()}
		var de *lin.DecodeError
		if errors.As(err, &de) {
			fail.Tag = de.Tag
		}
		writeJSONStatus(w, http.StatusUnprocessableEntity, fail)
		return
	}

	if r.URL.Query().Get("save") == "1" && a.Store != nil {
		id, err := a.Store.SaveDeal(r.Context(), r.URL.Query().Get("file"), d)
		if err != nil {
			a.Logger.Error("save failed", zap.Error(err))
			http.Error(w, "save failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Location", "/api/deals/"+id.String())
	}

	if r.URL.Query().Get("format") == "lin" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, lin.Encode(d, opts))
		return
	}
	writeJSON(w, d)
}

func (a *API) requestOptions(r *http.Request) (lin.Options, error) {
	opts := a.Options
	q := r.URL.Query()
	if v := q.Get("dealer_rule"); v != "" {
		rule, err := lin.ParseDealerRule(v)
		if err != nil {
			return opts, err
		}
		opts.DealerRule = rule
	}
	if v := q.Get("seating"); v != "" {
		s, err := lin.ParseSeating(v)
		if err != nil {
			return opts, err
		}
		opts.Seating = s
	}
	if v := q.Get("seating_from_dealer"); v != "" {
		on, err := strconv.ParseBool(v)
		if err != nil {
			return opts, fmt.Errorf("seating_from_dealer: %w", err)
		}
		opts.SeatingFromDealer = on
	}
	if v := q.Get("declarer_rule"); v != "" {
		rule, err := lin.ParseDeclarerRule(v)
		if err != nil {
			return opts, err
		}
		opts.DeclarerRule = rule
	}
	return opts, opts.Validate()
}

func (a *API) getDeal(w http.ResponseWriter, r *http.Request) {
	if a.Store == nil {
		http.Error(w, "no store configured", http.StatusServiceUnavailable)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid deal id", http.StatusBadRequest)
		return
	}
	rec, err := a.Store.GetDeal(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "deal not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, rec)
}

func (a *API) contractStats(w http.ResponseWriter, r *http.Request) {
	if a.Store == nil {
		http.Error(w, "no store configured", http.StatusServiceUnavailable)
		return
	}
	counts, err := a.Store.CountByContract(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if counts == nil {
		counts = []store.ContractCount{}
	}
	writeJSON(w, map[string]any{"rows": counts})
}

func writeJSON(w http.ResponseWriter, v any) { writeJSONStatus(w, http.StatusOK, v) }

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
