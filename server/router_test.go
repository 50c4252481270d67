package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"bridge-lin/server/corpus"
	"bridge-lin/server/engine"
	"bridge-lin/server/engine/enginetest"
	"bridge-lin/server/lin"
	"bridge-lin/server/store"
)

func sampleLIN(t *testing.T) (string, *engine.Deal) {
	t.Helper()
	d, err := engine.NewDeal(enginetest.Played(1, 1, engine.North, "1D", "p", "p", "p"))
	require.NoError(t, err)
	return lin.Encode(d, lin.DefaultOptions()), d
}

func newTestAPI(t *testing.T, withStore bool) *API {
	t.Helper()
	api := &API{Options: lin.DefaultOptions(), Metrics: corpus.NewMetrics(), MaxBody: 4096}
	if withStore {
		ctx := context.Background()
		st, err := store.OpenSQLite(ctx, filepath.Join(t.TempDir(), "deals.db"))
		require.NoError(t, err)
		require.NoError(t, st.Migrate(ctx))
		t.Cleanup(func() { st.Close() })
		api.Store = st
	}
	return api
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAPI_Health(t *testing.T) {
	rec := do(t, newTestAPI(t, false).Router(), http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true,"store":false}`, rec.Body.String())

	rec = do(t, newTestAPI(t, true).Router(), http.MethodGet, "/api/health", "")
	assert.JSONEq(t, `{"ok":true,"store":true}`, rec.Body.String())
}

func TestAPI_Decode(t *testing.T) {
	raw, want := sampleLIN(t)
	h := newTestAPI(t, false).Router()

	rec := do(t, h, http.MethodPost, "/api/decode", raw)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	wantJSON, err := json.Marshal(want)
	require.NoError(t, err)
	assert.JSONEq(t, string(wantJSON), rec.Body.String())

	rec = do(t, h, http.MethodPost, "/api/decode?format=lin", raw)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, raw, rec.Body.String())
}

func TestAPI_DecodeFailures(t *testing.T) {
	raw, _ := sampleLIN(t)
	api := newTestAPI(t, false)
	h := api.Router()

	tests := []struct {
		name   string
		body   string
		kind   string
		offset int
		tag    string
	}{
		{"error page", "<html>502</html>", "FormatError", 0, ""},
		{"truncated play", raw[:strings.LastIndex(raw, "pc|")], "IncompleteDealError", -2, ""},
		{"bad card", strings.Replace(raw, "md|", "md|9", 1), "FormatError", -2, "md"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/decode", tt.body)
			require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
			var got decodeFailure
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, tt.kind, got.Kind)
			assert.NotEmpty(t, got.Error)
			if tt.offset != -2 {
				assert.Equal(t, tt.offset, got.Offset)
			}
			if tt.tag != "" {
				assert.Equal(t, tt.tag, got.Tag)
			}
		})
	}

	rec := do(t, h, http.MethodPost, "/api/decode", strings.Repeat("x", 5000))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/decode?seating=NNNN", raw)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `bridge_lin_decodes_total{result="FormatError"} 2`)
	assert.Contains(t, rec.Body.String(), `bridge_lin_decodes_total{result="IncompleteDealError"} 1`)
}

func TestAPI_DecodeOptions(t *testing.T) {
	h := newTestAPI(t, false).Router()

	type deal struct {
		Dealer   string            `json:"dealer"`
		Declarer string            `json:"declarer"`
		Players  map[string]string `json:"players"`
	}
	decode := func(t *testing.T, target, body string) deal {
		t.Helper()
		rec := do(t, h, http.MethodPost, target, body)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var got deal
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		return got
	}

	// North opens 1D and South raises; claim before the lead so either
	// declarer can stand.
	d, err := engine.NewDeal(enginetest.Played(1, 1, engine.North, "1D", "p", "2D", "p", "p", "p"))
	require.NoError(t, err)
	raw := lin.Encode(d, lin.DefaultOptions())
	raw = raw[:strings.Index(raw, "pc|")] + "mc|7|"

	assert.Equal(t, "S", decode(t, "/api/decode", raw).Declarer)
	assert.Equal(t, "N", decode(t, "/api/decode?declarer_rule=first-named", raw).Declarer)

	got := decode(t, "/api/decode", raw)
	assert.Equal(t, "south", got.Players["S"])
	got = decode(t, "/api/decode?seating_from_dealer=true", raw)
	assert.Equal(t, "N", got.Dealer)
	assert.Equal(t, "south", got.Players["N"])
	assert.Equal(t, "west", got.Players["E"])
	got = decode(t, "/api/decode?seating_from_dealer=0", raw)
	assert.Equal(t, "south", got.Players["S"])

	for _, q := range []string{"declarer_rule=random", "seating_from_dealer=maybe"} {
		rec := do(t, h, http.MethodPost, "/api/decode?"+q, raw)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestAPI_DecodeLogsWarnings(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	api := newTestAPI(t, false)
	api.Logger = zap.New(core)
	h := api.Router()

	raw, _ := sampleLIN(t)
	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/api/decode", raw).Code)
	assert.Zero(t, logs.Len())

	// Board 2 is East's deal but the md digit still names North.
	odd := strings.Replace(raw, "ah|Board 1|", "ah|Board 2|", 1)
	odd = odd[:strings.Index(odd, "pc|")] + "mc|7|"
	rec := do(t, h, http.MethodPost, "/api/decode", odd)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	entries := logs.FilterMessage("transcript warning").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "md", entries[0].ContextMap()["tag"])
}

func TestAPI_StoredDeals(t *testing.T) {
	raw, _ := sampleLIN(t)
	h := newTestAPI(t, true).Router()

	rec := do(t, h, http.MethodPost, "/api/decode?save=1&file=club/a.lin", raw)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	loc := rec.Header().Get("Location")
	require.True(t, strings.HasPrefix(loc, "/api/deals/"), loc)

	rec = do(t, h, http.MethodGet, loc, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got store.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "club/a.lin", got.File)
	assert.Equal(t, "1D", got.Contract)

	rec = do(t, h, http.MethodGet, "/api/deals/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = do(t, h, http.MethodGet, "/api/deals/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/stats/contracts", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"rows":[{"contract":"1D","deals":1}]}`, rec.Body.String())
}

func TestAPI_NoStore(t *testing.T) {
	h := newTestAPI(t, false).Router()
	for _, path := range []string{"/api/deals/" + uuid.NewString(), "/api/stats/contracts"} {
		rec := do(t, h, http.MethodGet, path, "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, path)
	}
	rec := do(t, h, http.MethodGet, "/api/decode", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
