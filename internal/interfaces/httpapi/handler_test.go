package httpapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	sonic "github.com/bytedance/sonic"
	"github.com/jonboulle/clockwork"
	"github.com/riskibarqy/sports-viewing/internal/domain/rights"
	"github.com/riskibarqy/sports-viewing/internal/infrastructure/dataset"
	"github.com/riskibarqy/sports-viewing/internal/infrastructure/rights/static"
	"github.com/riskibarqy/sports-viewing/internal/metrics"
	rightsmock "github.com/riskibarqy/sports-viewing/internal/mocks/domain/rights"
	"github.com/riskibarqy/sports-viewing/internal/platform/logging"
	"github.com/riskibarqy/sports-viewing/internal/usecase"
	"github.com/stretchr/testify/mock"
)

const testJobToken = "job-token"

type envelope[T any] struct {
	APIVersion string           `json:"apiVersion"`
	Data       T                `json:"data"`
	Error      *googleErrorBody `json:"error"`
}

func staticSources(t *testing.T) rights.Sources {
	t.Helper()

	catalog, err := static.Default()
	if err != nil {
		t.Fatalf("load default catalog: %v", err)
	}
	return catalog.Sources()
}

func newTestRouter(t *testing.T, sources rights.Sources, jobToken string) http.Handler {
	t.Helper()

	logger := logging.NewNop()
	directory := usecase.NewMarketDirectory(dataset.NewSeedSource(), clockwork.NewFakeClock(), logger)
	if _, err := directory.Reload(context.Background()); err != nil {
		t.Fatalf("load seed dataset: %v", err)
	}
	rightsService := usecase.NewRightsService(sources, directory, usecase.RightsServiceConfig{BatchWorkers: 2, BatchMaxGames: 3}, logger)
	resolution := usecase.NewResolutionService(directory, rightsService, logger)

	return NewRouter(NewHandler(resolution, logger), logger, RouterConfig{
		CORSAllowedOrigins: []string{"*"},
		InternalJobToken:   jobToken,
		MetricsHandler:     metrics.Handler(),
	})
}

func doRequest(t *testing.T, router http.Handler, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope[T any](t *testing.T, rec *httptest.ResponseRecorder) envelope[T] {
	t.Helper()

	var out envelope[T]
	if err := sonic.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal response %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestHandler_ZipLookup(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, staticSources(t), testJobToken)

	rec := doRequest(t, router, http.MethodGet, "/v1/zip-lookup/10001", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d body=%s", rec.Code, rec.Body.String())
	}
	got := decodeEnvelope[locationDTO](t, rec).Data
	if got.ZipCode != "10001" || got.DMA != "New York" {
		t.Fatalf("unexpected location: %+v", got)
	}
	wantTeams := []teamDTO{
		{TeamID: "NYY", Name: "New York Yankees", League: "MLB"},
		{TeamID: "NYK", Name: "New York Knicks", League: "NBA"},
		{TeamID: "NYR", Name: "New York Rangers", League: "NHL"},
	}
	if len(got.Teams) != len(wantTeams) {
		t.Fatalf("unexpected teams: %+v", got.Teams)
	}
	for i := range wantTeams {
		if got.Teams[i] != wantTeams[i] {
			t.Fatalf("team[%d]=%+v want=%+v", i, got.Teams[i], wantTeams[i])
		}
	}

	rec = doRequest(t, router, http.MethodPost, "/v1/zip-lookup", `{"zip_code":"59101"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("zero-team zip: unexpected status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"teams":[]`) {
		t.Fatalf("expected empty teams array, got %s", rec.Body.String())
	}
}

func TestHandler_ZipLookupErrors(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, staticSources(t), testJobToken)

	tests := []struct {
		name       string
		method     string
		target     string
		body       string
		wantStatus int
		wantMsg    string
	}{
		{name: "absent zip", method: http.MethodPost, target: "/v1/zip-lookup", body: `{"zip_code":"99999"}`, wantStatus: http.StatusNotFound, wantMsg: "ZIP code 99999 not found"},
		{name: "absent zip by path", method: http.MethodGet, target: "/v1/zip-lookup/99999", wantStatus: http.StatusNotFound, wantMsg: "ZIP code 99999 not found"},
		{name: "malformed zip", method: http.MethodPost, target: "/v1/zip-lookup", body: `{"zip_code":"12ab"}`, wantStatus: http.StatusBadRequest},
		{name: "unknown field", method: http.MethodPost, target: "/v1/zip-lookup", body: `{"zip":"10001"}`, wantStatus: http.StatusBadRequest},
		{name: "broken json", method: http.MethodPost, target: "/v1/zip-lookup", body: `{`, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, router, tt.method, tt.target, tt.body, nil)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status=%d want=%d body=%s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			body := decodeEnvelope[any](t, rec)
			if body.Error == nil || body.Error.Code != tt.wantStatus {
				t.Fatalf("unexpected error body: %s", rec.Body.String())
			}
			if tt.wantMsg != "" && body.Error.Message != tt.wantMsg {
				t.Fatalf("message=%q want=%q", body.Error.Message, tt.wantMsg)
			}
		})
	}
}

func TestHandler_ValidateZip(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, staticSources(t), testJobToken)

	tests := []struct {
		zip  string
		want bool
	}{
		{zip: "10001", want: true},
		{zip: "59101", want: true},
		{zip: "99999", want: false},
		{zip: "12", want: false},
	}

	for _, tt := range tests {
		rec := doRequest(t, router, http.MethodPost, "/v1/zip-lookup/validate", `{"zip_code":"`+tt.zip+`"}`, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("zip %s: unexpected status %d", tt.zip, rec.Code)
		}
		if got := decodeEnvelope[zipValidationDTO](t, rec).Data; got.Valid != tt.want {
			t.Fatalf("zip %s: valid=%v want=%v", tt.zip, got.Valid, tt.want)
		}
	}
}

func TestHandler_Teams(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, staticSources(t), testJobToken)

	rec := doRequest(t, router, http.MethodGet, "/v1/teams", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list teams: unexpected status %d", rec.Code)
	}
	all := decodeEnvelope[[]teamDTO](t, rec).Data
	if len(all) != 12 {
		t.Fatalf("expected 12 distinct teams, got %d: %+v", len(all), all)
	}
	for _, team := range all {
		if team.DMA == "" {
			t.Fatalf("expected every listed team to carry a dma: %+v", team)
		}
	}

	rec = doRequest(t, router, http.MethodGet, "/v1/teams?league=NBA", "", nil)
	nba := decodeEnvelope[[]teamDTO](t, rec).Data
	if len(nba) != 4 {
		t.Fatalf("expected 4 NBA teams, got %+v", nba)
	}
	for _, team := range nba {
		if team.League != "NBA" {
			t.Fatalf("unexpected league in filtered list: %+v", team)
		}
	}

	rec = doRequest(t, router, http.MethodGet, "/v1/teams?league=nba", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("lowercase league: expected 400, got %d", rec.Code)
	}

	rec = doRequest(t, router, http.MethodGet, "/v1/teams/BOS", "", nil)
	if got := decodeEnvelope[teamDTO](t, rec).Data; got.League != "MLB" || got.Name != "Boston Red Sox" || got.DMA != "Boston" {
		t.Fatalf("expected MLB tie-break for BOS, got %+v", got)
	}

	rec = doRequest(t, router, http.MethodGet, "/v1/teams/CHI", "", nil)
	if got := decodeEnvelope[teamDTO](t, rec).Data; got.League != "NBA" {
		t.Fatalf("expected NBA before NHL for CHI, got %+v", got)
	}

	rec = doRequest(t, router, http.MethodGet, "/v1/teams/ZZZ", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown team: expected 404, got %d", rec.Code)
	}
	if msg := decodeEnvelope[any](t, rec).Error.Message; msg != "team ZZZ not found" {
		t.Fatalf("unexpected message: %q", msg)
	}

	rec = doRequest(t, router, http.MethodGet, "/v1/teams/NYY/markets", "", nil)
	markets := decodeEnvelope[teamMarketsDTO](t, rec).Data
	if markets.TeamID != "NYY" || len(markets.DMAs) != 1 || markets.DMAs[0] != "New York" {
		t.Fatalf("unexpected team markets: %+v", markets)
	}
}

func TestHandler_StreamingRights(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, staticSources(t), testJobToken)

	rec := doRequest(t, router, http.MethodGet, "/v1/streaming-rights/MLB_2025040101?zip_code=10001", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d body=%s", rec.Code, rec.Body.String())
	}
	got := decodeEnvelope[streamingRightsDTO](t, rec).Data
	if got.GameID != "MLB_2025040101" || got.ZipCode != "10001" || got.League != "MLB" || got.DMA != "New York" {
		t.Fatalf("unexpected rights header: %+v", got)
	}
	if len(got.AvailableStreams) != 2 {
		t.Fatalf("blacked out offers must be kept: %+v", got.AvailableStreams)
	}
	if got.AvailableStreams[0].Provider != "YES Network" || got.AvailableStreams[0].Blackout {
		t.Fatalf("unexpected first offer: %+v", got.AvailableStreams[0])
	}
	if got.AvailableStreams[1].Provider != "MLB.TV" || !got.AvailableStreams[1].Blackout {
		t.Fatalf("unexpected second offer: %+v", got.AvailableStreams[1])
	}
	if !got.Available || got.BlackoutInfo == "" {
		t.Fatalf("unexpected availability: %+v", got)
	}

	// ZIP outside the dataset still resolves, with no market and no blackout.
	rec = doRequest(t, router, http.MethodGet, "/v1/streaming-rights/MLB_2025040101?zip_code=99999", "", nil)
	outside := decodeEnvelope[streamingRightsDTO](t, rec).Data
	if rec.Code != http.StatusOK || outside.DMA != "" || outside.AvailableStreams[1].Blackout {
		t.Fatalf("unexpected rights for unknown zip: status=%d %+v", rec.Code, outside)
	}
}

func TestHandler_StreamingRightsErrors(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, staticSources(t), testJobToken)

	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantMsg    string
	}{
		{name: "unsupported league", target: "/v1/streaming-rights/XFL_1?zip_code=10001", wantStatus: http.StatusBadRequest, wantMsg: "invalid league in game id XFL_1"},
		{name: "lowercase league", target: "/v1/streaming-rights/mlb_1?zip_code=10001", wantStatus: http.StatusBadRequest},
		{name: "missing zip", target: "/v1/streaming-rights/MLB_2025040101", wantStatus: http.StatusBadRequest},
		{name: "unknown game", target: "/v1/streaming-rights/MLB_999?zip_code=10001", wantStatus: http.StatusInternalServerError, wantMsg: "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, router, http.MethodGet, tt.target, "", nil)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status=%d want=%d body=%s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantMsg != "" {
				if msg := decodeEnvelope[any](t, rec).Error.Message; msg != tt.wantMsg {
					t.Fatalf("message=%q want=%q", msg, tt.wantMsg)
				}
			}
		})
	}
}

func TestHandler_StreamingRights_UpstreamFailureIsGeneric(t *testing.T) {
	t.Parallel()

	nhl := rightsmock.NewSource(t)
	nhl.On("FetchRights", mock.Anything, "NHL_42", "Chicago").
		Return(rights.Feed{}, errors.New("dial tcp rights-db.internal:5432: connection refused")).
		Once()
	router := newTestRouter(t, rights.Sources{NHL: nhl}, testJobToken)

	rec := doRequest(t, router, http.MethodGet, "/v1/streaming-rights/NHL_42?zip_code=60601", "", nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "rights-db.internal") {
		t.Fatalf("upstream detail leaked: %s", rec.Body.String())
	}
	body := decodeEnvelope[any](t, rec)
	if body.Error.Message != "internal server error" || body.Error.Status != "INTERNAL" {
		t.Fatalf("unexpected error body: %+v", body.Error)
	}
}

func TestHandler_StreamingRightsBatch(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, staticSources(t), testJobToken)

	rec := doRequest(t, router, http.MethodPost, "/v1/streaming-rights/batch",
		`{"zip_code":"02108","game_ids":["NBA_0022400101","XFL_1","NHL_2024020102"]}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d body=%s", rec.Code, rec.Body.String())
	}
	got := decodeEnvelope[streamingRightsBatchDTO](t, rec).Data
	if got.SuccessCount != 2 || got.FailedCount != 1 || len(got.Items) != 3 {
		t.Fatalf("unexpected batch summary: %+v", got)
	}
	if got.Items[0].GameID != "NBA_0022400101" || got.Items[0].Rights == nil || !got.Items[0].Rights.AvailableStreams[1].Blackout {
		t.Fatalf("unexpected first item: %+v", got.Items[0])
	}
	if got.Items[1].Rights != nil || got.Items[1].Error == nil || got.Items[1].Error.Code != http.StatusBadRequest {
		t.Fatalf("unexpected failed item: %+v", got.Items[1])
	}
	if got.Items[2].GameID != "NHL_2024020102" || got.Items[2].Rights == nil {
		t.Fatalf("unexpected third item: %+v", got.Items[2])
	}

	rec = doRequest(t, router, http.MethodPost, "/v1/streaming-rights/batch",
		`{"zip_code":"02108","game_ids":["NBA_1","NBA_2","NBA_3","NBA_4"]}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("oversized batch: expected 400, got %d", rec.Code)
	}

	rec = doRequest(t, router, http.MethodPost, "/v1/streaming-rights/batch", `{"zip_code":"02108","game_ids":[]}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("empty batch: expected 400, got %d", rec.Code)
	}
}

func TestHandler_ReloadDataset(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, staticSources(t), testJobToken)

	rec := doRequest(t, router, http.MethodPost, "/v1/internal/dataset/reload", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing token: expected 401, got %d", rec.Code)
	}

	rec = doRequest(t, router, http.MethodPost, "/v1/internal/dataset/reload", "", map[string]string{internalJobTokenHeader: "wrong"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong token: expected 401, got %d", rec.Code)
	}

	rec = doRequest(t, router, http.MethodPost, "/v1/internal/dataset/reload", "", map[string]string{internalJobTokenHeader: testJobToken})
	if rec.Code != http.StatusOK {
		t.Fatalf("reload: unexpected status %d body=%s", rec.Code, rec.Body.String())
	}
	if got := decodeEnvelope[datasetStatsDTO](t, rec).Data; got.Rows != 5 || got.Zips != 5 {
		t.Fatalf("unexpected reload stats: %+v", got)
	}

	unconfigured := newTestRouter(t, staticSources(t), "")
	rec = doRequest(t, unconfigured, http.MethodPost, "/v1/internal/dataset/reload", "", map[string]string{internalJobTokenHeader: testJobToken})
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("unconfigured token: expected 503, got %d", rec.Code)
	}
}

func TestHandler_SystemRoutes(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, staticSources(t), testJobToken)

	rec := doRequest(t, router, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz: unexpected status %d", rec.Code)
	}
	health := decodeEnvelope[healthDTO](t, rec).Data
	if health.Status != "ok" || health.Dataset == nil || health.Dataset.Zips != 5 {
		t.Fatalf("unexpected health: %+v", health)
	}

	rec = doRequest(t, router, http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "sports_viewing_") {
		t.Fatalf("metrics: unexpected response %d", rec.Code)
	}
}

func TestRecoverPanic(t *testing.T) {
	handler := recoverPanic(logging.NewNop(), http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/teams", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}
