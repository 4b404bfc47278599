package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/Temutjin2k/driver-presence/config"
	"github.com/Temutjin2k/driver-presence/internal/domain/models"
	"github.com/Temutjin2k/driver-presence/internal/domain/types"
	"github.com/Temutjin2k/driver-presence/pkg/logger"
	ws "github.com/Temutjin2k/driver-presence/pkg/wsHub"
)

type fakeFeed struct {
	mu      sync.Mutex
	samples []models.LocationSample
	granted bool
}

func (f *fakeFeed) Update(s models.LocationSample) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.samples = append(f.samples, s)
}

func (f *fakeFeed) SetPermission(granted bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.granted = granted
}

func (f *fakeFeed) Permission(context.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.granted
}

func (f *fakeFeed) Latest() (*models.LocationSample, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.samples) == 0 {
		return nil, false
	}
	s := f.samples[len(f.samples)-1]
	return &s, true
}

type fakeSession struct {
	state  models.AuthState
	logins int
}

func (f *fakeSession) Login(_ context.Context, data models.AuthData) error {
	f.logins++
	session := data.Session
	f.state = models.AuthState{IsLoggedIn: true, Session: &session, Driver: data.Driver}
	return nil
}

func (f *fakeSession) Logout(context.Context) {
	f.state = models.AuthState{}
}

func (f *fakeSession) State() models.AuthState {
	return f.state
}

func (f *fakeSession) Valid() bool {
	return f.state.IsLoggedIn
}

type fakeAvailability struct {
	state  models.AvailabilityState
	err    error
	syncs  int
	status types.AvailabilityStatus
}

func (f *fakeAvailability) SetOnline(_ context.Context, online bool) error {
	if f.err != nil {
		return f.err
	}
	f.state.IsOnline = online
	return nil
}

func (f *fakeAvailability) SyncOnlineStatus(context.Context) error {
	f.syncs++
	return nil
}

func (f *fakeAvailability) SetAvailabilityStatus(_ context.Context, s types.AvailabilityStatus) error {
	f.status = s
	f.state.AvailabilityStatus = s
	return nil
}

func (f *fakeAvailability) State() models.AvailabilityState { return f.state }

type fakeTrip struct {
	calls []string
}

func (f *fakeTrip) record(step, rideID string) error {
	f.calls = append(f.calls, step+":"+rideID)
	return nil
}

func (f *fakeTrip) Accept(_ context.Context, id string) error         { return f.record("accept", id) }
func (f *fakeTrip) Reject(_ context.Context, id string) error         { return f.record("reject", id) }
func (f *fakeTrip) Arrived(_ context.Context, id string) error        { return f.record("arrived", id) }
func (f *fakeTrip) ConfirmPickup(_ context.Context, id string) error  { return f.record("pickup", id) }
func (f *fakeTrip) ConfirmDropoff(_ context.Context, id string) error { return f.record("dropoff", id) }

type fakeChannel struct{}

func (fakeChannel) State() types.ChannelState { return types.ChannelConnected }

type fixture struct {
	api          *API
	feed         *fakeFeed
	session      *fakeSession
	availability *fakeAvailability
	trip         *fakeTrip
}

func newFixture(t *testing.T, mode types.ServiceMode, token string) *fixture {
	t.Helper()
	f := &fixture{
		feed:         &fakeFeed{granted: true},
		session:      &fakeSession{},
		availability: &fakeAvailability{state: models.AvailabilityState{AvailabilityStatus: types.StatusNotAvailable}},
		trip:         &fakeTrip{},
	}
	cfg := config.Config{Mode: mode, Server: config.ServerConfig{Host: "127.0.0.1", Port: "0", Token: token}}

	var err error
	if mode == types.AgentMode {
		f.api, err = New(cfg, f.feed, f.session, f.availability, f.trip, fakeChannel{}, ws.NewConnHub(logger.Nop()), logger.Nop())
	} else {
		f.api, err = New(cfg, f.feed, nil, nil, nil, nil, nil, logger.Nop())
	}
	if err != nil {
		t.Fatalf("new api: %v", err)
	}
	return f
}

func (f *fixture) do(method, path, body string, header http.Header) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	f.api.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	f := newFixture(t, types.AgentMode, "")

	rec := f.do(http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Status     string            `json:"status"`
		SystemInfo map[string]string `json:"system_info"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.SystemInfo["mode"] != "agent" || body.SystemInfo["realtime"] != "connected" {
		t.Fatalf("unexpected system info: %v", body.SystemInfo)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatalf("expected a generated request id")
	}
}

func TestRequestIDIsEchoed(t *testing.T) {
	f := newFixture(t, types.AgentMode, "")

	rec := f.do(http.MethodGet, "/health", "", http.Header{"X-Request-Id": {"req-1"}})
	if got := rec.Header().Get("X-Request-ID"); got != "req-1" {
		t.Fatalf("expected echoed request id, got %q", got)
	}
}

func TestLogin_StoresSessionAndSyncs(t *testing.T) {
	f := newFixture(t, types.AgentMode, "")

	body := `{"access_token":"a","refresh_token":"r","driver":{"driver_id":"d1","vehicle_type":"ECONOMY"}}`
	rec := f.do(http.MethodPost, "/session", body, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if f.session.logins != 1 || f.availability.syncs != 1 {
		t.Fatalf("expected login and sync, got %d/%d", f.session.logins, f.availability.syncs)
	}
	if strings.Contains(rec.Body.String(), `"a"`) {
		t.Fatalf("tokens must not be echoed")
	}

	rec = f.do(http.MethodPost, "/session", `{"access_token":"a"}`, nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}

func TestGoOnline_ErrorCodes(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{types.ErrMissingDriverInfo, http.StatusConflict},
		{types.ErrNoValidSession, http.StatusUnauthorized},
		{types.ErrLocationPermissionDenied, http.StatusForbidden},
		{&types.APIError{StatusCode: 500, Message: "down"}, http.StatusBadGateway},
	}

	for _, tt := range tests {
		f := newFixture(t, types.AgentMode, "")
		f.availability.err = tt.err

		rec := f.do(http.MethodPost, "/availability/online", "", nil)
		if rec.Code != tt.code {
			t.Fatalf("%v: expected %d, got %d", tt.err, tt.code, rec.Code)
		}
	}
}

func TestGoOnline_ReturnsState(t *testing.T) {
	f := newFixture(t, types.AgentMode, "")

	rec := f.do(http.MethodPost, "/availability/online", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Availability struct {
			IsOnline bool `json:"is_online"`
		} `json:"availability"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if !body.Availability.IsOnline {
		t.Fatalf("expected online state in response: %s", rec.Body.String())
	}
}

func TestSetStatus(t *testing.T) {
	f := newFixture(t, types.AgentMode, "")

	rec := f.do(http.MethodPut, "/availability/status", `{"status":"waiting_at_pickup"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if f.availability.status != types.StatusWaitingAtPickup {
		t.Fatalf("status not forwarded")
	}

	rec = f.do(http.MethodPut, "/availability/status", `{"status":"busy"}`, nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}

func TestLocationUpdate(t *testing.T) {
	f := newFixture(t, types.AgentMode, "")

	rec := f.do(http.MethodPost, "/location", `{"latitude":43.2,"longitude":76.9,"speed_mps":5}`, nil)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	latest, ok := f.feed.Latest()
	if !ok || latest.Latitude != 43.2 || latest.CapturedAt.IsZero() {
		t.Fatalf("fix not forwarded: %+v", latest)
	}

	rec = f.do(http.MethodPost, "/location", `{"latitude":120,"longitude":76.9}`, nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}

	rec = f.do(http.MethodPut, "/location/permission", `{"granted":false}`, nil)
	if rec.Code != http.StatusOK || f.feed.Permission(context.Background()) {
		t.Fatalf("permission not applied")
	}
}

func TestRideMilestones(t *testing.T) {
	f := newFixture(t, types.AgentMode, "")

	for _, step := range []string{"accept", "arrived", "pickup", "dropoff", "reject"} {
		rec := f.do(http.MethodPost, "/rides/r1/"+step, "", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", step, rec.Code)
		}
	}
	want := []string{"accept:r1", "arrived:r1", "pickup:r1", "dropoff:r1", "reject:r1"}
	for i := range want {
		if f.trip.calls[i] != want[i] {
			t.Fatalf("unexpected calls: %v", f.trip.calls)
		}
	}
}

func TestAuthToken(t *testing.T) {
	f := newFixture(t, types.AgentMode, "secret")

	rec := f.do(http.MethodGet, "/availability", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
	if rec.Header().Get("WWW-Authenticate") == "" {
		t.Fatal("401 must carry a WWW-Authenticate challenge")
	}
	if rec := f.do(http.MethodGet, "/availability", "", http.Header{"Authorization": {"Bearer wrong"}}); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong token, got %d", rec.Code)
	}
	if rec := f.do(http.MethodGet, "/availability", "", http.Header{"Authorization": {"Bearer secret"}}); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", rec.Code)
	}
	if rec := f.do(http.MethodGet, "/health", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("health must stay public, got %d", rec.Code)
	}
}

func TestReporterMode_OnlyLocation(t *testing.T) {
	f := newFixture(t, types.ReporterMode, "")

	if rec := f.do(http.MethodGet, "/availability", "", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 in reporter mode, got %d", rec.Code)
	}
	if rec := f.do(http.MethodPost, "/location", `{"latitude":1,"longitude":2}`, nil); rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
}

func TestNew_RejectsIncompleteAgent(t *testing.T) {
	cfg := config.Config{Mode: types.AgentMode}
	if _, err := New(cfg, &fakeFeed{}, nil, nil, nil, nil, nil, logger.Nop()); err == nil {
		t.Fatalf("expected error for missing agent services")
	}
}
