package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"

	handler "github.com/samirrijal/cityhunt/internal/adapters/http"
	"github.com/samirrijal/cityhunt/internal/core/domain"
	"github.com/samirrijal/cityhunt/internal/core/usecases"
	"github.com/samirrijal/cityhunt/internal/pkg/geospatial"
	"github.com/samirrijal/cityhunt/internal/pkg/i18n"
)

var monas = domain.GeoPoint{Lat: -6.1754, Lon: 106.8272}

// ---- Mock repositories ----

type mockProgressRepo struct {
	mu          sync.Mutex
	unlocked    map[string][]int
	completions map[string]bool

	unlockedFn func(ctx context.Context, playerID string) ([]int, error)
}

func newMockProgressRepo() *mockProgressRepo {
	return &mockProgressRepo{unlocked: map[string][]int{}, completions: map[string]bool{}}
}

func (m *mockProgressRepo) Unlocked(ctx context.Context, playerID string) ([]int, error) {
	if m.unlockedFn != nil {
		return m.unlockedFn(ctx, playerID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.unlocked[playerID]...), nil
}

func (m *mockProgressRepo) Unlock(ctx context.Context, playerID string, levelID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unlocked[playerID] = append(m.unlocked[playerID], levelID)
	return nil
}

func (m *mockProgressRepo) RecordCompletion(ctx context.Context, e *domain.ChallengeCompleted) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.completions[e.SessionID] {
		return false, nil
	}
	m.completions[e.SessionID] = true
	return true, nil
}

// recordingSink wraps the progression service and remembers every event.
type recordingSink struct {
	mu     sync.Mutex
	next   *usecases.ProgressionService
	events []domain.ChallengeCompleted
}

func (s *recordingSink) ChallengeCompleted(ctx context.Context, e domain.ChallengeCompleted) error {
	s.mu.Lock()
	s.events = append(s.events, e)
	s.mu.Unlock()
	return s.next.ChallengeCompleted(ctx, e)
}

func (s *recordingSink) Events() []domain.ChallengeCompleted {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.ChallengeCompleted(nil), s.events...)
}

type mockPinger struct {
	err error
}

func (m mockPinger) Ping(ctx context.Context) error { return m.err }

// ---- Test helpers ----

type fixture struct {
	app  *fiber.App
	deps *handler.Dependencies
	repo *mockProgressRepo
	sink *recordingSink
}

func setupApp(deps *handler.Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.SetupRoutes(app, deps)
	return app
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := newMockProgressRepo()
	levels := usecases.NewLevelService(nil, nil, usecases.DefaultLevels(monas, 500, 5))
	progression := usecases.NewProgressionService(repo, nil, nil, 5)
	verification := usecases.NewVerificationService(levels, progression, 0)
	sink := &recordingSink{next: progression}
	challenges := usecases.NewChallengeService(levels, progression, verification, sink, usecases.ChallengeConfig{})
	t.Cleanup(challenges.CloseAll)

	deps := &handler.Dependencies{
		Levels:          levels,
		Progression:     progression,
		Verification:    verification,
		Challenges:      challenges,
		DefaultLanguage: i18n.English,
		DB:              mockPinger{},
	}
	return &fixture{app: setupApp(deps), deps: deps, repo: repo, sink: sink}
}

func (f *fixture) do(t *testing.T, method, path, body string, headers ...string) (int, []byte, map[string]string) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := f.app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	h := map[string]string{}
	for k := range resp.Header {
		h[k] = resp.Header.Get(k)
	}
	return resp.StatusCode, b, h
}

func decode[T any](t *testing.T, b []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		t.Fatalf("decode %s: %v", b, err)
	}
	return v
}

type apiError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable *bool  `json:"retryable"`
}

type frameBody struct {
	SessionID string                   `json:"session_id"`
	Progress  domain.ChallengeProgress `json:"progress"`
	Targets   []domain.Projection      `json:"targets"`
	Hint      string                   `json:"hint"`
}

type captureBody struct {
	TargetID  string                   `json:"target_id"`
	Captured  bool                     `json:"captured"`
	Completed bool                     `json:"completed"`
	Progress  domain.ChallengeProgress `json:"progress"`
	Message   string                   `json:"message"`
}

func (f *fixture) start(t *testing.T, body string) frameBody {
	t.Helper()
	status, b, _ := f.do(t, "POST", "/v1/challenges/ar", body)
	if status != 201 {
		t.Fatalf("start: expected 201, got %d: %s", status, b)
	}
	return decode[frameBody](t, b)
}

// ---- Level handler tests ----

func TestListLevels_Paginated(t *testing.T) {
	f := newFixture(t)

	status, b, h := f.do(t, "GET", "/v1/levels?limit=2", "")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	result := decode[struct {
		Data       []domain.Level     `json:"data"`
		Pagination handler.Pagination `json:"pagination"`
	}](t, b)
	if len(result.Data) != 2 || result.Data[0].ID != 1 {
		t.Fatalf("unexpected page: %+v", result.Data)
	}
	if result.Pagination.Total != 5 {
		t.Errorf("expected total 5, got %d", result.Pagination.Total)
	}
	if !strings.Contains(h["Link"], `rel="next"`) {
		t.Errorf("expected next link, got %q", h["Link"])
	}
}

func TestListLevels_OffsetPastEnd(t *testing.T) {
	f := newFixture(t)

	_, b, _ := f.do(t, "GET", "/v1/levels?offset=10", "")
	if !strings.Contains(string(b), `"data":[]`) {
		t.Errorf("expected empty data, got %s", b)
	}
}

func TestListLevels_ConditionalGet(t *testing.T) {
	f := newFixture(t)

	_, _, h := f.do(t, "GET", "/v1/levels", "")
	etag := h["Etag"]
	if etag == "" {
		t.Fatal("expected ETag header")
	}
	if !strings.HasPrefix(h["Cache-Control"], "public") {
		t.Errorf("expected public cache policy, got %q", h["Cache-Control"])
	}

	status, _, _ := f.do(t, "GET", "/v1/levels", "", "If-None-Match", etag)
	if status != 304 {
		t.Errorf("expected 304, got %d", status)
	}
}

func TestGetLevel(t *testing.T) {
	f := newFixture(t)

	status, b, _ := f.do(t, "GET", "/v1/levels/3", "")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	body := decode[struct {
		Level    domain.Level    `json:"level"`
		Geofence domain.Geofence `json:"geofence"`
		Bounds   domain.Bounds   `json:"bounds"`
	}](t, b)
	if body.Level.ID != 3 || body.Geofence.RadiusMeters != 500 {
		t.Errorf("unexpected level: %+v", body)
	}

	// The box encloses the fence: a point just inside the radius due north is
	// below MaxLat, and the center sits between the edges.
	c := body.Geofence.Center
	if !(body.Bounds.MinLat < c.Lat && c.Lat < body.Bounds.MaxLat && body.Bounds.MinLon < c.Lon && c.Lon < body.Bounds.MaxLon) {
		t.Errorf("bounds %+v do not contain center %+v", body.Bounds, c)
	}
	northEdge := domain.GeoPoint{Lat: c.Lat + 499.0/111320.0, Lon: c.Lon}
	if !body.Geofence.Contains(northEdge) || northEdge.Lat >= body.Bounds.MaxLat {
		t.Errorf("north edge %+v should be inside fence and bounds %+v", northEdge, body.Bounds)
	}
}

func TestGetLevel_Errors(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		path   string
		status int
	}{
		{"/v1/levels/abc", 400},
		{"/v1/levels/0", 400},
		{"/v1/levels/99", 404},
	}
	for _, tt := range tests {
		status, b, _ := f.do(t, "GET", tt.path, "")
		if status != tt.status {
			t.Errorf("%s: expected %d, got %d (%s)", tt.path, tt.status, status, b)
		}
		if e := decode[apiError](t, b); e.Status != tt.status {
			t.Errorf("%s: envelope status %d", tt.path, e.Status)
		}
	}
}

// ---- Verification handler tests ----

func TestVerify_InsideFence(t *testing.T) {
	f := newFixture(t)

	body := fmt.Sprintf(`{"player_id":"p1","lat":%f,"lon":%f}`, monas.Lat, monas.Lon)
	status, b, _ := f.do(t, "POST", "/v1/levels/1/verify", body)
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, b)
	}
	res := decode[domain.VerificationResult](t, b)
	if !res.Verified || res.Reason != "" {
		t.Errorf("expected verified result, got %+v", res)
	}
	if res.Message != "Location verified! Loading challenge..." {
		t.Errorf("unexpected message %q", res.Message)
	}
}

func TestVerify_OutOfRangeLocalized(t *testing.T) {
	f := newFixture(t)

	// 0.01° of latitude is about 1112 m.
	body := fmt.Sprintf(`{"player_id":"p1","lat":%f,"lon":%f}`, monas.Lat+0.01, monas.Lon)
	status, b, _ := f.do(t, "POST", "/v1/levels/1/verify?lang=id", body)
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	res := decode[domain.VerificationResult](t, b)
	if res.Verified || res.Reason != domain.ReasonOutOfRange || !res.Retryable {
		t.Fatalf("expected retryable out_of_range, got %+v", res)
	}
	if !strings.Contains(res.Message, "500 m") || !strings.HasPrefix(res.Message, "Anda berada") {
		t.Errorf("expected Indonesian message with radius, got %q", res.Message)
	}
	if res.DistanceMeters == nil || *res.DistanceMeters < 1100 {
		t.Errorf("expected distance around 1112 m, got %v", res.DistanceMeters)
	}
}

func TestVerify_AcceptLanguage(t *testing.T) {
	f := newFixture(t)

	status, b, _ := f.do(t, "POST", "/v1/levels/1/verify", `{"player_id":"p1","error":"TIMEOUT"}`,
		"Accept-Language", "id-ID,id;q=0.9,en;q=0.5")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	res := decode[domain.VerificationResult](t, b)
	if res.Reason != domain.ReasonTimeout || res.Message != "Waktu tunggu habis. Coba lagi." {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestVerify_SensorFailures(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		code      string
		reason    domain.FailureReason
		retryable bool
	}{
		{"PERMISSION_DENIED", domain.ReasonPermissionDenied, true},
		{"POSITION_UNAVAILABLE", domain.ReasonPositionUnavailable, true},
		{"unsupported", domain.ReasonUnsupported, false},
		{"SomethingElse", domain.ReasonOther, true},
	}
	for _, tt := range tests {
		body := fmt.Sprintf(`{"player_id":"p1","error":%q}`, tt.code)
		status, b, _ := f.do(t, "POST", "/v1/levels/1/verify", body)
		if status != 200 {
			t.Fatalf("%s: expected 200, got %d", tt.code, status)
		}
		res := decode[domain.VerificationResult](t, b)
		if res.Verified || res.Reason != tt.reason || res.Retryable != tt.retryable {
			t.Errorf("%s: got %+v", tt.code, res)
		}
		if res.Message == "" {
			t.Errorf("%s: expected a message", tt.code)
		}
	}
}

func TestVerify_BadRequests(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing player", `{"lat":1,"lon":2}`},
		{"missing coordinates", `{"player_id":"p1"}`},
		{"latitude out of range", `{"player_id":"p1","lat":91,"lon":0}`},
		{"malformed", `{"player_id":`},
	}
	for _, tt := range tests {
		status, b, _ := f.do(t, "POST", "/v1/levels/1/verify", tt.body)
		if status != 400 {
			t.Errorf("%s: expected 400, got %d (%s)", tt.name, status, b)
		}
	}
}

func TestVerify_LockedLevel(t *testing.T) {
	f := newFixture(t)

	body := fmt.Sprintf(`{"player_id":"p1","lat":%f,"lon":%f}`, monas.Lat, monas.Lon)
	status, b, _ := f.do(t, "POST", "/v1/levels/2/verify", body)
	if status != 403 {
		t.Fatalf("expected 403, got %d", status)
	}
	e := decode[apiError](t, b)
	if e.Code != "level_locked" || e.Message != "Level 2 is still locked." {
		t.Errorf("unexpected error %+v", e)
	}
}

func TestVerify_StorageError(t *testing.T) {
	f := newFixture(t)
	f.repo.unlockedFn = func(ctx context.Context, playerID string) ([]int, error) {
		return nil, errors.New("connection refused")
	}

	body := fmt.Sprintf(`{"player_id":"p1","lat":%f,"lon":%f}`, monas.Lat, monas.Lon)
	status, b, _ := f.do(t, "POST", "/v1/levels/2/verify", body)
	if status != 500 {
		t.Fatalf("expected 500, got %d", status)
	}
	if strings.Contains(string(b), "connection refused") {
		t.Error("internal error details must not leak")
	}
}

// ---- AR challenge handler tests ----

func TestArChallenge_FullRun(t *testing.T) {
	f := newFixture(t)

	frame := f.start(t, `{"player_id":"p1","level_id":1}`)
	if frame.SessionID == "" || frame.Progress.Total != 3 {
		t.Fatalf("unexpected frame %+v", frame)
	}
	// No orientation yet: every target sits in the static fallback layout.
	if len(frame.Targets) != 3 {
		t.Fatalf("expected 3 fallback targets, got %d", len(frame.Targets))
	}

	base := "/v1/challenges/ar/" + frame.SessionID
	var last captureBody
	for i, p := range frame.Targets {
		status, b, _ := f.do(t, "POST", base+"/capture/"+p.TargetID, "")
		if status != 200 {
			t.Fatalf("capture %s: expected 200, got %d: %s", p.TargetID, status, b)
		}
		last = decode[captureBody](t, b)
		if !last.Captured || last.Progress.Captured != i+1 {
			t.Fatalf("capture %d: %+v", i, last)
		}
	}
	if !last.Completed || last.Message != "All 3 objects captured!" {
		t.Errorf("expected completion on third capture, got %+v", last)
	}

	// A fourth capture changes nothing.
	status, b, _ := f.do(t, "POST", base+"/capture/"+frame.Targets[0].TargetID, "")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	if res := decode[captureBody](t, b); res.Captured || res.Completed || res.Progress.Captured != 3 {
		t.Errorf("expected no-op, got %+v", res)
	}

	events := f.sink.Events()
	if len(events) != 1 || events[0].Score != 3 || events[0].Kind != domain.ChallengeAR {
		t.Fatalf("expected one completion with score 3, got %+v", events)
	}

	_, b, _ = f.do(t, "GET", "/v1/players/p1/progress", "")
	progress := decode[domain.PlayerProgress](t, b)
	if !progress.Has(2) {
		t.Errorf("expected level 2 unlocked, got %+v", progress)
	}

	_, b, _ = f.do(t, "GET", base, "")
	if fb := decode[frameBody](t, b); !fb.Progress.Completed || fb.Hint == "" {
		t.Errorf("expected completed frame with hint, got %+v", fb)
	}
}

func TestArChallenge_CaptureOutOfView(t *testing.T) {
	f := newFixture(t)
	frame := f.start(t, `{"player_id":"p1","level_id":1}`)

	sess, err := f.deps.Challenges.Session(frame.SessionID)
	if err != nil {
		t.Fatal(err)
	}
	target := sess.Targets()[0]

	// Face directly away from the target.
	alpha := geospatial.Normalize360(target.Bearing + 180)
	body := fmt.Sprintf(`{"alpha":%f,"beta":90}`, alpha)
	status, b, _ := f.do(t, "POST", "/v1/challenges/ar/"+frame.SessionID+"/orientation", body)
	if status != 200 {
		t.Fatalf("orientation: expected 200, got %d: %s", status, b)
	}

	status, b, _ = f.do(t, "POST", "/v1/challenges/ar/"+frame.SessionID+"/capture/"+target.ID, "")
	if status != 409 {
		t.Fatalf("expected 409, got %d: %s", status, b)
	}
	if e := decode[apiError](t, b); e.Code != "target_not_visible" {
		t.Errorf("unexpected code %q", e.Code)
	}
}

func TestArChallenge_OrientationDuplicateSuppressed(t *testing.T) {
	f := newFixture(t)
	frame := f.start(t, `{"player_id":"p1","level_id":1}`)
	path := "/v1/challenges/ar/" + frame.SessionID + "/orientation"

	_, b, _ := f.do(t, "POST", path, `{"alpha":10,"beta":80}`)
	if !strings.Contains(string(b), `"changed":true`) {
		t.Errorf("first sample should change orientation: %s", b)
	}
	_, b, _ = f.do(t, "POST", path, `{"alpha":10,"beta":80}`)
	if !strings.Contains(string(b), `"changed":false`) {
		t.Errorf("identical sample should be suppressed: %s", b)
	}
}

func TestArChallenge_CameraDenied(t *testing.T) {
	f := newFixture(t)

	status, b, _ := f.do(t, "POST", "/v1/challenges/ar?lang=id",
		`{"player_id":"p1","level_id":1,"camera":"NotAllowedError"}`)
	if status != 422 {
		t.Fatalf("expected 422, got %d", status)
	}
	e := decode[apiError](t, b)
	if e.Code != "camera_permission_denied" || e.Retryable == nil || !*e.Retryable {
		t.Errorf("unexpected error %+v", e)
	}
	if e.Message != "Akses kamera ditolak. Izinkan kamera di pengaturan browser." {
		t.Errorf("unexpected message %q", e.Message)
	}
	if n := f.deps.Challenges.ActiveSessions(); n != 0 {
		t.Errorf("expected no session after camera failure, got %d", n)
	}
}

func TestArChallenge_StartValidation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		body   string
		status int
	}{
		{`{"level_id":1}`, 400},
		{`{"player_id":"p1"}`, 400},
		{`{"player_id":"p1","level_id":9}`, 404},
		{`{"player_id":"p1","level_id":3}`, 403},
	}
	for _, tt := range tests {
		status, b, _ := f.do(t, "POST", "/v1/challenges/ar", tt.body)
		if status != tt.status {
			t.Errorf("%s: expected %d, got %d (%s)", tt.body, tt.status, status, b)
		}
	}
}

func TestArChallenge_PermissionFlow(t *testing.T) {
	f := newFixture(t)

	frame := f.start(t, `{"player_id":"p1","level_id":1,"needs_orientation_grant":true}`)
	if frame.Hint != "Tap the view once to enable 360° tracking." {
		t.Errorf("expected grant hint, got %q", frame.Hint)
	}
	path := "/v1/challenges/ar/" + frame.SessionID + "/permission"

	status, b, _ := f.do(t, "POST", path, `{"granted":false}`)
	if status != 422 {
		t.Fatalf("expected 422, got %d", status)
	}
	if e := decode[apiError](t, b); e.Code != "orientation_permission_denied" {
		t.Errorf("unexpected code %q", e.Code)
	}

	// Denial is retryable.
	status, b, _ = f.do(t, "POST", path, `{"granted":true}`)
	if status != 200 || !strings.Contains(string(b), `"permission":"granted"`) {
		t.Errorf("expected granted, got %d: %s", status, b)
	}

	status, _, _ = f.do(t, "POST", path, `{}`)
	if status != 400 {
		t.Errorf("expected 400 without granted, got %d", status)
	}
}

func TestArChallenge_Abandon(t *testing.T) {
	f := newFixture(t)
	frame := f.start(t, `{"player_id":"p1","level_id":1}`)
	path := "/v1/challenges/ar/" + frame.SessionID

	status, _, _ := f.do(t, "DELETE", path, "")
	if status != 204 {
		t.Fatalf("expected 204, got %d", status)
	}
	status, _, _ = f.do(t, "DELETE", path, "")
	if status != 404 {
		t.Errorf("expected 404 on second abandon, got %d", status)
	}
	status, _, _ = f.do(t, "GET", path, "")
	if status != 404 {
		t.Errorf("expected 404 after abandon, got %d", status)
	}
	if len(f.sink.Events()) != 0 {
		t.Error("abandoned challenge must not complete")
	}
}

func TestArChallenge_UnknownSession(t *testing.T) {
	f := newFixture(t)

	status, b, h := f.do(t, "GET", "/v1/challenges/ar/nope", "")
	if status != 404 {
		t.Fatalf("expected 404, got %d", status)
	}
	if h["Cache-Control"] != "no-store" {
		t.Errorf("challenge state must not be cached, got %q", h["Cache-Control"])
	}
	if e := decode[apiError](t, b); e.Code != "not_found" {
		t.Errorf("unexpected code %q", e.Code)
	}
}

// ---- Location challenge ----

func TestLocationChallenge(t *testing.T) {
	f := newFixture(t)

	body := fmt.Sprintf(`{"player_id":"p1","lat":%f,"lon":%f}`, monas.Lat, monas.Lon)
	status, b, _ := f.do(t, "POST", "/v1/levels/1/location-challenge", body)
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, b)
	}
	event := decode[domain.ChallengeCompleted](t, b)
	if event.Kind != domain.ChallengeLocation || event.Score != 1 || event.LevelID != 1 {
		t.Errorf("unexpected event %+v", event)
	}

	_, b, _ = f.do(t, "GET", "/v1/players/p1/progress", "")
	if p := decode[domain.PlayerProgress](t, b); !p.Has(2) {
		t.Errorf("expected level 2 unlocked, got %+v", p)
	}
}

func TestLocationChallenge_SensorDenied(t *testing.T) {
	f := newFixture(t)

	status, b, _ := f.do(t, "POST", "/v1/levels/1/location-challenge", `{"player_id":"p1","error":"PERMISSION_DENIED"}`)
	if status != 422 {
		t.Fatalf("expected 422, got %d", status)
	}
	if e := decode[apiError](t, b); e.Code != "location_permission_denied" {
		t.Errorf("unexpected code %q", e.Code)
	}
	if len(f.sink.Events()) != 0 {
		t.Error("failed location challenge must not complete")
	}
}

// ---- Progress ----

func TestPlayerProgress_NewPlayer(t *testing.T) {
	f := newFixture(t)

	status, b, _ := f.do(t, "GET", "/v1/players/newbie/progress", "")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	p := decode[domain.PlayerProgress](t, b)
	if len(p.Unlocked) != 1 || p.Unlocked[0] != 1 || p.Total != 5 {
		t.Errorf("expected only level 1, got %+v", p)
	}
}

// ---- GraphQL ----

func TestGraphQL_LevelsAndProgress(t *testing.T) {
	f := newFixture(t)

	query := `{"query":"{ levels { id radius_meters target { lat lon } } progress(playerId: \"p1\") { unlocked total_levels } }"}`
	status, b, _ := f.do(t, "POST", "/graphql", query)
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	result := decode[struct {
		Data struct {
			Levels []struct {
				ID           int     `json:"id"`
				RadiusMeters float64 `json:"radius_meters"`
				Target       struct {
					Lat float64 `json:"lat"`
				} `json:"target"`
			} `json:"levels"`
			Progress struct {
				Unlocked    []int `json:"unlocked"`
				TotalLevels int   `json:"total_levels"`
			} `json:"progress"`
		} `json:"data"`
		Errors []interface{} `json:"errors"`
	}](t, b)
	if len(result.Errors) != 0 {
		t.Fatalf("graphql errors: %v", result.Errors)
	}
	if len(result.Data.Levels) != 5 || result.Data.Levels[0].Target.Lat != monas.Lat {
		t.Errorf("unexpected levels %+v", result.Data.Levels)
	}
	if result.Data.Progress.TotalLevels != 5 || len(result.Data.Progress.Unlocked) != 1 {
		t.Errorf("unexpected progress %+v", result.Data.Progress)
	}
}

func TestGraphQL_Challenge(t *testing.T) {
	f := newFixture(t)
	frame := f.start(t, `{"player_id":"p1","level_id":1}`)

	query := fmt.Sprintf(`{"query":"{ challenge(id: \"%s\") { session_id progress { total captured } targets { target_id in_view } } }"}`, frame.SessionID)
	_, b, _ := f.do(t, "POST", "/graphql", query)
	if !strings.Contains(string(b), `"total":3`) || !strings.Contains(string(b), frame.SessionID) {
		t.Errorf("unexpected challenge response %s", b)
	}
}

func TestGraphQL_EmptyQuery(t *testing.T) {
	f := newFixture(t)

	status, _, _ := f.do(t, "POST", "/graphql", `{"query":""}`)
	if status != 400 {
		t.Errorf("expected 400, got %d", status)
	}
}

// ---- Health ----

func TestHealth(t *testing.T) {
	f := newFixture(t)

	status, b, _ := f.do(t, "GET", "/v1/health", "")
	if status != 200 || !strings.Contains(string(b), `"status":"healthy"`) {
		t.Errorf("unexpected health response %d: %s", status, b)
	}
}

func TestReady(t *testing.T) {
	f := newFixture(t)

	status, b, _ := f.do(t, "GET", "/v1/ready", "")
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, b)
	}

	f.deps.DB = mockPinger{err: errors.New("down")}
	status, b, _ = f.do(t, "GET", "/v1/ready", "")
	if status != 503 || !strings.Contains(string(b), "error: down") {
		t.Errorf("expected 503 with database error, got %d: %s", status, b)
	}
}

func TestWebSocketRequiresUpgrade(t *testing.T) {
	f := newFixture(t)

	status, _, _ := f.do(t, "GET", "/ws/events", "")
	if status != fiber.StatusUpgradeRequired {
		t.Errorf("expected 426, got %d", status)
	}
}
