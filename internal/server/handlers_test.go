package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/romanpilnik/fitlog/internal/auth"
	"github.com/romanpilnik/fitlog/internal/ingest"
	"github.com/romanpilnik/fitlog/internal/ingest/alpha"
	"github.com/romanpilnik/fitlog/internal/mcp"
	"github.com/romanpilnik/fitlog/internal/metrics"
	"github.com/romanpilnik/fitlog/internal/models"
	"github.com/romanpilnik/fitlog/internal/storage"
	"github.com/romanpilnik/fitlog/internal/training"
)

type testEnv struct {
	srv    *Server
	svc    *training.Service
	store  *fakeStore
	tokens *auth.Issuer
	reg    *prometheus.Registry
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	m, reg := metrics.NewTestManagerAndRegistry()
	store := newFakeStore()
	svc := training.New(store, log, training.WithMetrics(m))
	tokens := auth.NewIssuer("test-secret", time.Hour)
	srv := New(svc, store, alpha.NewProvider(svc, log), tokens, m, log)
	srv.SetMetrics(reg)
	return &testEnv{srv: srv, svc: svc, store: store, tokens: tokens, reg: reg}
}

// do sends a request as user. A string body is sent as is, anything else
// is encoded as JSON. uuid.Nil sends no Authorization header.
func (e *testEnv) do(t *testing.T, method, path string, user uuid.UUID, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatal(err)
		}
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	if r != nil {
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json, text/event-stream")
	}
	if user != uuid.Nil {
		tok, err := e.tokens.Issue(user, "tester")
		if err != nil {
			t.Fatal(err)
		}
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	rec := httptest.NewRecorder()
	e.srv.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode error: %v (body %q)", err, rec.Body.String())
	}
	return v
}

func programBody(name string) training.ProgramInput {
	return training.ProgramInput{
		Name:        name,
		SplitType:   models.SplitUpperLower,
		DaysPerWeek: 2,
		Workouts: []models.Workout{
			{Name: "Upper", DayNumber: 1, Exercises: []models.ProgramExercise{{ExerciseID: uuid.New(), Order: 1, TargetSets: 3, TargetReps: 8}}},
			{Name: "Lower", DayNumber: 2, Exercises: []models.ProgramExercise{{ExerciseID: uuid.New(), Order: 1, TargetSets: 3, TargetReps: 6}}},
		},
	}
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	if rec := env.do(t, http.MethodGet, "/healthz", uuid.Nil, nil); rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}

	env.store.pingErr = io.ErrUnexpectedEOF
	if rec := env.do(t, http.MethodGet, "/healthz", uuid.Nil, nil); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status with database down = %d, want 503", rec.Code)
	}
}

func TestAPIRequiresToken(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/v1/programs", uuid.Nil, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestProgramLifecycle(t *testing.T) {
	env := newTestEnv(t)
	user := uuid.New()

	rec := env.do(t, http.MethodGet, "/api/v1/programs/active", user, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("active before create: status = %d, want 404", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/api/v1/programs", user, programBody("UL"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status = %d, body %s", rec.Code, rec.Body)
	}
	p := decode[models.Program](t, rec)

	rec = env.do(t, http.MethodPost, "/api/v1/programs", user, programBody("UL again"))
	if rec.Code != http.StatusConflict {
		t.Errorf("second active program: status = %d, want 409", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/programs/active/next", user, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("next: status = %d", rec.Code)
	}
	next := decode[training.NextWorkout](t, rec)
	if next.Workout.Name != "Upper" || next.Week != 1 || next.TargetRIR == nil || *next.TargetRIR != 3 {
		t.Errorf("next = %+v, want Upper in week 1 at RIR 3", next)
	}

	paused := models.StatusPaused
	rec = env.do(t, http.MethodPatch, "/api/v1/programs/"+p.ID.String(), user, training.ProgramPatch{Status: &paused})
	if rec.Code != http.StatusOK {
		t.Fatalf("pause: status = %d, body %s", rec.Code, rec.Body)
	}
	if got := decode[models.Program](t, rec); got.Status != models.StatusPaused {
		t.Errorf("status after pause = %q", got.Status)
	}

	completed := models.StatusCompleted
	rec = env.do(t, http.MethodPatch, "/api/v1/programs/"+p.ID.String(), user, training.ProgramPatch{Status: &completed})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("set completed: status = %d, want 422", rec.Code)
	}

	rec = env.do(t, http.MethodDelete, "/api/v1/programs/"+p.ID.String(), user, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: status = %d", rec.Code)
	}
	rec = env.do(t, http.MethodGet, "/api/v1/programs/"+p.ID.String(), user, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get deleted: status = %d, want 404", rec.Code)
	}
}

func TestProgramOwnership(t *testing.T) {
	env := newTestEnv(t)
	owner, other := uuid.New(), uuid.New()

	p := decode[models.Program](t, env.do(t, http.MethodPost, "/api/v1/programs", owner, programBody("mine")))

	if rec := env.do(t, http.MethodGet, "/api/v1/programs/"+p.ID.String(), other, nil); rec.Code != http.StatusNotFound {
		t.Errorf("foreign program: status = %d, want 404", rec.Code)
	}
	if rec := env.do(t, http.MethodDelete, "/api/v1/programs/"+p.ID.String(), other, nil); rec.Code != http.StatusNotFound {
		t.Errorf("foreign delete: status = %d, want 404", rec.Code)
	}
}

func TestCreateProgramValidation(t *testing.T) {
	env := newTestEnv(t)
	user := uuid.New()

	body := programBody("")
	rec := env.do(t, http.MethodPost, "/api/v1/programs", user, body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if got := decode[map[string]string](t, rec); got["field"] != "name" {
		t.Errorf("field = %q, want name", got["field"])
	}

	rec = env.do(t, http.MethodPost, "/api/v1/programs", user, `{"name": "x", "bogus": 1}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown field: status = %d, want 400", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/programs/not-a-uuid", user, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad id: status = %d, want 400", rec.Code)
	}
}

func TestCreateFromTemplate(t *testing.T) {
	env := newTestEnv(t)
	user := uuid.New()
	in := programBody("")
	tmpl := &models.Template{
		ID:          uuid.New(),
		Name:        "Upper Lower",
		SplitType:   in.SplitType,
		DaysPerWeek: in.DaysPerWeek,
		Difficulty:  models.DifficultyBeginner,
		Workouts:    in.Workouts,
		Plan:        models.DefaultPlan(),
	}
	env.store.templates[tmpl.ID] = tmpl

	rec := env.do(t, http.MethodGet, "/api/v1/templates", user, nil)
	if got := decode[[]models.Template](t, rec); len(got) != 1 {
		t.Errorf("templates = %d, want 1", len(got))
	}

	rec = env.do(t, http.MethodPost, "/api/v1/programs/from-template", user,
		training.TemplateProgramInput{TemplateID: tmpl.ID, StartPaused: true})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	p := decode[models.Program](t, rec)
	if p.Status != models.StatusPaused || p.SourceTemplateID == nil || *p.SourceTemplateID != tmpl.ID {
		t.Errorf("program = %+v, want paused copy of template", p)
	}

	rec = env.do(t, http.MethodPost, "/api/v1/programs/from-template", user,
		training.TemplateProgramInput{TemplateID: uuid.New()})
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown template: status = %d, want 404", rec.Code)
	}
}

func TestSessionPipeline(t *testing.T) {
	env := newTestEnv(t)
	user := uuid.New()
	p := decode[models.Program](t, env.do(t, http.MethodPost, "/api/v1/programs", user, programBody("UL")))

	weight, reps := 100.0, 5
	exerciseID := p.Workouts[0].Exercises[0].ExerciseID
	in := training.SessionInput{
		ProgramID:   &p.ID,
		WorkoutName: "Upper",
		Exercises: []models.SessionExercise{{
			ExerciseID: exerciseID,
			Sets:       []models.SessionSet{{Weight: &weight, Reps: &reps, Completed: true}},
		}},
	}

	rec := env.do(t, http.MethodPost, "/api/v1/sessions", user, in)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create session: status = %d, body %s", rec.Code, rec.Body)
	}
	res := decode[training.SessionResult](t, rec)
	if res.LedgerUpdated != 1 || res.Program == nil || res.Program.NextWorkoutIndex != 1 {
		t.Errorf("result = %+v, want one ledger update and cursor at 1", res)
	}

	in.ID = res.Session.ID
	if rec := env.do(t, http.MethodPost, "/api/v1/sessions", user, in); rec.Code != http.StatusConflict {
		t.Errorf("duplicate session id: status = %d, want 409", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/api/v1/sessions/"+res.Session.ID.String()+"/apply", user, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("reapply: status = %d", rec.Code)
	}
	if again := decode[training.SessionResult](t, rec); !again.AlreadyApplied {
		t.Error("reapply should report the session as already applied")
	}

	rec = env.do(t, http.MethodGet, "/api/v1/ledger/"+exerciseID.String(), user, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("ledger: status = %d", rec.Code)
	}
	st := decode[training.ExerciseStats](t, rec)
	if st.PersonalRecord.Weight != 100 || st.PersonalRecord.Reps != 5 {
		t.Errorf("PR = %+v, want 100 x 5", st.PersonalRecord)
	}

	fav := true
	rec = env.do(t, http.MethodPatch, "/api/v1/ledger/"+exerciseID.String(), user, models.LedgerPatch{IsFavorite: &fav})
	if rec.Code != http.StatusOK {
		t.Fatalf("annotate: status = %d, body %s", rec.Code, rec.Body)
	}
	if rec := env.do(t, http.MethodPatch, "/api/v1/ledger/"+uuid.NewString(), user, models.LedgerPatch{IsFavorite: &fav}); rec.Code != http.StatusNotFound {
		t.Errorf("annotate unlogged exercise: status = %d, want 404", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/sessions?limit=5", user, nil)
	if got := decode[[]models.Session](t, rec); len(got) != 1 {
		t.Errorf("sessions = %d, want 1", len(got))
	}

	if rec := env.do(t, http.MethodGet, "/api/v1/sessions/"+res.Session.ID.String(), uuid.New(), nil); rec.Code != http.StatusNotFound {
		t.Errorf("foreign session: status = %d, want 404", rec.Code)
	}
}

func TestCreateSessionForPausedProgram(t *testing.T) {
	env := newTestEnv(t)
	user := uuid.New()
	body := programBody("UL")
	body.StartPaused = true
	p := decode[models.Program](t, env.do(t, http.MethodPost, "/api/v1/programs", user, body))

	weight, reps := 60.0, 8
	in := training.SessionInput{
		ProgramID: &p.ID,
		Exercises: []models.SessionExercise{{
			ExerciseID: p.Workouts[0].Exercises[0].ExerciseID,
			Sets:       []models.SessionSet{{Weight: &weight, Reps: &reps, Completed: true}},
		}},
	}
	if rec := env.do(t, http.MethodPost, "/api/v1/sessions", user, in); rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", rec.Code)
	}
}

func TestListEndpointsEncodeEmptyArrays(t *testing.T) {
	env := newTestEnv(t)
	user := uuid.New()
	for _, path := range []string{"/api/v1/programs", "/api/v1/sessions", "/api/v1/ledger", "/api/v1/exercises", "/api/v1/import/logs"} {
		rec := env.do(t, http.MethodGet, path, user, nil)
		if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
			t.Errorf("%s = %s, want []", path, got)
		}
	}
}

func TestExercises(t *testing.T) {
	env := newTestEnv(t)
	user := uuid.New()

	rec := env.do(t, http.MethodPost, "/api/v1/exercises", user,
		models.Exercise{Name: "Incline  Bench Press", PrimaryMuscle: models.MuscleChest, Equipment: models.EquipmentDumbbell})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if got := decode[models.Exercise](t, rec); got.Name != "Incline Bench Press" {
		t.Errorf("name = %q, want collapsed whitespace", got.Name)
	}

	rec = env.do(t, http.MethodPost, "/api/v1/exercises", user, models.Exercise{Name: "incline bench press"})
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate name: status = %d, want 409", rec.Code)
	}
}

const importCSV = `"Push · Day 1";"2026-02-17 5:04 h";"1:12 hr"
"1. Bench Press · Barbell · 6 reps";"WU1 · 60 kg · 8 reps"
#;KG;REPS;RIR
1;102,5;6;0
2;100;6;1
`

func TestAlphaImport(t *testing.T) {
	env := newTestEnv(t)
	user := uuid.New()

	rec := env.do(t, http.MethodPost, "/api/v1/import/alpha", user, importCSV)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	res := decode[ingest.Result](t, rec)
	if res.SessionsCreated != 1 || res.LedgerUpdated != 1 {
		t.Errorf("result = %+v, want 1 session and 1 ledger update", res)
	}

	rec = env.do(t, http.MethodPost, "/api/v1/import/alpha", user, importCSV)
	if res := decode[ingest.Result](t, rec); res.SessionsSkipped != 1 {
		t.Errorf("re-import skipped = %d, want 1", res.SessionsSkipped)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/import/logs", user, nil)
	logs := decode[[]storage.ImportLog](t, rec)
	if len(logs) != 2 {
		t.Fatalf("import logs = %d, want 2", len(logs))
	}
	if logs[0].SessionsSkipped != 1 || logs[0].Status != "success" || logs[0].Source != "alpha" {
		t.Errorf("latest log = %+v", logs[0])
	}
}

func TestAlphaImportBadCSV(t *testing.T) {
	env := newTestEnv(t)
	user := uuid.New()

	rec := env.do(t, http.MethodPost, "/api/v1/import/alpha", user, `"1. Bench Press · Barbell · 6 reps"`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if len(env.store.importLogs) != 1 || env.store.importLogs[0].Status != "error" {
		t.Errorf("import logs = %+v, want one error entry", env.store.importLogs)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodGet, "/healthz", uuid.Nil, nil)

	rec := env.do(t, http.MethodGet, "/metrics", uuid.Nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "fitlog_test_requests_total") {
		t.Error("metrics output is missing the request counter")
	}
}

func TestMCPMount(t *testing.T) {
	env := newTestEnv(t)
	env.srv.MountMCP(mcp.New(env.svc, "test", slog.New(slog.NewTextHandler(io.Discard, nil))))

	initialize := `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-03-26","capabilities":{},"clientInfo":{"name":"test","version":"1"}}}`

	if rec := env.do(t, http.MethodPost, "/mcp", uuid.Nil, initialize); rec.Code != http.StatusUnauthorized {
		t.Errorf("without token: status = %d, want 401", rec.Code)
	}

	rec := env.do(t, http.MethodPost, "/mcp", uuid.New(), initialize)
	if rec.Code != http.StatusOK {
		t.Fatalf("initialize: status = %d, body %s", rec.Code, rec.Body)
	}
	if !strings.Contains(rec.Body.String(), `"fitlog"`) {
		t.Errorf("initialize response does not name the server: %s", rec.Body)
	}
}
