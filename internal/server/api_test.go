package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/deepakgunadhya/greenexweb-sub000/internal/authz"
	"github.com/deepakgunadhya/greenexweb-sub000/internal/config"
	"github.com/deepakgunadhya/greenexweb-sub000/internal/database"
	"github.com/deepakgunadhya/greenexweb-sub000/internal/middleware"
	"github.com/deepakgunadhya/greenexweb-sub000/internal/models"
	"github.com/deepakgunadhya/greenexweb-sub000/internal/service"

	"github.com/gin-gonic/gin"
)

type testEnv struct {
	router *gin.Engine
	tokens *middleware.Tokens

	admin      models.User
	consultant models.User
	client     models.User
	viewer     models.User
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	gin.SetMode(gin.TestMode)

	db, err := database.Open(database.DriverSQLite, filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if _, err := database.Seed(db, "admin@review.local", "Admin123!"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	cfg := &config.Config{
		SessionSecret: "test-session-secret",
		JWTSecret:     "test-secret",
		JWTTTL:        time.Hour,
	}
	env := &testEnv{
		router: NewRouter(cfg, service.New(db), authz.DefaultTable()),
		tokens: middleware.NewTokens(cfg.JWTSecret, cfg.JWTTTL),
	}

	for _, u := range []struct {
		dst  *models.User
		role models.UserRole
	}{
		{&env.admin, models.RoleAdmin},
		{&env.consultant, models.RoleConsultant},
		{&env.client, models.RoleClient},
		{&env.viewer, models.RoleViewer},
	} {
		if err := db.Where("role = ?", u.role).First(u.dst).Error; err != nil {
			t.Fatalf("load seeded %s: %v", u.role, err)
		}
	}
	return env
}

func doRequest(t *testing.T, r http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Errorf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func (env *testEnv) bearerFor(t *testing.T, u models.User) map[string]string {
	t.Helper()
	tok, err := env.tokens.Issue(u)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return map[string]string{"Authorization": "Bearer " + tok}
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), dst); err != nil {
		t.Fatalf("unmarshal %s: %v", w.Body.String(), err)
	}
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status=%d want %d body=%s", w.Code, want, w.Body.String())
	}
}

type errorBody struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

func expectError(t *testing.T, w *httptest.ResponseRecorder, status int, kind string) {
	t.Helper()
	expectStatus(t, w, status)
	var body errorBody
	decode(t, w, &body)
	if body.Error != kind {
		t.Fatalf("error=%q want %q (%s)", body.Error, kind, body.Message)
	}
}

// assignment creates a project with one assigned template and returns the
// assignment id.
func (env *testEnv) assignment(t *testing.T) uint {
	t.Helper()
	admin := env.bearerFor(t, env.admin)

	w := doRequest(t, env.router, http.MethodPost, "/templates", map[string]any{
		"title":    "Privacy policy",
		"category": "policies",
	}, admin)
	expectStatus(t, w, http.StatusCreated)
	var tpl models.TemplateFile
	decode(t, w, &tpl)

	w = doRequest(t, env.router, http.MethodPost, "/projects", map[string]any{
		"title":     "ISO 27001 readiness",
		"client_id": env.client.ID,
	}, admin)
	expectStatus(t, w, http.StatusCreated)
	var p models.Project
	decode(t, w, &p)

	w = doRequest(t, env.router, http.MethodPost, fmt.Sprintf("/projects/%d/assignments", p.ID), map[string]any{
		"template_id": tpl.ID,
	}, admin)
	expectStatus(t, w, http.StatusCreated)
	var a models.Assignment
	decode(t, w, &a)
	return a.ID
}

func (env *testEnv) upload(t *testing.T, assignmentID uint, ref string) service.AssignmentResult {
	t.Helper()
	w := doRequest(t, env.router, http.MethodPost, fmt.Sprintf("/assignments/%d/submit", assignmentID), map[string]any{
		"artifact": map[string]any{"ref": ref, "file_name": "policy.pdf"},
	}, env.bearerFor(t, env.client))
	expectStatus(t, w, http.StatusOK)
	var res service.AssignmentResult
	decode(t, w, &res)
	return res
}

func TestLoginSessionAndBearer(t *testing.T) {
	env := setupTestEnv(t)

	w := doRequest(t, env.router, http.MethodPost, "/auth/login", map[string]any{
		"username": "admin@review.local",
		"password": "wrong-password",
	}, nil)
	expectStatus(t, w, http.StatusUnauthorized)

	w = doRequest(t, env.router, http.MethodPost, "/auth/login", map[string]any{
		"username": "admin@review.local",
		"password": "Admin123!",
	}, nil)
	expectStatus(t, w, http.StatusOK)

	var resp struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	decode(t, w, &resp)
	if resp.Token == "" {
		t.Fatalf("expected token in response: %s", w.Body.String())
	}
	cookie, _, _ := strings.Cut(w.Header().Get("Set-Cookie"), ";")
	if cookie == "" {
		t.Fatal("expected session cookie")
	}

	w = doRequest(t, env.router, http.MethodGet, "/auth/me", nil, map[string]string{"Authorization": "Bearer " + resp.Token})
	expectStatus(t, w, http.StatusOK)

	w = doRequest(t, env.router, http.MethodGet, "/auth/me", nil, map[string]string{"Cookie": cookie})
	expectStatus(t, w, http.StatusOK)

	w = doRequest(t, env.router, http.MethodGet, "/auth/me", nil, nil)
	expectStatus(t, w, http.StatusUnauthorized)

	w = doRequest(t, env.router, http.MethodGet, "/health", nil, nil)
	expectStatus(t, w, http.StatusOK)
	if w.Header().Get(middleware.RequestIDHeader) == "" {
		t.Error("expected request id header")
	}
}

func TestSubmissionReviewLoopOverHTTP(t *testing.T) {
	env := setupTestEnv(t)
	id := env.assignment(t)
	consultant := env.bearerFor(t, env.consultant)

	v1 := env.upload(t, id, "blob://policy/v1")
	if v1.Submission.Version != 1 || v1.Assignment.Status != models.AssignmentSubmitted {
		t.Fatalf("first upload = v%d %s", v1.Submission.Version, v1.Assignment.Status)
	}

	reviewPath := func(subID uint) string { return fmt.Sprintf("/submissions/%d/review", subID) }

	w := doRequest(t, env.router, http.MethodPost, reviewPath(v1.Submission.ID), map[string]any{"action": "reject"}, consultant)
	expectError(t, w, http.StatusUnprocessableEntity, "validation_failed")

	w = doRequest(t, env.router, http.MethodPost, reviewPath(v1.Submission.ID), map[string]any{
		"action":  "reject",
		"remarks": "section 4 is missing",
	}, consultant)
	expectStatus(t, w, http.StatusOK)
	var rejected service.AssignmentResult
	decode(t, w, &rejected)
	if rejected.Assignment.Status != models.AssignmentIncomplete {
		t.Fatalf("status after reject = %s", rejected.Assignment.Status)
	}

	v2 := env.upload(t, id, "blob://policy/v2")
	if v2.Submission.Version != 2 {
		t.Fatalf("second upload version = %d", v2.Submission.Version)
	}

	w = doRequest(t, env.router, http.MethodPost, reviewPath(v1.Submission.ID), map[string]any{"action": "approve"}, consultant)
	expectError(t, w, http.StatusConflict, "stale_submission")

	w = doRequest(t, env.router, http.MethodPost, reviewPath(v2.Submission.ID), map[string]any{"action": "approve"}, consultant)
	expectStatus(t, w, http.StatusOK)
	var approved service.AssignmentResult
	decode(t, w, &approved)
	if approved.Assignment.Status != models.AssignmentVerified {
		t.Fatalf("status after approve = %s", approved.Assignment.Status)
	}

	// a second review of the same submission loses
	w = doRequest(t, env.router, http.MethodPost, reviewPath(v2.Submission.ID), map[string]any{"action": "approve"}, consultant)
	expectError(t, w, http.StatusConflict, "invalid_state")

	// an unauthorized reviewer is refused before any state check
	w = doRequest(t, env.router, http.MethodPost, reviewPath(v2.Submission.ID), map[string]any{"action": "approve"}, env.bearerFor(t, env.viewer))
	expectError(t, w, http.StatusForbidden, "forbidden")

	w = doRequest(t, env.router, http.MethodPost, fmt.Sprintf("/assignments/%d/submit", id), map[string]any{
		"artifact": map[string]any{"ref": "blob://policy/v3"},
	}, env.bearerFor(t, env.client))
	expectError(t, w, http.StatusConflict, "invalid_state")

	w = doRequest(t, env.router, http.MethodGet, fmt.Sprintf("/assignments/%d/history", id), nil, consultant)
	expectStatus(t, w, http.StatusOK)
	var history []models.Submission
	decode(t, w, &history)
	if len(history) != 2 {
		t.Fatalf("history len = %d, want 2", len(history))
	}
	if history[0].Version != 2 || !history[0].IsLatest || history[1].IsLatest {
		t.Errorf("history = %+v", history)
	}
}

func TestMalformedRequests(t *testing.T) {
	env := setupTestEnv(t)
	admin := env.bearerFor(t, env.admin)

	w := doRequest(t, env.router, http.MethodGet, "/assignments/abc", nil, admin)
	expectError(t, w, http.StatusBadRequest, "bad_request")

	w = doRequest(t, env.router, http.MethodGet, "/assignments/999", nil, admin)
	expectError(t, w, http.StatusNotFound, "not_found")

	w = doRequest(t, env.router, http.MethodPost, "/lockables/invoice/1/manual-lock", nil, admin)
	expectError(t, w, http.StatusBadRequest, "bad_request")

	w = doRequest(t, env.router, http.MethodPost, "/templates", map[string]any{
		"title":  "Risk register",
		"fields": []map[string]any{{"key": "owner", "label": "Owner", "type": "colour"}},
	}, admin)
	expectError(t, w, http.StatusUnprocessableEntity, "validation_failed")
}

func TestUnlockRequestsOverHTTP(t *testing.T) {
	env := setupTestEnv(t)
	admin := env.bearerFor(t, env.admin)
	consultant := env.bearerFor(t, env.consultant)
	client := env.bearerFor(t, env.client)

	w := doRequest(t, env.router, http.MethodPost, "/projects", map[string]any{
		"title":     "Vendor onboarding",
		"client_id": env.client.ID,
	}, admin)
	expectStatus(t, w, http.StatusCreated)
	var p models.Project
	decode(t, w, &p)

	w = doRequest(t, env.router, http.MethodPost, fmt.Sprintf("/projects/%d/tasks", p.ID), map[string]any{
		"title": "Collect evidence",
	}, consultant)
	expectStatus(t, w, http.StatusCreated)
	var task models.Task
	decode(t, w, &task)

	lockPath := fmt.Sprintf("/lockables/task/%d", task.ID)

	w = doRequest(t, env.router, http.MethodPost, lockPath+"/manual-lock", nil, consultant)
	expectStatus(t, w, http.StatusOK)

	w = doRequest(t, env.router, http.MethodPost, fmt.Sprintf("/tasks/%d/status", task.ID), map[string]any{"status": "done"}, client)
	expectError(t, w, http.StatusConflict, "invalid_state")

	w = doRequest(t, env.router, http.MethodPost, lockPath+"/request-unlock", map[string]any{"reason": ""}, client)
	expectError(t, w, http.StatusUnprocessableEntity, "validation_failed")

	var (
		wg    sync.WaitGroup
		codes [2]int
	)
	for i := range codes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec := doRequest(t, env.router, http.MethodPost, lockPath+"/request-unlock", map[string]any{
				"reason": fmt.Sprintf("need to attach scan %d", i),
			}, client)
			codes[i] = rec.Code
		}(i)
	}
	wg.Wait()

	created, conflicts := 0, 0
	for _, code := range codes {
		switch code {
		case http.StatusCreated:
			created++
		case http.StatusConflict:
			conflicts++
		}
	}
	if created != 1 || conflicts != 1 {
		t.Fatalf("concurrent unlock requests = %v, want one 201 and one 409", codes)
	}

	w = doRequest(t, env.router, http.MethodPost, lockPath+"/request-unlock", map[string]any{"reason": "again"}, client)
	expectError(t, w, http.StatusConflict, "duplicate_pending")

	w = doRequest(t, env.router, http.MethodPost, lockPath+"/review-unlock", map[string]any{"decision": "approve"}, client)
	expectError(t, w, http.StatusForbidden, "forbidden")

	w = doRequest(t, env.router, http.MethodPost, lockPath+"/review-unlock", map[string]any{
		"decision": "approve",
		"note":     "go ahead",
	}, admin)
	expectStatus(t, w, http.StatusOK)
	var res service.LockResult
	decode(t, w, &res)
	if res.Lock.IsLocked {
		t.Error("task still locked after approval")
	}
	if res.Request == nil || res.Request.Status != models.UnlockApproved {
		t.Errorf("request = %+v, want approved", res.Request)
	}

	w = doRequest(t, env.router, http.MethodGet, "/unlock-requests?status=approved&kind=task", nil, admin)
	expectStatus(t, w, http.StatusOK)
	var list []models.UnlockRequest
	decode(t, w, &list)
	if len(list) != 1 || list[0].LockableID != task.ID {
		t.Errorf("approved requests = %+v", list)
	}

	w = doRequest(t, env.router, http.MethodPost, fmt.Sprintf("/tasks/%d/status", task.ID), map[string]any{"status": "done"}, client)
	expectStatus(t, w, http.StatusOK)
}

func TestCapabilityRoutes(t *testing.T) {
	env := setupTestEnv(t)

	w := doRequest(t, env.router, http.MethodGet, "/audit", nil, env.bearerFor(t, env.client))
	expectError(t, w, http.StatusForbidden, "forbidden")

	w = doRequest(t, env.router, http.MethodGet, "/audit", nil, env.bearerFor(t, env.viewer))
	expectStatus(t, w, http.StatusOK)

	w = doRequest(t, env.router, http.MethodPost, "/users", map[string]any{
		"username": "auditor@review.local",
		"password": "Auditor123!",
		"role":     "viewer",
	}, env.bearerFor(t, env.consultant))
	expectError(t, w, http.StatusForbidden, "forbidden")

	w = doRequest(t, env.router, http.MethodPost, "/users", map[string]any{
		"username": "auditor@review.local",
		"password": "Auditor123!",
		"role":     "viewer",
	}, env.bearerFor(t, env.admin))
	expectStatus(t, w, http.StatusCreated)
}
