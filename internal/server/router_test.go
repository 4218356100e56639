package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"site-projects/internal/attendance"
	"site-projects/internal/auth"
	"site-projects/internal/config"
	"site-projects/internal/expenses"
	"site-projects/internal/handlers"
	"site-projects/internal/labor"
	"site-projects/internal/models"
	"site-projects/internal/projects"
	"site-projects/internal/testutil"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type apiResponse struct {
	Data    json.RawMessage   `json:"data"`
	Message string            `json:"message"`
	Error   string            `json:"error"`
	Code    string            `json:"code"`
	Details map[string]string `json:"details"`
}

type api struct {
	t  *testing.T
	r  *gin.Engine
	db *gorm.DB
}

func newAPI(t *testing.T) *api {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewDB(t)
	now := testutil.FixedClock(time.Date(2025, 1, 3, 9, 0, 0, 0, time.UTC))
	h := &handlers.Handler{
		DB:       db,
		Tokens:   auth.NewTokens("test-secret", time.Hour, nil),
		Projects: projects.NewService(db, projects.Options{Now: now}),
		Ledger:   attendance.NewLedger(db, now, time.UTC),
		Expenses: expenses.NewService(db, labor.NewAggregator(db, labor.Options{}), now, time.UTC),
	}
	return &api{t: t, r: NewRouter(&config.Config{SessionSecret: "test-secret"}, h), db: db}
}

func (a *api) call(method, path, token string, body any, cookies ...*http.Cookie) (int, apiResponse, *httptest.ResponseRecorder) {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			a.t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	a.r.ServeHTTP(w, req)

	var resp apiResponse
	if w.Header().Get("Content-Type") != "" && w.Body.Len() > 0 && w.Body.Bytes()[0] == '{' {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			a.t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
	return w.Code, resp, w
}

func (a *api) must(method, path, token string, body any, want int, out any) apiResponse {
	a.t.Helper()
	code, resp, w := a.call(method, path, token, body)
	if code != want {
		a.t.Fatalf("%s %s: expected %d, got %d: %s", method, path, want, code, w.Body.String())
	}
	if out != nil {
		if err := json.Unmarshal(resp.Data, out); err != nil {
			a.t.Fatalf("decode data of %s %s: %v", method, path, err)
		}
	}
	return resp
}

func (a *api) user(role models.UserRole, wage float64) (models.User, string) {
	a.t.Helper()
	hash, err := auth.HashPassword("Passw0rd")
	if err != nil {
		a.t.Fatalf("hash: %v", err)
	}
	user := models.User{
		Email:        fmt.Sprintf("%s-%d@site.local", role, time.Now().UnixNano()),
		PasswordHash: hash,
		FirstName:    string(role),
		LastName:     "Test",
		Role:         role,
		DailyWage:    wage,
		IsActive:     true,
	}
	if err := a.db.Create(&user).Error; err != nil {
		a.t.Fatalf("create user: %v", err)
	}
	var token struct {
		Token string `json:"token"`
	}
	a.must(http.MethodPost, "/api/auth/token", "", gin.H{"email": user.Email, "password": "Passw0rd"}, http.StatusOK, &token)
	return user, token.Token
}

func TestHealth(t *testing.T) {
	a := newAPI(t)
	code, _, w := a.call(http.MethodGet, "/health", "", nil)
	if code != http.StatusOK || w.Body.String() != "ok" {
		t.Fatalf("unexpected health response %d %q", code, w.Body.String())
	}
}

func TestAuth(t *testing.T) {
	a := newAPI(t)
	admin, token := a.user(models.RoleAdmin, 0)

	if code, resp, _ := a.call(http.MethodGet, "/api/me", "", nil); code != http.StatusUnauthorized || resp.Code != "UNAUTHORIZED" {
		t.Fatalf("expected 401 UNAUTHORIZED, got %d %s", code, resp.Code)
	}
	if code, _, _ := a.call(http.MethodPost, "/api/auth/token", "", gin.H{"email": admin.Email, "password": "wrong"}); code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong password, got %d", code)
	}

	var me models.User
	a.must(http.MethodGet, "/api/me", token, nil, http.StatusOK, &me)
	if me.ID != admin.ID {
		t.Fatalf("expected %d, got %d", admin.ID, me.ID)
	}

	_, _, w := a.call(http.MethodPost, "/api/auth/login", "", gin.H{"email": admin.Email, "password": "Passw0rd"})
	if w.Code != http.StatusOK {
		t.Fatalf("login: %d %s", w.Code, w.Body.String())
	}
	cookies := w.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatalf("expected session cookie")
	}
	if code, _, _ := a.call(http.MethodGet, "/api/me", "", nil, cookies...); code != http.StatusOK {
		t.Fatalf("expected session to authenticate, got %d", code)
	}
}

func TestProjectWorkflow(t *testing.T) {
	a := newAPI(t)
	_, adminToken := a.user(models.RoleAdmin, 0)
	driver, driverToken := a.user(models.RoleDriver, 150)
	worker, workerToken := a.user(models.RoleWorker, 100)
	_, financeToken := a.user(models.RoleFinance, 0)

	var client models.Client
	a.must(http.MethodPost, "/api/clients", adminToken, gin.H{"name": "Emaar", "email": "pm@emaar.example"}, http.StatusCreated, &client)
	if code, resp, _ := a.call(http.MethodPost, "/api/clients", adminToken, gin.H{"name": "emaar"}); code != http.StatusConflict || resp.Code != "CONFLICT" {
		t.Fatalf("expected duplicate client conflict, got %d %s", code, resp.Code)
	}

	var project models.Project
	a.must(http.MethodPost, "/api/projects", adminToken, gin.H{
		"name": "Bathroom refit", "clientId": client.ID,
		"location": "Marina", "building": "Tower 2", "apartmentNumber": "905",
	}, http.StatusCreated, &project)
	if project.Status != models.StatusDraft || project.Progress != 0 {
		t.Fatalf("expected new draft project, got %s/%d", project.Status, project.Progress)
	}
	base := fmt.Sprintf("/api/projects/%d", project.ID)

	a.must(http.MethodPatch, base+"/status", adminToken, gin.H{"status": "estimation_prepared"}, http.StatusOK, nil)

	code, resp, _ := a.call(http.MethodPatch, base+"/status", adminToken, gin.H{"status": "work_started"})
	if code != http.StatusBadRequest || resp.Code != "INVALID_TRANSITION" {
		t.Fatalf("expected invalid transition, got %d %s", code, resp.Code)
	}
	if resp.Details["from"] != "estimation_prepared" || resp.Details["to"] != "work_started" {
		t.Fatalf("unexpected details %v", resp.Details)
	}

	for _, s := range []string{"quotation_sent", "quotation_approved", "lpo_received"} {
		a.must(http.MethodPatch, base+"/status", adminToken, gin.H{"status": s}, http.StatusOK, nil)
	}
	a.must(http.MethodPost, base+"/team", adminToken, gin.H{"workers": []uint{worker.ID}, "driverId": driver.ID}, http.StatusOK, &project)
	if project.Status != models.StatusTeamAssigned {
		t.Fatalf("expected team_assigned, got %s", project.Status)
	}

	// отметки ставит только водитель проекта
	markPath := fmt.Sprintf("/api/attendance/project/%d/user/%d", project.ID, worker.ID)
	if code, _, _ := a.call(http.MethodPost, markPath, workerToken, gin.H{"present": true}); code != http.StatusForbidden {
		t.Fatalf("expected worker to be forbidden, got %d", code)
	}
	if code, resp, _ := a.call(http.MethodPost, markPath, driverToken, gin.H{"present": "yes"}); code != http.StatusBadRequest || resp.Code != "VALIDATION" {
		t.Fatalf("expected validation for non-boolean presence, got %d %s", code, resp.Code)
	}
	for _, day := range []string{"2025-01-01", "2025-01-02"} {
		a.must(http.MethodPost, markPath, driverToken, gin.H{"present": true, "date": day}, http.StatusOK, nil)
	}
	a.must(http.MethodPost, fmt.Sprintf("/api/attendance/project/%d/user/%d", project.ID, driver.ID), driverToken,
		gin.H{"present": true, "date": "2025-01-03"}, http.StatusOK, nil)

	var records []models.Attendance
	a.must(http.MethodGet, markPath+"?startDate=2025-01-01&endDate=2025-01-31", workerToken, nil, http.StatusOK, &records)
	if len(records) != 2 {
		t.Fatalf("expected worker to see 2 own records, got %d", len(records))
	}

	var today attendance.TodayView
	a.must(http.MethodGet, fmt.Sprintf("/api/attendance/project/%d/today", project.ID), driverToken, nil, http.StatusOK, &today)
	if today.Date != "2025-01-03" || len(today.Workers) != 1 || today.Workers[0].Present {
		t.Fatalf("unexpected today view %+v", today)
	}

	var driverProjects struct {
		Items []models.Project `json:"items"`
	}
	a.must(http.MethodGet, "/api/driver/projects", driverToken, nil, http.StatusOK, &driverProjects)
	if len(driverProjects.Items) != 1 || driverProjects.Items[0].ID != project.ID {
		t.Fatalf("expected driver to see the project, got %+v", driverProjects.Items)
	}

	a.must(http.MethodPatch, base+"/progress", adminToken, gin.H{"progress": 100}, http.StatusOK, &project)
	if project.Status != models.StatusWorkCompleted {
		t.Fatalf("expected work_completed, got %s", project.Status)
	}
	if code, resp, _ := a.call(http.MethodPatch, base+"/progress", adminToken, gin.H{"progress": 101}); code != http.StatusBadRequest || resp.Code != "VALIDATION" {
		t.Fatalf("expected validation for progress 101, got %d %s", code, resp.Code)
	}

	var expense models.Expense
	a.must(http.MethodPost, fmt.Sprintf("/api/expenses/project/%d", project.ID), financeToken, gin.H{
		"materials": []gin.H{{"description": "Tiles", "invoiceNo": "INV-7", "amount": 500}},
	}, http.StatusCreated, &expense)
	if expense.TotalLaborCost != 650 || expense.TotalMaterialCost != 500 {
		t.Fatalf("unexpected expense totals %v/%v", expense.TotalLaborCost, expense.TotalMaterialCost)
	}
	if code, _, _ := a.call(http.MethodPost, fmt.Sprintf("/api/expenses/project/%d", project.ID), financeToken, gin.H{}); code != http.StatusBadRequest {
		t.Fatalf("expected missing materials to fail, got %d", code)
	}

	var sum expenses.Summary
	a.must(http.MethodGet, fmt.Sprintf("/api/expenses/project/%d/summary", project.ID), financeToken, nil, http.StatusOK, &sum)
	if sum.TotalExpenses != 1150 || sum.DriverCost != 450 {
		t.Fatalf("unexpected summary %+v", sum)
	}

	if code, resp, _ := a.call(http.MethodDelete, base, adminToken, nil); code != http.StatusBadRequest || resp.Code != "INVALID_OPERATION" {
		t.Fatalf("expected invalid operation on delete, got %d %s", code, resp.Code)
	}

	var history []models.AuditLog
	a.must(http.MethodGet, base+"/history", adminToken, nil, http.StatusOK, &history)
	if len(history) == 0 || history[0].Action != "create" {
		t.Fatalf("expected history to start with create, got %+v", history)
	}
}

func TestProjectVisibility(t *testing.T) {
	a := newAPI(t)
	_, workerToken := a.user(models.RoleWorker, 100)
	project := testutil.CreateProject(t, a.db, models.StatusInProgress, nil)

	if code, _, _ := a.call(http.MethodGet, fmt.Sprintf("/api/projects/%d", project.ID), workerToken, nil); code != http.StatusForbidden {
		t.Fatalf("expected foreign project to be hidden, got %d", code)
	}
	if code, _, _ := a.call(http.MethodGet, "/api/projects", workerToken, nil); code != http.StatusForbidden {
		t.Fatalf("expected project list to be staff only, got %d", code)
	}
	if code, resp, _ := a.call(http.MethodGet, "/api/projects/abc", workerToken, nil); code != http.StatusBadRequest || resp.Code != "VALIDATION" {
		t.Fatalf("expected bad id, got %d", code)
	}
}
