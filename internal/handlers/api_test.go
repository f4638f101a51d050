package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ewoodward/routinely/internal/middleware"
	"github.com/ewoodward/routinely/internal/models"
	"github.com/ewoodward/routinely/internal/repository"
	"github.com/ewoodward/routinely/internal/services"
	"github.com/ewoodward/routinely/internal/testutil"
	"github.com/go-chi/chi/v5"
)

type apiFixture struct {
	db     *sql.DB
	router chi.Router

	familyID string
	member   models.FamilyMember
	routine  models.Routine
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	db := testutil.NewTestDatabase(t)
	ctx := context.Background()

	memberRepo := repository.NewFamilyMemberRepository(db)
	familyID, err := memberRepo.CreateFamily(ctx, "Test Family")
	if err != nil {
		t.Fatalf("creating family: %v", err)
	}
	member, err := memberRepo.Create(ctx, models.FamilyMember{FamilyID: familyID, Name: "Ada", Color: "#4F46E5"})
	if err != nil {
		t.Fatalf("creating member: %v", err)
	}
	routine, err := repository.NewRoutineRepository(db).Create(ctx, models.Routine{FamilyID: familyID, Name: "My Routine"})
	if err != nil {
		t.Fatalf("creating routine: %v", err)
	}

	routineRepo := repository.NewRoutineRepository(db)
	dayOrderRepo := repository.NewDayOrderRepository(db)
	bulkService := services.NewBulkTaskService(
		routineRepo,
		repository.NewRecurringTemplateRepository(db),
		repository.NewTaskOccurrenceRepository(db),
		dayOrderRepo,
		repository.NewTaskGroupRepository(db),
		repository.NewRoutineScheduleRepository(db),
	)

	routineHandler := NewRoutineHandler(routineRepo, bulkService)
	taskHandler := NewTaskHandler(bulkService)
	dayOrderHandler := NewDayOrderHandler(dayOrderRepo)

	router := chi.NewRouter()
	router.Post("/api/routines", routineHandler.Create)
	router.Patch("/api/routines/{id}", routineHandler.Patch)
	router.Get("/api/routines/{id}/full-data", routineHandler.FullData)
	router.Post("/api/routines/{id}/tasks/bulk-assign", taskHandler.BulkAssign)
	router.Post("/api/routines/{id}/tasks/bulk-update-recurring", taskHandler.BulkUpdateRecurring)
	router.Post("/api/routines/{id}/tasks/bulk-delete", taskHandler.BulkDelete)
	router.Put("/api/routines/{id}/templates/{templateId}/days", taskHandler.UpdateTemplateDays)
	router.Post("/api/routines/{id}/day-orders/bulk", dayOrderHandler.BulkUpdate)
	router.Get("/api/routines/{id}/day-orders", dayOrderHandler.List)

	return &apiFixture{db: db, router: router, familyID: familyID, member: member, routine: routine}
}

func (fixture *apiFixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encoding request body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	request := httptest.NewRequest(method, path, reader)
	request.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	fixture.router.ServeHTTP(recorder, request)
	return recorder
}

func TestCreateRoutineDefaults(t *testing.T) {
	fixture := newAPIFixture(t)

	recorder := fixture.do(t, http.MethodPost, "/api/routines", map[string]string{
		"family_id": fixture.familyID,
	})
	if recorder.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", recorder.Code, recorder.Body.String())
	}

	var routine models.Routine
	if err := json.Unmarshal(recorder.Body.Bytes(), &routine); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if routine.Name != "My Routine" {
		t.Errorf("expected default name, got %q", routine.Name)
	}
	if routine.Status != models.RoutineStatusDraft {
		t.Errorf("expected draft status, got %s", routine.Status)
	}
}

func TestCreateRoutineRequiresFamily(t *testing.T) {
	fixture := newAPIFixture(t)

	recorder := fixture.do(t, http.MethodPost, "/api/routines", map[string]string{"name": "Orphan"})
	if recorder.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", recorder.Code)
	}
}

func TestPatchRoutinePublishIsOneWay(t *testing.T) {
	fixture := newAPIFixture(t)
	path := "/api/routines/" + fixture.routine.ID

	recorder := fixture.do(t, http.MethodPatch, path, map[string]string{"status": "active"})
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200 publishing routine, got %d: %s", recorder.Code, recorder.Body.String())
	}

	recorder = fixture.do(t, http.MethodPatch, path, map[string]string{"status": "draft"})
	if recorder.Code != http.StatusConflict {
		t.Errorf("expected status 409 unpublishing routine, got %d", recorder.Code)
	}
}

func TestPatchRoutineNotFound(t *testing.T) {
	fixture := newAPIFixture(t)

	recorder := fixture.do(t, http.MethodPatch, "/api/routines/no-such-id", map[string]string{"name": "Gone"})
	if recorder.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", recorder.Code)
	}
}

func TestBulkAssignEndToEnd(t *testing.T) {
	fixture := newAPIFixture(t)
	path := fmt.Sprintf("/api/routines/%s/tasks/bulk-assign", fixture.routine.ID)

	recorder := fixture.do(t, http.MethodPost, path, services.BulkAssignInput{
		TaskTemplate: services.TaskContent{Name: "Make bed", Points: 5},
		Assignments: []services.AssignmentSpec{
			{MemberID: fixture.member.ID, DaysOfWeek: []string{"monday", "tuesday"}},
		},
	})
	if recorder.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", recorder.Code, recorder.Body.String())
	}

	var result services.BulkAssignResult
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if result.TasksCreated != 2 {
		t.Errorf("expected 2 tasks created, got %d", result.TasksCreated)
	}
	if result.RecurringTemplateID == nil {
		t.Error("expected a recurring template id in the response")
	}
}

func TestBulkAssignRejectsEmptyAssignments(t *testing.T) {
	fixture := newAPIFixture(t)
	path := fmt.Sprintf("/api/routines/%s/tasks/bulk-assign", fixture.routine.ID)

	recorder := fixture.do(t, http.MethodPost, path, services.BulkAssignInput{
		TaskTemplate: services.TaskContent{Name: "Nothing"},
	})
	if recorder.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", recorder.Code)
	}
}

func TestBulkUpdateRequiresTemplateID(t *testing.T) {
	fixture := newAPIFixture(t)
	path := fmt.Sprintf("/api/routines/%s/tasks/bulk-update-recurring", fixture.routine.ID)

	recorder := fixture.do(t, http.MethodPost, path, services.BulkUpdateInput{
		TaskTemplate:  services.TaskContent{Name: "Renamed"},
		Assignments:   []services.AssignmentSpec{{MemberID: fixture.member.ID}},
		NewDaysOfWeek: []string{"monday"},
	})
	if recorder.Code != http.StatusBadRequest {
		t.Errorf("expected status 400 without template id, got %d", recorder.Code)
	}
}

func TestBulkDeleteRejectsUnknownScope(t *testing.T) {
	fixture := newAPIFixture(t)
	path := fmt.Sprintf("/api/routines/%s/tasks/bulk-delete", fixture.routine.ID)

	recorder := fixture.do(t, http.MethodPost, path, map[string]string{
		"delete_scope": "next_week",
	})
	if recorder.Code != http.StatusBadRequest {
		t.Errorf("expected status 400 for unknown scope, got %d", recorder.Code)
	}
}

func TestBulkDeleteRejectsInvalidTargetDay(t *testing.T) {
	fixture := newAPIFixture(t)
	path := fmt.Sprintf("/api/routines/%s/tasks/bulk-delete", fixture.routine.ID)

	for _, scope := range []string{"this_day", "this_and_following"} {
		for _, day := range []string{"Funday", ""} {
			recorder := fixture.do(t, http.MethodPost, path, map[string]string{
				"delete_scope": scope,
				"target_day":   day,
			})
			if recorder.Code != http.StatusBadRequest {
				t.Errorf("scope %s day %q: expected status 400, got %d", scope, day, recorder.Code)
			}
		}
	}
}

func TestDayOrderBulkUpdateAndList(t *testing.T) {
	fixture := newAPIFixture(t)
	ctx := context.Background()

	occurrenceRepo := repository.NewTaskOccurrenceRepository(fixture.db)
	var occurrenceIDs []string
	for i := 0; i < 3; i++ {
		occurrence, err := occurrenceRepo.Create(ctx, models.TaskOccurrence{
			RoutineID: fixture.routine.ID,
			MemberID:  fixture.member.ID,
			DayOfWeek: "monday",
			Name:      "Task",
		})
		if err != nil {
			t.Fatalf("creating occurrence: %v", err)
		}
		occurrenceIDs = append(occurrenceIDs, occurrence.ID)
	}

	path := fmt.Sprintf("/api/routines/%s/day-orders/bulk", fixture.routine.ID)
	recorder := fixture.do(t, http.MethodPost, path, map[string]any{
		"member_id":   fixture.member.ID,
		"day_of_week": "monday",
		"task_orders": []map[string]any{
			{"occurrence_id": occurrenceIDs[2], "order_index": 0},
			{"occurrence_id": occurrenceIDs[0], "order_index": 1},
			{"occurrence_id": occurrenceIDs[1], "order_index": 2},
		},
	})
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", recorder.Code, recorder.Body.String())
	}

	recorder = fixture.do(t, http.MethodGet, fmt.Sprintf("/api/routines/%s/day-orders", fixture.routine.ID), nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200 listing orders, got %d", recorder.Code)
	}

	var orders []models.DaySpecificOrder
	if err := json.Unmarshal(recorder.Body.Bytes(), &orders); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(orders) != 3 {
		t.Fatalf("expected 3 orders, got %d", len(orders))
	}
	if orders[0].OccurrenceID != occurrenceIDs[2] {
		t.Errorf("expected reordered first occurrence, got %s", orders[0].OccurrenceID)
	}
}

func TestDayOrderBulkUpdateValidatesKey(t *testing.T) {
	fixture := newAPIFixture(t)
	path := fmt.Sprintf("/api/routines/%s/day-orders/bulk", fixture.routine.ID)

	recorder := fixture.do(t, http.MethodPost, path, map[string]any{
		"member_id":   fixture.member.ID,
		"day_of_week": "someday",
	})
	if recorder.Code != http.StatusBadRequest {
		t.Errorf("expected status 400 for invalid day, got %d", recorder.Code)
	}
}

func TestFullDataRehydration(t *testing.T) {
	fixture := newAPIFixture(t)
	assignPath := fmt.Sprintf("/api/routines/%s/tasks/bulk-assign", fixture.routine.ID)

	recorder := fixture.do(t, http.MethodPost, assignPath, services.BulkAssignInput{
		TaskTemplate: services.TaskContent{Name: "Sweep kitchen"},
		Assignments: []services.AssignmentSpec{
			{MemberID: fixture.member.ID, DaysOfWeek: []string{"monday", "friday"}},
		},
	})
	if recorder.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", recorder.Code)
	}

	recorder = fixture.do(t, http.MethodGet, fmt.Sprintf("/api/routines/%s/full-data", fixture.routine.ID), nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", recorder.Code)
	}

	var data services.FullData
	if err := json.Unmarshal(recorder.Body.Bytes(), &data); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(data.IndividualTasks) != 2 || len(data.RecurringTemplates) != 1 {
		t.Errorf("expected 2 tasks and 1 template, got %d and %d",
			len(data.IndividualTasks), len(data.RecurringTemplates))
	}
}

func TestAPITokenAuth(t *testing.T) {
	db := testutil.NewTestDatabase(t)
	ctx := context.Background()

	tokenRepo := repository.NewAPITokenRepository(db)
	if _, err := tokenRepo.Create(ctx, models.APIToken{
		Name:      "test token",
		TokenHash: repository.HashToken("secret-token"),
	}); err != nil {
		t.Fatalf("creating token: %v", err)
	}

	expired := time.Now().Add(-time.Hour)
	if _, err := tokenRepo.Create(ctx, models.APIToken{
		Name:      "expired token",
		TokenHash: repository.HashToken("expired-token"),
		ExpiresAt: &expired,
	}); err != nil {
		t.Fatalf("creating expired token: %v", err)
	}

	router := chi.NewRouter()
	router.Group(func(r chi.Router) {
		r.Use(middleware.APITokenAuth(tokenRepo))
		r.Get("/api/protected", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
	})

	tests := []struct {
		name     string
		header   string
		expected int
	}{
		{name: "missing header", header: "", expected: http.StatusUnauthorized},
		{name: "wrong token", header: "Bearer wrong-token", expected: http.StatusUnauthorized},
		{name: "expired token", header: "Bearer expired-token", expected: http.StatusUnauthorized},
		{name: "valid token", header: "Bearer secret-token", expected: http.StatusOK},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodGet, "/api/protected", nil)
			if test.header != "" {
				request.Header.Set("Authorization", test.header)
			}
			recorder := httptest.NewRecorder()
			router.ServeHTTP(recorder, request)
			if recorder.Code != test.expected {
				t.Errorf("expected status %d, got %d", test.expected, recorder.Code)
			}
		})
	}
}
