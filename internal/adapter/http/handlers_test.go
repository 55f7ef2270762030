package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/Kondo2021/redmine-messenger/internal/domain/tracker"
)

type recordingService struct {
	created     []*tracker.Issue
	updated     []*tracker.Issue
	changeSets  []tracker.ChangeSet
	timeCreated []*tracker.TimeEntry
	timeUpdated []*tracker.TimeEntry
	returnedErr error
}

func (s *recordingService) IssueCreated(_ context.Context, issue *tracker.Issue) error {
	s.created = append(s.created, issue)
	return s.returnedErr
}

func (s *recordingService) IssueUpdated(_ context.Context, issue *tracker.Issue, cs tracker.ChangeSet) error {
	s.updated = append(s.updated, issue)
	s.changeSets = append(s.changeSets, cs)
	return s.returnedErr
}

func (s *recordingService) TimeEntryCreated(_ context.Context, te *tracker.TimeEntry) error {
	s.timeCreated = append(s.timeCreated, te)
	return s.returnedErr
}

func (s *recordingService) TimeEntryUpdated(_ context.Context, te *tracker.TimeEntry) error {
	s.timeUpdated = append(s.timeUpdated, te)
	return s.returnedErr
}

func newTestRouter(svc NotificationService) http.Handler {
	r := chi.NewRouter()
	MountRoutes(r, NewHandlers(svc, slog.New(slog.NewTextHandler(io.Discard, nil))))
	return r
}

func TestIssueCreatedHook(t *testing.T) {
	svc := &recordingService{}
	router := newTestRouter(svc)

	body := `{"issue":{"id":7,"project":{"id":1,"identifier":"relay","name":"Relay"},"subject":"hello"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/hooks/issues/created", strings.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusAccepted {
		t.Errorf("status = %d", rr.Code)
	}
	if len(svc.created) != 1 || svc.created[0].ID != 7 {
		t.Fatalf("service calls = %+v", svc.created)
	}
}

func TestIssueUpdatedHook(t *testing.T) {
	svc := &recordingService{}
	router := newTestRouter(svc)

	body := `{
		"issue": {"id": 7, "project": {"id": 1}},
		"journal": {
			"id": 99,
			"user": {"id": 3, "login": "alice"},
			"details": [{"property": "attr", "key": "status_id", "old_value": "1", "new_value": "2"}],
			"notes": "closing"
		}
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/hooks/issues/updated", strings.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusAccepted {
		t.Errorf("status = %d", rr.Code)
	}
	if len(svc.changeSets) != 1 {
		t.Fatal("journal not forwarded")
	}
	cs := svc.changeSets[0]
	if cs.ID != 99 || cs.Notes != "closing" || len(cs.Changes) != 1 {
		t.Errorf("change set = %+v", cs)
	}
	if cs.Changes[0].Key != "status_id" || cs.Changes[0].New != "2" {
		t.Errorf("change = %+v", cs.Changes[0])
	}
}

func TestTimeEntryHooks(t *testing.T) {
	svc := &recordingService{}
	router := newTestRouter(svc)

	body := `{"time_entry":{"id":5,"project":{"id":1},"hours":1.5,"spent_on":"2024-03-05"}}`
	for _, path := range []string{"/api/v1/hooks/time-entries/created", "/api/v1/hooks/time-entries/updated"} {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		if rr.Code != http.StatusAccepted {
			t.Errorf("%s status = %d", path, rr.Code)
		}
	}
	if len(svc.timeCreated) != 1 || len(svc.timeUpdated) != 1 {
		t.Errorf("calls = %d / %d", len(svc.timeCreated), len(svc.timeUpdated))
	}
}

func TestInvalidBodyRejected(t *testing.T) {
	router := newTestRouter(&recordingService{})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/hooks/issues/created", strings.NewReader("{broken"))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d", rr.Code)
	}
}

func TestServiceErrorStillAccepted(t *testing.T) {
	// The mutation already committed on the tracker side; a notification
	// failure must not surface as a hook error.
	svc := &recordingService{returnedErr: context.DeadlineExceeded}
	router := newTestRouter(svc)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/hooks/issues/created", strings.NewReader(`{"issue":{"id":1}}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusAccepted {
		t.Errorf("status = %d", rr.Code)
	}
}

func TestHealth(t *testing.T) {
	router := newTestRouter(&recordingService{})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("status = %d", rr.Code)
	}
}
