package jobboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"sync/atomic"
	"testing"
)

func TestApplicationCanTransition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		from    ApplicationStatus
		to      ApplicationStatus
		wantErr bool
	}{
		{name: "accept pending", from: ApplicationPending, to: ApplicationAccepted},
		{name: "reject pending", from: ApplicationPending, to: ApplicationRejected},
		{name: "withdraw pending", from: ApplicationPending, to: ApplicationWithdrawn},
		{name: "accept rejected", from: ApplicationRejected, to: ApplicationAccepted, wantErr: true},
		{name: "withdraw accepted", from: ApplicationAccepted, to: ApplicationWithdrawn, wantErr: true},
		{name: "reject reviewed", from: ApplicationReviewed, to: ApplicationRejected, wantErr: true},
		{name: "move to interview", from: ApplicationPending, to: ApplicationInterview, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			app := &Application{ID: "1", Status: tt.from}
			err := app.CanTransition(tt.to)
			if tt.wantErr != (err != nil) {
				t.Fatalf("expected error=%v, got %v", tt.wantErr, err)
			}
			if err != nil && !errors.Is(err, ErrInvalidTransition) {
				t.Fatalf("expected ErrInvalidTransition, got %v", err)
			}
		})
	}
}

func TestTransitionSendsNoRequestWhenInvalid(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_, err := client.Accept(context.Background(), &Application{ID: "1", Status: ApplicationRejected})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if calls.Load() != 0 {
		t.Fatalf("expected no request, got %d", calls.Load())
	}
}

func TestReject(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.URL.Path != "/applications/5/" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}

		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decoding body: %v", err)
		}
		if body["status"] != "rejected" {
			t.Errorf("unexpected status %q", body["status"])
		}

		writeJSON(t, w, http.StatusOK, map[string]any{"id": 5, "status": "rejected", "job": 42})
	}))

	updated, err := client.Reject(context.Background(), &Application{ID: "5", Status: ApplicationPending})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != ApplicationRejected || updated.JobID != "42" {
		t.Fatalf("unexpected application: %+v", updated)
	}
}

func TestTransitionWithEmptyBody(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Method != http.MethodPatch {
			t.Errorf("unexpected method %s", r.Method)
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	app := &Application{ID: "5", JobID: "42", Status: ApplicationPending}
	updated, err := client.Accept(context.Background(), app)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != ApplicationAccepted || updated.ID != "5" || updated.JobID != "42" {
		t.Fatalf("unexpected application: %+v", updated)
	}
	if app.Status != ApplicationPending {
		t.Fatalf("input application must not be modified, got %q", app.Status)
	}

	job, err := client.PublishJob(context.Background(), &Job{ID: "42", Title: "Go Developer", Status: JobStatusDraft})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if job.Status != JobStatusPublished || job.Title != "Go Developer" {
		t.Fatalf("unexpected job: %+v", job)
	}

	if calls.Load() != 2 {
		t.Fatalf("expected 2 requests, got %d", calls.Load())
	}
}

func TestJobCanTransition(t *testing.T) {
	t.Parallel()

	draft := &Job{ID: "1", Status: JobStatusDraft}
	if err := draft.CanTransition(JobStatusPublished); err != nil {
		t.Fatalf("draft should be publishable: %v", err)
	}
	if err := draft.CanTransition(JobStatusClosed); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("draft must not be closed directly, got %v", err)
	}

	closed := &Job{ID: "2", Status: JobStatusClosed}
	if err := closed.CanTransition(JobStatusPublished); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("closed job must not be republished, got %v", err)
	}
	if err := closed.CanTransition(JobStatusDraft); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("no transition back to draft, got %v", err)
	}
}

func TestApplicationsExcludeAndRetain(t *testing.T) {
	t.Parallel()

	apps := &Applications{Items: []*Application{
		{ID: "1", Status: ApplicationPending},
		{ID: "2", Status: ApplicationRejected},
		{ID: "3", Status: ApplicationPending},
	}}

	removed := apps.Exclude([]string{"2", "missing"})
	if len(removed) != 1 || removed[0] != "2" {
		t.Fatalf("unexpected removed ids: %v", removed)
	}

	ids := apps.IDs()
	if len(ids) != 2 || ids[0] != "1" || ids[1] != "3" {
		t.Fatalf("expected order to be preserved, got %v", ids)
	}
}

func TestExcludedApplicationsFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "excluded.json")

	excluded, err := GetExcludedApplicationsFromFile(path)
	if err != nil {
		t.Fatalf("missing file should be empty list: %v", err)
	}

	apps := &Applications{Items: []*Application{{ID: "9", JobID: "42", Applicant: Applicant{FullName: "Ada"}}}}
	excluded.Append(apps.ToExcluded())

	if err := excluded.ToFile(path); err != nil {
		t.Fatalf("write: %v", err)
	}

	loaded, err := GetExcludedApplicationsFromFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	if ids := loaded.IDs(); len(ids) != 1 || ids[0] != "9" {
		t.Fatalf("unexpected ids %v", ids)
	}
	if loaded.Items[0].ApplicantName != "Ada" {
		t.Fatalf("unexpected applicant %q", loaded.Items[0].ApplicantName)
	}
}
