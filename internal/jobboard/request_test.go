package jobboard

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"

	"github.com/jobmatch/jobmatch/internal/session"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *session.Session) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	sess := session.New(filepath.Join(t.TempDir(), "session.json"))
	sess.Populate("access-1", "refresh-1", &session.User{ID: "1", Email: "hr@example.com"})

	client := New(zap.NewNop(), sess)
	client.APIURL = srv.URL

	return client, sess
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("encoding response: %v", err)
	}
}

func TestHeadersAreSet(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer access-1" {
			t.Errorf("unexpected authorization header %q", got)
		}
		if r.Header.Get(requestIDHeader) == "" {
			t.Errorf("expected request id header")
		}
		if r.Header.Get("User-Agent") != userAgent {
			t.Errorf("unexpected user agent %q", r.Header.Get("User-Agent"))
		}
		writeJSON(t, w, http.StatusOK, map[string]any{"id": 3, "name": "Acme"})
	}))

	company, err := client.Company(context.Background(), "3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Numeric ids are decoded into strings.
	if company.ID != "3" || company.Name != "Acme" {
		t.Fatalf("unexpected company: %+v", company)
	}
}

func TestUnauthorizedRefreshesAndReplays(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc(tokenRefreshPath, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Errorf("refresh must be sent without the expired access token")
		}

		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["refresh"] != "refresh-1" {
			t.Errorf("unexpected refresh token %q", body["refresh"])
		}
		writeJSON(t, w, http.StatusOK, map[string]string{"access": "access-2"})
	})
	mux.HandleFunc("/companies/1/", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Header.Get("Authorization") != "Bearer access-2" {
			writeJSON(t, w, http.StatusUnauthorized, map[string]string{"detail": "Token is expired"})
			return
		}
		writeJSON(t, w, http.StatusOK, map[string]any{"id": "1", "name": "Globex"})
	})

	client, sess := newTestClient(t, mux)

	company, err := client.Company(context.Background(), "1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if company.Name != "Globex" {
		t.Fatalf("unexpected company %+v", company)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected original request and one replay, got %d calls", calls.Load())
	}
	if sess.Access() != "access-2" {
		t.Fatalf("expected refreshed access token in session, got %q", sess.Access())
	}
	if sess.Refresh() != "refresh-1" {
		t.Fatalf("refresh token should be kept when not rotated, got %q", sess.Refresh())
	}

	reloaded, err := session.Load(sess.Path())
	if err != nil {
		t.Fatalf("reloading session: %v", err)
	}
	if reloaded.Access() != "access-2" {
		t.Fatalf("expected refreshed token to be persisted, got %q", reloaded.Access())
	}
}

func TestFailedRefreshClearsSession(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc(tokenRefreshPath, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusUnauthorized, map[string]string{"detail": "Token is invalid or expired"})
	})
	mux.HandleFunc("/companies/1/", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusUnauthorized, map[string]string{"detail": "Token is expired"})
	})

	client, sess := newTestClient(t, mux)

	_, err := client.Company(context.Background(), "1")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if sess.LoggedIn() {
		t.Fatalf("expected session to be cleared after failed refresh")
	}
}

func TestStatusErrorDetail(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusNotFound, map[string]string{"detail": "Not found."})
	}))

	_, err := client.Job(context.Background(), "404")

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.Code != http.StatusNotFound || statusErr.Detail != "Not found." {
		t.Fatalf("unexpected status error: %+v", statusErr)
	}
	if errors.Is(err, ErrUnauthorized) {
		t.Fatalf("404 must not be reported as unauthorized")
	}
}

func TestGetItemsFollowsPages(t *testing.T) {
	t.Parallel()

	var srvURL string
	mux := http.NewServeMux()
	mux.HandleFunc("/jobs/", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page") {
		case "":
			if r.URL.Query().Get("status") != "published" {
				t.Errorf("expected status filter on first page, got %q", r.URL.RawQuery)
			}
			writeJSON(t, w, http.StatusOK, map[string]any{
				"count":   3,
				"next":    fmt.Sprintf("%s/jobs/?page=2&status=published", srvURL),
				"results": []map[string]any{{"id": 1, "title": "Go developer", "status": "published"}},
			})
		case "2":
			writeJSON(t, w, http.StatusOK, map[string]any{
				"count": 3,
				"next":  nil,
				"results": []map[string]any{
					{"id": 2, "title": "SRE", "status": "published", "benefits": "Remote"},
					{"id": 3, "title": "QA", "status": "published", "skills": []string{"go", "sql"}},
				},
			})
		default:
			t.Errorf("unexpected page %q", r.URL.Query().Get("page"))
		}
	})

	client, _ := newTestClient(t, mux)
	srvURL = client.APIURL

	jobs, err := client.Jobs(context.Background(), &JobQuery{Status: JobStatusPublished})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if jobs.Len() != 3 {
		t.Fatalf("expected 3 jobs, got %d", jobs.Len())
	}

	sre := jobs.FindByID("2")
	if sre == nil || len(sre.Benefits) != 1 || sre.Benefits[0] != "Remote" {
		t.Fatalf("expected single benefit string to become a list, got %+v", sre)
	}

	if qa := jobs.FindByID("3"); qa == nil || len(qa.Skills) != 2 {
		t.Fatalf("unexpected skills: %+v", qa)
	}
}

func TestGzipResponse(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		_ = json.NewEncoder(gz).Encode([]map[string]any{{"id": "a1", "status": "pending"}})
		_ = gz.Close()
	}))

	apps, err := client.MyApplications(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if apps.Len() != 1 || apps.Items[0].Status != ApplicationPending {
		t.Fatalf("unexpected applications: %+v", apps.Items)
	}
}

func TestEmptyBodyIsNoData(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	_, err := client.Job(context.Background(), "1")
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}
