package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go-agenda-sync/core/errors"
	authService "go-agenda-sync/modules/auth/service"
)

type fakeCredentials struct {
	token           string
	ensureErr       *errors.AppError
	refreshedToken  string
	refreshErr      *errors.AppError
	status          authService.ConnState
	refreshCalls    int
	invalidateCalls int
}

func (f *fakeCredentials) Initialize() *errors.AppError { return nil }

func (f *fakeCredentials) BeginAuthorization(context.Context, string) (string, *errors.AppError) {
	return "", nil
}

func (f *fakeCredentials) CompleteAuthorization(context.Context, string, string, string) (string, *errors.AppError) {
	return "", nil
}

func (f *fakeCredentials) EnsureValid(context.Context, string) (string, *errors.AppError) {
	if f.ensureErr != nil {
		return "", f.ensureErr
	}
	return f.token, nil
}

func (f *fakeCredentials) Refresh(context.Context, string) (string, *errors.AppError) {
	f.refreshCalls++
	if f.refreshErr != nil {
		return "", f.refreshErr
	}
	return f.refreshedToken, nil
}

func (f *fakeCredentials) Invalidate(context.Context, string) { f.invalidateCalls++ }

func (f *fakeCredentials) Revoke(context.Context, string) {}

func (f *fakeCredentials) Status(context.Context, string) authService.ConnState {
	if f.status == "" {
		return authService.StateAuthenticated
	}
	return f.status
}

func testWindow() SyncWindow {
	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	return SyncWindow{Start: start, End: start.AddDate(0, 0, 7)}
}

func eventListBody() map[string]any {
	return map[string]any{
		"items": []map[string]any{
			{
				"id":      "g1",
				"summary": "Planning",
				"start":   map[string]string{"dateTime": "2026-09-01T10:00:00Z"},
				"end":     map[string]string{"dateTime": "2026-09-01T11:00:00Z"},
			},
		},
	}
}

func TestFetchWindowSuccess(t *testing.T) {
	credentials := &fakeCredentials{token: "tok-valid"}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok-valid" {
			t.Errorf("unexpected authorization header %q", got)
		}
		if r.URL.Query().Get("singleEvents") != "true" || r.URL.Query().Get("orderBy") != "startTime" {
			t.Errorf("expected expanded, ordered listing, got query %q", r.URL.RawQuery)
		}
		json.NewEncoder(w).Encode(eventListBody())
	}))
	defer srv.Close()

	client := &googleClient{credentials: credentials, httpClient: srv.Client(), apiBase: srv.URL}

	events, appErr := client.FetchWindow(context.Background(), "user-1", testWindow())
	if appErr != nil {
		t.Fatalf("FetchWindow returned error: %v", appErr)
	}
	if len(events) != 1 || events[0].ExternalID != "g1" || events[0].StartTime != "10:00" {
		t.Fatalf("unexpected events %+v", events)
	}
	if credentials.refreshCalls != 0 {
		t.Fatalf("no refresh expected on success, got %d", credentials.refreshCalls)
	}
}

func TestFetchWindowRetriesOnceAfterRefresh(t *testing.T) {
	credentials := &fakeCredentials{token: "tok-stale", refreshedToken: "tok-fresh"}

	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if r.Header.Get("Authorization") == "Bearer tok-stale" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"code": 401, "status": "UNAUTHENTICATED"}})
			return
		}
		json.NewEncoder(w).Encode(eventListBody())
	}))
	defer srv.Close()

	client := &googleClient{credentials: credentials, httpClient: srv.Client(), apiBase: srv.URL}

	events, appErr := client.FetchWindow(context.Background(), "user-1", testWindow())
	if appErr != nil {
		t.Fatalf("FetchWindow returned error: %v", appErr)
	}
	if len(events) != 1 {
		t.Fatalf("expected events after retry, got %+v", events)
	}
	if credentials.refreshCalls != 1 {
		t.Fatalf("expected exactly one forced refresh, got %d", credentials.refreshCalls)
	}
	if requests != 2 {
		t.Fatalf("expected exactly two requests, got %d", requests)
	}
	if credentials.invalidateCalls != 0 {
		t.Fatalf("credential must survive a successful retry, got %d invalidations", credentials.invalidateCalls)
	}
}

func TestFetchWindowSecondRejectionExpires(t *testing.T) {
	credentials := &fakeCredentials{token: "tok-stale", refreshedToken: "tok-still-bad"}

	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := &googleClient{credentials: credentials, httpClient: srv.Client(), apiBase: srv.URL}

	_, appErr := client.FetchWindow(context.Background(), "user-1", testWindow())
	if appErr == nil || appErr.Code != errors.ErrAuthExpired {
		t.Fatalf("expected ErrAuthExpired, got %v", appErr)
	}
	if requests != 2 {
		t.Fatalf("a second rejection must not trigger another retry, got %d requests", requests)
	}
	if credentials.invalidateCalls != 1 {
		t.Fatalf("expected credential invalidated once, got %d", credentials.invalidateCalls)
	}
}

func TestFetchWindowRefreshFailureExpires(t *testing.T) {
	credentials := &fakeCredentials{
		token:      "tok-stale",
		refreshErr: errors.NewAppError(errors.ErrAuthExpired, "token refresh failed", nil),
	}

	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := &googleClient{credentials: credentials, httpClient: srv.Client(), apiBase: srv.URL}

	_, appErr := client.FetchWindow(context.Background(), "user-1", testWindow())
	if appErr == nil || appErr.Code != errors.ErrAuthExpired {
		t.Fatalf("expected ErrAuthExpired, got %v", appErr)
	}
	// No retry without a successful refresh first.
	if requests != 1 {
		t.Fatalf("expected a single request, got %d", requests)
	}
	if credentials.invalidateCalls != 1 {
		t.Fatalf("expected credential invalidated once, got %d", credentials.invalidateCalls)
	}
}

func TestFetchWindowNotAttemptedWithoutValidToken(t *testing.T) {
	credentials := &fakeCredentials{
		ensureErr: errors.NewAppError(errors.ErrAuthExpired, "token refresh failed", nil),
	}

	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer srv.Close()

	client := &googleClient{credentials: credentials, httpClient: srv.Client(), apiBase: srv.URL}

	_, appErr := client.FetchWindow(context.Background(), "user-1", testWindow())
	if appErr == nil || appErr.Code != errors.ErrAuthExpired {
		t.Fatalf("expected ErrAuthExpired, got %v", appErr)
	}
	// A failed token check means the remote call is never issued.
	if requests != 0 {
		t.Fatalf("expected no requests to reach the provider, got %d", requests)
	}

	if _, appErr := client.PushEvent(context.Background(), "user-1", newLocalEvent("a1", "Dentist", "2026-09-03", "08:00", "08:30"), time.UTC); appErr == nil || appErr.Code != errors.ErrAuthExpired {
		t.Fatalf("expected ErrAuthExpired from push, got %v", appErr)
	}
	if requests != 0 {
		t.Fatalf("expected no push request to reach the provider, got %d", requests)
	}
}

func TestFetchWindowNonAuthErrorIsRejected(t *testing.T) {
	credentials := &fakeCredentials{token: "tok-valid"}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"code": 403, "status": "PERMISSION_DENIED"}})
	}))
	defer srv.Close()

	client := &googleClient{credentials: credentials, httpClient: srv.Client(), apiBase: srv.URL}

	_, appErr := client.FetchWindow(context.Background(), "user-1", testWindow())
	if appErr == nil || appErr.Code != errors.ErrRemoteRejected {
		t.Fatalf("expected ErrRemoteRejected, got %v", appErr)
	}
	if credentials.refreshCalls != 0 {
		t.Fatalf("non-auth rejection must not trigger a refresh, got %d", credentials.refreshCalls)
	}
}

func TestFetchWindowNetworkFailure(t *testing.T) {
	credentials := &fakeCredentials{token: "tok-valid"}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := &googleClient{credentials: credentials, httpClient: &http.Client{Timeout: time.Second}, apiBase: srv.URL}

	_, appErr := client.FetchWindow(context.Background(), "user-1", testWindow())
	if appErr == nil || appErr.Code != errors.ErrNetworkFailure {
		t.Fatalf("expected ErrNetworkFailure, got %v", appErr)
	}
}

func TestPushEventReturnsExternalID(t *testing.T) {
	credentials := &fakeCredentials{token: "tok-valid"}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		var payload map[string]any
		json.NewDecoder(r.Body).Decode(&payload)
		if payload["summary"] != "Dentist" {
			t.Errorf("unexpected payload %+v", payload)
		}
		json.NewEncoder(w).Encode(map[string]any{"id": "created-1"})
	}))
	defer srv.Close()

	client := &googleClient{credentials: credentials, httpClient: srv.Client(), apiBase: srv.URL}

	event := newLocalEvent("a1", "Dentist", "2026-09-03", "08:00", "08:30")
	externalID, appErr := client.PushEvent(context.Background(), "user-1", event, time.UTC)
	if appErr != nil {
		t.Fatalf("PushEvent returned error: %v", appErr)
	}
	if externalID != "created-1" {
		t.Fatalf("expected provider-assigned id, got %q", externalID)
	}
}
