package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"go-agenda-sync/core/errors"
	"go-agenda-sync/modules/auth/entity"
)

type fakeCredentialRepo struct {
	mu         sync.Mutex
	credential *entity.OAuthCredential
	getCalls   int
	saveCalls  int
	clearCalls int
	onGet      func()
}

func (f *fakeCredentialRepo) GetCredential(_ context.Context, _ string, _ string) (*entity.OAuthCredential, error) {
	f.mu.Lock()
	f.getCalls++
	credential := f.credential
	f.mu.Unlock()
	if f.onGet != nil {
		f.onGet()
	}
	if credential == nil {
		return nil, nil
	}
	copied := *credential
	return &copied, nil
}

func (f *fakeCredentialRepo) SaveOrUpdateCredential(_ context.Context, credential *entity.OAuthCredential) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saveCalls++
	copied := *credential
	f.credential = &copied
	return nil
}

func (f *fakeCredentialRepo) ClearCredential(_ context.Context, _ string, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clearCalls++
	f.credential = nil
	return nil
}

func newTestService(repo *fakeCredentialRepo, tokenURL string, now time.Time) *CredentialService {
	service := NewCredentialService(repo)
	service.oauthConfig = &oauth2.Config{
		ClientID:     "test-client",
		ClientSecret: "test-secret",
		RedirectURL:  "http://localhost/callback",
		Scopes:       googleScopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  tokenURL + "/auth",
			TokenURL: tokenURL + "/token",
		},
	}
	service.stateSecret = []byte("test-state-secret")
	service.now = func() time.Time { return now }
	return service
}

func storedCredential(expiresAt time.Time) *entity.OAuthCredential {
	refresh := "refresh-token-1"
	return &entity.OAuthCredential{
		UserKey:        "user-1",
		Provider:       ProviderGoogle,
		AccessToken:    "access-old",
		RefreshToken:   &refresh,
		Scopes:         googleScopes,
		TokenExpiresAt: expiresAt,
		IsActive:       true,
	}
}

func TestEnsureValidReturnsTokenAboveThreshold(t *testing.T) {
	now := time.Now()
	repo := &fakeCredentialRepo{credential: storedCredential(now.Add(time.Hour))}

	var tokenHits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenHits++
	}))
	defer srv.Close()

	service := newTestService(repo, srv.URL, now)

	token, appErr := service.EnsureValid(context.Background(), "user-1")
	if appErr != nil {
		t.Fatalf("EnsureValid returned error: %v", appErr)
	}
	if token != "access-old" {
		t.Fatalf("expected stored token, got %q", token)
	}
	if tokenHits != 0 {
		t.Fatalf("expected no provider calls, got %d", tokenHits)
	}
}

func TestEnsureValidRefreshesNearExpiry(t *testing.T) {
	now := time.Now()
	repo := &fakeCredentialRepo{credential: storedCredential(now.Add(10 * time.Second))}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "access-new",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	}))
	defer srv.Close()

	service := newTestService(repo, srv.URL, now)

	token, appErr := service.EnsureValid(context.Background(), "user-1")
	if appErr != nil {
		t.Fatalf("EnsureValid returned error: %v", appErr)
	}
	if token != "access-new" {
		t.Fatalf("expected refreshed token, got %q", token)
	}
	if repo.saveCalls != 1 {
		t.Fatalf("expected refreshed credential to be stored once, got %d saves", repo.saveCalls)
	}
	if repo.credential.RefreshToken == nil || *repo.credential.RefreshToken != "refresh-token-1" {
		t.Fatal("expected refresh token to be carried forward when the provider omits it")
	}
	if got := service.Status(context.Background(), "user-1"); got != StateAuthenticated {
		t.Fatalf("expected authenticated state after refresh, got %s", got)
	}
}

func TestEnsureValidSingleFlight(t *testing.T) {
	const callers = 5

	now := time.Now()
	repo := &fakeCredentialRepo{credential: storedCredential(now.Add(10 * time.Second))}

	var loaded sync.WaitGroup
	loaded.Add(callers)
	repo.onGet = loaded.Done

	var mu sync.Mutex
	tokenHits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Hold the one in-flight refresh open until every caller has loaded
		// the credential, so they all join the same flight.
		loaded.Wait()
		time.Sleep(50 * time.Millisecond)
		mu.Lock()
		tokenHits++
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "access-new",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	}))
	defer srv.Close()

	service := newTestService(repo, srv.URL, now)

	var wg sync.WaitGroup
	results := make([]string, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			token, appErr := service.EnsureValid(context.Background(), "user-1")
			if appErr != nil {
				t.Errorf("caller %d: EnsureValid returned error: %v", i, appErr)
				return
			}
			results[i] = token
		}(i)
	}
	wg.Wait()

	if tokenHits != 1 {
		t.Fatalf("expected exactly one provider refresh, got %d", tokenHits)
	}
	for i, token := range results {
		if token != "access-new" {
			t.Fatalf("caller %d got %q, want shared refreshed token", i, token)
		}
	}
}

func TestEnsureValidNotConnected(t *testing.T) {
	now := time.Now()
	repo := &fakeCredentialRepo{}
	service := newTestService(repo, "http://localhost:0", now)

	_, appErr := service.EnsureValid(context.Background(), "user-1")
	if appErr == nil || appErr.Code != errors.ErrAuthExpired {
		t.Fatalf("expected ErrAuthExpired, got %v", appErr)
	}
	if got := service.Status(context.Background(), "user-1"); got != StateUnauthenticated {
		t.Fatalf("expected unauthenticated state, got %s", got)
	}
}

func TestRefreshFailureMarksExpired(t *testing.T) {
	now := time.Now()
	repo := &fakeCredentialRepo{credential: storedCredential(now.Add(-time.Minute))}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{"error": "invalid_grant"})
	}))
	defer srv.Close()

	service := newTestService(repo, srv.URL, now)

	_, appErr := service.EnsureValid(context.Background(), "user-1")
	if appErr == nil || appErr.Code != errors.ErrAuthExpired {
		t.Fatalf("expected ErrAuthExpired, got %v", appErr)
	}
	if got := service.Status(context.Background(), "user-1"); got != StateExpired {
		t.Fatalf("expected expired state after failed refresh, got %s", got)
	}
}

func TestRefreshWithoutRefreshTokenExpires(t *testing.T) {
	now := time.Now()
	credential := storedCredential(now.Add(-time.Minute))
	credential.RefreshToken = nil
	repo := &fakeCredentialRepo{credential: credential}

	service := newTestService(repo, "http://localhost:0", now)

	_, appErr := service.EnsureValid(context.Background(), "user-1")
	if appErr == nil || appErr.Code != errors.ErrAuthExpired {
		t.Fatalf("expected ErrAuthExpired, got %v", appErr)
	}
}

func TestCompleteAuthorizationUserDenied(t *testing.T) {
	now := time.Now()
	repo := &fakeCredentialRepo{}
	service := newTestService(repo, "http://localhost:0", now)

	url, appErr := service.BeginAuthorization(context.Background(), "user-1")
	if appErr != nil {
		t.Fatalf("BeginAuthorization returned error: %v", appErr)
	}
	if url == "" {
		t.Fatal("expected a consent URL")
	}
	if got := service.Status(context.Background(), "user-1"); got != StateAuthorizing {
		t.Fatalf("expected authorizing state, got %s", got)
	}

	state, err := signState("user-1", service.stateSecret, now)
	if err != nil {
		t.Fatalf("signState: %v", err)
	}

	userKey, appErr := service.CompleteAuthorization(context.Background(), "", state, "access_denied")
	if appErr == nil || appErr.Code != errors.ErrAuthCancelled {
		t.Fatalf("expected ErrAuthCancelled, got %v", appErr)
	}
	if userKey != "user-1" {
		t.Fatalf("expected user key from state, got %q", userKey)
	}
	// Denial is non-fatal: the user returns to the state before the attempt.
	if got := service.Status(context.Background(), "user-1"); got != StateUnauthenticated {
		t.Fatalf("expected prior state restored, got %s", got)
	}
	if repo.saveCalls != 0 || repo.clearCalls != 0 {
		t.Fatal("denial must not touch the stored credential")
	}
}

func TestCompleteAuthorizationStoresCredential(t *testing.T) {
	now := time.Now()
	repo := &fakeCredentialRepo{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "access-1",
			"refresh_token": "refresh-1",
			"token_type":    "Bearer",
			"expires_in":    3600,
		})
	}))
	defer srv.Close()

	service := newTestService(repo, srv.URL, now)

	state, err := signState("user-1", service.stateSecret, now)
	if err != nil {
		t.Fatalf("signState: %v", err)
	}

	userKey, appErr := service.CompleteAuthorization(context.Background(), "auth-code", state, "")
	if appErr != nil {
		t.Fatalf("CompleteAuthorization returned error: %v", appErr)
	}
	if userKey != "user-1" {
		t.Fatalf("expected user key from state, got %q", userKey)
	}
	if repo.credential == nil || repo.credential.AccessToken != "access-1" {
		t.Fatal("expected credential stored from token exchange")
	}
	if repo.credential.RefreshToken == nil || *repo.credential.RefreshToken != "refresh-1" {
		t.Fatal("expected refresh token stored")
	}
	if got := service.Status(context.Background(), "user-1"); got != StateAuthenticated {
		t.Fatalf("expected authenticated state, got %s", got)
	}
}

func TestCompleteAuthorizationMissingCodeRestoresState(t *testing.T) {
	now := time.Now()
	repo := &fakeCredentialRepo{}
	service := newTestService(repo, "http://localhost:0", now)

	if _, appErr := service.BeginAuthorization(context.Background(), "user-1"); appErr != nil {
		t.Fatalf("BeginAuthorization returned error: %v", appErr)
	}

	state, err := signState("user-1", service.stateSecret, now)
	if err != nil {
		t.Fatalf("signState: %v", err)
	}

	_, appErr := service.CompleteAuthorization(context.Background(), "", state, "")
	if appErr == nil || appErr.Code != errors.ErrAuthFailure {
		t.Fatalf("expected ErrAuthFailure, got %v", appErr)
	}
	// The failed callback must not leave the user stuck in authorizing.
	if got := service.Status(context.Background(), "user-1"); got != StateUnauthenticated {
		t.Fatalf("expected prior state restored, got %s", got)
	}
}

func TestStatusReflectsInvalidationAfterAuthorization(t *testing.T) {
	now := time.Now()
	repo := &fakeCredentialRepo{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "access-1",
			"refresh_token": "refresh-1",
			"token_type":    "Bearer",
			"expires_in":    3600,
		})
	}))
	defer srv.Close()

	service := newTestService(repo, srv.URL, now)

	state, err := signState("user-1", service.stateSecret, now)
	if err != nil {
		t.Fatalf("signState: %v", err)
	}
	if _, appErr := service.CompleteAuthorization(context.Background(), "auth-code", state, ""); appErr != nil {
		t.Fatalf("CompleteAuthorization returned error: %v", appErr)
	}
	if got := service.Status(context.Background(), "user-1"); got != StateAuthenticated {
		t.Fatalf("expected authenticated state, got %s", got)
	}

	// The calendar client invalidates through the same shared instance after
	// an authorization rejection. The status routes read that instance, so
	// the disconnect must be visible immediately.
	service.Invalidate(context.Background(), "user-1")

	if got := service.Status(context.Background(), "user-1"); got != StateExpired {
		t.Fatalf("connection state must report disconnected after invalidation, got %s", got)
	}
	if repo.credential != nil {
		t.Fatal("expected stored credential cleared")
	}
}

func TestStateTokenRejectsExpiry(t *testing.T) {
	now := time.Now()
	secret := []byte("test-state-secret")

	state, err := signState("user-1", secret, now)
	if err != nil {
		t.Fatalf("signState: %v", err)
	}

	if _, err := verifyState(state, secret, now.Add(time.Minute)); err != nil {
		t.Fatalf("fresh state should verify: %v", err)
	}
	if _, err := verifyState(state, secret, now.Add(time.Hour)); err == nil {
		t.Fatal("expired state should be rejected")
	}
	if _, err := verifyState(state, []byte("other-secret"), now.Add(time.Minute)); err == nil {
		t.Fatal("state signed with another secret should be rejected")
	}
}

func TestInvalidateClearsCredential(t *testing.T) {
	now := time.Now()
	repo := &fakeCredentialRepo{credential: storedCredential(now.Add(time.Hour))}
	service := newTestService(repo, "http://localhost:0", now)

	service.Invalidate(context.Background(), "user-1")

	if repo.clearCalls != 1 {
		t.Fatalf("expected stored credential cleared, got %d clears", repo.clearCalls)
	}
	if got := service.Status(context.Background(), "user-1"); got != StateExpired {
		t.Fatalf("expected expired state after invalidation, got %s", got)
	}
}
