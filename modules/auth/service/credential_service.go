package service

import (
	"context"
	stderrors "errors"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/sync/singleflight"

	"go-agenda-sync/core/config"
	"go-agenda-sync/core/constants"
	"go-agenda-sync/core/errors"
	"go-agenda-sync/core/logger"
	"go-agenda-sync/core/utils"
	"go-agenda-sync/modules/auth/entity"
	"go-agenda-sync/modules/auth/repository"
)

const ProviderGoogle = "google"

const googleRevokeEndpoint = "https://oauth2.googleapis.com/revoke"

var googleScopes = []string{
	"https://www.googleapis.com/auth/calendar.readonly",
	"https://www.googleapis.com/auth/calendar.events",
}

// ConnState is the per-user credential lifecycle state.
type ConnState string

const (
	StateUnauthenticated ConnState = "unauthenticated"
	StateAuthorizing     ConnState = "authorizing"
	StateAuthenticated   ConnState = "authenticated"
	StateExpired         ConnState = "expired"
)

type CredentialServiceInterface interface {
	Initialize() *errors.AppError
	BeginAuthorization(ctx context.Context, userKey string) (string, *errors.AppError)
	CompleteAuthorization(ctx context.Context, code string, state string, providerErr string) (string, *errors.AppError)
	EnsureValid(ctx context.Context, userKey string) (string, *errors.AppError)
	Refresh(ctx context.Context, userKey string) (string, *errors.AppError)
	Invalidate(ctx context.Context, userKey string)
	Revoke(ctx context.Context, userKey string)
	Status(ctx context.Context, userKey string) ConnState
}

// CredentialService owns the stored credential exclusively. Everything else
// borrows a valid access token through EnsureValid and never caches it.
type CredentialService struct {
	repo           repository.CredentialRepositoryInterface
	oauthConfig    *oauth2.Config
	stateSecret    []byte
	revokeEndpoint string
	httpClient     *http.Client
	refreshGroup   singleflight.Group
	now            func() time.Time

	mu         sync.Mutex
	states     map[string]ConnState
	prevStates map[string]ConnState
}

func NewCredentialService(repo repository.CredentialRepositoryInterface) *CredentialService {
	return &CredentialService{
		repo:           repo,
		revokeEndpoint: googleRevokeEndpoint,
		httpClient:     &http.Client{Timeout: constants.ProviderTimeout},
		now:            time.Now,
		states:         make(map[string]ConnState),
		prevStates:     make(map[string]ConnState),
	}
}

// Initialize builds the provider configuration. Without an OAuth client id the
// calendar integration stays disabled for the rest of the session.
func (service *CredentialService) Initialize() *errors.AppError {
	cfg, ok := config.GetSafe()
	if !ok {
		return errors.NewAppError(errors.ErrInternalServer, "config not initialized", nil)
	}

	if cfg.GoogleAPI.ClientID == "" {
		logger.Warn("CredentialService:Initialize:Disabled", "reason", "Google OAuth client id not configured")
		return errors.NewAppError(errors.ErrMissingCredential, "Google OAuth client id not configured", nil)
	}

	service.oauthConfig = &oauth2.Config{
		ClientID:     cfg.GoogleAPI.ClientID,
		ClientSecret: cfg.GoogleAPI.ClientSecret,
		RedirectURL:  cfg.GoogleAPI.RedirectURI,
		Scopes:       googleScopes,
		Endpoint:     google.Endpoint,
	}

	secret := cfg.JWT.StateSecret
	if secret == "" {
		secret = utils.GenerateRandomString(32)
		logger.Warn("CredentialService:Initialize:EphemeralStateSecret",
			"reason", "jwt.state_secret not configured, state tokens will not survive a restart")
	}
	service.stateSecret = []byte(secret)

	logger.Info("CredentialService:Initialize:Success", "provider", ProviderGoogle)
	return nil
}

// BeginAuthorization returns the consent URL for the interactive flow.
func (service *CredentialService) BeginAuthorization(ctx context.Context, userKey string) (string, *errors.AppError) {
	if service.oauthConfig == nil {
		return "", errors.NewAppError(errors.ErrMissingCredential, "calendar integration is not configured", nil)
	}

	state, err := signState(userKey, service.stateSecret, service.now())
	if err != nil {
		logger.Error("CredentialService:BeginAuthorization:SignState:Error", "error", err, "user_key", userKey)
		return "", errors.NewAppError(errors.ErrAuthFailure, "failed to prepare authorization", err)
	}

	service.enterAuthorizing(ctx, userKey)

	authURL := service.oauthConfig.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
	return authURL, nil
}

// CompleteAuthorization finishes the consent round-trip. A user denial is
// non-fatal and restores the state that preceded the authorization attempt.
func (service *CredentialService) CompleteAuthorization(ctx context.Context, code string, state string, providerErr string) (string, *errors.AppError) {
	if service.oauthConfig == nil {
		return "", errors.NewAppError(errors.ErrMissingCredential, "calendar integration is not configured", nil)
	}

	userKey, err := verifyState(state, service.stateSecret, service.now())
	if err != nil {
		logger.Error("CredentialService:CompleteAuthorization:VerifyState:Error", "error", err)
		return "", errors.NewAppError(errors.ErrAuthFailure, "invalid or expired state parameter", err)
	}

	if providerErr == "access_denied" {
		service.restorePriorState(userKey)
		return userKey, errors.NewAppError(errors.ErrAuthCancelled, "authorization was cancelled", nil)
	}
	if providerErr != "" {
		service.restorePriorState(userKey)
		logger.Error("CredentialService:CompleteAuthorization:ProviderError", "provider_error", providerErr, "user_key", userKey)
		return userKey, errors.NewAppError(errors.ErrAuthBlocked, "authorization could not be completed", nil)
	}
	if code == "" {
		service.restorePriorState(userKey)
		return userKey, errors.NewAppError(errors.ErrAuthFailure, "missing authorization code", nil)
	}

	exchangeCtx, cancel := context.WithTimeout(ctx, constants.ProviderTimeout)
	defer cancel()

	token, err := service.oauthConfig.Exchange(exchangeCtx, code)
	if err != nil {
		logger.Error("CredentialService:CompleteAuthorization:Exchange:Error", "error", err, "user_key", userKey)
		var retrieveErr *oauth2.RetrieveError
		if stderrors.As(err, &retrieveErr) {
			return userKey, errors.NewAppError(errors.ErrAuthFailure, "provider rejected the authorization code", err)
		}
		return userKey, errors.NewAppError(errors.ErrAuthBlocked, "could not reach the authorization provider", err)
	}

	credential := service.credentialFromToken(userKey, token)
	if err := service.repo.SaveOrUpdateCredential(ctx, credential); err != nil {
		return userKey, errors.NewAppError(errors.ErrAuthFailure, "failed to store credential", err)
	}

	service.setState(userKey, StateAuthenticated)
	logger.Info("CredentialService:CompleteAuthorization:Success", "user_key", userKey, "expires_at", credential.TokenExpiresAt)
	return userKey, nil
}

// EnsureValid returns an access token with enough remaining lifetime for a
// dependent call. When the token is within the refresh threshold the refresh
// is single-flight: concurrent callers share one refresh result.
func (service *CredentialService) EnsureValid(ctx context.Context, userKey string) (string, *errors.AppError) {
	if service.oauthConfig == nil {
		return "", errors.NewAppError(errors.ErrMissingCredential, "calendar integration is not configured", nil)
	}

	credential, err := service.repo.GetCredential(ctx, userKey, ProviderGoogle)
	if err != nil {
		return "", errors.NewAppError(errors.ErrAuthFailure, "failed to load credential", err)
	}
	if credential == nil {
		service.setState(userKey, StateUnauthenticated)
		return "", errors.NewAppError(errors.ErrAuthExpired, "calendar is not connected", nil)
	}

	if credential.RemainingLifetime(service.now()) >= constants.TokenRefreshThreshold {
		return credential.AccessToken, nil
	}

	return service.sharedRefresh(userKey, credential)
}

// Refresh forces a single-flight refresh regardless of remaining lifetime.
// The remote calendar client uses it for its one-shot retry after an
// authorization rejection on a token that still looked valid locally.
func (service *CredentialService) Refresh(ctx context.Context, userKey string) (string, *errors.AppError) {
	if service.oauthConfig == nil {
		return "", errors.NewAppError(errors.ErrMissingCredential, "calendar integration is not configured", nil)
	}

	credential, err := service.repo.GetCredential(ctx, userKey, ProviderGoogle)
	if err != nil {
		return "", errors.NewAppError(errors.ErrAuthFailure, "failed to load credential", err)
	}
	if credential == nil {
		service.setState(userKey, StateUnauthenticated)
		return "", errors.NewAppError(errors.ErrAuthExpired, "calendar is not connected", nil)
	}

	return service.sharedRefresh(userKey, credential)
}

func (service *CredentialService) sharedRefresh(userKey string, credential *entity.OAuthCredential) (string, *errors.AppError) {
	result, refreshErr, _ := service.refreshGroup.Do(userKey, func() (any, error) {
		return service.refreshCredential(userKey, credential)
	})
	if refreshErr != nil {
		if appErr, ok := refreshErr.(*errors.AppError); ok {
			return "", appErr
		}
		return "", errors.NewAppError(errors.ErrAuthExpired, "token refresh failed", refreshErr)
	}
	return result.(string), nil
}

// refreshCredential runs at most once per user at a time (singleflight). It
// uses a detached context so one caller's cancellation cannot fail the
// refresh for everyone awaiting it.
func (service *CredentialService) refreshCredential(userKey string, credential *entity.OAuthCredential) (string, error) {
	if credential.RefreshToken == nil || *credential.RefreshToken == "" {
		service.setState(userKey, StateExpired)
		return "", errors.NewAppError(errors.ErrAuthExpired, "credential expired and no refresh token available", nil)
	}

	refreshCtx, cancel := context.WithTimeout(context.Background(), constants.ProviderTimeout)
	defer cancel()

	tokenSource := service.oauthConfig.TokenSource(refreshCtx, &oauth2.Token{
		RefreshToken: *credential.RefreshToken,
	})
	token, err := tokenSource.Token()
	if err != nil {
		logger.Error("CredentialService:refreshCredential:Error", "error", err, "user_key", userKey)
		service.setState(userKey, StateExpired)
		return "", errors.NewAppError(errors.ErrAuthExpired, "token refresh failed", err)
	}

	updated := service.credentialFromToken(userKey, token)
	// Expiry never moves backwards across successful refreshes.
	if updated.TokenExpiresAt.Before(credential.TokenExpiresAt) {
		updated.TokenExpiresAt = credential.TokenExpiresAt
	}
	if updated.RefreshToken == nil {
		updated.RefreshToken = credential.RefreshToken
	}
	if len(updated.Scopes) == 0 {
		updated.Scopes = credential.Scopes
	}

	saveCtx, cancelSave := context.WithTimeout(context.Background(), constants.DefaultTimeout)
	defer cancelSave()
	if err := service.repo.SaveOrUpdateCredential(saveCtx, updated); err != nil {
		return "", errors.NewAppError(errors.ErrAuthFailure, "failed to store refreshed credential", err)
	}

	service.setState(userKey, StateAuthenticated)
	logger.Info("CredentialService:refreshCredential:Success", "user_key", userKey, "expires_at", updated.TokenExpiresAt)
	return token.AccessToken, nil
}

// Invalidate clears the stored credential after an authorization rejection
// from the remote calendar. The user must reconnect.
func (service *CredentialService) Invalidate(ctx context.Context, userKey string) {
	if err := service.repo.ClearCredential(ctx, userKey, ProviderGoogle); err != nil {
		logger.Error("CredentialService:Invalidate:ClearCredential:Error", "error", err, "user_key", userKey)
	}
	service.setState(userKey, StateExpired)
}

// Revoke clears the credential and best-effort notifies the provider. It
// never fails the caller.
func (service *CredentialService) Revoke(ctx context.Context, userKey string) {
	credential, err := service.repo.GetCredential(ctx, userKey, ProviderGoogle)
	if err != nil {
		logger.Error("CredentialService:Revoke:GetCredential:Error", "error", err, "user_key", userKey)
	}

	if err := service.repo.ClearCredential(ctx, userKey, ProviderGoogle); err != nil {
		logger.Error("CredentialService:Revoke:ClearCredential:Error", "error", err, "user_key", userKey)
	}
	service.setState(userKey, StateUnauthenticated)

	if credential == nil || credential.AccessToken == "" {
		return
	}

	form := url.Values{"token": {credential.AccessToken}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, service.revokeEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		logger.Warn("CredentialService:Revoke:NewRequest:Error", "error", err, "user_key", userKey)
		return
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := service.httpClient.Do(req)
	if err != nil {
		logger.Warn("CredentialService:Revoke:ProviderNotify:Error", "error", err, "user_key", userKey)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		logger.Warn("CredentialService:Revoke:ProviderNotify:Rejected", "status", resp.StatusCode, "user_key", userKey)
	}
}

// Status reports the connection state, deriving it from the stored credential
// when this process has not touched the user yet.
func (service *CredentialService) Status(ctx context.Context, userKey string) ConnState {
	service.mu.Lock()
	state, ok := service.states[userKey]
	service.mu.Unlock()
	if ok {
		return state
	}

	credential, err := service.repo.GetCredential(ctx, userKey, ProviderGoogle)
	if err != nil || credential == nil {
		return StateUnauthenticated
	}
	if credential.Valid(service.now()) {
		return StateAuthenticated
	}
	return StateExpired
}

func (service *CredentialService) credentialFromToken(userKey string, token *oauth2.Token) *entity.OAuthCredential {
	credential := &entity.OAuthCredential{
		UserKey:        userKey,
		Provider:       ProviderGoogle,
		AccessToken:    token.AccessToken,
		TokenExpiresAt: token.Expiry,
		IsActive:       true,
	}
	if token.RefreshToken != "" {
		refresh := token.RefreshToken
		credential.RefreshToken = &refresh
	}
	if granted, ok := token.Extra("scope").(string); ok && granted != "" {
		credential.Scopes = strings.Fields(granted)
	} else {
		credential.Scopes = googleScopes
	}
	return credential
}

func (service *CredentialService) setState(userKey string, state ConnState) {
	service.mu.Lock()
	service.states[userKey] = state
	service.mu.Unlock()
}

func (service *CredentialService) enterAuthorizing(ctx context.Context, userKey string) {
	prior := service.Status(ctx, userKey)
	service.mu.Lock()
	service.prevStates[userKey] = prior
	service.states[userKey] = StateAuthorizing
	service.mu.Unlock()
}

func (service *CredentialService) restorePriorState(userKey string) {
	service.mu.Lock()
	if prior, ok := service.prevStates[userKey]; ok {
		service.states[userKey] = prior
		delete(service.prevStates, userKey)
	} else {
		service.states[userKey] = StateUnauthenticated
	}
	service.mu.Unlock()
}
