package service

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"go-agenda-sync/core/constants"
	"go-agenda-sync/core/errors"
	"go-agenda-sync/core/logger"
	authService "go-agenda-sync/modules/auth/service"
	"go-agenda-sync/modules/calendar/dto"
	"go-agenda-sync/modules/calendar/entity"
	"go-agenda-sync/modules/calendar/mapper"
)

const googleCalendarAPIBase = "https://www.googleapis.com/calendar/v3"

// SyncWindow bounds a remote fetch: [Start, End).
type SyncWindow struct {
	Start time.Time
	End   time.Time
}

// googleClient is the wire-protocol client for the remote calendar. Every
// call borrows a token from the credential service first; it never caches
// one across calls.
type googleClient struct {
	credentials authService.CredentialServiceInterface
	httpClient  *http.Client
	apiBase     string
}

func newGoogleClient(credentials authService.CredentialServiceInterface) *googleClient {
	return &googleClient{
		credentials: credentials,
		httpClient:  &http.Client{Timeout: constants.HTTPClientTimeout},
		apiBase:     googleCalendarAPIBase,
	}
}

// FetchWindow lists the remote events inside window, with recurring
// instances expanded server-side and chronological ordering requested.
func (c *googleClient) FetchWindow(ctx context.Context, userKey string, window SyncWindow) ([]entity.CalendarEvent, *errors.AppError) {
	token, appErr := c.credentials.EnsureValid(ctx, userKey)
	if appErr != nil {
		return nil, appErr
	}

	body, appErr := c.withAuthRetry(ctx, userKey, token, func(tok string) ([]byte, int, *errors.AppError) {
		return c.doRequest(ctx, http.MethodGet, c.eventsURL(window), tok, nil)
	})
	if appErr != nil {
		return nil, appErr
	}

	var list dto.GoogleEventList
	if err := json.Unmarshal(body, &list); err != nil {
		logger.Error("GoogleClient:FetchWindow:Unmarshal:Error", "error", err, "user_key", userKey)
		return nil, errors.NewAppError(errors.ErrRemoteRejected, "remote calendar returned an unexpected payload", err)
	}

	events := make([]entity.CalendarEvent, 0, len(list.Items))
	for _, item := range list.Items {
		event, err := mapper.ToCalendarEvent(item)
		if err != nil {
			logger.Error("GoogleClient:FetchWindow:MapEvent:Error", "error", err, "user_key", userKey)
			return nil, errors.NewAppError(errors.ErrRemoteRejected, "remote calendar returned a malformed event", err)
		}
		events = append(events, event)
	}
	return events, nil
}

// PushEvent submits a locally created event and returns the provider-assigned
// external id.
func (c *googleClient) PushEvent(ctx context.Context, userKey string, event entity.CalendarEvent, location *time.Location) (string, *errors.AppError) {
	token, appErr := c.credentials.EnsureValid(ctx, userKey)
	if appErr != nil {
		return "", appErr
	}

	payload, err := mapper.ToGoogleCreateRequest(event, location)
	if err != nil {
		return "", errors.NewAppError(errors.ErrInvalidInput, "event has invalid date or time", err)
	}
	requestBody, err := json.Marshal(payload)
	if err != nil {
		return "", errors.NewAppError(errors.ErrInternalServer, "failed to encode event", err)
	}

	body, appErr := c.withAuthRetry(ctx, userKey, token, func(tok string) ([]byte, int, *errors.AppError) {
		return c.doRequest(ctx, http.MethodPost, c.apiBase+"/calendars/primary/events", tok, requestBody)
	})
	if appErr != nil {
		return "", appErr
	}

	var created dto.GoogleCalendarEvent
	if err := json.Unmarshal(body, &created); err != nil || created.ID == "" {
		logger.Error("GoogleClient:PushEvent:Unmarshal:Error", "error", err, "user_key", userKey)
		return "", errors.NewAppError(errors.ErrRemoteRejected, "remote calendar returned an unexpected payload", err)
	}
	return created.ID, nil
}

func (c *googleClient) eventsURL(window SyncWindow) string {
	params := url.Values{}
	params.Add("timeMin", window.Start.Format(time.RFC3339))
	params.Add("timeMax", window.End.Format(time.RFC3339))
	params.Add("singleEvents", "true")
	params.Add("orderBy", "startTime")
	return c.apiBase + "/calendars/primary/events?" + params.Encode()
}

// withAuthRetry runs the request once and, on an authorization rejection,
// permits a single retry immediately after a successful forced refresh.
// There is no retry loop: a second rejection clears the credential and fails
// with the expired-auth kind.
func (c *googleClient) withAuthRetry(ctx context.Context, userKey string, token string, attempt func(string) ([]byte, int, *errors.AppError)) ([]byte, *errors.AppError) {
	body, status, appErr := attempt(token)
	if appErr != nil {
		return nil, appErr
	}
	if !isAuthRejection(status, body) {
		return c.checkRemoteStatus(userKey, body, status)
	}

	refreshed, refreshErr := c.credentials.Refresh(ctx, userKey)
	if refreshErr != nil {
		c.credentials.Invalidate(ctx, userKey)
		return nil, errors.NewAppError(errors.ErrAuthExpired, "calendar authorization expired", refreshErr)
	}

	body, status, appErr = attempt(refreshed)
	if appErr != nil {
		return nil, appErr
	}
	if isAuthRejection(status, body) {
		c.credentials.Invalidate(ctx, userKey)
		return nil, errors.NewAppError(errors.ErrAuthExpired, "calendar authorization expired", nil)
	}
	return c.checkRemoteStatus(userKey, body, status)
}

func (c *googleClient) checkRemoteStatus(userKey string, body []byte, status int) ([]byte, *errors.AppError) {
	if status >= 200 && status < 300 {
		return body, nil
	}
	remoteErr := decodeRemoteError(body)
	logger.Error("GoogleClient:RemoteRejected", "status", status, "remote_status", remoteErr.Status, "remote_message", remoteErr.Message, "user_key", userKey)
	return nil, errors.NewAppError(errors.ErrRemoteRejected, "remote calendar rejected the request", nil)
}

func (c *googleClient) doRequest(ctx context.Context, method string, requestURL string, token string, requestBody []byte) ([]byte, int, *errors.AppError) {
	var reader io.Reader
	if requestBody != nil {
		reader = bytes.NewReader(requestBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, requestURL, reader)
	if err != nil {
		logger.Error("GoogleClient:doRequest:NewRequest:Error", "error", err)
		return nil, 0, errors.NewAppError(errors.ErrInternalServer, "failed to create request", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if requestBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Error("GoogleClient:doRequest:Do:Error", "error", err)
		return nil, 0, errors.NewAppError(errors.ErrNetworkFailure, "could not reach the remote calendar", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.Error("GoogleClient:doRequest:ReadBody:Error", "error", err)
		return nil, 0, errors.NewAppError(errors.ErrNetworkFailure, "failed to read remote response", err)
	}
	return body, resp.StatusCode, nil
}

func isAuthRejection(status int, body []byte) bool {
	if status < 400 {
		return false
	}
	if status == http.StatusUnauthorized {
		return true
	}
	remoteErr := decodeRemoteError(body)
	return remoteErr.Code == http.StatusUnauthorized || remoteErr.Status == "UNAUTHENTICATED"
}

func decodeRemoteError(body []byte) dto.GoogleError {
	var envelope dto.GoogleErrorResponse
	_ = json.Unmarshal(body, &envelope)
	return envelope.Error
}
