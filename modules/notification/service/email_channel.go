package service

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"

	"go-agenda-sync/core/config"
	"go-agenda-sync/core/constants"
	"go-agenda-sync/core/errors"
	"go-agenda-sync/core/logger"
	reminderEntity "go-agenda-sync/modules/reminder/entity"
)

// emailChannel sends a templated email through the configured provider.
// When the provider credentials are absent the channel reports itself
// unconfigured once and stays disabled for the rest of the session.
type emailChannel struct {
	cfg        config.EmailConfig
	httpClient *http.Client

	warnOnce sync.Once
}

func newEmailChannel(cfg config.EmailConfig) *emailChannel {
	return &emailChannel{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: constants.ProviderTimeout},
	}
}

func (c *emailChannel) Name() Channel {
	return ChannelEmail
}

func (c *emailChannel) Enabled(reminder reminderEntity.Reminder) bool {
	return reminder.EmailEnabled && reminder.Email != ""
}

type emailSendRequest struct {
	ServiceID      string            `json:"service_id"`
	TemplateID     string            `json:"template_id"`
	UserID         string            `json:"user_id"`
	TemplateParams map[string]string `json:"template_params"`
}

func (c *emailChannel) Send(ctx context.Context, userKey string, reminder reminderEntity.Reminder) Outcome {
	// Configuration is captured at construction: an unconfigured channel
	// stays unconfigured for the whole session and is skipped, not retried.
	if !c.cfg.Configured() {
		c.warnOnce.Do(func() {
			logger.Warn("EmailChannel:Disabled", "reason", "email provider not configured")
		})
		return Outcome{OK: false, Code: errors.ErrChannelUnconfigured, Detail: "email provider not configured"}
	}

	payload := emailSendRequest{
		ServiceID:  c.cfg.ServiceID,
		TemplateID: c.cfg.TemplateID,
		UserID:     c.cfg.PublicKey,
		TemplateParams: map[string]string{
			"to_email":    reminder.Email,
			"from_name":   c.cfg.SenderName,
			"title":       reminder.Title,
			"description": reminder.Description,
			"date":        reminder.Date,
			"time":        reminder.Time,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Outcome{OK: false, Code: errors.ErrChannelFailure, Detail: "failed to encode email request"}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIEndpoint, bytes.NewReader(body))
	if err != nil {
		logger.Error("EmailChannel:Send:NewRequest:Error", "error", err, "user_key", userKey)
		return Outcome{OK: false, Code: errors.ErrChannelFailure, Detail: "failed to create email request"}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Error("EmailChannel:Send:Do:Error", "error", err, "user_key", userKey, "reminder", reminder.LocalID)
		return Outcome{OK: false, Code: errors.ErrChannelFailure, Detail: "email provider unreachable"}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		logger.Error("EmailChannel:Send:Rejected", "status", resp.StatusCode, "body", string(respBody), "user_key", userKey)
		return Outcome{OK: false, Code: errors.ErrChannelFailure, Detail: string(respBody)}
	}

	return Outcome{OK: true}
}
