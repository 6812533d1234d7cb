package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"go-agenda-sync/core/config"
	"go-agenda-sync/core/constants"
	"go-agenda-sync/core/errors"
	"go-agenda-sync/core/logger"
	reminderEntity "go-agenda-sync/modules/reminder/entity"
)

// smsChannel sends a text through the configured provider with Basic
// authentication and a form-encoded body.
type smsChannel struct {
	cfg        config.SMSConfig
	httpClient *http.Client

	warnOnce sync.Once
}

func newSMSChannel(cfg config.SMSConfig) *smsChannel {
	return &smsChannel{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: constants.ProviderTimeout},
	}
}

func (c *smsChannel) Name() Channel {
	return ChannelSMS
}

func (c *smsChannel) Enabled(reminder reminderEntity.Reminder) bool {
	return reminder.SMSEnabled && reminder.Phone != ""
}

type smsSendResponse struct {
	Sid     string `json:"sid"`
	Message string `json:"message"`
}

func (c *smsChannel) Send(ctx context.Context, userKey string, reminder reminderEntity.Reminder) Outcome {
	if !c.cfg.Configured() {
		c.warnOnce.Do(func() {
			logger.Warn("SMSChannel:Disabled", "reason", "sms provider not configured")
		})
		return Outcome{OK: false, Code: errors.ErrChannelUnconfigured, Detail: "sms provider not configured"}
	}

	text := fmt.Sprintf("Reminder: %s on %s at %s", reminder.Title, reminder.Date, reminder.Time)
	form := url.Values{
		"To":   {reminder.Phone},
		"From": {c.cfg.FromNumber},
		"Body": {text},
	}

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", c.cfg.APIEndpoint, c.cfg.AccountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		logger.Error("SMSChannel:Send:NewRequest:Error", "error", err, "user_key", userKey)
		return Outcome{OK: false, Code: errors.ErrChannelFailure, Detail: "failed to create sms request"}
	}
	req.SetBasicAuth(c.cfg.AccountSID, c.cfg.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Error("SMSChannel:Send:Do:Error", "error", err, "user_key", userKey, "reminder", reminder.LocalID)
		return Outcome{OK: false, Code: errors.ErrChannelFailure, Detail: "sms provider unreachable"}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	var parsed smsSendResponse
	_ = json.Unmarshal(body, &parsed)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := parsed.Message
		if detail == "" {
			detail = string(body)
		}
		logger.Error("SMSChannel:Send:Rejected", "status", resp.StatusCode, "provider_message", detail, "user_key", userKey)
		return Outcome{OK: false, Code: errors.ErrChannelFailure, Detail: detail}
	}

	return Outcome{OK: true, Detail: parsed.Sid}
}
