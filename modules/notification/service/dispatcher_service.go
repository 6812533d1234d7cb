package service

import (
	"context"
	"sync"

	"go-agenda-sync/core/config"
	"go-agenda-sync/core/errors"
	"go-agenda-sync/core/logger"
	"go-agenda-sync/modules/notification/repository"
	reminderEntity "go-agenda-sync/modules/reminder/entity"
)

type Channel string

const (
	ChannelLocal Channel = "local"
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// Outcome is one channel's delivery result. Detail carries a provider
// reference (message id) on success.
type Outcome struct {
	OK     bool             `json:"ok"`
	Code   errors.ErrorCode `json:"code,omitempty"`
	Detail string           `json:"detail,omitempty"`
}

type DispatcherInterface interface {
	Dispatch(ctx context.Context, userKey string, reminder reminderEntity.Reminder) map[Channel]Outcome
}

// deliveryChannel is one independent delivery mechanism. Enabled gates on the
// reminder's per-channel settings; Send must never panic or block past its
// own timeout, and its failure is isolated from every other channel.
type deliveryChannel interface {
	Name() Channel
	Enabled(reminder reminderEntity.Reminder) bool
	Send(ctx context.Context, userKey string, reminder reminderEntity.Reminder) Outcome
}

// Dispatcher fans a due reminder out to all enabled channels in parallel and
// reports the per-channel outcome. Whether the reminder counts as processed
// is the scheduler's decision, not the dispatcher's: the attempt having run
// is what matters.
type Dispatcher struct {
	channels []deliveryChannel
}

func NewDispatcher(repo repository.NotificationRepositoryInterface) *Dispatcher {
	cfg, ok := config.GetSafe()
	if !ok {
		cfg = &config.Config{}
	}
	return &Dispatcher{
		channels: []deliveryChannel{
			newLocalChannel(repo),
			newEmailChannel(cfg.Email),
			newSMSChannel(cfg.SMS),
		},
	}
}

// NewDispatcherWithChannels is a constructor for tests and alternative
// channel sets.
func NewDispatcherWithChannels(channels ...deliveryChannel) *Dispatcher {
	return &Dispatcher{channels: channels}
}

func (d *Dispatcher) Dispatch(ctx context.Context, userKey string, reminder reminderEntity.Reminder) map[Channel]Outcome {
	outcomes := make(map[Channel]Outcome, len(d.channels))

	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, ch := range d.channels {
		if !ch.Enabled(reminder) {
			continue
		}
		wg.Add(1)
		go func(ch deliveryChannel) {
			defer wg.Done()
			outcome := ch.Send(ctx, userKey, reminder)
			mu.Lock()
			outcomes[ch.Name()] = outcome
			mu.Unlock()
		}(ch)
	}
	wg.Wait()

	for name, outcome := range outcomes {
		if outcome.OK {
			logger.Info("Dispatcher:Dispatch:ChannelOK", "channel", name, "user_key", userKey, "reminder", reminder.LocalID, "detail", outcome.Detail)
		} else {
			logger.Warn("Dispatcher:Dispatch:ChannelFailed", "channel", name, "code", outcome.Code, "user_key", userKey, "reminder", reminder.LocalID, "detail", outcome.Detail)
		}
	}
	return outcomes
}
