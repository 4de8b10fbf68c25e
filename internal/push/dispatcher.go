package push

import (
	"context"
	"time"

	"github.com/feedhound/marketnews/internal/logger"
	"github.com/feedhound/marketnews/internal/metrics"
	"github.com/feedhound/marketnews/internal/store"
)

// DefaultBatchSize is the provider's maximum messages per request.
const DefaultBatchSize = 100

// TokenStore is the slice of store.Store the dispatcher needs.
type TokenStore interface {
	DeactivateToken(ctx context.Context, token string) error
	TouchToken(ctx context.Context, token string, at time.Time) error
}

// Summary tallies one dispatch run.
type Summary struct {
	Sent        int
	Failed      int
	Suppressed  int
	Deactivated int
}

// Dispatcher fans a digest notification out to a user's devices, honoring
// their notification preferences.
type Dispatcher struct {
	sink      Sink
	tokens    TokenStore
	batchSize int
	now       func() time.Time
}

func NewDispatcher(sink Sink, tokens TokenStore) *Dispatcher {
	return &Dispatcher{
		sink:      sink,
		tokens:    tokens,
		batchSize: DefaultBatchSize,
		now:       time.Now,
	}
}

// Send delivers one notification to every active token, unless the user's
// preferences suppress it. Suppression applies to the whole run: category
// disabled, inside quiet hours, or weekends without weekend updates.
func (d *Dispatcher) Send(ctx context.Context, tokens []store.DeviceToken, pref store.Preference, category, title, body string, data map[string]string) Summary {
	var sum Summary

	active := make([]store.DeviceToken, 0, len(tokens))
	for _, t := range tokens {
		if t.Active {
			active = append(active, t)
		}
	}
	if len(active) == 0 {
		return sum
	}

	if reason := suppressionReason(pref, category, d.now()); reason != "" {
		sum.Suppressed = len(active)
		for range active {
			metrics.Global.IncrementNotificationsSuppressed()
		}
		logger.Logger.Info("notification suppressed",
			"user", pref.UserID,
			"reason", reason,
			"devices", len(active))
		return sum
	}

	messages := make([]Message, len(active))
	for i, t := range active {
		messages[i] = Message{To: t.Token, Title: title, Body: body, Data: data}
	}

	for start := 0; start < len(messages); start += d.batchSize {
		end := start + d.batchSize
		if end > len(messages) {
			end = len(messages)
		}
		batch := messages[start:end]

		receipts, err := d.sink.SendBatch(ctx, batch)
		if err != nil {
			// Whole batch failed; count every message and move on.
			sum.Failed += len(batch)
			for range batch {
				metrics.Global.IncrementNotificationsFailed()
			}
			logger.Logger.Error("push batch failed",
				"user", pref.UserID,
				"batch_size", len(batch),
				"error", err)
			continue
		}

		for _, r := range receipts {
			if r.Err == nil {
				sum.Sent++
				metrics.Global.IncrementNotificationsSent()
				if err := d.tokens.TouchToken(ctx, r.To, d.now()); err != nil {
					logger.Logger.Warn("failed to touch token", "error", err)
				}
				continue
			}

			sum.Failed++
			metrics.Global.IncrementNotificationsFailed()

			if NotRegistered(r.Err) {
				if err := d.tokens.DeactivateToken(ctx, r.To); err != nil {
					logger.Logger.Warn("failed to deactivate token", "error", err)
					continue
				}
				sum.Deactivated++
				metrics.Global.IncrementTokensDeactivated()
				logger.Logger.Info("deactivated dead device token", "user", pref.UserID)
			}
		}
	}

	return sum
}

// suppressionReason returns a non-empty reason when the notification must
// not be sent now.
func suppressionReason(pref store.Preference, category string, now time.Time) string {
	if category != "" && pref.Categories != nil {
		if enabled, ok := pref.Categories[category]; ok && !enabled {
			return "category disabled"
		}
	}

	if pref.QuietStart != nil && pref.QuietEnd != nil {
		if inQuietHours(*pref.QuietStart, *pref.QuietEnd, now.Hour()) {
			return "quiet hours"
		}
	}

	wd := now.Weekday()
	if (wd == time.Saturday || wd == time.Sunday) && !pref.WeekendUpdates {
		return "weekend"
	}

	return ""
}

// inQuietHours handles windows that wrap midnight, e.g. 22..6.
func inQuietHours(start, end, hour int) bool {
	if start == end {
		return false
	}
	if start < end {
		return hour >= start && hour < end
	}
	return hour >= start || hour < end
}
