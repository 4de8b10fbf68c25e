// Package push delivers digest notifications to registered devices through
// the Expo push service.
package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/feedhound/marketnews/internal/retry"
)

// DefaultEndpoint is the Expo push API.
const DefaultEndpoint = "https://exp.host/--/api/v2/push/send"

// ErrCodeNotRegistered is the Expo error detail for tokens that no longer
// map to an installed app. These tokens must be deactivated, not retried.
const ErrCodeNotRegistered = "DeviceNotRegistered"

// Message is one push notification.
type Message struct {
	To    string            `json:"to"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

// Receipt reports per-message delivery. Err is nil on acceptance; a
// *DeliveryError carries the provider's error code.
type Receipt struct {
	To  string
	Err error
}

// DeliveryError is a per-token rejection from the push provider.
type DeliveryError struct {
	Code    string
	Message string
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("push delivery failed: %s (%s)", e.Message, e.Code)
}

// NotRegistered reports whether err marks a dead device token.
func NotRegistered(err error) bool {
	de, ok := err.(*DeliveryError)
	return ok && de.Code == ErrCodeNotRegistered
}

// Sink sends one batch of messages. Implementations must accept batches of
// up to 100 messages and return one receipt per message, in order.
type Sink interface {
	SendBatch(ctx context.Context, batch []Message) ([]Receipt, error)
}

// ExpoSink sends batches to the Expo push HTTP API.
type ExpoSink struct {
	endpoint string
	client   *http.Client
}

func NewExpoSink(endpoint string) *ExpoSink {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &ExpoSink{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

type expoTicket struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Details struct {
		Error string `json:"error,omitempty"`
	} `json:"details,omitempty"`
}

type expoResponse struct {
	Data []expoTicket `json:"data"`
}

func (s *ExpoSink) SendBatch(ctx context.Context, batch []Message) ([]Receipt, error) {
	payload, err := json.Marshal(batch)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal batch: %w", err)
	}

	var parsed expoResponse
	err = retry.WithRetry(ctx, retry.Config{MaxAttempts: 3, Delay: time.Second, Backoff: true}, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
		if err != nil {
			return retry.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")

		resp, err := s.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			io.Copy(io.Discard, resp.Body)
			return fmt.Errorf("push API error: status %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			io.Copy(io.Discard, resp.Body)
			return retry.Permanent(fmt.Errorf("push API error: status %d", resp.StatusCode))
		}

		return json.NewDecoder(resp.Body).Decode(&parsed)
	})
	if err != nil {
		return nil, err
	}

	if len(parsed.Data) != len(batch) {
		return nil, fmt.Errorf("push API returned %d tickets for %d messages", len(parsed.Data), len(batch))
	}

	receipts := make([]Receipt, len(batch))
	for i, ticket := range parsed.Data {
		receipts[i] = Receipt{To: batch[i].To}
		if ticket.Status != "ok" {
			receipts[i].Err = &DeliveryError{
				Code:    ticket.Details.Error,
				Message: ticket.Message,
			}
		}
	}
	return receipts, nil
}
