package push

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/feedhound/marketnews/internal/store"
)

type recordingSink struct {
	batches [][]Message
	reject  map[string]string // token -> error code
	fail    error
}

func (s *recordingSink) SendBatch(_ context.Context, batch []Message) ([]Receipt, error) {
	s.batches = append(s.batches, batch)
	if s.fail != nil {
		return nil, s.fail
	}
	receipts := make([]Receipt, len(batch))
	for i, m := range batch {
		receipts[i] = Receipt{To: m.To}
		if code, ok := s.reject[m.To]; ok {
			receipts[i].Err = &DeliveryError{Code: code, Message: "rejected"}
		}
	}
	return receipts, nil
}

type tokenRecorder struct {
	deactivated []string
	touched     []string
}

func (r *tokenRecorder) DeactivateToken(_ context.Context, token string) error {
	r.deactivated = append(r.deactivated, token)
	return nil
}

func (r *tokenRecorder) TouchToken(_ context.Context, token string, _ time.Time) error {
	r.touched = append(r.touched, token)
	return nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// Monday 2026-03-02 10:00 UTC.
var weekdayMorning = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func activeTokens(n int) []store.DeviceToken {
	out := make([]store.DeviceToken, n)
	for i := range out {
		out[i] = store.DeviceToken{
			Token:  fmt.Sprintf("ExponentPushToken[%d]", i),
			UserID: "u1",
			Active: true,
		}
	}
	return out
}

func TestSendBatchesOfAtMostHundred(t *testing.T) {
	sink := &recordingSink{}
	rec := &tokenRecorder{}
	d := NewDispatcher(sink, rec)
	d.now = fixedClock(weekdayMorning)

	sum := d.Send(context.Background(), activeTokens(250), store.Preference{UserID: "u1"}, "", "Digest", "body", nil)

	if len(sink.batches) != 3 {
		t.Fatalf("got %d batches, want 3", len(sink.batches))
	}
	sizes := []int{len(sink.batches[0]), len(sink.batches[1]), len(sink.batches[2])}
	if sizes[0] != 100 || sizes[1] != 100 || sizes[2] != 50 {
		t.Errorf("batch sizes = %v, want [100 100 50]", sizes)
	}
	if sum.Sent != 250 {
		t.Errorf("sent = %d, want 250", sum.Sent)
	}
	if len(rec.touched) != 250 {
		t.Errorf("touched %d tokens, want 250", len(rec.touched))
	}
}

func TestSendSkipsInactiveTokens(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher(sink, &tokenRecorder{})
	d.now = fixedClock(weekdayMorning)

	tokens := activeTokens(2)
	tokens[1].Active = false

	sum := d.Send(context.Background(), tokens, store.Preference{UserID: "u1"}, "", "Digest", "body", nil)
	if sum.Sent != 1 {
		t.Errorf("sent = %d, want 1", sum.Sent)
	}
	if len(sink.batches) != 1 || len(sink.batches[0]) != 1 {
		t.Errorf("inactive token reached the sink")
	}
}

func TestQuietHoursSuppression(t *testing.T) {
	start, end := 22, 6
	pref := store.Preference{UserID: "u1", QuietStart: &start, QuietEnd: &end}

	cases := []struct {
		hour     int
		suppress bool
	}{
		{23, true},
		{2, true},
		{22, true},
		{6, false},
		{10, false},
		{21, false},
	}

	for _, tc := range cases {
		sink := &recordingSink{}
		d := NewDispatcher(sink, &tokenRecorder{})
		d.now = fixedClock(time.Date(2026, 3, 2, tc.hour, 30, 0, 0, time.UTC))

		sum := d.Send(context.Background(), activeTokens(1), pref, "", "Digest", "body", nil)
		if tc.suppress && sum.Suppressed != 1 {
			t.Errorf("hour %d: expected suppression, got %+v", tc.hour, sum)
		}
		if !tc.suppress && sum.Sent != 1 {
			t.Errorf("hour %d: expected delivery, got %+v", tc.hour, sum)
		}
	}
}

func TestWeekendSuppression(t *testing.T) {
	saturday := time.Date(2026, 3, 7, 10, 0, 0, 0, time.UTC)

	sink := &recordingSink{}
	d := NewDispatcher(sink, &tokenRecorder{})
	d.now = fixedClock(saturday)

	sum := d.Send(context.Background(), activeTokens(1), store.Preference{UserID: "u1"}, "", "Digest", "body", nil)
	if sum.Suppressed != 1 {
		t.Fatalf("expected weekend suppression, got %+v", sum)
	}

	d.now = fixedClock(saturday)
	sum = d.Send(context.Background(), activeTokens(1), store.Preference{UserID: "u1", WeekendUpdates: true}, "", "Digest", "body", nil)
	if sum.Sent != 1 {
		t.Errorf("weekend updates enabled: expected delivery, got %+v", sum)
	}
}

func TestCategorySuppression(t *testing.T) {
	pref := store.Preference{
		UserID:     "u1",
		Categories: map[string]bool{"commodities": false, "markets": true},
	}

	sink := &recordingSink{}
	d := NewDispatcher(sink, &tokenRecorder{})
	d.now = fixedClock(weekdayMorning)

	if sum := d.Send(context.Background(), activeTokens(1), pref, "commodities", "Digest", "body", nil); sum.Suppressed != 1 {
		t.Errorf("disabled category: got %+v", sum)
	}
	if sum := d.Send(context.Background(), activeTokens(1), pref, "markets", "Digest", "body", nil); sum.Sent != 1 {
		t.Errorf("enabled category: got %+v", sum)
	}
	// Unknown categories default to enabled.
	if sum := d.Send(context.Background(), activeTokens(1), pref, "weather", "Digest", "body", nil); sum.Sent != 1 {
		t.Errorf("unknown category: got %+v", sum)
	}
}

func TestDeadTokenDeactivated(t *testing.T) {
	sink := &recordingSink{
		reject: map[string]string{"ExponentPushToken[0]": ErrCodeNotRegistered},
	}
	rec := &tokenRecorder{}
	d := NewDispatcher(sink, rec)
	d.now = fixedClock(weekdayMorning)

	sum := d.Send(context.Background(), activeTokens(2), store.Preference{UserID: "u1"}, "", "Digest", "body", nil)
	if sum.Sent != 1 || sum.Failed != 1 || sum.Deactivated != 1 {
		t.Fatalf("summary = %+v", sum)
	}
	if len(rec.deactivated) != 1 || rec.deactivated[0] != "ExponentPushToken[0]" {
		t.Errorf("deactivated = %v", rec.deactivated)
	}
}

func TestTransientRejectionNotDeactivated(t *testing.T) {
	sink := &recordingSink{
		reject: map[string]string{"ExponentPushToken[0]": "MessageRateExceeded"},
	}
	rec := &tokenRecorder{}
	d := NewDispatcher(sink, rec)
	d.now = fixedClock(weekdayMorning)

	sum := d.Send(context.Background(), activeTokens(1), store.Preference{UserID: "u1"}, "", "Digest", "body", nil)
	if sum.Failed != 1 || sum.Deactivated != 0 {
		t.Fatalf("summary = %+v", sum)
	}
	if len(rec.deactivated) != 0 {
		t.Errorf("deactivated = %v, want none", rec.deactivated)
	}
}

func TestWholeBatchFailureCounted(t *testing.T) {
	sink := &recordingSink{fail: errors.New("network down")}
	d := NewDispatcher(sink, &tokenRecorder{})
	d.now = fixedClock(weekdayMorning)

	sum := d.Send(context.Background(), activeTokens(3), store.Preference{UserID: "u1"}, "", "Digest", "body", nil)
	if sum.Failed != 3 || sum.Sent != 0 {
		t.Fatalf("summary = %+v", sum)
	}
}
