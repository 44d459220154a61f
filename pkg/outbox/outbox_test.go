package outbox

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
)

type captureProducer struct {
	messages []kafka.Message
	err      error
}

func (p *captureProducer) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, msgs...)
	return nil
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMemoryStoreLockBatchLeasesOnce(t *testing.T) {
	s := NewMemoryStore()
	s.Append("sale", "sale-1", "SaleCreated", []byte(`{}`), "")
	s.Append("sale", "sale-2", "SaleCreated", []byte(`{}`), "")
	s.Append("product", "product-1", "StockAdjusted", []byte(`{}`), "")
	ctx := context.Background()

	batch, err := s.LockBatch(ctx, "relay-a", 2, time.Second)
	if err != nil {
		t.Fatalf("LockBatch: %v", err)
	}
	if len(batch) != 2 {
		t.Fatalf("batch size = %d, want 2", len(batch))
	}
	if batch[0].ID != 1 || batch[1].ID != 2 {
		t.Errorf("batch not oldest first: %d, %d", batch[0].ID, batch[1].ID)
	}

	// A second relay must only see what the first did not lease.
	second, err := s.LockBatch(ctx, "relay-b", 10, time.Second)
	if err != nil {
		t.Fatalf("LockBatch: %v", err)
	}
	if len(second) != 1 || second[0].AggregateID != "product-1" {
		t.Errorf("second batch = %+v", second)
	}
}

func TestMemoryStoreMarkSentAndFailed(t *testing.T) {
	s := NewMemoryStore()
	s.Append("sale", "sale-1", "SaleCreated", []byte(`{}`), "")
	s.Append("sale", "sale-2", "PaymentRecorded", []byte(`{}`), "")
	ctx := context.Background()

	batch, _ := s.LockBatch(ctx, "relay-a", 10, time.Second)
	if err := s.MarkSent(ctx, []int64{batch[0].ID}); err != nil {
		t.Fatal(err)
	}
	if err := s.MarkFailed(ctx, batch[1].ID, "broker unreachable"); err != nil {
		t.Fatal(err)
	}

	all := s.All()
	if all[0].Status != StatusSent {
		t.Errorf("first event status = %s", all[0].Status)
	}
	if all[1].Status != StatusFailed || all[1].RetryCount != 1 || all[1].LastError == nil {
		t.Errorf("second event: %+v", all[1])
	}
	if pending := s.Pending(); len(pending) != 0 {
		t.Errorf("pending after resolution: %d", len(pending))
	}
}

func TestDispatcherMessageShape(t *testing.T) {
	producer := &captureProducer{}
	d := NewDispatcher(discard(), producer, "ledger.events")

	err := d.Dispatch(context.Background(), Event{
		ID:            7,
		AggregateType: "sale",
		AggregateID:   "sale-42",
		Type:          "SaleCreated",
		Payload:       []byte(`{"saleId":"sale-42"}`),
		Traceparent:   "00-abc-def-01",
	})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if len(producer.messages) != 1 {
		t.Fatalf("messages = %d", len(producer.messages))
	}

	msg := producer.messages[0]
	if msg.Topic != "ledger.events" {
		t.Errorf("topic = %s", msg.Topic)
	}
	// Keyed by aggregate id so one entity's events share a partition.
	if string(msg.Key) != "sale-42" {
		t.Errorf("key = %s", msg.Key)
	}
	headers := map[string]string{}
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	if headers["event_type"] != "SaleCreated" || headers["aggregate_type"] != "sale" || headers["traceparent"] != "00-abc-def-01" {
		t.Errorf("headers = %v", headers)
	}
}

func TestDispatcherOmitsEmptyTraceparent(t *testing.T) {
	producer := &captureProducer{}
	d := NewDispatcher(discard(), producer, "ledger.events")

	if err := d.Dispatch(context.Background(), Event{AggregateID: "sale-1", Type: "SaleCreated"}); err != nil {
		t.Fatal(err)
	}
	for _, h := range producer.messages[0].Headers {
		if h.Key == "traceparent" {
			t.Error("empty traceparent must not produce a header")
		}
	}
}

func TestDispatcherPropagatesProducerError(t *testing.T) {
	producer := &captureProducer{err: errors.New("broker unreachable")}
	d := NewDispatcher(discard(), producer, "ledger.events")

	if err := d.Dispatch(context.Background(), Event{AggregateID: "sale-1"}); err == nil {
		t.Error("producer error swallowed")
	}
}
