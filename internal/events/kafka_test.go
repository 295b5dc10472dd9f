package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap/zaptest"
)

type recordingWriter struct {
	msgs   []kafka.Message
	closed bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestPriceChangedMessage(t *testing.T) {
	w := &recordingWriter{}
	p := newKafkaPublisher(w, zaptest.NewLogger(t))
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return at }

	if err := p.PriceChanged(context.Background(), "abc", PriceChanged{OldPrice: 10, NewPrice: 8.5}); err != nil {
		t.Fatal(err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(w.msgs))
	}
	msg := w.msgs[0]
	if string(msg.Key) != "abc" {
		t.Fatalf("expected key abc, got %q", msg.Key)
	}

	var env Envelope
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		t.Fatal(err)
	}
	if env.Type != TypePriceChanged || env.ProductID != "abc" || !env.OccurredAt.Equal(at) || env.EventID == "" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
	var change PriceChanged
	if err := json.Unmarshal(env.Data, &change); err != nil {
		t.Fatal(err)
	}
	if change.OldPrice != 10 || change.NewPrice != 8.5 {
		t.Fatalf("unexpected payload: %+v", change)
	}
}

func TestItemsPurchasedSkipsEmpty(t *testing.T) {
	w := &recordingWriter{}
	p := newKafkaPublisher(w, zaptest.NewLogger(t))

	if err := p.ItemsPurchased(context.Background(), ItemsPurchased{}); err != nil {
		t.Fatal(err)
	}
	if len(w.msgs) != 0 {
		t.Fatalf("empty purchase should not be published")
	}

	err := p.ItemsPurchased(context.Background(), ItemsPurchased{Items: []PurchasedItem{{ProductID: "p1", Quantity: 2}, {ProductID: "p2", Quantity: 1}}})
	if err != nil {
		t.Fatal(err)
	}
	if len(w.msgs) != 1 || string(w.msgs[0].Key) != "p1" {
		t.Fatalf("unexpected messages: %+v", w.msgs)
	}

	if err := p.Close(); err != nil || !w.closed {
		t.Fatalf("close should reach the writer")
	}
}
