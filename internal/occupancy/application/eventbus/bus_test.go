package eventbus

import (
	"context"
	"errors"
	"testing"
)

type passDone struct {
	Locations int
}

func TestInMemoryBus_TypedDelivery(t *testing.T) {
	bus := NewInMemoryBus()
	var got []int
	On(bus, func(_ context.Context, evt passDone) error {
		got = append(got, evt.Locations)
		return nil
	})
	On(bus, func(_ context.Context, evt string) error {
		t.Fatalf("string handler must not see passDone")
		return nil
	})

	if err := bus.Publish(context.Background(), passDone{Locations: 3}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := bus.Publish(context.Background(), &passDone{Locations: 4}); !errors.Is(err, ErrInvalidEventType) {
		t.Fatalf("expected pointer event to reach typed handler as invalid type, got %v", err)
	}
	if len(got) != 1 || got[0] != 3 {
		t.Fatalf("unexpected deliveries: %v", got)
	}
}

func TestInMemoryBus_FirstErrorWins(t *testing.T) {
	bus := NewInMemoryBus()
	first := errors.New("first")
	calls := 0
	bus.Subscribe(TypeOf[passDone](), func(context.Context, any) error { calls++; return first })
	bus.Subscribe(TypeOf[passDone](), func(context.Context, any) error { calls++; return errors.New("second") })

	if err := bus.Publish(context.Background(), passDone{}); !errors.Is(err, first) {
		t.Fatalf("expected first error, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected both handlers to run, got %d", calls)
	}
	if err := bus.Publish(context.Background(), nil); !errors.Is(err, ErrNilEvent) {
		t.Fatalf("expected ErrNilEvent, got %v", err)
	}
}
