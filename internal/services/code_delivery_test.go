package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/tumar/internal/authflow"
)

type memoryStore struct {
	phone     string
	code      string
	expiresAt time.Time
	err       error
}

func (s *memoryStore) SetVerificationCode(_ context.Context, phone, code string, expiresAt time.Time) error {
	if s.err != nil {
		return s.err
	}
	s.phone, s.code, s.expiresAt = phone, code, expiresAt
	return nil
}

type recordingGateway struct {
	phone string
	code  string
	err   error
}

func (g *recordingGateway) SendCode(phone, code string) error {
	if g.err != nil {
		return g.err
	}
	g.phone, g.code = phone, code
	return nil
}

func TestCodeDelivery_StoresThenDelivers(t *testing.T) {
	store := &memoryStore{}
	gateway := &recordingGateway{}
	delivery := NewCodeDelivery(store, gateway, 300*time.Second)

	if err := delivery.Send(context.Background(), "77771234567"); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	if len(store.code) != 4 {
		t.Fatalf("expected a 4-digit code, got %q", store.code)
	}
	for _, r := range store.code {
		if r < '0' || r > '9' {
			t.Fatalf("code must be numeric, got %q", store.code)
		}
	}
	if gateway.code != store.code {
		t.Fatalf("delivered code %q differs from stored %q", gateway.code, store.code)
	}
	if gateway.phone != "77771234567" {
		t.Fatalf("unexpected delivery target %q", gateway.phone)
	}
	if until := time.Until(store.expiresAt); until < 295*time.Second || until > 305*time.Second {
		t.Fatalf("expected roughly 300s expiry, got %v", until)
	}
}

func TestCodeDelivery_GatewayFailure(t *testing.T) {
	store := &memoryStore{}
	gateway := &recordingGateway{err: errors.New("timeout")}
	delivery := NewCodeDelivery(store, gateway, time.Minute)

	err := delivery.Send(context.Background(), "77771234567")
	if err == nil {
		t.Fatal("expected an error")
	}
	if err.Error() != authflow.MsgDeliveryFailed {
		t.Fatalf("expected fallback message, got %q", err)
	}
}

func TestCodeDelivery_StoreFailureSkipsDelivery(t *testing.T) {
	store := &memoryStore{err: errors.New("db down")}
	gateway := &recordingGateway{}
	delivery := NewCodeDelivery(store, gateway, time.Minute)

	if err := delivery.Send(context.Background(), "77771234567"); err == nil {
		t.Fatal("expected an error")
	}
	if gateway.code != "" {
		t.Fatal("an unstored code must not be delivered")
	}
}
