package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"time"

	"github.com/example/tumar/internal/authflow"
)

// CodeStore persists issued verification codes with their expiry.
type CodeStore interface {
	SetVerificationCode(ctx context.Context, phone, code string, expiresAt time.Time) error
}

// CodeGateway is the out-of-band delivery channel.
type CodeGateway interface {
	SendCode(phone, code string) error
}

// CodeDelivery issues one-time 4-digit codes: generate, persist,
// deliver. It satisfies the auth flow's sender contract.
type CodeDelivery struct {
	store   CodeStore
	gateway CodeGateway
	ttl     time.Duration
}

// NewCodeDelivery constructs a CodeDelivery with the given code TTL.
func NewCodeDelivery(store CodeStore, gateway CodeGateway, ttl time.Duration) *CodeDelivery {
	return &CodeDelivery{store: store, gateway: gateway, ttl: ttl}
}

// Send generates a fresh code, stores it and delivers it. Storing
// first means a delivered code is always claimable.
func (s *CodeDelivery) Send(ctx context.Context, phone string) error {
	code, err := generateCode()
	if err != nil {
		return errors.New("failed to generate verification code")
	}

	if err := s.store.SetVerificationCode(ctx, phone, code, time.Now().Add(s.ttl)); err != nil {
		return errors.New("failed to store verification code")
	}

	if err := s.gateway.SendCode(phone, code); err != nil {
		log.Printf("code delivery to %s failed: %v", phone, err)
		return errors.New(authflow.MsgDeliveryFailed)
	}

	return nil
}

// Resend reissues a new code and resets its expiry; the previous code
// becomes unreachable.
func (s *CodeDelivery) Resend(ctx context.Context, phone string) error {
	return s.Send(ctx, phone)
}

func generateCode() (string, error) {
	max := big.NewInt(10000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%04d", n.Int64()), nil
}
