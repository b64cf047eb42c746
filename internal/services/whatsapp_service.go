package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"
)

// WhatsAppService delivers messages through the WhatsApp gateway the
// site uses for verification codes.
type WhatsAppService struct {
	baseURL string
	token   string
	sender  string
	client  *http.Client
}

// NewWhatsAppService creates a new WhatsAppService.
func NewWhatsAppService(baseURL, token, sender string) *WhatsAppService {
	return &WhatsAppService{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		sender:  sender,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type whatsAppMessage struct {
	To   string `json:"to"`
	From string `json:"from,omitempty"`
	Body string `json:"body"`
}

// SendMessage sends a text message to the given phone.
func (s *WhatsAppService) SendMessage(phone, text string) error {
	if s.token == "" {
		log.Println("[WhatsApp] gateway token not configured")
		return nil
	}

	msg := whatsAppMessage{
		To:   phone,
		From: s.sender,
		Body: text,
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, s.baseURL+"/messages/text", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.client.Do(req)
	if err != nil {
		log.Printf("[WhatsApp] failed to send message: %v", err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("[WhatsApp] unexpected status: %d", resp.StatusCode)
		return fmt.Errorf("whatsapp gateway returned status %d", resp.StatusCode)
	}

	return nil
}

// SendCode delivers a one-time verification code.
func (s *WhatsAppService) SendCode(phone, code string) error {
	return s.SendMessage(phone, fmt.Sprintf("Tumar Coffee: %s — ваш код подтверждения", code))
}
