package push

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/FikranSE/bookingapp/config"
)

var ErrInvalidToken = errors.New("invalid expo push token")

type Message struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

type expoRequest struct {
	To    string            `json:"to"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Sound string            `json:"sound"`
	Data  map[string]string `json:"data,omitempty"`
}

type expoResponse struct {
	Data struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	} `json:"data"`
	Errors []struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

// ExpoSender posts notifications to the Expo push API.
type ExpoSender struct {
	url         string
	accessToken string
	client      *http.Client
}

func NewExpoSender(cfg config.PushConfig) *ExpoSender {
	return &ExpoSender{
		url:         cfg.ExpoURL,
		accessToken: cfg.AccessToken,
		client:      &http.Client{Timeout: cfg.Timeout},
	}
}

// ValidToken reports whether token looks like an Expo push token.
func ValidToken(token string) bool {
	return (strings.HasPrefix(token, "ExponentPushToken[") || strings.HasPrefix(token, "ExpoPushToken[")) &&
		strings.HasSuffix(token, "]")
}

func (s *ExpoSender) Send(ctx context.Context, token string, msg Message) error {
	if !ValidToken(token) {
		return fmt.Errorf("%w: %q", ErrInvalidToken, token)
	}

	payload, err := json.Marshal(expoRequest{To: token, Title: msg.Title, Body: msg.Body, Sound: "default", Data: msg.Data})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if s.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+s.accessToken)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("expo push: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read expo response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("expo push: unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out expoResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return fmt.Errorf("decode expo response: %w", err)
	}
	if len(out.Errors) > 0 {
		return fmt.Errorf("expo push: %s: %s", out.Errors[0].Code, out.Errors[0].Message)
	}
	if out.Data.Status == "error" {
		return fmt.Errorf("expo push: %s", out.Data.Message)
	}
	return nil
}
