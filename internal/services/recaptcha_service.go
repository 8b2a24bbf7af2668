package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Olwin8/242034Y-FreshFarmMarket/internal/config"
)

// BotVerifier checks an anti-bot token collected by the client.
type BotVerifier interface {
	Verify(ctx context.Context, token, remoteIP, expectedAction string) (bool, float64, error)
}

// RecaptchaService verifies reCAPTCHA v3 tokens against the siteverify
// endpoint.
type RecaptchaService struct {
	httpClient *http.Client
	cfg        config.RecaptchaConfig
}

func NewRecaptchaService(cfg config.RecaptchaConfig) *RecaptchaService {
	return &RecaptchaService{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		cfg:        cfg,
	}
}

type recaptchaVerifyResponse struct {
	Success    bool     `json:"success"`
	Score      float64  `json:"score"`
	Action     string   `json:"action"`
	Hostname   string   `json:"hostname"`
	ErrorCodes []string `json:"error-codes"`
}

func (s *RecaptchaService) Verify(ctx context.Context, token, remoteIP, expectedAction string) (bool, float64, error) {
	if !s.cfg.Enabled {
		return true, 0, nil
	}
	if strings.TrimSpace(token) == "" {
		return false, 0, errors.New("missing reCAPTCHA token")
	}
	if s.cfg.SecretKey == "" {
		return false, 0, errors.New("reCAPTCHA secret key not configured")
	}

	form := url.Values{}
	form.Set("secret", s.cfg.SecretKey)
	form.Set("response", token)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.VerifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return false, 0, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return false, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, 0, err
	}

	var result recaptchaVerifyResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return false, 0, err
	}

	if !result.Success {
		return false, result.Score, errors.New("reCAPTCHA verification failed")
	}
	if result.Action != "" && !strings.EqualFold(result.Action, expectedAction) {
		return false, result.Score, errors.New("reCAPTCHA action mismatch")
	}
	if result.Score < s.cfg.MinScore {
		return false, result.Score, errors.New("reCAPTCHA score too low")
	}

	return true, result.Score, nil
}
