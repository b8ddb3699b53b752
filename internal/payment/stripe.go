package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultStripeBaseURL = "https://api.stripe.com"

// Stripe implements Provider against the Stripe payment intents API.
type Stripe struct {
	SecretKey string
	// BaseURL overrides the Stripe API host, used in tests.
	BaseURL string
	Client  *http.Client
}

type stripeIntentResponse struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Error        *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// CreateIntent opens a payment intent for the given amount in minor units.
func (s Stripe) CreateIntent(ctx context.Context, amount int64, currency string) (Intent, error) {
	if strings.TrimSpace(s.SecretKey) == "" {
		return Intent{}, errors.New("stripe secret key is not configured")
	}
	if amount <= 0 {
		return Intent{}, errors.New("amount must be positive")
	}
	currency = strings.ToLower(strings.TrimSpace(currency))
	if currency == "" {
		currency = "usd"
	}

	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amount, 10))
	form.Set("currency", currency)
	form.Set("automatic_payment_methods[enabled]", "true")

	base := s.BaseURL
	if base == "" {
		base = defaultStripeBaseURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(base, "/")+"/v1/payment_intents", strings.NewReader(form.Encode()))
	if err != nil {
		return Intent{}, err
	}
	req.Header.Set("Authorization", "Bearer "+s.SecretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	client := s.Client
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return Intent{}, fmt.Errorf("stripe request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Intent{}, fmt.Errorf("stripe response: %w", err)
	}
	var decoded stripeIntentResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return Intent{}, fmt.Errorf("stripe response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := "payment intent creation failed"
		if decoded.Error != nil && decoded.Error.Message != "" {
			message = decoded.Error.Message
		}
		return Intent{}, fmt.Errorf("stripe: %s (status %d)", message, resp.StatusCode)
	}
	if decoded.ID == "" || decoded.ClientSecret == "" {
		return Intent{}, errors.New("stripe: incomplete payment intent response")
	}
	return Intent{IntentID: decoded.ID, ClientSecret: decoded.ClientSecret}, nil
}
