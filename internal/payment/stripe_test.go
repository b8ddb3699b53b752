package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestStripeCreateIntent(t *testing.T) {
	var gotAuth, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/payment_intents", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, r.ParseForm())
		gotBody = r.PostForm.Encode()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"pi_123","client_secret":"pi_123_secret_abc"}`))
	}))
	defer srv.Close()

	s := Stripe{SecretKey: "sk_test_xyz", BaseURL: srv.URL}
	intent, err := s.CreateIntent(context.Background(), 36198, "USD")
	require.NoError(t, err)
	require.Equal(t, "pi_123", intent.IntentID)
	require.Equal(t, "pi_123_secret_abc", intent.ClientSecret)
	require.Equal(t, "Bearer sk_test_xyz", gotAuth)
	require.Contains(t, gotBody, "amount=36198")
	require.Contains(t, gotBody, "currency=usd")
	require.Contains(t, gotBody, "automatic_payment_methods%5Benabled%5D=true")
}

func TestStripeCreateIntentAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"error":{"message":"Your card was declined.","type":"card_error"}}`))
	}))
	defer srv.Close()

	s := Stripe{SecretKey: "sk_test_xyz", BaseURL: srv.URL}
	_, err := s.CreateIntent(context.Background(), 1000, "usd")
	require.Error(t, err)
	require.Contains(t, err.Error(), "card was declined")
}

func TestStripeCreateIntentValidation(t *testing.T) {
	s := Stripe{SecretKey: "sk_test_xyz"}
	_, err := s.CreateIntent(context.Background(), 0, "usd")
	require.Error(t, err)

	s = Stripe{}
	_, err = s.CreateIntent(context.Background(), 1000, "usd")
	require.Error(t, err)
}

type stubProvider struct {
	intent Intent
	err    error
	calls  int
}

func (p *stubProvider) CreateIntent(_ context.Context, _ int64, _ string) (Intent, error) {
	p.calls++
	return p.intent, p.err
}

func TestCreateIntentEndpoint(t *testing.T) {
	provider := &stubProvider{intent: Intent{IntentID: "pi_9", ClientSecret: "pi_9_secret"}}
	h := NewHandler(HandlerConfig{Provider: provider, DefaultCurrency: "USD", Logger: zerolog.Nop()})

	rec := httptest.NewRecorder()
	h.CreateIntent(rec, httptest.NewRequest(http.MethodPost, "/api/v1/stripe/create-payment-intent", strings.NewReader(`{"amount":36198}`)))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data createIntentResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "pi_9", body.Data.PaymentIntentID)
	require.Equal(t, "pi_9_secret", body.Data.ClientSecret)
	require.Equal(t, 1, provider.calls)
}

func TestCreateIntentEndpointRejectsNonPositiveAmount(t *testing.T) {
	provider := &stubProvider{}
	h := NewHandler(HandlerConfig{Provider: provider, DefaultCurrency: "USD", Logger: zerolog.Nop()})

	rec := httptest.NewRecorder()
	h.CreateIntent(rec, httptest.NewRequest(http.MethodPost, "/api/v1/stripe/create-payment-intent", strings.NewReader(`{"amount":0}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, 0, provider.calls)
}
