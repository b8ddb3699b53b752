package payment

import "context"

// Intent is the minimal result of opening a payment intent with a provider.
type Intent struct {
	IntentID     string
	ClientSecret string
}

// Provider abstracts the upstream payment processor. Amounts are in minor
// units (cents).
type Provider interface {
	CreateIntent(ctx context.Context, amount int64, currency string) (Intent, error)
}
