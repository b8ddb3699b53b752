package notify

import (
	"encoding/json"
	"fmt"
	"html"
	"strings"

	"github.com/twofourteen/backend-scents/internal/db"
	"github.com/twofourteen/backend-scents/internal/events"
)

// Message is a rendered transactional email.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// SubjectFor maps a domain event topic to its email subject.
func SubjectFor(topic string) string {
	switch topic {
	case events.TopicOrderCreated:
		return "Your 214 Scents order confirmation"
	case events.TopicOrderPaid:
		return "Payment received for your 214 Scents order"
	case events.TopicOrderCancelled:
		return "Your 214 Scents order was cancelled"
	case events.TopicOrderShipped:
		return "Your 214 Scents order is on its way"
	case events.TopicOrderDelivered:
		return "Your 214 Scents order has been delivered"
	default:
		return "Update on your 214 Scents order"
	}
}

// Render builds the email for an event, or ok=false when the event carries
// no recipient.
func Render(event db.DomainEvent) (Message, bool) {
	payload := map[string]any{}
	if len(event.Payload) > 0 {
		_ = json.Unmarshal(event.Payload, &payload)
	}
	to := stringField(payload, "customer_email")
	if to == "" {
		to = stringField(payload, "email")
	}
	if to == "" {
		return Message{}, false
	}
	return Message{
		To:      to,
		Subject: SubjectFor(event.Topic),
		HTML:    renderBody(event.Topic, payload),
	}, true
}

func renderBody(topic string, payload map[string]any) string {
	var b strings.Builder
	b.WriteString("<p>Thank you for shopping with 214 Scents.</p>")
	if number := stringField(payload, "order_number"); number != "" {
		fmt.Fprintf(&b, "<p>Order <strong>%s</strong></p>", html.EscapeString(number))
	}
	switch topic {
	case events.TopicOrderCreated:
		b.WriteString("<p>We have received your order and will let you know as soon as it ships.</p>")
	case events.TopicOrderPaid:
		b.WriteString("<p>Your payment has been confirmed.</p>")
	case events.TopicOrderCancelled:
		b.WriteString("<p>Your order has been cancelled. If this was unexpected, please contact support.</p>")
	case events.TopicOrderShipped:
		b.WriteString("<p>Your order has shipped.</p>")
	case events.TopicOrderDelivered:
		b.WriteString("<p>Your order has been delivered. Enjoy your fragrance.</p>")
	}
	return b.String()
}

func stringField(payload map[string]any, key string) string {
	if v, ok := payload[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}
