package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// OrdersCreatedTotal counts orders created at checkout by payment method.
	OrdersCreatedTotal *prometheus.CounterVec
	// PaymentIntentTotal counts payment intent creation outcomes.
	PaymentIntentTotal *prometheus.CounterVec
	// EmailDeliveriesTotal counts confirmation email delivery outcomes.
	EmailDeliveriesTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		OrdersCreatedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_created_total",
			Help:      "Count of orders created at checkout by payment method.",
		}, []string{"payment_method"})
		PaymentIntentTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_intent_total",
			Help:      "Count of payment intent creation outcomes.",
		}, []string{"provider", "result"})
		EmailDeliveriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "email_deliveries_total",
			Help:      "Count of confirmation email delivery outcomes.",
		}, []string{"result"})

		mustRegisterCollector(reg, OrdersCreatedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				OrdersCreatedTotal = v
			}
		})
		mustRegisterCollector(reg, PaymentIntentTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				PaymentIntentTotal = v
			}
		})
		mustRegisterCollector(reg, EmailDeliveriesTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				EmailDeliveriesTotal = v
			}
		})
	})
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
