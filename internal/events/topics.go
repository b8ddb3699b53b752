package events

// Topic constants for domain events emitted by the storefront.
const (
	TopicOrderCreated   = "order.created"
	TopicOrderPaid      = "order.paid"
	TopicOrderCancelled = "order.cancelled"
	TopicOrderShipped   = "order.shipped"
	TopicOrderDelivered = "order.delivered"
)

// DefaultTopics returns the canonical list of emitted topics.
func DefaultTopics() []string {
	return []string{
		TopicOrderCreated,
		TopicOrderPaid,
		TopicOrderCancelled,
		TopicOrderShipped,
		TopicOrderDelivered,
	}
}
