package types

// ProducerInfo is a read-only view of a registered producer.
type ProducerInfo struct {
	// Unique producer identifier.
	// example: consumer-1
	ID string `json:"id" example:"consumer-1"`
	// Wire protocol used to reach the producer.
	// example: TCP
	Protocol string `json:"protocol" example:"TCP"`
	// Target address messages are delivered to.
	// example: 127.0.0.1:9000
	Address string `json:"address" example:"127.0.0.1:9000"`
	// Events this producer is subscribed to, sorted.
	// example: ["orders","alerts"]
	Events []string `json:"events" example:"[\"alerts\",\"orders\"]"`
}

// EventSubscribers lists the producers subscribed to one event name.
type EventSubscribers struct {
	// Event name used as routing key.
	// example: orders
	Event string `json:"event" example:"orders"`
	// Subscribed producer IDs, sorted.
	// example: ["consumer-1"]
	Producers []string `json:"producers" example:"[\"consumer-1\"]"`
}
