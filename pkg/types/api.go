package types

// ProducersResponse wraps the list returned by GET /producers.
type ProducersResponse struct {
	// Registered producers sorted by ID.
	Producers []ProducerInfo `json:"producers"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: producer not found: consumer-1
	Error string `json:"error" example:"producer not found: consumer-1"`
	// HTTP status code.
	// example: 404
	Code int `json:"code" example:"404"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Address the ingress listener is bound to.
	// example: 0.0.0.0:49152
	IngressAddr string `json:"ingress_addr" example:"0.0.0.0:49152"`
	// Address the registration listener is bound to.
	// example: 0.0.0.0:49153
	ControlAddr string `json:"control_addr" example:"0.0.0.0:49153"`
	// Number of registered producers.
	// example: 2
	Producers int `json:"producers" example:"2"`
	// Events with at least one subscriber, sorted.
	// example: ["alerts","orders"]
	Events []string `json:"events" example:"[\"alerts\",\"orders\"]"`
	// Whether the ingress listener is accepting connections.
	// example: true
	IngressServing bool `json:"ingress_serving" example:"true"`
	// Whether the registration listener is accepting connections.
	// example: true
	ControlServing bool `json:"control_serving" example:"true"`
	// Whether both listeners are accepting connections.
	// example: true
	Ready bool `json:"ready" example:"true"`
	// Uptime of the server in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
}
