package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Partner-facing login API
	RouteLoginInitiate = "/api/v1/login/initiate"
	RouteLoginStatus   = "/api/v1/login/status"

	// Operational
	RouteHealth = "/healthz"
)
