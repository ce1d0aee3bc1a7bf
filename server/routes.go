package server

import "net/http"

func (s *Server) initRoutes() {
	// Partner-facing login API
	s.RegisterRouteHandler("POST "+RouteLoginInitiate, ChainMiddleware(s.InitiateLoginHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteLoginStatus, ChainMiddleware(s.PollLoginStatusHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("OPTIONS "+RouteLoginInitiate, ChainMiddleware(s.preflightHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("OPTIONS "+RouteLoginStatus, ChainMiddleware(s.preflightHandler(), s.APIMiddleware()...))

	s.RegisterRouteFunc("GET "+RouteHealth, s.HealthHandler())
}

func (s *Server) preflightHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}
}

// HealthHandler reports process liveness.
func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
