package server

import "net/http"

// registerRoutes sets up all API endpoints
func (s *Server) registerRoutes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /predict-match", s.handlePredict)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /schema", s.handleSchema)

	return s.logMiddleware(s.corsMiddleware(mux))
}
