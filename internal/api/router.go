package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	// Health check endpoint (no versioning)
	s.router.Get("/health", s.healthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Route("/athletes/{userID}", func(r chi.Router) {
			r.Get("/zone-analysis", s.getZoneAnalysis)
			r.Post("/zone-analysis", s.customZoneAnalysis)
			r.Get("/loads", s.getLoadSummary)
			r.Post("/loads/recalculate", s.recalculateLoads)
			r.Get("/sessions/{sessionID}", s.getSession)
			r.Delete("/sessions/{sessionID}", s.deleteSession)
		})

		r.Route("/users/{userID}/goals", func(r chi.Router) {
			r.Get("/", s.listGoals)
			r.Post("/", s.createGoal)
			r.Get("/analytics", s.getGoalAnalytics)
			r.Get("/recommendations", s.getGoalRecommendations)
			r.Post("/recalculate", s.recalculateProgress)
		})

		r.Get("/goals/{goalID}/insights", s.getGoalInsights)
		r.Post("/goals/{goalID}/progress", s.logProgress)
	})
}

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	success(w, map[string]string{"status": "ok"})
}
