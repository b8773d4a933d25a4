package endpoints

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Unknown-086/GhostSwitch/pkg/server"
	"github.com/Unknown-086/GhostSwitch/pkg/server/store"
)

// RegisterHealthEndpoint registers the database connectivity probe.
func RegisterHealthEndpoint(s *server.Server) {
	s.Router.HandleFunc("/api/health", handleHealth(s.HealthStore)).Methods("GET")
}

func handleHealth(health store.HealthStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := health.CheckConnectivity(r.Context()); err != nil {
			logrus.WithError(err).Warn("Health check failed")
			respondWithJSON(w, http.StatusInternalServerError, map[string]interface{}{
				"success":  false,
				"message":  "Database connection failed",
				"database": "disconnected",
			})
			return
		}

		respondWithJSON(w, http.StatusOK, map[string]interface{}{
			"success":   true,
			"message":   "Backend is healthy",
			"database":  "connected",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
}
