package endpoints

import (
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/Unknown-086/GhostSwitch/pkg/server"
	"github.com/Unknown-086/GhostSwitch/pkg/server/store"
)

type serverResponse struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location"`
	PublicIP string `json:"public_ip"`
	Endpoint string `json:"endpoint"`
	Status   string `json:"status"`
	Flag     string `json:"flag"`
}

// RegisterServersEndpoint registers the tunnel server listing.
func RegisterServersEndpoint(s *server.Server) {
	s.Router.HandleFunc("/api/servers", handleServers(s.ServerStore)).Methods("GET")
}

func handleServers(servers store.ServerStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := servers.ListActiveServers(r.Context())
		if err != nil {
			logrus.WithError(err).Error("Failed to retrieve servers")
			respondWithError(w, http.StatusInternalServerError, "Failed to retrieve servers")
			return
		}

		out := make([]serverResponse, 0, len(list))
		for _, srv := range list {
			out = append(out, serverResponse{
				ID:       srv.ID,
				Name:     srv.Name,
				Location: srv.Location,
				PublicIP: srv.PublicIP,
				Endpoint: srv.Endpoint,
				Status:   srv.Status.String(),
				Flag:     srv.LocationFlag(),
			})
		}

		respondWithJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"message": fmt.Sprintf("Found %d servers", len(out)),
			"servers": out,
		})
	}
}
