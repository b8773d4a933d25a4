package endpoints

import (
	"errors"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Unknown-086/GhostSwitch/pkg/audit"
	"github.com/Unknown-086/GhostSwitch/pkg/identity"
	"github.com/Unknown-086/GhostSwitch/pkg/provision"
	"github.com/Unknown-086/GhostSwitch/pkg/server"
	"github.com/Unknown-086/GhostSwitch/pkg/server/middleware"
)

type generateConfigResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	ClientIP string `json:"client_ip"`
	Config   string `json:"config"`
	Endpoint string `json:"endpoint"`
	Server   string `json:"server,omitempty"`
}

// Client-facing messages per failure kind. Diagnostic detail stays in the logs.
var provisionMessages = map[provision.ErrorKind]string{
	provision.PoolExhausted: "No VPN addresses are available, try again later",
	provision.KeyGenFailed:  "Failed to generate encryption keys",
	provision.PersistFailed: "Failed to save VPN configuration",
	provision.SyncFailed:    "VPN configuration generation failed",
}

// RegisterVPNEndpoints registers the tunnel configuration endpoint.
func RegisterVPNEndpoints(s *server.Server) {
	s.Router.Handle(
		"/api/vpn/generate-config",
		s.Auth.Middleware(handleGenerateConfig(s.Provisioner)),
	).Methods("POST")
}

func handleGenerateConfig(p server.Provisioner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := identity.Get(r.Context())
		if !ok {
			respondWithError(w, http.StatusUnauthorized, middleware.MsgTokenRequired)
			return
		}

		// The locked sequence can wait behind other requests and on two
		// interface reloads, so the response must not race the server-wide
		// write timeout.
		if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
			logrus.WithError(err).WithField("request_id", id.RequestID).Warn("Could not lift write deadline")
		}

		event := audit.ProvisionEvent{
			UserID:   id.UserID,
			Username: id.Username,
			ClientIP: id.ClientIP(),
		}

		res, err := p.Provision(r.Context(), id)
		if err != nil {
			kind, _ := provision.KindOf(err)
			message, known := provisionMessages[kind]
			if !known {
				message = "VPN configuration generation failed"
			}
			event.ErrorMessage = string(kind)
			audit.Log(event)

			code := http.StatusInternalServerError
			if kind == provision.PoolExhausted {
				code = http.StatusServiceUnavailable
			}
			if !known {
				logrus.WithError(err).WithField("request_id", id.RequestID).Error("Unexpected provisioning error")
			}
			respondWithError(w, code, message)
			return
		}

		event.Success = true
		event.Reused = res.Reused
		event.AssignedIP = res.Peer.AssignedIP
		event.ServerID = res.Server.ID
		audit.Log(event)

		message := "VPN configuration generated successfully"
		if res.Reused {
			message = "Using existing VPN configuration"
		}
		respondWithJSON(w, http.StatusOK, generateConfigResponse{
			Success:  true,
			Message:  message,
			ClientIP: res.Peer.AssignedIP,
			Config:   res.Config,
			Endpoint: res.Server.Endpoint,
			Server:   res.Server.Name,
		})
	}
}
