package endpoints

import (
	"errors"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Unknown-086/GhostSwitch/pkg/audit"
	"github.com/Unknown-086/GhostSwitch/pkg/authn"
	"github.com/Unknown-086/GhostSwitch/pkg/server"
	"github.com/Unknown-086/GhostSwitch/pkg/server/middleware"
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

type loginResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Token   string       `json:"token"`
	User    userResponse `json:"user"`
}

// RegisterAuthEndpoints registers account creation and login.
func RegisterAuthEndpoints(s *server.Server) {
	s.Router.HandleFunc("/api/register", handleRegister(s.Authn)).Methods("POST")
	s.Router.HandleFunc("/api/login", handleLogin(s.Authn)).Methods("POST")
}

// readCredentials writes a 400 and returns false when the body is missing
// or lacks either field.
func readCredentials(w http.ResponseWriter, r *http.Request) (credentialsRequest, bool) {
	var req credentialsRequest
	if err := decodeBody(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "No data provided")
		return req, false
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		respondWithError(w, http.StatusBadRequest, "Username and password are required")
		return req, false
	}
	return req, true
}

func handleRegister(svc *authn.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := readCredentials(w, r)
		if !ok {
			return
		}

		event := audit.RegisterEvent{
			Username: req.Username,
			ClientIP: middleware.ClientIP(r),
		}

		_, err := svc.Register(r.Context(), req.Username, req.Password)
		if err != nil {
			var verr *authn.ValidationError
			if errors.As(err, &verr) {
				event.ErrorMessage = verr.Message
				audit.Log(event)

				code := http.StatusBadRequest
				if verr.Code == authn.UsernameTaken {
					code = http.StatusConflict
				}
				respondWithError(w, code, verr.Message)
				return
			}

			logrus.WithError(err).WithField("request_id", middleware.RequestID(r)).Error("Registration failed")
			event.ErrorMessage = "internal error"
			audit.Log(event)
			respondWithError(w, http.StatusInternalServerError, "Registration failed")
			return
		}

		event.Success = true
		audit.Log(event)
		respondWithJSON(w, http.StatusCreated, map[string]interface{}{
			"success": true,
			"message": "Registration successful",
		})
	}
}

func handleLogin(svc *authn.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := readCredentials(w, r)
		if !ok {
			return
		}

		event := audit.LoginEvent{
			Username: req.Username,
			ClientIP: middleware.ClientIP(r),
		}

		token, user, err := svc.Login(r.Context(), req.Username, req.Password)
		if err != nil {
			if errors.Is(err, authn.ErrInvalidCredentials) {
				event.ErrorMessage = "invalid credentials"
				audit.Log(event)
				respondWithError(w, http.StatusUnauthorized, "Invalid credentials")
				return
			}

			logrus.WithError(err).WithField("request_id", middleware.RequestID(r)).Error("Login failed")
			event.ErrorMessage = "internal error"
			audit.Log(event)
			respondWithError(w, http.StatusInternalServerError, "Login failed")
			return
		}

		event.UserID = user.ID
		event.Success = true
		audit.Log(event)
		respondWithJSON(w, http.StatusOK, loginResponse{
			Success: true,
			Message: "Login successful",
			Token:   token.Value,
			User:    userResponse{ID: user.ID, Username: user.Username},
		})
	}
}
