package audit

import (
	"fmt"
	"strconv"
)

// RegisterEvent records an account registration attempt.
type RegisterEvent struct {
	Username     string
	ClientIP     string
	Success      bool
	ErrorMessage string
}

func (e RegisterEvent) MessageID() string { return "register" }
func (e RegisterEvent) Facility() int     { return FacilityAuthPriv }

func (e RegisterEvent) Severity() Severity {
	if e.Success {
		return SeverityInfo
	}
	return SeverityWarning
}

func (e RegisterEvent) Message() string {
	if e.Success {
		return fmt.Sprintf("%s registered", e.Username)
	}
	return fmt.Sprintf("%s failed to register: %s", e.Username, e.ErrorMessage)
}

func (e RegisterEvent) StructuredData() map[string]map[string]string {
	return map[string]map[string]string{
		SDIDSubject: {"username": e.Username},
		SDIDClient:  {"ip": e.ClientIP},
		SDIDAction:  {"operation": "register", "result": result(e.Success)},
	}
}

// LoginEvent records a credential check.
type LoginEvent struct {
	UserID       int64
	Username     string
	ClientIP     string
	Success      bool
	ErrorMessage string
}

func (e LoginEvent) MessageID() string { return "login" }
func (e LoginEvent) Facility() int     { return FacilityAuthPriv }

func (e LoginEvent) Severity() Severity {
	if e.Success {
		return SeverityInfo
	}
	return SeverityWarning
}

func (e LoginEvent) Message() string {
	if e.Success {
		return fmt.Sprintf("%s successfully authenticated", e.Username)
	}
	return fmt.Sprintf("%s failed to authenticate: %s", e.Username, e.ErrorMessage)
}

func (e LoginEvent) StructuredData() map[string]map[string]string {
	subject := map[string]string{"username": e.Username}
	if e.UserID != 0 {
		subject["user_id"] = strconv.FormatInt(e.UserID, 10)
	}
	return map[string]map[string]string{
		SDIDAuth:    {"authenticator": "password"},
		SDIDSubject: subject,
		SDIDClient:  {"ip": e.ClientIP},
		SDIDAction:  {"operation": "login", "result": result(e.Success)},
	}
}

// TokenRejectedEvent records a bearer token refused by the API.
type TokenRejectedEvent struct {
	ClientIP string
	Path     string
	Reason   string
}

func (e TokenRejectedEvent) MessageID() string  { return "token" }
func (e TokenRejectedEvent) Facility() int      { return FacilityAuthPriv }
func (e TokenRejectedEvent) Severity() Severity { return SeverityWarning }

func (e TokenRejectedEvent) Message() string {
	return fmt.Sprintf("bearer token rejected for %s: %s", e.Path, e.Reason)
}

func (e TokenRejectedEvent) StructuredData() map[string]map[string]string {
	return map[string]map[string]string{
		SDIDAuth:   {"authenticator": "bearer"},
		SDIDClient: {"ip": e.ClientIP},
		SDIDAction: {"operation": "authenticate", "result": "failure", "path": e.Path},
	}
}

// ProvisionEvent records a tunnel configuration request.
type ProvisionEvent struct {
	UserID       int64
	Username     string
	ClientIP     string
	AssignedIP   string
	ServerID     int64
	Reused       bool
	Success      bool
	ErrorMessage string
}

func (e ProvisionEvent) MessageID() string { return "provision" }
func (e ProvisionEvent) Facility() int     { return FacilityAuthPriv }

func (e ProvisionEvent) Severity() Severity {
	if e.Success {
		return SeverityNotice
	}
	return SeverityError
}

func (e ProvisionEvent) Message() string {
	if !e.Success {
		return fmt.Sprintf("%s failed to obtain a tunnel configuration: %s", e.Username, e.ErrorMessage)
	}
	if e.Reused {
		return fmt.Sprintf("%s fetched existing tunnel configuration %s", e.Username, e.AssignedIP)
	}
	return fmt.Sprintf("%s was assigned tunnel address %s", e.Username, e.AssignedIP)
}

func (e ProvisionEvent) StructuredData() map[string]map[string]string {
	sd := map[string]map[string]string{
		SDIDSubject: {"user_id": strconv.FormatInt(e.UserID, 10), "username": e.Username},
		SDIDClient:  {"ip": e.ClientIP},
		SDIDAction:  {"operation": "provision", "result": result(e.Success)},
	}
	if e.Success {
		sd[SDIDTunnel] = map[string]string{
			"address": e.AssignedIP,
			"server":  strconv.FormatInt(e.ServerID, 10),
			"reused":  strconv.FormatBool(e.Reused),
		}
	}
	return sd
}

func result(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
