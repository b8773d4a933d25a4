package audit

import (
	"bytes"
	"regexp"
	"strings"
	"testing"
)

func TestLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger()
	logger.SetWriter(&buf)

	logger.Log(LoginEvent{
		UserID:   7,
		Username: "operator1",
		ClientIP: "192.168.1.1",
		Success:  true,
	})

	output := buf.String()

	// <PRI>1 TIMESTAMP HOST APP PROCID MSGID
	header := regexp.MustCompile(`^<86>1 \d{4}-\d\d-\d\dT\d\d:\d\d:\d\d\.\d{3}Z \S+ ghostswitch \d+ login `)
	if !header.MatchString(output) {
		t.Errorf("unexpected header in %q", output)
	}
	if !strings.Contains(output, `[client@32473 ip="192.168.1.1"]`) {
		t.Error("Expected client structured data in output")
	}
	if !strings.Contains(output, `[subject@32473 user_id="7" username="operator1"]`) {
		t.Error("Expected sorted subject params in output")
	}
	if !strings.HasSuffix(output, "operator1 successfully authenticated\n") {
		t.Errorf("unexpected message in %q", output)
	}
}

func TestStructuredDataOrder(t *testing.T) {
	sd := map[string]map[string]string{
		SDIDSubject: {"b": "2", "a": "1"},
		SDIDAction:  {"result": "success"},
	}
	want := `[action@32473 result="success"][subject@32473 a="1" b="2"]`
	if got := formatStructuredData(sd); got != want {
		t.Errorf("formatStructuredData() = %q, want %q", got, want)
	}
	if got := formatStructuredData(nil); got != "" {
		t.Errorf("formatStructuredData(nil) = %q, want empty", got)
	}
}

func TestEvents(t *testing.T) {
	tests := []struct {
		name      string
		event     Event
		wantMsg   string
		wantSev   Severity
		wantMsgID string
	}{
		{
			name:      "registration",
			event:     RegisterEvent{Username: "newuser1", ClientIP: "10.0.0.1", Success: true},
			wantMsg:   "newuser1 registered",
			wantSev:   SeverityInfo,
			wantMsgID: "register",
		},
		{
			name:      "rejected registration",
			event:     RegisterEvent{Username: "short", ClientIP: "10.0.0.1", ErrorMessage: "Username must be at least 8 characters long"},
			wantMsg:   "failed to register",
			wantSev:   SeverityWarning,
			wantMsgID: "register",
		},
		{
			name:      "failed login",
			event:     LoginEvent{Username: "operator1", ClientIP: "10.0.0.1", ErrorMessage: "invalid credentials"},
			wantMsg:   "failed to authenticate: invalid credentials",
			wantSev:   SeverityWarning,
			wantMsgID: "login",
		},
		{
			name:      "rejected token",
			event:     TokenRejectedEvent{ClientIP: "10.0.0.1", Path: "/api/vpn/generate-config", Reason: "Token has expired"},
			wantMsg:   "bearer token rejected for /api/vpn/generate-config",
			wantSev:   SeverityWarning,
			wantMsgID: "token",
		},
		{
			name:      "new tunnel",
			event:     ProvisionEvent{UserID: 1, Username: "operator1", AssignedIP: "10.0.0.5", ServerID: 1, Success: true},
			wantMsg:   "assigned tunnel address 10.0.0.5",
			wantSev:   SeverityNotice,
			wantMsgID: "provision",
		},
		{
			name:      "reused tunnel",
			event:     ProvisionEvent{UserID: 1, Username: "operator1", AssignedIP: "10.0.0.5", ServerID: 1, Reused: true, Success: true},
			wantMsg:   "fetched existing tunnel configuration 10.0.0.5",
			wantSev:   SeverityNotice,
			wantMsgID: "provision",
		},
		{
			name:      "failed tunnel",
			event:     ProvisionEvent{UserID: 1, Username: "operator1", ErrorMessage: "pool exhausted"},
			wantMsg:   "failed to obtain a tunnel configuration: pool exhausted",
			wantSev:   SeverityError,
			wantMsgID: "provision",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !strings.Contains(tt.event.Message(), tt.wantMsg) {
				t.Errorf("Message() = %q, want to contain %q", tt.event.Message(), tt.wantMsg)
			}
			if tt.event.Severity() != tt.wantSev {
				t.Errorf("Severity() = %v, want %v", tt.event.Severity(), tt.wantSev)
			}
			if tt.event.Facility() != FacilityAuthPriv {
				t.Errorf("Facility() = %v, want %v", tt.event.Facility(), FacilityAuthPriv)
			}
			if tt.event.MessageID() != tt.wantMsgID {
				t.Errorf("MessageID() = %v, want %v", tt.event.MessageID(), tt.wantMsgID)
			}
		})
	}
}

func TestProvisionStructuredData(t *testing.T) {
	sd := ProvisionEvent{
		UserID:     3,
		Username:   "operator1",
		ClientIP:   "203.0.113.9",
		AssignedIP: "10.0.0.6",
		ServerID:   1,
		Success:    true,
	}.StructuredData()

	if sd[SDIDTunnel]["address"] != "10.0.0.6" {
		t.Errorf("tunnel.address = %v, want '10.0.0.6'", sd[SDIDTunnel]["address"])
	}
	if sd[SDIDTunnel]["reused"] != "false" {
		t.Errorf("tunnel.reused = %v, want 'false'", sd[SDIDTunnel]["reused"])
	}
	if sd[SDIDSubject]["user_id"] != "3" {
		t.Errorf("subject.user_id = %v, want '3'", sd[SDIDSubject]["user_id"])
	}
	if sd[SDIDClient]["ip"] != "203.0.113.9" {
		t.Errorf("client.ip = %v, want '203.0.113.9'", sd[SDIDClient]["ip"])
	}

	failed := ProvisionEvent{UserID: 3, Username: "operator1"}.StructuredData()
	if _, ok := failed[SDIDTunnel]; ok {
		t.Error("failed provisioning should not carry tunnel data")
	}
	if failed[SDIDAction]["result"] != "failure" {
		t.Errorf("action.result = %v, want 'failure'", failed[SDIDAction]["result"])
	}
}

func TestAuditToggle(t *testing.T) {
	originalEnabled := auditEnabled
	defer func() {
		auditEnabled = originalEnabled
	}()

	SetEnabled(false)
	if IsEnabled() {
		t.Error("Expected audit to be disabled")
	}

	SetEnabled(true)
	if !IsEnabled() {
		t.Error("Expected audit to be enabled")
	}
}

func TestEscapeSDValue(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"simple", `"simple"`},
		{`with"quote`, `"with\"quote"`},
		{`with\backslash`, `"with\\backslash"`},
		{`with]bracket`, `"with\]bracket"`},
		{`all"special\chars]`, `"all\"special\\chars\]"`},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := escapeSDValue(tt.input)
			if got != tt.want {
				t.Errorf("escapeSDValue(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
