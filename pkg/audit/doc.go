// Package audit records security-relevant GhostSwitch operations as RFC5424
// syslog lines.
//
// # Event Types
//
//   - RegisterEvent: account registration attempts
//   - LoginEvent: credential checks
//   - TokenRejectedEvent: bearer tokens refused by the API
//   - ProvisionEvent: tunnel configuration requests
//
// # Usage
//
//	audit.Log(audit.LoginEvent{Username: "someone1", ClientIP: ip, Success: true})
//
// Lines go to stdout. When GHOSTSWITCH_AUDIT_DATABASE_URL is set they are
// also written to the messages table. GHOSTSWITCH_AUDIT_ENABLED=false turns
// auditing off.
package audit
