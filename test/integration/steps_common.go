package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cucumber/godog"

	"github.com/Unknown-086/GhostSwitch/pkg/model"
	"github.com/Unknown-086/GhostSwitch/pkg/session"
	"github.com/Unknown-086/GhostSwitch/pkg/tunnel"
)

const defaultPassword = "Secur3!Pass"

// StepsContext holds state shared between step definitions
type StepsContext struct {
	tc           *TestContext
	response     *http.Response
	responseBody []byte
	remembered   []byte
	authToken    string
}

// NewStepsContext creates a new steps context
func NewStepsContext(tc *TestContext) *StepsContext {
	return &StepsContext{tc: tc}
}

// RegisterSteps registers all step definitions
func (s *StepsContext) RegisterSteps(sc *godog.ScenarioContext) {
	// Background steps
	sc.Step(`^the GhostSwitch server is running$`, s.theServerIsRunning)
	sc.Step(`^a user "([^"]*)" is registered$`, s.aUserIsRegistered)
	sc.Step(`^I am logged in as "([^"]*)"$`, s.iAmLoggedInAs)
	sc.Step(`^(\d+) other users have been provisioned$`, s.otherUsersHaveBeenProvisioned)

	// Account steps
	sc.Step(`^I register with username "([^"]*)" and password "([^"]*)"$`, s.iRegister)
	sc.Step(`^I log in with username "([^"]*)" and password "([^"]*)"$`, s.iLogIn)

	// Provisioning steps
	sc.Step(`^I request a VPN configuration$`, s.iRequestAVPNConfiguration)
	sc.Step(`^I request a VPN configuration without a token$`, s.iRequestWithoutToken)
	sc.Step(`^I request a VPN configuration with an expired token for "([^"]*)"$`, s.iRequestWithExpiredToken)

	// Other endpoints
	sc.Step(`^I list the servers$`, s.iListTheServers)
	sc.Step(`^I check the server health$`, s.iCheckTheServerHealth)

	// Response steps
	sc.Step(`^the response status should be (\d+)$`, s.theResponseStatusShouldBe)
	sc.Step(`^the response message should be "([^"]*)"$`, s.theResponseMessageShouldBe)
	sc.Step(`^the response field "([^"]*)" should be "([^"]*)"$`, s.theResponseFieldShouldBe)
	sc.Step(`^I should receive a session token$`, s.iShouldReceiveASessionToken)
	sc.Step(`^the response should contain a client configuration$`, s.theResponseShouldContainAClientConfiguration)
	sc.Step(`^I remember the response$`, s.iRememberTheResponse)
	sc.Step(`^the response should equal the remembered response$`, s.theResponseShouldEqualTheRemembered)

	// State steps
	sc.Step(`^user "([^"]*)" should have (\d+) active configurations?$`, s.userShouldHaveActiveConfigurations)
	sc.Step(`^the tunnel interface should have (\d+) registered peers?$`, s.theInterfaceShouldHavePeers)
}

// Background steps

func (s *StepsContext) theServerIsRunning() error {
	// Server is already running via TestContext
	return nil
}

func (s *StepsContext) aUserIsRegistered(username string) error {
	if err := s.iRegister(username, defaultPassword); err != nil {
		return err
	}
	return s.theResponseStatusShouldBe(http.StatusCreated)
}

func (s *StepsContext) iAmLoggedInAs(username string) error {
	if err := s.iLogIn(username, defaultPassword); err != nil {
		return err
	}
	return s.iShouldReceiveASessionToken()
}

func (s *StepsContext) otherUsersHaveBeenProvisioned(n int) error {
	for i := 1; i <= n; i++ {
		username := fmt.Sprintf("provisioned-%d", i)
		if err := s.aUserIsRegistered(username); err != nil {
			return err
		}
		if err := s.iAmLoggedInAs(username); err != nil {
			return err
		}
		if err := s.iRequestAVPNConfiguration(); err != nil {
			return err
		}
		if err := s.theResponseStatusShouldBe(http.StatusOK); err != nil {
			return fmt.Errorf("provisioning %s: %w", username, err)
		}
	}
	s.authToken = ""
	return nil
}

// Account steps

func (s *StepsContext) iRegister(username, password string) error {
	return s.post("/api/register", map[string]string{"username": username, "password": password}, "")
}

func (s *StepsContext) iLogIn(username, password string) error {
	if err := s.post("/api/login", map[string]string{"username": username, "password": password}, ""); err != nil {
		return err
	}
	if s.response.StatusCode == http.StatusOK {
		token, _ := s.field("token").(string)
		s.authToken = token
	}
	return nil
}

// Provisioning steps

func (s *StepsContext) iRequestAVPNConfiguration() error {
	return s.post("/api/vpn/generate-config", nil, s.authToken)
}

func (s *StepsContext) iRequestWithoutToken() error {
	return s.post("/api/vpn/generate-config", nil, "")
}

func (s *StepsContext) iRequestWithExpiredToken(username string) error {
	var user model.User
	if err := s.tc.DB.Where("username = ?", username).First(&user).Error; err != nil {
		return fmt.Errorf("user %q not found: %w", username, err)
	}

	issuedAt := time.Now().Add(-2 * time.Hour)
	expired := session.NewService([]byte(tokenSecret), time.Hour).WithClock(func() time.Time { return issuedAt })
	token, err := expired.Issue(user.ID, user.Username)
	if err != nil {
		return err
	}
	return s.post("/api/vpn/generate-config", nil, token.Value)
}

// Other endpoints

func (s *StepsContext) iListTheServers() error {
	return s.do(http.MethodGet, "/api/servers", nil, "")
}

func (s *StepsContext) iCheckTheServerHealth() error {
	return s.do(http.MethodGet, "/api/health", nil, "")
}

// Response steps

func (s *StepsContext) theResponseStatusShouldBe(expected int) error {
	if s.response == nil {
		return fmt.Errorf("no response received")
	}
	if s.response.StatusCode != expected {
		return fmt.Errorf("expected status %d, got %d: %s", expected, s.response.StatusCode, string(s.responseBody))
	}
	return nil
}

func (s *StepsContext) theResponseMessageShouldBe(expected string) error {
	return s.theResponseFieldShouldBe("message", expected)
}

func (s *StepsContext) theResponseFieldShouldBe(name, expected string) error {
	got := fmt.Sprint(s.field(name))
	if got != expected {
		return fmt.Errorf("expected %s %q, got %q", name, expected, got)
	}
	return nil
}

func (s *StepsContext) iShouldReceiveASessionToken() error {
	if err := s.theResponseStatusShouldBe(http.StatusOK); err != nil {
		return err
	}
	if s.authToken == "" {
		return fmt.Errorf("no token in response: %s", string(s.responseBody))
	}
	if _, err := s.tc.Sessions.Parse(s.authToken); err != nil {
		return fmt.Errorf("token does not validate: %w", err)
	}
	return nil
}

func (s *StepsContext) theResponseShouldContainAClientConfiguration() error {
	text, _ := s.field("config").(string)
	cfg, err := tunnel.ParseClientConfig(text)
	if err != nil {
		return fmt.Errorf("config does not parse: %w", err)
	}
	if cfg.Address.Addr().String() != fmt.Sprint(s.field("client_ip")) {
		return fmt.Errorf("config address %q does not match client_ip %v", cfg.Address, s.field("client_ip"))
	}
	return nil
}

func (s *StepsContext) iRememberTheResponse() error {
	s.remembered = append([]byte(nil), s.responseBody...)
	return nil
}

func (s *StepsContext) theResponseShouldEqualTheRemembered() error {
	if !bytes.Equal(bytes.TrimSpace(s.remembered), bytes.TrimSpace(s.responseBody)) {
		return fmt.Errorf("responses differ:\n  %s\n  %s", s.remembered, s.responseBody)
	}
	return nil
}

// State steps

func (s *StepsContext) userShouldHaveActiveConfigurations(username string, expected int) error {
	var count int64
	err := s.tc.DB.Model(&model.PeerConfig{}).
		Joins("JOIN users ON users.id = vpn_configs.user_id").
		Where("users.username = ? AND vpn_configs.is_active", username).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count != int64(expected) {
		return fmt.Errorf("expected %d active configurations for %s, got %d", expected, username, count)
	}
	return nil
}

func (s *StepsContext) theInterfaceShouldHavePeers(expected int) error {
	if got := s.tc.Sync.count(); got != expected {
		return fmt.Errorf("expected %d registered peers, got %d", expected, got)
	}
	return nil
}

// Helpers

func (s *StepsContext) post(path string, body any, token string) error {
	return s.do(http.MethodPost, path, body, token)
}

func (s *StepsContext) do(method, path string, body any, token string) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, s.tc.ServerURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	s.response, err = s.tc.HTTPClient.Do(req)
	if err != nil {
		return err
	}

	s.responseBody, err = io.ReadAll(s.response.Body)
	_ = s.response.Body.Close()
	return err
}

// field returns a top-level value from the JSON response body.
func (s *StepsContext) field(name string) any {
	var body map[string]any
	if err := json.Unmarshal(s.responseBody, &body); err != nil {
		return nil
	}
	return body[name]
}
