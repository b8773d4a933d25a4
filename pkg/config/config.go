package config

import (
	"encoding/json"
	"fmt"
	"net/netip"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigPath = "/etc/ghostswitch"
	ConfigFileName    = "ghostswitch.yml"
)

// ValidHashSchemes lists the password hash schemes new credentials can be stored with
var ValidHashSchemes = []string{"sha256", "argon2id"}

// ValidLogFormats lists the accepted log formatters
var ValidLogFormats = []string{"text", "json"}

// GhostConfig holds all provisioning server settings
type GhostConfig struct {
	// TokenSecret signs and verifies bearer tokens
	TokenSecret string `yaml:"token_secret" json:"-"`

	// TokenTTL is the bearer token lifetime in seconds
	TokenTTL int `yaml:"token_ttl" json:"token_ttl"`

	// PasswordHashScheme is used for newly registered credentials
	PasswordHashScheme string `yaml:"password_hash_scheme" json:"password_hash_scheme"`

	// PoolNetwork is the tunnel network handed out to clients
	PoolNetwork string `yaml:"pool_network" json:"pool_network"`

	// PoolFirst and PoolLast bound the assignable host range
	PoolFirst string `yaml:"pool_first" json:"pool_first"`
	PoolLast  string `yaml:"pool_last" json:"pool_last"`

	InterfaceName       string `yaml:"interface_name" json:"interface_name"`
	InterfaceConfigPath string `yaml:"interface_config_path" json:"interface_config_path"`

	// WGBinary and WGQuickBinary name the external tools
	WGBinary      string `yaml:"wg_binary" json:"wg_binary"`
	WGQuickBinary string `yaml:"wg_quick_binary" json:"wg_quick_binary"`

	// UseSudo prefixes interface commands with sudo
	UseSudo bool `yaml:"use_sudo" json:"use_sudo"`

	// CommandTimeout bounds every external command, in seconds
	CommandTimeout int `yaml:"command_timeout" json:"command_timeout"`

	ClientDNS           []string `yaml:"client_dns" json:"client_dns"`
	ClientAllowedIPs    []string `yaml:"client_allowed_ips" json:"client_allowed_ips"`
	PersistentKeepalive int      `yaml:"persistent_keepalive" json:"persistent_keepalive"`

	// DefaultServerID is the tunnel server every new peer is attached to
	DefaultServerID int64 `yaml:"default_server_id" json:"default_server_id"`

	// ServerPublicKey and ServerEndpoint are used when the server row has none
	ServerPublicKey string `yaml:"server_public_key" json:"server_public_key"`
	ServerEndpoint  string `yaml:"server_endpoint" json:"server_endpoint"`

	// CORSAllowedOrigins lists the browser origins allowed to call the API
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins" json:"cors_allowed_origins"`

	LogLevel  string `yaml:"log_level" json:"log_level"`
	LogFormat string `yaml:"log_format" json:"log_format"`

	// sources tracks where each value came from
	sources map[string]string

	// configFilePath is the path to the config file
	configFilePath string
}

// Attribute represents a configuration attribute with its value and source
type Attribute struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Source string `json:"source"`
}

// Global singleton config
var (
	globalConfig *GhostConfig
	configMu     sync.RWMutex
)

// Get returns the global configuration, loading it if necessary
func Get() *GhostConfig {
	configMu.RLock()
	if globalConfig != nil {
		configMu.RUnlock()
		return globalConfig
	}
	configMu.RUnlock()

	configMu.Lock()
	defer configMu.Unlock()

	if globalConfig == nil {
		cfg, err := Load()
		if err != nil {
			globalConfig = newDefault()
		} else {
			globalConfig = cfg
		}
	}
	return globalConfig
}

// Reload reloads the configuration from file and environment
func Reload() (*GhostConfig, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	configMu.Lock()
	globalConfig = cfg
	configMu.Unlock()
	return cfg, nil
}

func newDefault() *GhostConfig {
	return &GhostConfig{
		TokenTTL:            int((24 * time.Hour).Seconds()),
		PasswordHashScheme:  "sha256",
		PoolNetwork:         "10.0.0.0/24",
		PoolFirst:           "10.0.0.5",
		PoolLast:            "10.0.0.254",
		InterfaceName:       "wg0",
		InterfaceConfigPath: "/etc/wireguard/wg0.conf",
		WGBinary:            "wg",
		WGQuickBinary:       "wg-quick",
		UseSudo:             true,
		CommandTimeout:      30,
		ClientDNS:           []string{"1.1.1.1", "8.8.8.8"},
		ClientAllowedIPs:    []string{"0.0.0.0/0", "::/0"},
		PersistentKeepalive: 25,
		DefaultServerID:     1,
		CORSAllowedOrigins:  []string{"*"},
		LogLevel:            "info",
		LogFormat:           "text",
		sources:             make(map[string]string),
	}
}

// Load loads configuration from file and environment variables.
// Environment variables take precedence over file values.
func Load() (*GhostConfig, error) {
	configPath := os.Getenv("GHOSTSWITCH_CONFIG_PATH")
	if configPath == "" {
		configPath = DefaultConfigPath
	}
	return LoadFile(filepath.Join(configPath, ConfigFileName))
}

// LoadFile loads configuration from the given file, which may be absent,
// and then applies the environment.
func LoadFile(path string) (*GhostConfig, error) {
	config := newDefault()
	for _, name := range attributeNames() {
		config.sources[name] = "default"
	}
	config.configFilePath = path

	if data, err := os.ReadFile(path); err == nil {
		var fileConfig GhostConfig
		if err := yaml.Unmarshal(data, &fileConfig); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
		config.applyFileConfig(&fileConfig, data)
	}

	config.applyEnvConfig()

	return config, nil
}

func attributeNames() []string {
	return []string{
		"token_secret", "token_ttl", "password_hash_scheme",
		"pool_network", "pool_first", "pool_last",
		"interface_name", "interface_config_path",
		"wg_binary", "wg_quick_binary", "use_sudo", "command_timeout",
		"client_dns", "client_allowed_ips", "persistent_keepalive",
		"default_server_id", "server_public_key", "server_endpoint",
		"cors_allowed_origins", "log_level", "log_format",
	}
}

func (c *GhostConfig) applyFileConfig(file *GhostConfig, raw []byte) {
	setString := func(name string, dst *string, val string) {
		if val != "" {
			*dst = val
			c.sources[name] = "file"
		}
	}
	setInt := func(name string, dst *int, val int) {
		if val != 0 {
			*dst = val
			c.sources[name] = "file"
		}
	}
	setList := func(name string, dst *[]string, val []string) {
		if len(val) > 0 {
			*dst = val
			c.sources[name] = "file"
		}
	}

	setString("token_secret", &c.TokenSecret, file.TokenSecret)
	setInt("token_ttl", &c.TokenTTL, file.TokenTTL)
	setString("password_hash_scheme", &c.PasswordHashScheme, file.PasswordHashScheme)
	setString("pool_network", &c.PoolNetwork, file.PoolNetwork)
	setString("pool_first", &c.PoolFirst, file.PoolFirst)
	setString("pool_last", &c.PoolLast, file.PoolLast)
	setString("interface_name", &c.InterfaceName, file.InterfaceName)
	setString("interface_config_path", &c.InterfaceConfigPath, file.InterfaceConfigPath)
	setString("wg_binary", &c.WGBinary, file.WGBinary)
	setString("wg_quick_binary", &c.WGQuickBinary, file.WGQuickBinary)
	setInt("command_timeout", &c.CommandTimeout, file.CommandTimeout)
	setList("client_dns", &c.ClientDNS, file.ClientDNS)
	setList("client_allowed_ips", &c.ClientAllowedIPs, file.ClientAllowedIPs)
	setInt("persistent_keepalive", &c.PersistentKeepalive, file.PersistentKeepalive)
	setString("server_public_key", &c.ServerPublicKey, file.ServerPublicKey)
	setString("server_endpoint", &c.ServerEndpoint, file.ServerEndpoint)
	setList("cors_allowed_origins", &c.CORSAllowedOrigins, file.CORSAllowedOrigins)
	setString("log_level", &c.LogLevel, file.LogLevel)
	setString("log_format", &c.LogFormat, file.LogFormat)
	if file.DefaultServerID != 0 {
		c.DefaultServerID = file.DefaultServerID
		c.sources["default_server_id"] = "file"
	}

	// use_sudo defaults to true, so only an explicit key can turn it off
	var keys map[string]interface{}
	if err := yaml.Unmarshal(raw, &keys); err == nil {
		if _, ok := keys["use_sudo"]; ok {
			c.UseSudo = file.UseSudo
			c.sources["use_sudo"] = "file"
		}
	}
}

func (c *GhostConfig) applyEnvConfig() {
	envString := func(env, name string, dst *string) {
		if val := os.Getenv(env); val != "" {
			*dst = val
			c.sources[name] = "environment"
		}
	}
	envInt := func(env, name string, dst *int) {
		if val := os.Getenv(env); val != "" {
			if i, err := strconv.Atoi(val); err == nil {
				*dst = i
				c.sources[name] = "environment"
			}
		}
	}
	envList := func(env, name string, dst *[]string) {
		if val := os.Getenv(env); val != "" {
			*dst = splitAndTrim(val)
			c.sources[name] = "environment"
		}
	}

	envString("GHOSTSWITCH_TOKEN_SECRET", "token_secret", &c.TokenSecret)
	envInt("GHOSTSWITCH_TOKEN_TTL", "token_ttl", &c.TokenTTL)
	envString("GHOSTSWITCH_PASSWORD_HASH_SCHEME", "password_hash_scheme", &c.PasswordHashScheme)
	envString("GHOSTSWITCH_POOL_NETWORK", "pool_network", &c.PoolNetwork)
	envString("GHOSTSWITCH_POOL_FIRST", "pool_first", &c.PoolFirst)
	envString("GHOSTSWITCH_POOL_LAST", "pool_last", &c.PoolLast)
	envString("GHOSTSWITCH_INTERFACE_NAME", "interface_name", &c.InterfaceName)
	envString("GHOSTSWITCH_INTERFACE_CONFIG_PATH", "interface_config_path", &c.InterfaceConfigPath)
	envString("GHOSTSWITCH_WG_BINARY", "wg_binary", &c.WGBinary)
	envString("GHOSTSWITCH_WG_QUICK_BINARY", "wg_quick_binary", &c.WGQuickBinary)
	if val := os.Getenv("GHOSTSWITCH_USE_SUDO"); val != "" {
		c.UseSudo = val == "true" || val == "1"
		c.sources["use_sudo"] = "environment"
	}
	envInt("GHOSTSWITCH_COMMAND_TIMEOUT", "command_timeout", &c.CommandTimeout)
	envList("GHOSTSWITCH_CLIENT_DNS", "client_dns", &c.ClientDNS)
	envList("GHOSTSWITCH_CLIENT_ALLOWED_IPS", "client_allowed_ips", &c.ClientAllowedIPs)
	envInt("GHOSTSWITCH_PERSISTENT_KEEPALIVE", "persistent_keepalive", &c.PersistentKeepalive)
	if val := os.Getenv("GHOSTSWITCH_DEFAULT_SERVER_ID"); val != "" {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			c.DefaultServerID = i
			c.sources["default_server_id"] = "environment"
		}
	}
	envString("GHOSTSWITCH_SERVER_PUBLIC_KEY", "server_public_key", &c.ServerPublicKey)
	envString("GHOSTSWITCH_SERVER_ENDPOINT", "server_endpoint", &c.ServerEndpoint)
	envList("GHOSTSWITCH_CORS_ALLOWED_ORIGINS", "cors_allowed_origins", &c.CORSAllowedOrigins)
	envString("GHOSTSWITCH_LOG_LEVEL", "log_level", &c.LogLevel)
	envString("GHOSTSWITCH_LOG_FORMAT", "log_format", &c.LogFormat)
}

// ConfigFilePath returns the path to the config file
func (c *GhostConfig) ConfigFilePath() string {
	return c.configFilePath
}

// Source returns the source of a configuration attribute
func (c *GhostConfig) Source(name string) string {
	if c.sources == nil {
		return "default"
	}
	if s, ok := c.sources[name]; ok {
		return s
	}
	return "default"
}

// TokenLifetime returns the token TTL as a duration
func (c *GhostConfig) TokenLifetime() time.Duration {
	return time.Duration(c.TokenTTL) * time.Second
}

// CommandDeadline returns the per-command timeout as a duration
func (c *GhostConfig) CommandDeadline() time.Duration {
	return time.Duration(c.CommandTimeout) * time.Second
}


// Validate validates the configuration
func (c *GhostConfig) Validate() error {
	if c.TokenSecret == "" {
		return fmt.Errorf("token_secret is required")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("token_ttl must be positive, got %d", c.TokenTTL)
	}
	if c.CommandTimeout <= 0 {
		return fmt.Errorf("command_timeout must be positive, got %d", c.CommandTimeout)
	}
	if !contains(ValidHashSchemes, c.PasswordHashScheme) {
		return fmt.Errorf("invalid password_hash_scheme: %s", c.PasswordHashScheme)
	}
	if !contains(ValidLogFormats, c.LogFormat) {
		return fmt.Errorf("invalid log_format: %s", c.LogFormat)
	}

	prefix, err := netip.ParsePrefix(c.PoolNetwork)
	if err != nil {
		return fmt.Errorf("invalid pool_network value: %s", c.PoolNetwork)
	}
	first, err := netip.ParseAddr(c.PoolFirst)
	if err != nil || !prefix.Contains(first) {
		return fmt.Errorf("invalid pool_first value: %s", c.PoolFirst)
	}
	last, err := netip.ParseAddr(c.PoolLast)
	if err != nil || !prefix.Contains(last) {
		return fmt.Errorf("invalid pool_last value: %s", c.PoolLast)
	}
	if last.Less(first) {
		return fmt.Errorf("pool_last %s is below pool_first %s", c.PoolLast, c.PoolFirst)
	}

	for _, cidr := range c.ClientAllowedIPs {
		if _, err := netip.ParsePrefix(cidr); err != nil {
			return fmt.Errorf("invalid client_allowed_ips value: %s", cidr)
		}
	}
	for _, dns := range c.ClientDNS {
		if _, err := netip.ParseAddr(dns); err != nil {
			return fmt.Errorf("invalid client_dns value: %s", dns)
		}
	}

	return nil
}

// Attributes returns all configuration attributes with their values and sources
func (c *GhostConfig) Attributes() []Attribute {
	secret := ""
	if c.TokenSecret != "" {
		secret = "(redacted)"
	}
	return []Attribute{
		{Name: "token_secret", Value: secret, Source: c.Source("token_secret")},
		{Name: "token_ttl", Value: strconv.Itoa(c.TokenTTL), Source: c.Source("token_ttl")},
		{Name: "password_hash_scheme", Value: c.PasswordHashScheme, Source: c.Source("password_hash_scheme")},
		{Name: "pool_network", Value: c.PoolNetwork, Source: c.Source("pool_network")},
		{Name: "pool_first", Value: c.PoolFirst, Source: c.Source("pool_first")},
		{Name: "pool_last", Value: c.PoolLast, Source: c.Source("pool_last")},
		{Name: "interface_name", Value: c.InterfaceName, Source: c.Source("interface_name")},
		{Name: "interface_config_path", Value: c.InterfaceConfigPath, Source: c.Source("interface_config_path")},
		{Name: "wg_binary", Value: c.WGBinary, Source: c.Source("wg_binary")},
		{Name: "wg_quick_binary", Value: c.WGQuickBinary, Source: c.Source("wg_quick_binary")},
		{Name: "use_sudo", Value: strconv.FormatBool(c.UseSudo), Source: c.Source("use_sudo")},
		{Name: "command_timeout", Value: strconv.Itoa(c.CommandTimeout), Source: c.Source("command_timeout")},
		{Name: "client_dns", Value: strings.Join(c.ClientDNS, ","), Source: c.Source("client_dns")},
		{Name: "client_allowed_ips", Value: strings.Join(c.ClientAllowedIPs, ","), Source: c.Source("client_allowed_ips")},
		{Name: "persistent_keepalive", Value: strconv.Itoa(c.PersistentKeepalive), Source: c.Source("persistent_keepalive")},
		{Name: "default_server_id", Value: strconv.FormatInt(c.DefaultServerID, 10), Source: c.Source("default_server_id")},
		{Name: "server_public_key", Value: c.ServerPublicKey, Source: c.Source("server_public_key")},
		{Name: "server_endpoint", Value: c.ServerEndpoint, Source: c.Source("server_endpoint")},
		{Name: "cors_allowed_origins", Value: strings.Join(c.CORSAllowedOrigins, ","), Source: c.Source("cors_allowed_origins")},
		{Name: "log_level", Value: c.LogLevel, Source: c.Source("log_level")},
		{Name: "log_format", Value: c.LogFormat, Source: c.Source("log_format")},
	}
}

// FormatText returns a text representation of the configuration
func (c *GhostConfig) FormatText() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Config file: %s\n\n", c.configFilePath))
	sb.WriteString(fmt.Sprintf("%-28s %-48s %s\n", "NAME", "VALUE", "SOURCE"))
	sb.WriteString(fmt.Sprintf("%-28s %-48s %s\n", "----", "-----", "------"))

	for _, attr := range c.Attributes() {
		value := attr.Value
		if value == "" {
			value = "(not set)"
		}
		sb.WriteString(fmt.Sprintf("%-28s %-48s %s\n", attr.Name, value, attr.Source))
	}
	return sb.String()
}

// FormatJSON returns a JSON representation of the configuration
func (c *GhostConfig) FormatJSON() (string, error) {
	result := map[string]interface{}{
		"config_file": c.configFilePath,
		"attributes":  c.Attributes(),
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
