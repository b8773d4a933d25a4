package tunnel

import (
	"bufio"
	"fmt"
	"net/netip"
	"strconv"
	"strings"
	"time"
)

// ClientConfig is the wg-quick configuration handed to a client.
type ClientConfig struct {
	PrivateKey          string
	Address             netip.Prefix
	DNS                 []string
	ServerPublicKey     string
	PresharedKey        string
	Endpoint            string
	AllowedIPs          []string
	PersistentKeepalive int
}

// Render produces the client configuration text. The PresharedKey line is
// omitted when there is no preshared key.
func (c ClientConfig) Render() string {
	var sb strings.Builder
	sb.WriteString("[Interface]\n")
	fmt.Fprintf(&sb, "PrivateKey = %s\n", c.PrivateKey)
	fmt.Fprintf(&sb, "Address = %s\n", c.Address)
	fmt.Fprintf(&sb, "DNS = %s\n", strings.Join(c.DNS, ", "))
	sb.WriteString("\n[Peer]\n")
	fmt.Fprintf(&sb, "PublicKey = %s\n", c.ServerPublicKey)
	if c.PresharedKey != "" {
		fmt.Fprintf(&sb, "PresharedKey = %s\n", c.PresharedKey)
	}
	fmt.Fprintf(&sb, "Endpoint = %s\n", c.Endpoint)
	fmt.Fprintf(&sb, "AllowedIPs = %s\n", strings.Join(c.AllowedIPs, ", "))
	fmt.Fprintf(&sb, "PersistentKeepalive = %d\n", c.PersistentKeepalive)
	return sb.String()
}

// ParseClientConfig reads text produced by Render.
func ParseClientConfig(text string) (*ClientConfig, error) {
	cfg := &ClientConfig{}
	section := ""

	scanner := bufio.NewScanner(strings.NewReader(text))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section = line[1 : len(line)-1]
			if section != "Interface" && section != "Peer" {
				return nil, fmt.Errorf("line %d: unknown section %q", lineNo, section)
			}
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("line %d: expected key = value", lineNo)
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		var err error
		switch section + "." + key {
		case "Interface.PrivateKey":
			cfg.PrivateKey = value
		case "Interface.Address":
			cfg.Address, err = netip.ParsePrefix(value)
		case "Interface.DNS":
			cfg.DNS = splitList(value)
		case "Peer.PublicKey":
			cfg.ServerPublicKey = value
		case "Peer.PresharedKey":
			cfg.PresharedKey = value
		case "Peer.Endpoint":
			cfg.Endpoint = value
		case "Peer.AllowedIPs":
			cfg.AllowedIPs = splitList(value)
		case "Peer.PersistentKeepalive":
			cfg.PersistentKeepalive, err = strconv.Atoi(value)
		default:
			return nil, fmt.Errorf("line %d: unexpected key %q in section %q", lineNo, key, section)
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %s: %w", lineNo, key, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// PeerBlock is the server-side [Peer] stanza appended for a new client.
func PeerBlock(peer Peer, at time.Time) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "\n# Client %s added %s\n", peer.Address, at.Format("2006-01-02 15:04:05"))
	sb.WriteString("[Peer]\n")
	fmt.Fprintf(&sb, "PublicKey = %s\n", peer.PublicKey)
	if peer.PresharedKey != "" {
		fmt.Fprintf(&sb, "PresharedKey = %s\n", peer.PresharedKey)
	}
	fmt.Fprintf(&sb, "AllowedIPs = %s\n", netip.PrefixFrom(peer.Address, peer.Address.BitLen()))
	return sb.String()
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
