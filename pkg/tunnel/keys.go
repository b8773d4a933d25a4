package tunnel

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/curve25519"
)

// KeySize is the length of every WireGuard key in bytes.
const KeySize = 32

// ErrKeyGen is returned when neither the wg tool nor the native path
// produced key material.
var ErrKeyGen = errors.New("key generation failed")

// KeyMaterial holds a peer's keys, base64 encoded as wg prints them.
type KeyMaterial struct {
	PrivateKey   string
	PublicKey    string
	PresharedKey string
}

// KeyGenerator produces peer keys with "wg genkey", "wg pubkey" and
// "wg genpsk", falling back to Curve25519 in-process when the tool is
// missing or misbehaves.
type KeyGenerator struct {
	runner Runner
	wg     string
	rand   io.Reader
	log    *logrus.Entry
}

// NewKeyGenerator returns a generator using the wg binary through runner.
// A nil runner always takes the native path.
func NewKeyGenerator(runner Runner, wgBinary string) *KeyGenerator {
	return &KeyGenerator{
		runner: runner,
		wg:     wgBinary,
		rand:   rand.Reader,
		log:    logrus.WithField("component", "keys"),
	}
}

// Generate returns a complete key set or ErrKeyGen; never a partial one.
func (g *KeyGenerator) Generate(ctx context.Context) (*KeyMaterial, error) {
	if g.runner != nil {
		keys, err := g.generateWithTool(ctx)
		if err == nil {
			return keys, nil
		}
		g.log.WithError(err).Warn("wg key generation failed, using native fallback")
	}

	keys, err := g.generateNative()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeyGen, err)
	}
	return keys, nil
}

func (g *KeyGenerator) generateWithTool(ctx context.Context) (*KeyMaterial, error) {
	private, err := g.runner.Run(ctx, "", g.wg, "genkey")
	if err != nil {
		return nil, err
	}
	if err := checkKey(private); err != nil {
		return nil, fmt.Errorf("wg genkey: %w", err)
	}

	public, err := g.runner.Run(ctx, private+"\n", g.wg, "pubkey")
	if err != nil {
		return nil, err
	}
	if err := checkKey(public); err != nil {
		return nil, fmt.Errorf("wg pubkey: %w", err)
	}

	psk, err := g.runner.Run(ctx, "", g.wg, "genpsk")
	if err != nil {
		return nil, err
	}
	if err := checkKey(psk); err != nil {
		return nil, fmt.Errorf("wg genpsk: %w", err)
	}

	return &KeyMaterial{PrivateKey: private, PublicKey: public, PresharedKey: psk}, nil
}

func (g *KeyGenerator) generateNative() (*KeyMaterial, error) {
	private := make([]byte, KeySize)
	if _, err := io.ReadFull(g.rand, private); err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}
	clamp(private)

	public, err := curve25519.X25519(private, curve25519.Basepoint)
	if err != nil {
		return nil, fmt.Errorf("derive public key: %w", err)
	}

	psk := make([]byte, KeySize)
	if _, err := io.ReadFull(g.rand, psk); err != nil {
		return nil, fmt.Errorf("read preshared key: %w", err)
	}

	return &KeyMaterial{
		PrivateKey:   base64.StdEncoding.EncodeToString(private),
		PublicKey:    base64.StdEncoding.EncodeToString(public),
		PresharedKey: base64.StdEncoding.EncodeToString(psk),
	}, nil
}

// PublicKey derives the base64 public key of a base64 private key.
func PublicKey(private string) (string, error) {
	raw, err := decodeKey(private)
	if err != nil {
		return "", err
	}
	public, err := curve25519.X25519(raw, curve25519.Basepoint)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(public), nil
}

// clamp applies the Curve25519 scalar clamping wg genkey performs.
func clamp(k []byte) {
	k[0] &= 248
	k[31] = (k[31] & 127) | 64
}

func checkKey(s string) error {
	_, err := decodeKey(s)
	return err
}

func decodeKey(s string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode key: %w", err)
	}
	if len(raw) != KeySize {
		return nil, fmt.Errorf("key is %d bytes, want %d", len(raw), KeySize)
	}
	return raw, nil
}
