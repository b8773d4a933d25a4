package tunnel

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func key(b byte) string {
	return base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{b}, KeySize))
}

func assertValidKeys(t *testing.T, km *KeyMaterial) {
	t.Helper()
	for _, k := range []string{km.PrivateKey, km.PublicKey, km.PresharedKey} {
		assert.Len(t, k, 44)
		assert.NoError(t, checkKey(k))
	}
	pub, err := PublicKey(km.PrivateKey)
	require.NoError(t, err)
	assert.Equal(t, pub, km.PublicKey)
}

func TestKeyGenerator_UsesTool(t *testing.T) {
	runner := newFakeRunner().
		on("wg genkey", key(1), nil).
		on("wg pubkey", key(2), nil).
		on("wg genpsk", key(3), nil)

	km, err := NewKeyGenerator(runner, "wg").Generate(context.Background())
	require.NoError(t, err)

	assert.Equal(t, key(1), km.PrivateKey)
	assert.Equal(t, key(2), km.PublicKey)
	assert.Equal(t, key(3), km.PresharedKey)
	assert.Equal(t, []string{"wg genkey", "wg pubkey", "wg genpsk"}, runner.lines())
	assert.Equal(t, key(1)+"\n", runner.calls[1].stdin)
}

func TestKeyGenerator_FallsBackWhenToolMissing(t *testing.T) {
	runner := newFakeRunner().on("wg genkey", "", failure("wg genkey", 127))

	km, err := NewKeyGenerator(runner, "wg").Generate(context.Background())
	require.NoError(t, err)
	assertValidKeys(t, km)
}

func TestKeyGenerator_FallsBackOnGarbageOutput(t *testing.T) {
	runner := newFakeRunner().
		on("wg genkey", key(1), nil).
		on("wg pubkey", "not a key", nil)

	km, err := NewKeyGenerator(runner, "wg").Generate(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, key(1), km.PrivateKey)
	assertValidKeys(t, km)
}

func TestKeyGenerator_NativeOnly(t *testing.T) {
	g := NewKeyGenerator(nil, "wg")

	a, err := g.Generate(context.Background())
	require.NoError(t, err)
	b, err := g.Generate(context.Background())
	require.NoError(t, err)

	assertValidKeys(t, a)
	assert.NotEqual(t, a.PrivateKey, b.PrivateKey)
	assert.NotEqual(t, a.PresharedKey, b.PresharedKey)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("entropy unavailable") }

func TestKeyGenerator_BothPathsFail(t *testing.T) {
	g := NewKeyGenerator(newFakeRunner().on("wg genkey", "", failure("wg genkey", 1)), "wg")
	g.rand = failingReader{}

	km, err := g.Generate(context.Background())
	assert.Nil(t, km)
	assert.ErrorIs(t, err, ErrKeyGen)
}

func TestPublicKey_RFC7748Vector(t *testing.T) {
	private, _ := hex.DecodeString("77076d0a7318a57d3c16c17251b26645df4c2f87ebc0992ab177fba51db92c2a")
	public, _ := hex.DecodeString("8520f0098930a754748b7ddcb43ef75a0dbf3a0d26381af4eba4a98eaa9b4e6a")

	got, err := PublicKey(base64.StdEncoding.EncodeToString(private))
	require.NoError(t, err)
	assert.Equal(t, base64.StdEncoding.EncodeToString(public), got)
}

func TestPublicKey_RejectsBadInput(t *testing.T) {
	_, err := PublicKey("short")
	assert.Error(t, err)

	_, err = PublicKey(base64.StdEncoding.EncodeToString([]byte("sixteen bytes!!!")))
	assert.Error(t, err)
}
