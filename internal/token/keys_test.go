package token

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAndLoadKeyPair(t *testing.T) {
	dir := t.TempDir()

	privatePath, publicPath, err := WriteKeyPair(dir, 2048)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "private.pem"), privatePath)
	assert.Equal(t, filepath.Join(dir, "public.pem"), publicPath)

	info, err := os.Stat(privatePath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	priv, pub, err := LoadKeyPair(privatePath, publicPath)
	require.NoError(t, err)
	assert.True(t, priv.PublicKey.Equal(pub))

	codec, err := NewCodec(priv, pub)
	require.NoError(t, err)
	signed, err := codec.Sign(map[string]any{"sub": "u1"}, time.Minute)
	require.NoError(t, err)
	_, err = codec.Verify(signed)
	require.NoError(t, err)
}

func TestLoadKeyPair_PrivateOnly(t *testing.T) {
	dir := t.TempDir()
	privatePath, _, err := WriteKeyPair(dir, 2048)
	require.NoError(t, err)

	priv, pub, err := LoadKeyPair(privatePath, "")
	require.NoError(t, err)
	assert.Same(t, &priv.PublicKey, pub)
}

func TestLoadKeyPair_Errors(t *testing.T) {
	dir := t.TempDir()

	_, _, err := LoadKeyPair(filepath.Join(dir, "missing.pem"), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read private key")

	garbage := filepath.Join(dir, "garbage.pem")
	require.NoError(t, os.WriteFile(garbage, []byte("not a key"), 0o600))
	_, _, err = LoadKeyPair(garbage, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse private key")
}

func TestParseKeyPair_Mismatch(t *testing.T) {
	key, other := testKeys(t)

	privatePEM, err := EncodePrivateKeyPEM(key)
	require.NoError(t, err)
	otherPublicPEM, err := EncodePublicKeyPEM(&other.PublicKey)
	require.NoError(t, err)

	_, _, err = ParseKeyPair(privatePEM, otherPublicPEM)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not match")
}

func TestGenerateKeyPair_TooSmall(t *testing.T) {
	_, err := GenerateKeyPair(1024)
	require.Error(t, err)
}
