package keystore

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateProducesDistinctKeys(t *testing.T) {
	a, err := Generate()
	require.NoError(t, err)
	b, err := Generate()
	require.NoError(t, err)
	assert.NotEqual(t, a.Public, b.Public)
}

// TestSignVerify exercises testable property #2: verify(pub, m, sign(priv, m))
// is true for every message, and false for any other signature.
func TestSignVerify(t *testing.T) {
	kp, err := Generate()
	require.NoError(t, err)

	messages := [][]byte{[]byte(""), []byte("hello"), []byte("a much longer message with spaces and punctuation!")}
	for _, msg := range messages {
		sig := Sign(kp.Private, msg)
		assert.True(t, Verify(kp.Public, msg, sig))
	}

	other, err := Generate()
	require.NoError(t, err)
	sig := Sign(kp.Private, messages[1])
	otherSig := Sign(other.Private, messages[1])
	assert.NotEqual(t, sig, otherSig)
	assert.False(t, Verify(kp.Public, messages[1], otherSig))
}

func TestHashDeterministic(t *testing.T) {
	data := []byte("nockit")
	assert.Equal(t, Hash(data), Hash(data))
	assert.NotEqual(t, Hash(data), Hash([]byte("nockit!")))
	assert.Len(t, HashToHex(data), 64)
}

func TestDeriveFromPasswordDeterministic(t *testing.T) {
	a := DeriveFromPassword("hunter2", "salt")
	b := DeriveFromPassword("hunter2", "salt")
	c := DeriveFromPassword("hunter2", "other-salt")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	kp, err := Generate()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "keys.json")
	require.NoError(t, Save(kp, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, kp, loaded)

	b58 := PublicBase58(kp.Public)
	assert.GreaterOrEqual(t, len(b58), 42)
	assert.LessOrEqual(t, len(b58), 46)
}

func TestLoadRejectsMissingFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"public_base58":"abc"}`), 0o600))
	_, err := Load(path)
	assert.Error(t, err)
}

// TestBackupRoundTrip exercises testable property #3.
func TestBackupRoundTrip(t *testing.T) {
	kp, err := Generate()
	require.NoError(t, err)

	dir := t.TempDir()
	path, err := ExportBackup(kp, dir)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filepath.Base(path), "wallet_backup_"))
	assert.True(t, strings.HasSuffix(path, ".export"))

	restored, err := ImportBackup(path)
	require.NoError(t, err)
	assert.Equal(t, kp.Public, restored.Public)
	assert.Equal(t, kp.Private, restored.Private)
}

func TestImportBackupCorrupt(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.export")
	require.NoError(t, os.WriteFile(path, []byte(`{"version":1,"format":"nockit-wallet-backup","public_base58":"11111111111111111111111111111111","private_hex":"0000000000000000000000000000000000000000000000000000000000000000"}`), 0o600))

	_, err := ImportBackup(path)
	assert.Error(t, err)
}

func TestRedactedNeverExposesPrivate(t *testing.T) {
	kp, err := Generate()
	require.NoError(t, err)
	out := Redacted(kp)
	assert.Contains(t, out, "<redacted>")
	assert.NotContains(t, out, hexOf(kp.Private[:]))
}

func hexOf(b []byte) string {
	const hexdigits = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, c := range b {
		out[i*2] = hexdigits[c>>4]
		out[i*2+1] = hexdigits[c&0xf]
	}
	return string(out)
}

