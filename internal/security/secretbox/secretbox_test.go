package secretbox

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func testMaster(tb testing.TB) []byte {
	tb.Helper()
	raw := make([]byte, 32)
	for i := range raw {
		raw[i] = byte(i + 1)
	}
	return raw
}

func TestSealOpen_RoundTrip(t *testing.T) {
	p, err := NewProtector(testMaster(t), "signon:state:v1:HelloJohn")
	require.NoError(t, err)

	msg := `{"redir":"https://app.example/after","extras":{"k":"v ✓"}}`
	blob, err := p.Seal([]byte(msg))
	require.NoError(t, err)

	// URL-safe, no padding
	require.NotContains(t, blob, "=")
	require.NotContains(t, blob, "+")
	require.NotContains(t, blob, "/")

	pt, err := p.Open(blob)
	require.NoError(t, err)
	require.Equal(t, msg, string(pt))
}

func TestOpen_DetectsTamper(t *testing.T) {
	p, err := NewProtector(testMaster(t), "signon:state:v1:HelloJohn")
	require.NoError(t, err)

	blob, err := p.Seal([]byte("top secret"))
	require.NoError(t, err)

	raw, err := base64.RawURLEncoding.DecodeString(blob)
	require.NoError(t, err)

	// Flip one byte at every position; each mutation must fail closed.
	for i := range raw {
		mutated := make([]byte, len(raw))
		copy(mutated, raw)
		mutated[i] ^= 0x01
		_, err := p.Open(base64.RawURLEncoding.EncodeToString(mutated))
		require.ErrorIs(t, err, ErrOpen, "byte %d", i)
	}
}

func TestOpen_MalformedInput(t *testing.T) {
	p, err := NewProtector(testMaster(t), "signon:state:v1:HelloJohn")
	require.NoError(t, err)

	for _, blob := range []string{
		"",
		"not base64 !!",
		"AAAA",
		strings.Repeat("A", 11), // shorter than nonce
	} {
		_, err := p.Open(blob)
		require.ErrorIs(t, err, ErrOpen, "blob %q", blob)
	}
}

func TestOpen_TruncatedBlob(t *testing.T) {
	p, err := NewProtector(testMaster(t), "signon:state:v1:HelloJohn")
	require.NoError(t, err)

	blob, err := p.Seal([]byte("payload"))
	require.NoError(t, err)

	_, err = p.Open(blob[:len(blob)/2])
	require.ErrorIs(t, err, ErrOpen)
}

func TestPurposeIsolation(t *testing.T) {
	master := testMaster(t)
	p1, err := NewProtector(master, "signon:state:v1:HelloJohn")
	require.NoError(t, err)
	p2, err := NewProtector(master, "signon:state:v2:HelloJohn")
	require.NoError(t, err)

	blob, err := p1.Seal([]byte("cross-purpose"))
	require.NoError(t, err)

	_, err = p2.Open(blob)
	require.ErrorIs(t, err, ErrOpen)
}

func TestNewProtector_Validation(t *testing.T) {
	_, err := NewProtector(make([]byte, 16), "p")
	require.Error(t, err)

	_, err = NewProtector(testMaster(t), "")
	require.Error(t, err)
}
