package identifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQRRoundTrip(t *testing.T) {
	signer := NewQRSigner("round-trip-key")

	payload, err := signer.Encode("rec-42", "evt-7")
	require.NoError(t, err)

	claims, err := signer.Decode(payload)
	require.NoError(t, err)
	assert.Equal(t, "rec-42", claims.RecordID)
	assert.Equal(t, "evt-7", claims.EventID)
	assert.NotEmpty(t, claims.Nonce)
}

func TestQRNoncesDiffer(t *testing.T) {
	signer := NewQRSigner("round-trip-key")

	a, err := signer.Encode("rec-1", "evt-1")
	require.NoError(t, err)
	b, err := signer.Encode("rec-1", "evt-1")
	require.NoError(t, err)
	assert.NotEqual(t, a, b, "freshness nonce should vary per encode")
}

func TestQRRejectsWrongKey(t *testing.T) {
	payload, err := NewQRSigner("key-a").Encode("rec-1", "evt-1")
	require.NoError(t, err)

	_, err = NewQRSigner("key-b").Decode(payload)
	assert.Error(t, err)
}

func TestQRRejectsGarbage(t *testing.T) {
	signer := NewQRSigner("key")

	for _, raw := range []string{"", "ABC123", "not.a.token", "TKT-0000000000"} {
		_, err := signer.Decode(raw)
		assert.Error(t, err, "input %q should not decode", raw)
	}
}
