package identifier

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// QRClaims is the structured token embedded in a scannable code. It carries
// just enough to look up a record: the record id, its event id, and a
// freshness nonce. The security boundary is the store lookup plus the
// attendance state machine, not payload secrecy; the HMAC signature only
// gives tamper evidence on scans.
type QRClaims struct {
	RecordID string `json:"rid"`
	EventID  string `json:"eid"`
	Nonce    string `json:"nce"`
	jwt.RegisteredClaims
}

// QRSigner encodes and decodes QR payload tokens with HS256.
type QRSigner struct {
	key []byte
}

// NewQRSigner constructs a signer from the shared signing key.
func NewQRSigner(key string) *QRSigner {
	return &QRSigner{key: []byte(key)}
}

// Encode builds a signed payload for the given record.
func (s *QRSigner) Encode(recordID, eventID string) (string, error) {
	nonce, err := randomHex(8)
	if err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	claims := QRClaims{
		RecordID: recordID,
		EventID:  eventID,
		Nonce:    nonce,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign qr payload: %w", err)
	}
	return signed, nil
}

// Decode parses a payload and returns its claims. Tokens that do not parse
// or do not verify are rejected; callers treat that as "not a QR payload"
// and fall through to the next resolution strategy.
func (s *QRSigner) Decode(payload string) (*QRClaims, error) {
	var claims QRClaims
	token, err := jwt.ParseWithClaims(payload, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.key, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse qr payload: %w", err)
	}
	if !token.Valid || claims.RecordID == "" {
		return nil, errors.New("qr payload missing record id")
	}
	return &claims, nil
}
