// Package identifier produces the three identifiers attached to every issued
// record: a long opaque unique id, a scannable QR payload, and a short
// human-enterable manual code.
package identifier

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/eventgate/eventgate/internal/model"
)

const (
	// maxCodeAttempts bounds the retry loop for short codes. The code space
	// is small (26^6 letters, 10^6 digits), so collisions are checked
	// against the store and retried; exhausting the budget is a fatal
	// creation error, never a silent degradation.
	maxCodeAttempts = 10

	codeLength         = 6
	ticketNumberDigits = 10

	letterAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digitAlphabet  = "0123456789"
)

// CodeChecker answers whether a candidate short identifier is already taken.
// Manual codes are scoped per event; ticket numbers are global.
type CodeChecker interface {
	CodeExists(ctx context.Context, eventID, code string) (bool, error)
	TicketNumberExists(ctx context.Context, number string) (bool, error)
}

// Set is the bundle of identifiers generated for one record.
type Set struct {
	UniqueID     string
	QRPayload    string
	ManualCode   string
	TicketNumber string
}

// Generator creates identifier sets. It is safe for concurrent use.
type Generator struct {
	codes  CodeChecker
	signer *QRSigner

	// onRetry is invoked once per manual-code collision retry, for metrics.
	onRetry func()
}

// Option configures a Generator.
type Option func(*Generator)

// WithRetryHook registers a callback fired on every short-code collision retry.
func WithRetryHook(fn func()) Option {
	return func(g *Generator) { g.onRetry = fn }
}

// New constructs a Generator.
func New(codes CodeChecker, signer *QRSigner, opts ...Option) *Generator {
	g := &Generator{codes: codes, signer: signer}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate builds the identifier set for a record about to be created.
// recordID must already be allocated because the QR payload embeds it.
func (g *Generator) Generate(ctx context.Context, eventID, recordID string, kind model.EventType) (Set, error) {
	uniqueID, err := randomHex(16)
	if err != nil {
		return Set{}, fmt.Errorf("generate unique id: %w", err)
	}

	payload, err := g.signer.Encode(recordID, eventID)
	if err != nil {
		return Set{}, fmt.Errorf("encode qr payload: %w", err)
	}

	code, err := g.manualCode(ctx, eventID, kind)
	if err != nil {
		return Set{}, err
	}

	set := Set{
		UniqueID:   uniqueID,
		QRPayload:  payload,
		ManualCode: code,
	}

	if kind == model.EventTypeTicket {
		number, err := g.ticketNumber(ctx)
		if err != nil {
			return Set{}, err
		}
		set.TicketNumber = number
	}
	return set, nil
}

// DecodeQR parses a signed QR payload back into its claims.
func (g *Generator) DecodeQR(payload string) (*QRClaims, error) {
	return g.signer.Decode(payload)
}

// manualCode draws a 6-character code from the kind's alphabet, retrying on
// collision against existing codes for the event.
func (g *Generator) manualCode(ctx context.Context, eventID string, kind model.EventType) (string, error) {
	alphabet := letterAlphabet
	if kind == model.EventTypeTicket {
		alphabet = digitAlphabet
	}

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := randomString(alphabet, codeLength)
		if err != nil {
			return "", fmt.Errorf("generate manual code: %w", err)
		}
		taken, err := g.codes.CodeExists(ctx, eventID, code)
		if err != nil {
			return "", fmt.Errorf("check manual code: %w", err)
		}
		if !taken {
			return code, nil
		}
		if g.onRetry != nil {
			g.onRetry()
		}
	}
	return "", fmt.Errorf("manual code for event %s: %w", eventID, model.ErrCodeSpaceExhausted)
}

// ticketNumber draws a globally unique TKT-prefixed number with the same
// bounded retry as manual codes.
func (g *Generator) ticketNumber(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		digits, err := randomString(digitAlphabet, ticketNumberDigits)
		if err != nil {
			return "", fmt.Errorf("generate ticket number: %w", err)
		}
		number := "TKT-" + digits
		taken, err := g.codes.TicketNumberExists(ctx, number)
		if err != nil {
			return "", fmt.Errorf("check ticket number: %w", err)
		}
		if !taken {
			return number, nil
		}
		if g.onRetry != nil {
			g.onRetry()
		}
	}
	return "", fmt.Errorf("ticket number: %w", model.ErrCodeSpaceExhausted)
}

func randomHex(bytes int) (string, error) {
	buf := make([]byte, bytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func randomString(alphabet string, length int) (string, error) {
	max := big.NewInt(int64(len(alphabet)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = alphabet[n.Int64()]
	}
	return string(out), nil
}
