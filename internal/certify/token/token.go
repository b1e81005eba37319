// Package token builds and parses claim tokens.  A token is just a URL
// embedding the event id: it says which event a claim applies to, never who
// is claiming.  It can be projected on a screen without granting anything;
// authorization comes from the recipient's own authenticated identity.
package token

import (
	"errors"
	"fmt"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

var ErrInvalidToken = errors.New("claim token does not carry an event id")

// ClaimURL returns the claim token for an event, e.g.
// "https://events.example.com/claim/7f9c...".
func ClaimURL(baseURL, eventID string) string {
	return fmt.Sprintf("%s/claim/%s", strings.TrimRight(baseURL, "/"), eventID)
}

// EventID extracts the event id from a claim token: the final path segment,
// mirroring how scanners split the scanned URL.
func EventID(tok string) (string, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(tok), "/")
	if trimmed == "" {
		return "", ErrInvalidToken
	}
	parts := strings.Split(trimmed, "/")
	id := parts[len(parts)-1]
	if id == "" || strings.Contains(id, ":") {
		return "", ErrInvalidToken
	}
	return id, nil
}

// QRPNG renders the claim URL as a QR code PNG of the given pixel size.
func QRPNG(claimURL string, size int) ([]byte, error) {
	if size <= 0 {
		size = 256
	}
	png, err := qrcode.Encode(claimURL, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}
