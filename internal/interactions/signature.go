// ABOUTME: Ed25519 signature verification for Discord interaction webhooks.
// ABOUTME: Rejects requests whose signature does not match the app public key.

package interactions

import (
	"bytes"
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
)

const (
	signatureHeader = "X-Signature-Ed25519"
	timestampHeader = "X-Signature-Timestamp"
)

// parsePublicKey decodes Discord's hex-encoded Ed25519 application key.
func parsePublicKey(hexKey string) (ed25519.PublicKey, error) {
	raw, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("decoding public key: %w", err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("public key must be %d bytes, got %d", ed25519.PublicKeySize, len(raw))
	}
	return ed25519.PublicKey(raw), nil
}

// verifySignature wraps a handler with Discord's request-signature check.
// The signature covers the timestamp header concatenated with the raw body.
// The body is re-buffered for the wrapped handler.
func verifySignature(pubKey ed25519.PublicKey, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sigHex := r.Header.Get(signatureHeader)
		timestamp := r.Header.Get(timestampHeader)
		if sigHex == "" || timestamp == "" {
			http.Error(w, "missing signature headers", http.StatusUnauthorized)
			return
		}

		sig, err := hex.DecodeString(sigHex)
		if err != nil || len(sig) != ed25519.SignatureSize {
			http.Error(w, "malformed signature", http.StatusUnauthorized)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "reading body", http.StatusBadRequest)
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))

		msg := append([]byte(timestamp), body...)
		if !ed25519.Verify(pubKey, msg, sig) {
			http.Error(w, "invalid request signature", http.StatusUnauthorized)
			return
		}

		next(w, r)
	}
}
