package clicktopay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/hatemcha4ut/api.hotel.com.tn-sub000/internal/domain"
)

// SignatureField is the callback field carrying the HMAC; it is excluded
// from the signed canonical string.
const SignatureField = "signature"

// CanonicalString builds the signed string: fields sorted by key, rendered as
// key=value and joined by '&', with the signature field itself left out.
func CanonicalString(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		if k == SignatureField {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+fields[k])
	}
	return strings.Join(parts, "&")
}

// Sign computes the lowercase-hex HMAC-SHA256 of the canonical string.
func Sign(secret []byte, fields map[string]string) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(CanonicalString(fields)))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyCallback recomputes the signature over the callback's fields and
// compares it byte-for-byte. It is pure: no state is read or written, so a
// rejected callback provably caused no mutation.
func (c *Client) VerifyCallback(cb domain.PaymentCallback) error {
	if len(c.secret) == 0 {
		return &domain.AuthenticationError{Reason: "callback secret not configured"}
	}
	if cb.Signature == "" {
		return &domain.AuthenticationError{Reason: "callback carries no signature"}
	}
	want := Sign(c.secret, cb.Fields)
	if !hmac.Equal([]byte(want), []byte(strings.ToLower(cb.Signature))) {
		return &domain.AuthenticationError{Reason: "callback signature mismatch"}
	}
	return nil
}
