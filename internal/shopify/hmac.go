package shopify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"

	"github.com/joliest/shopify-install-proxy/internal/constants"
)

// CanonicalQuery returns the message Shopify signs for a redirect: every
// parameter except hmac, sorted by key and URL-encoded.
func CanonicalQuery(query url.Values) string {
	message := make(url.Values, len(query))
	for k, v := range query {
		if k == constants.QueryParamHMAC {
			continue
		}
		message[k] = v
	}
	return message.Encode()
}

// Sign computes the lowercase hex HMAC-SHA256 of the canonical query.
func Sign(secret string, query url.Values) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(CanonicalQuery(query)))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyHMAC checks the hmac parameter of query against the signature
// computed with secret. The hex strings are compared as-is in constant time,
// so a case change in the supplied digest is a mismatch too.
func VerifyHMAC(secret string, query url.Values) error {
	got := query.Get(constants.QueryParamHMAC)
	if got == "" {
		return ErrSignatureInvalid
	}
	if !hmac.Equal([]byte(Sign(secret, query)), []byte(got)) {
		return ErrSignatureInvalid
	}
	return nil
}
