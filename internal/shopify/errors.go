package shopify

import (
	"errors"
	"fmt"
)

const maxErrorBodyInMessage = 256

var ErrSignatureInvalid = errors.New("HMAC validation failed")

// ProviderError is a non-2xx response from Shopify. Its status, content type
// and body are relayed to the caller unchanged.
type ProviderError struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

func (e *ProviderError) Error() string {
	body := string(e.Body)
	if len(body) > maxErrorBodyInMessage {
		body = body[:maxErrorBodyInMessage] + "..."
	}
	return fmt.Sprintf("shopify responded with status %d: %s", e.StatusCode, body)
}
