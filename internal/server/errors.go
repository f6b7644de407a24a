package server

import (
	"errors"
	"net/http"

	"github.com/joliest/shopify-install-proxy/internal/logging"
	"github.com/joliest/shopify-install-proxy/internal/shopify"
)

var (
	ErrMissingParameter = errors.New("missing parameter")
	ErrInvalidShop      = errors.New("invalid shop")
	ErrOriginMismatch   = errors.New("origin mismatch")
	ErrNotInstalled     = errors.New("not installed")

	// ErrSignatureInvalid is returned when the hmac of a Shopify redirect
	// does not match.
	ErrSignatureInvalid = shopify.ErrSignatureInvalid

	errUpstream = errors.New("upstream failure")
)

const (
	msgMissingShop       = "Missing shop parameter. Please add ?shop=your-shop to your request."
	msgMissingParameters = "Required parameters missing."
	msgInvalidShop       = "Invalid shop parameter."
	msgOriginMismatch    = "Request origin cannot be verified"
	msgSignatureInvalid  = "HMAC validation failed!"
	msgNotInstalled      = "App is not installed for this shop."
	msgInternal          = "Internal server error"
)

// requestError carries the kind used to pick the response status, the
// message sent to the client and the underlying cause, if any.
type requestError struct {
	kind    error
	message string
	cause   error
}

func newRequestError(kind error, message string, cause error) error {
	return &requestError{kind: kind, message: message, cause: cause}
}

func (e *requestError) Error() string {
	if e.cause == nil {
		return e.message
	}
	return e.message + ": " + e.cause.Error()
}

func (e *requestError) Unwrap() []error {
	var errs []error
	for _, err := range []error{e.kind, e.cause} {
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// upstreamError passes Shopify's own error responses and already classified
// errors through unchanged and turns any other failure into a bad gateway.
func upstreamError(message string, err error) error {
	var pe *shopify.ProviderError
	var re *requestError
	if errors.As(err, &pe) || errors.As(err, &re) {
		return err
	}
	return newRequestError(errUpstream, message, err)
}

// outcome is the metric label for err.
func outcome(err error) string {
	var pe *shopify.ProviderError
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &pe):
		return "provider_error"
	case errors.Is(err, ErrMissingParameter):
		return "missing_parameter"
	case errors.Is(err, ErrInvalidShop):
		return "invalid_shop"
	case errors.Is(err, ErrOriginMismatch):
		return "origin_mismatch"
	case errors.Is(err, ErrSignatureInvalid):
		return "signature_invalid"
	case errors.Is(err, ErrNotInstalled):
		return "not_installed"
	case errors.Is(err, errUpstream):
		return "upstream_error"
	default:
		return "error"
	}
}

func respondError(w http.ResponseWriter, r *http.Request, err error) {
	l := logging.FromRequest(r).WithError(err)

	var pe *shopify.ProviderError
	if errors.As(err, &pe) {
		l.WithField("status", pe.StatusCode).Warn("shopify returned an error")
		if pe.ContentType != "" {
			w.Header().Set("Content-Type", pe.ContentType)
		}
		w.WriteHeader(pe.StatusCode)
		if _, err := w.Write(pe.Body); err != nil {
			l.WithError(err).Error("failed to write response")
		}
		return
	}

	var status int
	switch {
	case errors.Is(err, ErrMissingParameter),
		errors.Is(err, ErrInvalidShop),
		errors.Is(err, ErrSignatureInvalid):
		status = http.StatusBadRequest
	case errors.Is(err, ErrOriginMismatch),
		errors.Is(err, ErrNotInstalled):
		status = http.StatusForbidden
	case errors.Is(err, errUpstream):
		status = http.StatusBadGateway
	default:
		status = http.StatusInternalServerError
	}

	message := msgInternal
	var re *requestError
	if errors.As(err, &re) {
		message = re.message
	}

	if status >= http.StatusInternalServerError {
		l.Error("request failed")
	} else {
		l.Warn("request rejected")
	}
	http.Error(w, message, status)
}
