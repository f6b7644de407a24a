package logging

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/joliest/shopify-install-proxy/internal/constants"
)

const envLogLevel = "LOG_LEVEL"

type contextKeyLogger struct{}

func init() {
	logrus.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339Nano,
	})
}

func LoadLevel() error {
	logLevel := os.Getenv(envLogLevel)
	if logLevel == "" {
		logLevel = logrus.InfoLevel.String()
	}
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		allLevels := make([]string, 0, len(logrus.AllLevels))
		for _, l := range logrus.AllLevels {
			allLevels = append(allLevels, l.String())
		}
		logrus.SetLevel(logrus.InfoLevel)
		return fmt.Errorf("invalid %s '%s', must be one of [%s]", envLogLevel, logLevel, strings.Join(allLevels, ", "))
	}
	logrus.SetLevel(level)
	return nil
}

// NewRequestLogger returns a logger carrying the http fields of r. The request
// id is taken from the X-Request-Id header when present, otherwise generated.
func NewRequestLogger(r *http.Request) (logrus.FieldLogger, string) {
	requestID := r.Header.Get(constants.HeaderRequestID)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	return logrus.WithField("http", logrus.Fields{
		"host":      r.Host,
		"method":    r.Method,
		"path":      r.URL.Path,
		"requestID": requestID,
	}), requestID
}

// WithShop returns r with its logger tagged with the shop being handled.
func WithShop(r *http.Request, shop string) *http.Request {
	return IntoRequest(r, FromRequest(r).WithField("shop", shop))
}

func FromRequest(r *http.Request) logrus.FieldLogger {
	return FromContext(r.Context())
}

func FromContext(ctx context.Context) logrus.FieldLogger {
	if l := ctx.Value(contextKeyLogger{}); l != nil {
		if logger, ok := l.(logrus.FieldLogger); ok {
			return logger
		}
	}
	return logrus.StandardLogger()
}

func IntoRequest(r *http.Request, logger logrus.FieldLogger) *http.Request {
	return r.WithContext(IntoContext(r.Context(), logger))
}

func IntoContext(ctx context.Context, logger logrus.FieldLogger) context.Context {
	return context.WithValue(ctx, contextKeyLogger{}, logger)
}
