package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/joliest/shopify-install-proxy/internal/config"
	"github.com/joliest/shopify-install-proxy/internal/logging"
	"github.com/joliest/shopify-install-proxy/internal/server"
	"github.com/joliest/shopify-install-proxy/internal/shopify"
	"github.com/joliest/shopify-install-proxy/internal/store"
)

func main() {
	if err := logging.LoadLevel(); err != nil {
		logrus.WithError(err).Warn("failed to load log level, using info")
	}

	conf, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load config")
	}

	st, err := store.New(&conf.Store)
	if err != nil {
		logrus.WithError(err).Fatal("failed to create store")
	}
	defer st.Close()

	s := server.New(conf, shopify.New(&conf.Shopify), st)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()
		if err := s.Shutdown(shutdownCtx); err != nil {
			logrus.WithError(err).Error("failed to shut down server")
		}
	}()

	logrus.WithFields(logrus.Fields{
		"addr":    conf.Server.Addr,
		"store":   conf.Store.Backend,
		"scopes":  conf.Shopify.Scopes,
		"version": conf.Shopify.APIVersion,
	}).Info("server started")

	if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logrus.WithError(err).Fatal("server failed")
	}
	<-shutdownDone
	logrus.Info("server stopped")
}
