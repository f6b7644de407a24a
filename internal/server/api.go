package server

import (
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/joliest/shopify-install-proxy/internal/config"
	"github.com/joliest/shopify-install-proxy/internal/constants"
	"github.com/joliest/shopify-install-proxy/internal/issuer"
	"github.com/joliest/shopify-install-proxy/internal/logging"
	"github.com/joliest/shopify-install-proxy/internal/shopify"
	"github.com/joliest/shopify-install-proxy/internal/store"
)

const (
	// Redirects to the front end.
	pathRoot = "/"

	// Install handshake.
	pathInstall  = "/shopify"
	pathCallback = "/shopify/callback"
	pathStatus   = "/shopify/status"

	// Token-gated passthrough to the Admin API.
	pathProducts = "/products"
)

func newAPI(conf *config.Config, sh shopify.Interface, st store.Store, iss issuer.Issuer,
	m *apiMetrics, nowFunc func() time.Time) http.Handler {

	exchanger := newTokenExchanger(sh, st, conf.Shopify.Timeout)

	mux := chi.NewRouter()
	mux.Use(middleware.Recoverer)

	mux.Get(pathRoot, func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, conf.App.FrontEndAddress, http.StatusFound)
	})

	mux.Get(pathInstall, handle(func(w http.ResponseWriter, r *http.Request) error {
		shop, err := requireShop(&conf.Shopify, r.URL.Query())
		if err != nil {
			return err
		}
		r = logging.WithShop(r, shop)

		nonce, err := st.StoreNonce(r.Context(), shop)
		if err != nil {
			return newRequestError(nil, msgInternal, err)
		}

		state, exp, err := iss.Issue(nonce, shop, nowFunc())
		if err != nil {
			return newRequestError(nil, msgInternal, err)
		}
		setState(w, state, exp.Sub(nowFunc()))

		redirectURI := conf.App.CallbackURL(pathCallback)
		http.Redirect(w, r, sh.AuthorizeURL(shop, nonce, redirectURI), http.StatusFound)

		logging.FromRequest(r).Info("install started")
		return nil
	}))

	mux.Get(pathCallback, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		shop := q.Get(constants.QueryParamShop)
		r = logging.WithShop(r, shop)
		ctx := r.Context()

		err := func() error {
			// The state must come back unchanged from the authorize redirect.
			state, err := getAndDeleteState(w, r, iss, nowFunc())
			if err != nil {
				return newRequestError(ErrOriginMismatch, msgOriginMismatch, err)
			}
			if q.Get(constants.QueryParamState) != state.Nonce {
				return newRequestError(ErrOriginMismatch, msgOriginMismatch, nil)
			}

			if shop == "" || q.Get(constants.QueryParamHMAC) == "" || q.Get(constants.QueryParamAuthorizationCode) == "" {
				return newRequestError(ErrMissingParameter, msgMissingParameters, nil)
			}
			if !conf.Shopify.ValidateShopDomain(shop) {
				return newRequestError(ErrInvalidShop, msgInvalidShop, nil)
			}

			if err := sh.VerifyCallback(q); err != nil {
				return newRequestError(err, msgSignatureInvalid, nil)
			}

			// The nonce is bound to the shop it was issued for and is single-use.
			if state.Shop != shop {
				return newRequestError(ErrOriginMismatch, msgOriginMismatch, nil)
			}
			boundShop, ok, err := st.ConsumeNonce(ctx, state.Nonce)
			if err != nil {
				return newRequestError(nil, msgInternal, err)
			}
			if !ok || boundShop != shop {
				return newRequestError(ErrOriginMismatch, msgOriginMismatch, nil)
			}

			result, err := exchanger.ensureToken(ctx, shop, q.Get(constants.QueryParamAuthorizationCode))
			if err != nil {
				m.exchanges.WithLabelValues(outcome(err)).Inc()
				return upstreamError("Failed to exchange authorization code for access token", err)
			}
			m.exchanges.WithLabelValues(result).Inc()

			http.Redirect(w, r, conf.App.FrontEndAddress, http.StatusFound)
			return nil
		}()

		m.installs.WithLabelValues(outcome(err)).Inc()
		if err != nil {
			respondError(w, r, err)
			return
		}
		logging.FromRequest(r).Info("install completed")
	})

	mux.Get(pathStatus, handle(func(w http.ResponseWriter, r *http.Request) error {
		shop, err := requireShop(&conf.Shopify, r.URL.Query())
		if err != nil {
			return err
		}
		_, ok, err := st.GetToken(r.Context(), shop)
		if err != nil {
			return newRequestError(nil, msgInternal, err)
		}
		respondJSON(w, r, http.StatusOK, map[string]any{
			"shop":      shop,
			"installed": ok,
		})
		return nil
	}))

	mux.Get(pathProducts, handle(func(w http.ResponseWriter, r *http.Request) error {
		q := r.URL.Query()
		shop, err := requireShop(&conf.Shopify, q)
		if err != nil {
			return err
		}

		tok, ok, err := st.GetToken(r.Context(), shop)
		if err != nil {
			return newRequestError(nil, msgInternal, err)
		}
		if !ok {
			return newRequestError(ErrNotInstalled, msgNotInstalled, nil)
		}

		filters := url.Values{}
		for k, v := range q {
			if k != constants.QueryParamShop {
				filters[k] = v
			}
		}

		resp, err := sh.ListProducts(r.Context(), shop, tok.AccessToken, filters)
		if err != nil {
			return upstreamError("Failed to list products", err)
		}

		if resp.ContentType != "" {
			w.Header().Set("Content-Type", resp.ContentType)
		}
		w.WriteHeader(resp.StatusCode)
		if _, err := w.Write(resp.Body); err != nil {
			logging.FromRequest(r).WithError(err).Error("failed to write response")
		}
		return nil
	}))

	return mux
}
