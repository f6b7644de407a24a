package server

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/joliest/shopify-install-proxy/internal/config"
	"github.com/joliest/shopify-install-proxy/internal/constants"
	"github.com/joliest/shopify-install-proxy/internal/logging"
)

// handle adapts a handler returning an error to http.HandlerFunc.
func handle(f func(w http.ResponseWriter, r *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := f(w, r); err != nil {
			respondError(w, r, err)
		}
	}
}

// requireShop returns the shop parameter of q after checking it is present
// and allowed.
func requireShop(conf *config.ShopifyConfig, q url.Values) (string, error) {
	shop := q.Get(constants.QueryParamShop)
	if shop == "" {
		return "", newRequestError(ErrMissingParameter, msgMissingShop, nil)
	}
	if !conf.ValidateShopDomain(shop) {
		return "", newRequestError(ErrInvalidShop, msgInvalidShop, nil)
	}
	return shop, nil
}

func respondJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromRequest(r).WithError(err).Error("failed to write response")
	}
}
