package constants

const (
	ShopifyInstallProxy = "shopify-install-proxy"

	QueryParamAuthorizationCode = "code"
	QueryParamGrantOptions      = "grant_options[]"
	QueryParamHMAC              = "hmac"
	QueryParamShop              = "shop"
	QueryParamState             = "state"

	HeaderAccessToken = "X-Shopify-Access-Token"
	HeaderRequestID   = "X-Request-Id"

	GrantOptionPerUser = "per-user"
	DefaultScope       = "write_products"
	DefaultAPIVersion  = "2024-10"
)
