package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the access
// token on outbound requests.
const AccessTokenHeaderName = "access_token"

// AuthorizationHeader and BearerPrefix carry the access token over HTTP.
const (
	AuthorizationHeader = "Authorization"
	BearerPrefix        = "Bearer "
)

// CorrelationIDHeader is echoed back on every HTTP response.
const CorrelationIDHeader = "X-Correlation-Id"
