package common

const (
	// AuthorizationHeaderName carries the bearer token on HTTP requests.
	AuthorizationHeaderName = "Authorization"

	// BearerScheme is the only accepted authorization scheme.
	BearerScheme = "Bearer"

	// TokenEnvName lets the CLI pick up a token without a flag.
	TokenEnvName = "BATIK_TOKEN"
)
