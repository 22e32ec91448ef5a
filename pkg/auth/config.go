package auth

// Config holds the bearer token settings shared with the identity provider.
type Config struct {
	Secret string `env:"AUTH_JWT_SECRET,required"`
	Issuer string `env:"AUTH_JWT_ISSUER"`
	Cookie string `env:"AUTH_JWT_COOKIE"`
}
