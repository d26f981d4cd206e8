package config

type SecurityConfig interface {
	GetCookieSecret() []byte
	GetEncryptionKey() []byte
	GetSecureCookies() bool
}

type Security struct {
	CookieSecret  string `env:"COOKIE_SECRET"`
	EncryptionKey string `env:"ENCRYPTION_KEY"`
	SecureCookies bool   `env:"SECURE_COOKIES" envDefault:"true"`
}

var _ SecurityConfig = Security{}

// GetCookieSecret is the HMAC key for the flow binding cookie.
func (s Security) GetCookieSecret() []byte {
	return []byte(s.CookieSecret)
}

// GetEncryptionKey is the key material used to seal flow state at rest.
// Falls back to the cookie secret.
func (s Security) GetEncryptionKey() []byte {
	if s.EncryptionKey == "" {
		return []byte(s.CookieSecret)
	}
	return []byte(s.EncryptionKey)
}

func (s Security) GetSecureCookies() bool {
	return s.SecureCookies
}
