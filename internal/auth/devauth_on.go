//go:build devauth

package auth

// Compiled only with -tags devauth. Never ship a binary built this way.
const devAuthCompiled = true

func devCredentials() map[string]string {
	return map[string]string{
		"admin": "admin",
		"dev":   "dev",
	}
}

func devSecret() []byte {
	return []byte("hostauth-development-only-secret")
}
