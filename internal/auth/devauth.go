package auth

import "crypto/subtle"

// DevAuthCompiled reports whether this binary was built with -tags devauth.
func DevAuthCompiled() bool {
	return devAuthCompiled
}

// DevelopmentSecret is the fallback signing secret of devauth builds, nil
// otherwise.
func DevelopmentSecret() []byte {
	return devSecret()
}

func matchDevCredential(username, password string) bool {
	creds := devCredentials()
	if creds == nil {
		return false
	}
	want, ok := creds[username]
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(want), []byte(password)) == 1
}
