//go:build !devauth

package auth

// Release builds carry no development credentials and no fallback secret.
const devAuthCompiled = false

func devCredentials() map[string]string { return nil }

func devSecret() []byte { return nil }
