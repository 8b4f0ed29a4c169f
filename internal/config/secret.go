package config

import "encoding/base64"

func decodeSecret(text string) []byte {
	raw, err := base64.RawURLEncoding.DecodeString(text)
	if err != nil || len(raw) < 16 {
		return []byte(text)
	}
	return raw
}
