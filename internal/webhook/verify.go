package webhook

import "crypto/subtle"

// ModeSubscribe is the mode the provider sends on the GET handshake.
const ModeSubscribe = "subscribe"

// Verify implements the one-time ownership handshake: the challenge is
// echoed back iff the mode is "subscribe" and the caller presented the
// configured secret. An empty secret never verifies.
func Verify(mode, token, challenge, secret string) (string, bool) {
	if mode != ModeSubscribe || secret == "" {
		return "", false
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
		return "", false
	}
	return challenge, true
}
