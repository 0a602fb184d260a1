package utils

import "crypto/sha256"

// HashBytes returns the raw SHA-256 digest of the input string. Used to
// derive the JWT signing secret from the admin password.
func HashBytes(input string) []byte {
	sum := sha256.Sum256([]byte(input))
	return sum[:]
}
