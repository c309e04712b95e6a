// Package tokens implementa el codec HS256 de access/refresh tokens y los
// helpers de hashing para persistir refresh tokens.
package tokens

import (
	"crypto/sha256"
	"encoding/base64"
)

// SHA256Base64URL devuelve sha256(input) en base64url sin padding.
// Es la forma canónica bajo la que un refresh token se indexa en el store:
// el token firmado nunca toca la base.
func SHA256Base64URL(s string) string {
	sum := sha256.Sum256([]byte(s))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
