package tokens

import "errors"

// Los cuatro modos de fallo de verificación. El HTTP layer los colapsa en
// un 401 genérico; la distinción existe para logs y métricas.
var (
	// ErrTokenExpired indica que el token venció.
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenMalformed indica que el token no parsea como JWT compacto.
	ErrTokenMalformed = errors.New("token malformed")

	// ErrBadSignature indica que la firma no corresponde al secreto.
	ErrBadSignature = errors.New("bad signature")

	// ErrUnsupportedTokenType indica un algoritmo no soportado o un
	// tokenType distinto del esperado (ej: refresh donde va access).
	ErrUnsupportedTokenType = errors.New("unsupported token type")
)

// IsVerifyError indica si err es uno de los cuatro modos de fallo.
func IsVerifyError(err error) bool {
	return errors.Is(err, ErrTokenExpired) ||
		errors.Is(err, ErrTokenMalformed) ||
		errors.Is(err, ErrBadSignature) ||
		errors.Is(err, ErrUnsupportedTokenType)
}

// VerificationResult proyecta el resultado de una verificación al label
// que usan las métricas: ok, expired, malformed, bad_signature o
// unsupported.
func VerificationResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrTokenExpired):
		return "expired"
	case errors.Is(err, ErrBadSignature):
		return "bad_signature"
	case errors.Is(err, ErrUnsupportedTokenType):
		return "unsupported"
	default:
		return "malformed"
	}
}
