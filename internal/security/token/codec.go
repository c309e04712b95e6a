package tokens

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Kinds de token emitidos por el codec.
const (
	KindAccess  = "access"
	KindRefresh = "refresh"
)

// MinSecretBytes es el largo mínimo del secreto HMAC (256 bits).
const MinSecretBytes = 32

// Claims son las claims firmadas en ambos kinds de token.
type Claims struct {
	TenantID  int64  `json:"tenantId"`
	Roles     string `json:"roles,omitempty"` // comma-joined
	TokenType string `json:"tokenType"`
	jwtv5.RegisteredClaims
}

// RoleList separa Roles en slice, sin entradas vacías.
func (c *Claims) RoleList() []string {
	if c.Roles == "" {
		return nil
	}
	parts := strings.Split(c.Roles, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Config configura el codec.
type Config struct {
	Issuer     string
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// DevMode permite secretos más cortos que MinSecretBytes,
	// rellenándolos con ceros. Fuera de dev la construcción falla.
	DevMode bool
}

// Codec firma y verifica tokens HS256. Stateless: toda la validez de un
// access token es firma + expiración; la revocación de refresh vive en el
// store, no acá.
type Codec struct {
	issuer     string
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	weak       bool
}

// New construye un Codec. El secreto se trimea; si queda más corto que
// MinSecretBytes solo se acepta en DevMode (padded con ceros).
func New(cfg Config) (*Codec, error) {
	sec := []byte(strings.TrimSpace(cfg.Secret))
	if len(sec) == 0 {
		return nil, errors.New("tokens: empty secret")
	}
	weak := false
	if len(sec) < MinSecretBytes {
		if !cfg.DevMode {
			return nil, fmt.Errorf("tokens: secret must be at least %d bytes", MinSecretBytes)
		}
		padded := make([]byte, MinSecretBytes)
		copy(padded, sec)
		sec = padded
		weak = true
	}
	if cfg.Issuer == "" {
		return nil, errors.New("tokens: empty issuer")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("tokens: TTLs must be positive")
	}
	return &Codec{
		issuer:     cfg.Issuer,
		secret:     sec,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		weak:       weak,
	}, nil
}

// WeakSecret indica si el secreto fue padded en DevMode.
// El wiring debe loguearlo como warning visible.
func (c *Codec) WeakSecret() bool { return c.weak }

// AccessTTL retorna el TTL configurado para access tokens.
func (c *Codec) AccessTTL() time.Duration { return c.accessTTL }

// RefreshTTL retorna el TTL configurado para refresh tokens.
func (c *Codec) RefreshTTL() time.Duration { return c.refreshTTL }

// IssueAccess firma un access token para el usuario dentro del tenant.
func (c *Codec) IssueAccess(userID string, tenantID int64, roles []string) (string, time.Time, error) {
	now := time.Now().UTC()
	exp := now.Add(c.accessTTL)
	claims := Claims{
		TenantID:  tenantID,
		Roles:     strings.Join(roles, ","),
		TokenType: KindAccess,
		RegisteredClaims: jwtv5.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   userID,
			IssuedAt:  jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(exp),
		},
	}
	signed, err := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("tokens: sign access: %w", err)
	}
	return signed, exp, nil
}

// IssueRefresh firma un refresh token. El jti existe para unicidad y
// auditoría; la revocación se indexa por hash del token, no por jti.
func (c *Codec) IssueRefresh(userID string, tenantID int64) (string, time.Time, error) {
	now := time.Now().UTC()
	exp := now.Add(c.refreshTTL)
	claims := Claims{
		TenantID:  tenantID,
		TokenType: KindRefresh,
		RegisteredClaims: jwtv5.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   userID,
			IssuedAt:  jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("tokens: sign refresh: %w", err)
	}
	return signed, exp, nil
}

// Verify valida firma, issuer y expiración. Distingue los cuatro modos de
// fallo de errors.go; el caller decide qué tan genérico es el mensaje que
// expone.
func (c *Codec) Verify(token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrTokenMalformed
	}

	// Sin WithValidMethods: el chequeo vive en el keyfunc para que un alg
	// ajeno (incluido "none") se reporte como tipo no soportado.
	parsed, err := jwtv5.ParseWithClaims(token, &Claims{}, func(t *jwtv5.Token) (any, error) {
		if t.Method != jwtv5.SigningMethodHS256 {
			return nil, ErrUnsupportedTokenType
		}
		return c.secret, nil
	}, jwtv5.WithIssuer(c.issuer))
	if err != nil {
		return nil, classify(err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrTokenMalformed
	}
	if claims.TokenType != KindAccess && claims.TokenType != KindRefresh {
		return nil, ErrUnsupportedTokenType
	}
	if strings.TrimSpace(claims.Subject) == "" || claims.TenantID <= 0 {
		return nil, ErrTokenMalformed
	}
	return claims, nil
}

// VerifyKind valida como Verify y además exige un tokenType concreto.
func (c *Codec) VerifyKind(token, kind string) (*Claims, error) {
	claims, err := c.Verify(token)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != kind {
		return nil, ErrUnsupportedTokenType
	}
	return claims, nil
}

// RemainingValidity retorna cuánta vida le queda al token, 0 para
// cualquier token inválido o vencido. Solo para hints al cliente;
// jamás para decisiones de seguridad.
func (c *Codec) RemainingValidity(token string) time.Duration {
	claims, err := c.Verify(token)
	if err != nil || claims.ExpiresAt == nil {
		return 0
	}
	d := time.Until(claims.ExpiresAt.Time)
	if d < 0 {
		return 0
	}
	return d
}

// classify traduce los errores de jwt/v5 a la taxonomía local.
func classify(err error) error {
	switch {
	case errors.Is(err, jwtv5.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwtv5.ErrTokenSignatureInvalid):
		return ErrBadSignature
	case errors.Is(err, ErrUnsupportedTokenType):
		return ErrUnsupportedTokenType
	default:
		return ErrTokenMalformed
	}
}
