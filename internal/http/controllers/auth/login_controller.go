package auth

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	dto "github.com/dropDatabas3/tenantgate/internal/http/dto/auth"
	httperrors "github.com/dropDatabas3/tenantgate/internal/http/errors"
	"github.com/dropDatabas3/tenantgate/internal/http/middlewares"
	svc "github.com/dropDatabas3/tenantgate/internal/http/services/auth"
	"github.com/dropDatabas3/tenantgate/internal/observability/logger"
)

// LoginController maneja el endpoint de login.
type LoginController struct {
	service svc.LoginService
}

// NewLoginController crea un nuevo controller de login.
func NewLoginController(service svc.LoginService) *LoginController {
	return &LoginController{service: service}
}

// Login maneja POST /api/auth/login
//
// El tenant viene en el header X-Tenant-ID. Este es el único endpoint
// que confía en ese header: una vez emitidos los tokens, el tenant
// viaja firmado en los claims y el header se ignora.
func (c *LoginController) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("LoginController.Login"))

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
		return
	}

	tenantID, ok := tenantFromHeader(r)
	if !ok {
		httperrors.WriteError(w, httperrors.ErrMissingTenantHeader)
		return
	}

	// Limitar body
	r.Body = http.MaxBytesReader(w, r.Body, maxLoginBodySize)
	defer r.Body.Close()

	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.WriteError(w, httperrors.ErrInvalidJSON)
		return
	}

	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("email y password son obligatorios"))
		return
	}

	req.TenantID = tenantID
	req.DeviceInfo = r.UserAgent()
	req.IPAddress = middlewares.ClientIP(r)

	result, err := c.service.Login(ctx, req)
	if err != nil {
		log.Debug("login rejected", logger.Err(err))
		writeAuthError(w, err, log)
		return
	}

	// Headers de seguridad: el par de tokens no se cachea nunca.
	w.Header().Set("Content-Type", contentTypeJSON)
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(result.Response())
}

// tenantFromHeader parsea X-Tenant-ID. Un header ausente, no numérico
// o no positivo se rechaza igual: acá no hay tenant por defecto.
func tenantFromHeader(r *http.Request) (int64, bool) {
	raw := strings.TrimSpace(r.Header.Get("X-Tenant-ID"))
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
