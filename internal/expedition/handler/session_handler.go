package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/jptechsolutions-a11y/APPOPERA/internal/expedition/service"
	"github.com/jptechsolutions-a11y/APPOPERA/internal/middleware"
)

// SessionHandler exposes the session/tenant intents.
type SessionHandler struct {
	app       *service.AppService
	jwtSecret string
	jwtExpire int64 // seconds
	jwtIssuer string
}

func NewSessionHandler(app *service.AppService, jwtSecret string, jwtExpire int64, jwtIssuer string) *SessionHandler {
	return &SessionHandler{
		app:       app,
		jwtSecret: jwtSecret,
		jwtExpire: jwtExpire,
		jwtIssuer: jwtIssuer,
	}
}

type loginRequest struct {
	Credencial string `json:"credencial"`
	IP         string `json:"ip"`
}

type sessionResponse struct {
	Token string              `json:"token,omitempty"`
	State service.RenderState `json:"state"`
}

// Login handles POST /session/login.
func (h *SessionHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	if err := h.app.Login(c.Request.Context(), req.Credencial, req.IP); err != nil {
		FailFromError(c, err)
		return
	}

	token, err := h.mintToken(req.Credencial)
	if err != nil {
		InternalError(c, "failed to issue session token")
		return
	}
	Success(c, sessionResponse{Token: token, State: h.app.Snapshot()})
}

// Restore handles POST /session/restore: replays persisted state and, when
// the credential still validates, issues a fresh token.
func (h *SessionHandler) Restore(c *gin.Context) {
	h.app.RestoreSession(c.Request.Context())

	state := h.app.Snapshot()
	resp := sessionResponse{State: state}
	if state.Stage == service.StageAuthenticated || state.Stage == service.StageReady {
		if cred := h.app.CredencialCode(); cred != "" {
			if token, err := h.mintToken(cred); err == nil {
				resp.Token = token
			}
		}
	}
	Success(c, resp)
}

type selectFilialRequest struct {
	Nome string `json:"nome"`
}

// SelectFilial handles POST /session/filial.
func (h *SessionHandler) SelectFilial(c *gin.Context) {
	var req selectFilialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	if err := h.app.SelectFilial(c.Request.Context(), req.Nome); err != nil {
		FailFromError(c, err)
		return
	}
	Success(c, h.app.Snapshot())
}

// SwitchFilial handles POST /session/filial/switch.
func (h *SessionHandler) SwitchFilial(c *gin.Context) {
	h.app.SwitchFilial()
	Success(c, h.app.Snapshot())
}

// Logout handles POST /session/logout.
func (h *SessionHandler) Logout(c *gin.Context) {
	h.app.Logout(c.Request.Context())
	Success(c, h.app.Snapshot())
}

// LogoutFull handles POST /session/logout/full.
func (h *SessionHandler) LogoutFull(c *gin.Context) {
	h.app.LogoutFull(c.Request.Context())
	Success(c, h.app.Snapshot())
}

// ResetIP handles POST /session/ip/reset.
func (h *SessionHandler) ResetIP(c *gin.Context) {
	h.app.ResetIP(c.Request.Context())
	Success(c, h.app.Snapshot())
}

func (h *SessionHandler) mintToken(credencial string) (string, error) {
	now := time.Now()
	claims := middleware.SessionClaims{
		Credencial: credencial,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    h.jwtIssuer,
			Subject:   credencial,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(h.jwtExpire) * time.Second)),
			ID:        uuid.New().String(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.jwtSecret))
}
