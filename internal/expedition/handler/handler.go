package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/jptechsolutions-a11y/APPOPERA/internal/expedition/service"
	"github.com/jptechsolutions-a11y/APPOPERA/internal/expedition/sse"
	"github.com/jptechsolutions-a11y/APPOPERA/internal/gateway"
)

// Handlers is the handler set for the expedition API.
type Handlers struct {
	Session    *SessionHandler
	Expedition *ExpeditionHandler
	SSE        *SSEHandler
}

func NewHandlers(app *service.AppService, hub *sse.Hub, jwtSecret string, jwtExpire int64, jwtIssuer string) *Handlers {
	return &Handlers{
		Session:    NewSessionHandler(app, jwtSecret, jwtExpire, jwtIssuer),
		Expedition: NewExpeditionHandler(app),
		SSE:        NewSSEHandler(hub),
	}
}

// === response helpers ===

type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
	})
}

func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

func Unauthorized(c *gin.Context, message string) {
	Error(c, 40100, message)
}

func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

// FailFromError maps the service error taxonomy onto the response
// envelope: validation → 400, auth → 401, backend/transport → 502 with the
// gateway's extracted message, anything else → 500.
func FailFromError(c *gin.Context, err error) {
	var (
		validationErr *service.ValidationError
		authErr       *service.AuthError
		apiErr        *gateway.APIError
	)
	switch {
	case errors.As(err, &validationErr):
		BadRequest(c, validationErr.Msg)
	case errors.As(err, &authErr):
		Unauthorized(c, authErr.Msg)
	case errors.As(err, &apiErr):
		Error(c, 50200, apiErr.Error())
	default:
		InternalError(c, err.Error())
	}
}
