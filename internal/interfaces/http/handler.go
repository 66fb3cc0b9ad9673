package http

import (
	"context"
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"homework-forwarder/internal/infrastructure"
	"homework-forwarder/internal/usecases"
)

// WebhookHandler receives Bot API updates, normalizes them and hands each one
// to the pipeline on its own goroutine. The token path segment must match the
// bot token so only Telegram can post here.
type WebhookHandler struct {
	Pipeline *usecases.ForwardPipeline
	Guard    *infrastructure.FloodGuard
	Token    string
}

func (h *WebhookHandler) HandleUpdate(c *gin.Context) {
	// Constant-time compare; the path segment is a secret.
	if subtle.ConstantTimeCompare([]byte(c.Param("token")), []byte(h.Token)) != 1 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown webhook path"})
		return
	}

	var update tgbotapi.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		log.Warn().Err(err).Msg("undecodable webhook update")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid update"})
		return
	}

	msg, ok := infrastructure.MapUpdate(update)
	if !ok {
		c.String(http.StatusOK, "OK")
		return
	}

	if h.Guard != nil && !h.Guard.Allow(msg.SenderID) {
		log.Debug().Int64("sender", msg.SenderID).Msg("flood guard dropped message")
		c.String(http.StatusOK, "OK")
		return
	}

	// One task per inbound message; the webhook responds immediately.
	go func() {
		if _, err := h.Pipeline.Handle(context.Background(), msg); err != nil {
			log.Error().Err(err).Msg("pipeline error")
		}
	}()

	c.String(http.StatusOK, "OK")
}

// SetupMinimalRoutes wires only the health page and the webhook, for
// deployments without operator credentials.
func SetupMinimalRoutes(r *gin.Engine, wh *WebhookHandler) {
	r.Use(SecurityHeaders())
	r.Use(RequestSizeLimiter(2 << 20))

	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Homework Forwarder Bot is live")
	})
	r.POST("/webhook/:token", wh.HandleUpdate)
}

// SetupRoutes wires the health page, the webhook and the admin API.
func SetupRoutes(r *gin.Engine, wh *WebhookHandler, admin *AdminHandler, auth *usecases.AuthUsecase, mw *Middleware) {
	SetupMinimalRoutes(r, wh)

	r.POST("/api/login", func(c *gin.Context) {
		var req struct {
			Password string `json:"password"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		token, err := auth.Login(req.Password)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"token": token})
	})

	api := r.Group("/api")
	api.Use(mw.AuthRequired(), mw.RateLimitPerClient(rate.Limit(5), 10))
	admin.RegisterRoutes(api)
}
