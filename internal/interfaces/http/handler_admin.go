package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"homework-forwarder/internal/repository"
	"homework-forwarder/internal/usecases"
)

// AdminHandler fronts the operator hooks: route CRUD, config reload, forward
// summaries and sender activity.
type AdminHandler struct {
	admin *usecases.AdminService
}

func NewAdminHandler(admin *usecases.AdminService) *AdminHandler {
	return &AdminHandler{admin: admin}
}

func (h *AdminHandler) RegisterRoutes(api *gin.RouterGroup) {
	api.GET("/status", h.GetStatus)
	api.GET("/routes", h.ListRoutes)
	api.POST("/routes", h.AddRoute)
	api.DELETE("/routes/:source", h.RemoveRoute)
	api.POST("/reload", h.Reload)
	api.GET("/summary", h.Summary)
	api.DELETE("/summary", h.ClearLog)
	api.GET("/senders", h.ListSenders)
	api.DELETE("/senders", h.ClearSenders)
}

func (h *AdminHandler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.admin.Status())
}

func (h *AdminHandler) ListRoutes(c *gin.Context) {
	routes := h.admin.ListRoutes()
	out := make([]gin.H, 0, len(routes))
	for source, dests := range routes {
		out = append(out, gin.H{"source": source, "destinations": dests})
	}
	c.JSON(http.StatusOK, out)
}

func (h *AdminHandler) AddRoute(c *gin.Context) {
	var req struct {
		Source      int64 `json:"source"`
		Destination int64 `json:"destination"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if err := h.admin.AddRoute(req.Source, req.Destination); err != nil {
		if errors.Is(err, repository.ErrSelfRoute) || errors.Is(err, repository.ErrInvalidChatID) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add route"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "added"})
}

func (h *AdminHandler) RemoveRoute(c *gin.Context) {
	source, err := strconv.ParseInt(c.Param("source"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid source ID"})
		return
	}

	if err := h.admin.RemoveRoute(source); err != nil {
		if errors.Is(err, repository.ErrRouteNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Route not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove route"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "removed"})
}

func (h *AdminHandler) Reload(c *gin.Context) {
	count, err := h.admin.Reload()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "reloaded", "routes": count})
}

// Summary returns the forwards of the trailing window, default 7 days.
func (h *AdminHandler) Summary(c *gin.Context) {
	days := 7
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid days parameter"})
			return
		}
		days = parsed
	}
	window := time.Duration(days) * 24 * time.Hour
	c.JSON(http.StatusOK, gin.H{"days": days, "summary": h.admin.Summary(window)})
}

func (h *AdminHandler) ClearLog(c *gin.Context) {
	h.admin.ClearLog()
	c.JSON(http.StatusOK, gin.H{"status": "cleared"})
}

func (h *AdminHandler) ListSenders(c *gin.Context) {
	senders := h.admin.Senders()
	out := make([]gin.H, 0, len(senders))
	for _, s := range senders {
		out = append(out, gin.H{
			"sender_id": s.SenderID,
			"name":      s.Name,
			"snippet":   s.Snippet,
			"last_seen": s.LastSeen,
		})
	}
	c.JSON(http.StatusOK, out)
}

func (h *AdminHandler) ClearSenders(c *gin.Context) {
	h.admin.ClearSenders()
	c.JSON(http.StatusOK, gin.H{"status": "cleared"})
}
