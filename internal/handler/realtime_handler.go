package handler

import (
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// RealtimeHandler serves the websocket channel and the front-end files
type RealtimeHandler struct {
	hub       http.Handler
	staticDir string
}

// NewRealtimeHandler creates a new RealtimeHandler. staticDir may be empty to disable file serving.
func NewRealtimeHandler(hub http.Handler, staticDir string) *RealtimeHandler {
	return &RealtimeHandler{hub: hub, staticDir: staticDir}
}

func (h *RealtimeHandler) ServeWS(c *gin.Context) {
	h.hub.ServeHTTP(c.Writer, c.Request)
}

// Fallback upgrades websocket requests on any path and serves static files otherwise
func (h *RealtimeHandler) Fallback() gin.HandlerFunc {
	var files http.Handler
	if h.staticDir != "" {
		files = http.FileServer(http.Dir(h.staticDir))
	}
	return func(c *gin.Context) {
		if websocket.IsWebSocketUpgrade(c.Request) {
			h.ServeWS(c)
			return
		}
		if files == nil || (c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead) || hiddenPath(c.Request.URL.Path) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}
		files.ServeHTTP(c.Writer, c.Request)
	}
}

// RegisterRealtimeRoutes registers the websocket endpoint and the static fallback
func (h *RealtimeHandler) RegisterRealtimeRoutes(router *gin.Engine) {
	router.GET("/ws", h.ServeWS)
	// The state file may live next to the front-end; never serve it.
	router.GET("/data.json", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/index.html")
	})
	router.NoRoute(h.Fallback())
}

// hiddenPath reports whether any segment of p is a dotfile such as .env
func hiddenPath(p string) bool {
	for _, seg := range strings.Split(path.Clean(p), "/") {
		if strings.HasPrefix(seg, ".") && seg != "." {
			return true
		}
	}
	return false
}
