package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"stamp_card/internal/service"

	"github.com/gin-gonic/gin"
)

// PushHandler exposes the VAPID key and the manual push broadcast
type PushHandler struct {
	service   service.PushService
	publicKey string
}

// NewPushHandler creates a new PushHandler
func NewPushHandler(s service.PushService, publicKey string) *PushHandler {
	return &PushHandler{service: s, publicKey: publicKey}
}

func (h *PushHandler) VAPIDPublicKey(c *gin.Context) {
	c.String(http.StatusOK, h.publicKey)
}

func (h *PushHandler) SendPush(c *gin.Context) {
	var req struct {
		Title   string          `json:"title"`
		Message string          `json:"message"`
		IDs     json.RawMessage `json:"ids"`
		Icon    string          `json:"icon"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	ids, err := parseTargetIDs(req.IDs)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sent := h.service.Send(c.Request.Context(), service.PushRequest{
		Title:   req.Title,
		Message: req.Message,
		IDs:     ids,
		Icon:    req.Icon,
	})
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Notifications sent to %d clients", sent), "sent": sent})
}

var errIDs = errors.New(`ids must be "all" or an array of ids`)

// parseTargetIDs accepts "all" (nil result) or an array of string or numeric ids
func parseTargetIDs(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 {
		return nil, errIDs
	}
	var all string
	if err := json.Unmarshal(raw, &all); err == nil {
		if all == "all" {
			return nil, nil
		}
		return nil, errIDs
	}
	var list []any
	if err := json.Unmarshal(raw, &list); err != nil || list == nil {
		return nil, errIDs
	}
	ids := make([]string, 0, len(list))
	for _, v := range list {
		switch id := v.(type) {
		case string:
			ids = append(ids, id)
		case float64:
			ids = append(ids, strconv.FormatFloat(id, 'f', -1, 64))
		default:
			return nil, errIDs
		}
	}
	return ids, nil
}

// RegisterPushRoutes registers push routes
func (h *PushHandler) RegisterPushRoutes(r gin.IRouter, adminMW gin.HandlerFunc) {
	r.GET("/vapidPublicKey", h.VAPIDPublicKey)
	if adminMW != nil {
		r.POST("/sendPush", adminMW, h.SendPush)
	} else {
		r.POST("/sendPush", h.SendPush)
	}
}
