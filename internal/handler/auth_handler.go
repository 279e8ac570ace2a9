package handler

import (
	"errors"
	"log"
	"net/http"

	"stamp_card/internal/service"

	"github.com/gin-gonic/gin"
)

// AuthHandler handles admin login requests
type AuthHandler struct {
	service service.AuthService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(s service.AuthService) *AuthHandler {
	return &AuthHandler{service: s}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Usuario  string `json:"usuario"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	token, err := h.service.Login(c.Request.Context(), req.Usuario, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusOK, gin.H{"success": false})
			return
		}
		log.Printf("Error during login: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to login"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "token": token})
}

func (h *AuthHandler) Validate(c *gin.Context) {
	var req struct {
		Token string `json:"token"`
	}
	// A missing or malformed body is just an invalid token.
	_ = c.ShouldBindJSON(&req)
	c.JSON(http.StatusOK, gin.H{"valid": h.service.Validate(req.Token)})
}

// RegisterAuthRoutes registers auth routes
func (h *AuthHandler) RegisterAuthRoutes(r gin.IRouter) {
	r.POST("/login", h.Login)
	r.POST("/validate", h.Validate)
}
