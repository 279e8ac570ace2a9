package handler

import (
	"errors"
	"log"
	"net/http"

	"stamp_card/internal/model"
	"stamp_card/internal/repository"
	"stamp_card/internal/service"

	"github.com/gin-gonic/gin"
)

// MenuHandler serves the menu document
type MenuHandler struct {
	service service.MenuService
}

// NewMenuHandler creates a new MenuHandler
func NewMenuHandler(s service.MenuService) *MenuHandler {
	return &MenuHandler{service: s}
}

func (h *MenuHandler) GetMenu(c *gin.Context) {
	menu, err := h.service.GetMenu(c.Request.Context())
	if err != nil {
		if errors.Is(err, repository.ErrMenuCorrupt) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Menu is corrupt"})
			return
		}
		log.Printf("Error reading menu: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read menu"})
		return
	}
	c.JSON(http.StatusOK, menu)
}

func (h *MenuHandler) SaveMenu(c *gin.Context) {
	var menu model.Menu
	if err := c.ShouldBindJSON(&menu); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid menu format"})
		return
	}

	if err := h.service.SaveMenu(c.Request.Context(), menu); err != nil {
		if errors.Is(err, service.ErrInvalidMenu) || errors.Is(err, service.ErrInvalidProduct) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Printf("Error saving menu: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not save the menu"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// RegisterMenuRoutes registers menu routes
func (h *MenuHandler) RegisterMenuRoutes(r gin.IRouter, adminMW gin.HandlerFunc) {
	r.GET("/menu_data", h.GetMenu)
	if adminMW != nil {
		r.POST("/menu_data", adminMW, h.SaveMenu)
	} else {
		r.POST("/menu_data", h.SaveMenu)
	}
}
