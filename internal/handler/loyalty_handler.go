package handler

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"stamp_card/internal/model"
	"stamp_card/internal/service"

	"github.com/gin-gonic/gin"
)

// Notifier signals connected realtime observers that some data changed
type Notifier interface {
	Broadcast(category model.ChangeCategory)
}

// LoyaltyHandler handles clients, stamps and prizes
type LoyaltyHandler struct {
	service  service.LoyaltyService
	notifier Notifier
}

// NewLoyaltyHandler creates a new LoyaltyHandler
func NewLoyaltyHandler(s service.LoyaltyService, n Notifier) *LoyaltyHandler {
	return &LoyaltyHandler{service: s, notifier: n}
}

func (h *LoyaltyHandler) Subscribe(c *gin.Context) {
	var req struct {
		Name         string                  `json:"name"`
		Phone        string                  `json:"phone"`
		Subscription *model.PushSubscription `json:"subscription"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Phone = strings.TrimSpace(req.Phone)
	if req.Name == "" || req.Phone == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing name or phone"})
		return
	}
	if req.Subscription == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing subscription object"})
		return
	}
	if req.Subscription.Endpoint == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing subscription endpoint"})
		return
	}

	user, isNew := h.service.UpsertSubscription(c.Request.Context(), req.Name, req.Phone, *req.Subscription)
	if isNew {
		log.Printf("INFO: new subscriber %s (%s)", user.ID, user.Name)
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Subscription saved", "id": user.ID, "new": isNew})
	h.notifier.Broadcast(model.ClientsChanged)
}

func (h *LoyaltyHandler) ListClients(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.ListActiveUsers())
}

func (h *LoyaltyHandler) AddStamp(c *gin.Context) {
	var req struct {
		ID string `json:"id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	stamps, prize, err := h.service.AddStamp(c.Request.Context(), req.ID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		} else if errors.Is(err, service.ErrAlreadyMaxed) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			log.Printf("Error adding stamp: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add stamp"})
		}
		return
	}

	var prizeID *string
	if prize != "" {
		prizeID = &prize
	}
	c.JSON(http.StatusOK, gin.H{"message": "Stamp added", "stamps": stamps, "prize": prizeID})
	h.notifier.Broadcast(model.ClientsChanged)
}

func (h *LoyaltyHandler) RegisterUser(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing name"})
		return
	}

	user, created := h.service.RegisterUser(c.Request.Context(), strings.TrimSpace(req.Name))
	if created {
		c.JSON(http.StatusCreated, gin.H{"message": "User registered", "id": user.ID})
	} else {
		c.JSON(http.StatusOK, gin.H{"message": "User already registered", "id": user.ID})
	}
	h.notifier.Broadcast(model.ClientsChanged)
}

func (h *LoyaltyHandler) DeleteClient(c *gin.Context) {
	if err := h.service.DeleteUser(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		log.Printf("Error deleting client: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete client"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Client deleted"})
	h.notifier.Broadcast(model.ClientsChanged)
}

func (h *LoyaltyHandler) ListPrizes(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.ListPrizes())
}

func (h *LoyaltyHandler) CreatePrize(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing prize name"})
		return
	}

	prize := h.service.CreatePrize(c.Request.Context(), strings.TrimSpace(req.Name))
	c.JSON(http.StatusCreated, gin.H{"message": "Prize created", "id": prize.ID})
	h.notifier.Broadcast(model.PrizesChanged)
}

func (h *LoyaltyHandler) DeletePrize(c *gin.Context) {
	if err := h.service.DeletePrize(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, service.ErrPrizeNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		log.Printf("Error deleting prize: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete prize"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Prize deleted"})
	h.notifier.Broadcast(model.PrizesChanged)
}

func (h *LoyaltyHandler) RedeemCard(c *gin.Context) {
	var req struct {
		UserID string `json:"userId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	if err := h.service.RedeemCard(c.Request.Context(), req.UserID); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		log.Printf("Error redeeming card: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to redeem card"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Card reset"})
	h.notifier.Broadcast(model.ClientsChanged)
}

// RegisterLoyaltyRoutes registers client and prize routes. adminMW guards the
// admin-only routes when it is not nil.
func (h *LoyaltyHandler) RegisterLoyaltyRoutes(r gin.IRouter, adminMW gin.HandlerFunc) {
	r.POST("/subscribe", h.Subscribe)
	r.POST("/api/usuarios", h.RegisterUser)
	r.GET("/premios", h.ListPrizes)

	admin := r.Group("")
	if adminMW != nil {
		admin.Use(adminMW)
	}
	{
		admin.GET("/clientes", h.ListClients)
		admin.DELETE("/clientes/:id", h.DeleteClient)
		admin.POST("/agregarSello", h.AddStamp)
		admin.POST("/premios", h.CreatePrize)
		admin.DELETE("/premios/:id", h.DeletePrize)
		admin.POST("/premios/canjear", h.RedeemCard)
	}
}
