package http

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"zapagent/internal/usecases"
)

type Handler struct {
	webhookService *usecases.WebhookService
	db             *pgxpool.Pool
	log            *logrus.Logger
}

func NewHandler(service *usecases.WebhookService, db *pgxpool.Pool, log *logrus.Logger) *Handler {
	return &Handler{
		webhookService: service,
		db:             db,
		log:            log,
	}
}

func SetupRoutes(r *gin.Engine, service *usecases.WebhookService, auth *usecases.AuthUsecase, admin *AdminHandler, db *pgxpool.Pool, middleware *Middleware, log *logrus.Logger) {
	h := NewHandler(service, db, log)

	// Apply Security Middleware
	r.Use(SecurityHeaders())
	r.Use(RequestID())
	r.Use(RequestSizeLimiter(10 << 20)) // 10MB max request size
	r.Use(middleware.CORSMiddleware())

	// Webhook Routes (public; authenticity is per-payload, not per-route)
	r.GET("/webhook", h.VerifyWebhook)
	r.POST("/webhook", RequestSizeLimiter(1<<20), h.ReceiveWebhook)
	r.POST("/webhook/delivery", h.StatusCallback("delivery"))
	r.POST("/webhook/connected", h.StatusCallback("connected"))
	r.POST("/webhook/disconnected", h.StatusCallback("disconnected"))
	r.POST("/webhook/status", h.StatusCallback("status"))

	// Liveness
	r.GET("/", h.Home)
	r.GET("/health", h.Health)
	r.GET("/ping-db", middleware.AdminKeyRequired(), h.PingDB)

	// Public Auth Routes
	r.POST("/api/auth/login", func(c *gin.Context) {
		var loginReq struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := c.ShouldBindJSON(&loginReq); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		token, err := auth.Login(c.Request.Context(), loginReq.Username, loginReq.Password)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"token": token})
	})

	// Protected Provisioning Routes
	api := r.Group("/api")
	api.Use(middleware.AuthRequired())
	api.Use(middleware.AdminRequired())
	api.Use(middleware.RateLimitPerUser(5, 10))
	{
		api.POST("/tenants", admin.CreateTenant)
		api.GET("/tenants", admin.ListTenants)
		api.PUT("/tenants/:id/status", admin.UpdateTenantStatus)
		api.GET("/tenants/:id/conversations", admin.GetConversations)
	}
}

// ReceiveWebhook is the single inbound entrypoint for all providers. The
// orchestrator decides the terminal state; non-200 outcomes carry a detail.
func (h *Handler) ReceiveWebhook(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "cannot read request body"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 60*time.Second)
	defer cancel()

	res := h.webhookService.HandleWebhook(ctx, raw, c.GetHeader("X-Hub-Signature-256"))
	if res.Status != http.StatusOK {
		c.JSON(res.Status, gin.H{"detail": res.Detail})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "received"})
}

// VerifyWebhook answers Meta's subscription handshake with the plaintext
// challenge when the verify token matches.
func (h *Handler) VerifyWebhook(c *gin.Context) {
	mode := c.Query("hub.mode")
	challenge := c.Query("hub.challenge")
	verifyToken := c.Query("hub.verify_token")
	phoneNumberID := c.Query("phone_number_id")

	res := h.webhookService.VerifyHandshake(c.Request.Context(), phoneNumberID, mode, verifyToken)
	if res.Status != http.StatusOK {
		c.JSON(res.Status, gin.H{"detail": res.Detail})
		return
	}
	c.String(http.StatusOK, challenge)
}

// StatusCallback acknowledges gateway lifecycle callbacks. There is no
// processing contract beyond logging them.
func (h *Handler) StatusCallback(kind string) gin.HandlerFunc {
	return func(c *gin.Context) {
		h.log.WithFields(logrus.Fields{
			"callback":   kind,
			"request_id": c.GetString("request_id"),
		}).Info("Gateway status callback received")
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

func (h *Handler) Home(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "WhatsApp AI Agent is running!"})
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) PingDB(c *gin.Context) {
	if err := h.db.Ping(c.Request.Context()); err != nil {
		h.log.WithError(err).Error("DB ping failed")
		c.JSON(http.StatusOK, gin.H{"db": "error", "detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"db": "ok"})
}
