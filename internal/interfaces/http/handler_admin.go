package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"zapagent/internal/entities"
	"zapagent/internal/interfaces"
	"zapagent/internal/repository"
)

// AdminHandler provisions tenants. Secret fields arrive as plaintext in the
// request and are encrypted before touching the repository.
type AdminHandler struct {
	tenantRepo       *repository.TenantRepository
	conversationRepo *repository.ConversationRepository
	secrets          interfaces.SecretStore
	log              *logrus.Logger
}

func NewAdminHandler(tenantRepo *repository.TenantRepository, conversationRepo *repository.ConversationRepository, secrets interfaces.SecretStore, log *logrus.Logger) *AdminHandler {
	return &AdminHandler{
		tenantRepo:       tenantRepo,
		conversationRepo: conversationRepo,
		secrets:          secrets,
		log:              log,
	}
}

type createTenantRequest struct {
	Name           string `json:"name"`
	DisplayNumber  string `json:"display_number"`
	PhoneNumberID  string `json:"phone_number_id"`
	Provider       string `json:"provider"`
	WhatsAppToken  string `json:"whatsapp_token"`
	WebhookSecret  string `json:"webhook_secret"`
	VerifyToken    string `json:"verify_token"`
	ZAPIInstanceID string `json:"zapi_instance_id"`
	ZAPIToken      string `json:"zapi_token"`
	AIPrompt       string `json:"ai_prompt"`
	Language       string `json:"language"`
	Tone           string `json:"tone"`
	BusinessHours  string `json:"business_hours"`
}

// validate enforces the credential-pair invariant: exactly the fields of the
// configured provider are present.
func (req *createTenantRequest) validate() string {
	if !ValidateLength(req.Name, 1, MaxNameLength) {
		return "name is required"
	}
	if !ValidProvider(req.Provider) {
		return "provider must be 'meta' or 'zapi'"
	}
	switch strings.ToLower(strings.TrimSpace(req.Provider)) {
	case entities.ProviderMeta:
		if req.PhoneNumberID == "" || req.WhatsAppToken == "" || req.WebhookSecret == "" || req.VerifyToken == "" {
			return "meta tenants require phone_number_id, whatsapp_token, webhook_secret and verify_token"
		}
		if req.ZAPIInstanceID != "" || req.ZAPIToken != "" {
			return "meta tenants must not carry zapi credentials"
		}
	case entities.ProviderZAPI:
		if req.ZAPIInstanceID == "" || req.ZAPIToken == "" {
			return "zapi tenants require zapi_instance_id and zapi_token"
		}
		if req.WhatsAppToken != "" || req.WebhookSecret != "" {
			return "zapi tenants must not carry meta credentials"
		}
	}
	if len(req.AIPrompt) > MaxPromptLength {
		return "ai_prompt too long"
	}
	return ""
}

func (h *AdminHandler) CreateTenant(c *gin.Context) {
	var req createTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if msg := req.validate(); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	tenant := &entities.Tenant{
		Name:          SanitizeString(req.Name),
		DisplayNumber: req.DisplayNumber,
		PhoneNumberID: req.PhoneNumberID,
		Provider:      strings.ToLower(strings.TrimSpace(req.Provider)),
		AIPrompt:      SanitizeString(req.AIPrompt),
		Language:      req.Language,
		Tone:          req.Tone,
		BusinessHours: req.BusinessHours,
		Active:        true,
	}
	if tenant.Language == "" {
		tenant.Language = "Portuguese"
	}
	if tenant.Tone == "" {
		tenant.Tone = "Formal"
	}

	var err error
	encrypt := func(plaintext string) string {
		if err != nil || plaintext == "" {
			return ""
		}
		var ciphertext string
		ciphertext, err = h.secrets.Encrypt(plaintext)
		return ciphertext
	}
	tenant.WhatsAppTokenEnc = encrypt(req.WhatsAppToken)
	tenant.WebhookSecretEnc = encrypt(req.WebhookSecret)
	tenant.VerifyTokenEnc = encrypt(req.VerifyToken)
	tenant.ZAPIInstanceEnc = encrypt(req.ZAPIInstanceID)
	tenant.ZAPITokenEnc = encrypt(req.ZAPIToken)
	if err != nil {
		h.log.WithError(err).Error("Failed to encrypt tenant credentials")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Encryption failed"})
		return
	}

	if err := h.tenantRepo.Create(c.Request.Context(), tenant); err != nil {
		h.log.WithError(err).Error("Failed to create tenant")
		c.JSON(http.StatusConflict, gin.H{"error": "Could not create tenant"})
		return
	}
	c.JSON(http.StatusCreated, tenant)
}

func (h *AdminHandler) ListTenants(c *gin.Context) {
	tenants, err := h.tenantRepo.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch tenants"})
		return
	}
	c.JSON(http.StatusOK, tenants)
}

func (h *AdminHandler) UpdateTenantStatus(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tenant id"})
		return
	}

	var req struct {
		Active *bool `json:"active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Active == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if err := h.tenantRepo.SetActive(c.Request.Context(), id, *req.Active); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Tenant not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "active": *req.Active})
}

func (h *AdminHandler) GetConversations(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tenant id"})
		return
	}

	limit := 50
	if l, err := strconv.Atoi(c.Query("limit")); err == nil && l > 0 && l <= 500 {
		limit = l
	}

	turns, err := h.conversationRepo.ListByPhone(c.Request.Context(), id, c.Query("phone"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch conversations"})
		return
	}
	c.JSON(http.StatusOK, turns)
}
