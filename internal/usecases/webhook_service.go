package usecases

import (
	"context"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"zapagent/internal/entities"
	"zapagent/internal/interfaces"
)

// historyLimit bounds how many prior turns feed the generator.
const historyLimit = 5

// Acknowledgment texts echoed back for the in-band toggle commands.
const (
	disabledAckText = "🤖 Atendimento automático pausado. Um atendente humano irá continuar a conversa. Envie /ia para reativar."
	enabledAckText  = "🤖 Atendimento automático reativado. Como posso ajudar?"
)

// Result is the terminal outcome of one webhook request. Detail is only set
// for error statuses and becomes the response's "detail" field.
type Result struct {
	Status int
	Detail string
}

func received() Result {
	return Result{Status: http.StatusOK}
}

func rejected(status int, detail string) Result {
	return Result{Status: status, Detail: detail}
}

// WebhookService runs the full inbound pipeline: classify, resolve tenant,
// verify signature, gate, generate, persist, dispatch. Every request reaches
// a terminal state; only classification, resolution and signature failures
// surface as non-200 responses.
type WebhookService struct {
	tenants       interfaces.TenantStore
	conversations interfaces.ConversationStore
	gate          *PolicyGate
	generator     interfaces.Generator
	dispatcher    interfaces.Dispatcher
	secrets       interfaces.SecretStore

	// bypassSignature skips HMAC verification. Debug/testing only; wired to
	// an explicit config switch and logged at startup.
	bypassSignature bool

	log *logrus.Logger
}

func NewWebhookService(
	tenants interfaces.TenantStore,
	conversations interfaces.ConversationStore,
	gate *PolicyGate,
	generator interfaces.Generator,
	dispatcher interfaces.Dispatcher,
	secrets interfaces.SecretStore,
	bypassSignature bool,
	log *logrus.Logger,
) *WebhookService {
	return &WebhookService{
		tenants:         tenants,
		conversations:   conversations,
		gate:            gate,
		generator:       generator,
		dispatcher:      dispatcher,
		secrets:         secrets,
		bypassSignature: bypassSignature,
		log:             log,
	}
}

// HandleWebhook processes one raw webhook delivery.
func (s *WebhookService) HandleWebhook(ctx context.Context, raw []byte, signatureHeader string) Result {
	cls, err := ClassifyPayload(raw)
	if err != nil {
		return rejected(http.StatusBadRequest, err.Error())
	}
	if cls.Kind == ClassIgnorable {
		s.log.WithField("reason", cls.Reason).Debug("Ignoring non-user webhook event")
		return received()
	}
	msg := cls.Message

	tenant, err := s.resolveTenant(ctx, msg)
	if err != nil {
		s.log.WithError(err).Error("Tenant resolution failed")
		return rejected(http.StatusInternalServerError, "tenant resolution failed")
	}
	if tenant == nil {
		return rejected(http.StatusNotFound, "tenant not found")
	}

	logger := s.log.WithFields(logrus.Fields{
		"tenant_id": tenant.ID,
		"provider":  tenant.Provider,
		"from":      msg.From,
	})

	// The gateway has no signature equivalent; only meta deliveries carry one.
	if msg.ProviderType == entities.ProviderMeta && !s.bypassSignature {
		secret, err := s.secrets.Decrypt(tenant.WebhookSecretEnc)
		if err != nil {
			logger.WithError(err).Error("Webhook secret cannot be decrypted")
			return rejected(http.StatusForbidden, "invalid signature")
		}
		if err := VerifySignature(secret, raw, signatureHeader); err != nil {
			logger.Warn("Webhook signature rejected")
			return rejected(http.StatusForbidden, "invalid signature")
		}
	}

	decision, err := s.gate.Evaluate(ctx, tenant, msg.From, msg.Text)
	if err != nil {
		logger.WithError(err).Error("Session policy gate failed")
		return rejected(http.StatusInternalServerError, "session policy error")
	}

	switch decision {
	case GateSuppressed:
		logger.Debug("Message suppressed by session policy")
		return received()
	case GateDisabledAck:
		return s.sendAck(ctx, tenant, msg.From, disabledAckText, logger)
	case GateEnabledAck:
		return s.sendAck(ctx, tenant, msg.From, enabledAckText, logger)
	}

	history, err := s.conversations.RecentHistory(ctx, tenant.ID, msg.From, historyLimit)
	if err != nil {
		// Degrade to a context-free reply rather than dropping the message.
		logger.WithError(err).Warn("Could not load conversation history")
		history = nil
	}

	reply := s.generator.Generate(ctx, msg.Text, tenant.AIPrompt, tenant.Language, tenant.Tone, history)

	turn := &entities.ConversationTurn{
		TenantID:    tenant.ID,
		PhoneNumber: msg.From,
		UserMessage: msg.Text,
		AIResponse:  reply,
	}
	if err := s.conversations.Append(ctx, turn); err != nil {
		// The webhook contract still wants the reply delivered.
		logger.WithError(err).Error("Failed to persist conversation turn")
	}

	sender, err := s.dispatcher.Dispatch(tenant)
	if err != nil {
		if errors.Is(err, ErrUnsupportedProvider) {
			logger.WithError(err).Error("Tenant has unsupported provider")
			return rejected(http.StatusInternalServerError, "unsupported provider")
		}
		logger.WithError(err).Error("Dispatch failed")
		return received()
	}

	outcome := sender.Send(ctx, msg.From, reply)
	if !outcome.Success {
		logger.WithFields(logrus.Fields{
			"status": outcome.StatusCode,
			"body":   outcome.Body,
		}).Error("Outbound send failed")
	}
	return received()
}

// resolveTenant maps the classified message to its owning tenant. A nil
// tenant with nil error means not found.
func (s *WebhookService) resolveTenant(ctx context.Context, msg *entities.InboundMessage) (*entities.Tenant, error) {
	if msg.ProviderType == entities.ProviderMeta {
		return s.tenants.GetByPhoneNumberID(ctx, msg.LookupKey)
	}
	if msg.InstanceID != "" {
		return s.tenants.GetByZAPIInstance(ctx, msg.InstanceID)
	}
	return s.tenants.GetByDisplayNumber(ctx, msg.From)
}

// sendAck echoes a toggle acknowledgment. Ack delivery is best-effort; only
// an unsupported provider is treated as a hard error.
func (s *WebhookService) sendAck(ctx context.Context, tenant *entities.Tenant, phone, text string, logger *logrus.Entry) Result {
	sender, err := s.dispatcher.Dispatch(tenant)
	if err != nil {
		if errors.Is(err, ErrUnsupportedProvider) {
			return rejected(http.StatusInternalServerError, "unsupported provider")
		}
		logger.WithError(err).Error("Could not dispatch acknowledgment")
		return received()
	}
	if outcome := sender.Send(ctx, phone, text); !outcome.Success {
		logger.WithField("status", outcome.StatusCode).Warn("Acknowledgment send failed")
	}
	return received()
}

// VerifyHandshake answers the Meta GET /webhook subscription challenge.
func (s *WebhookService) VerifyHandshake(ctx context.Context, phoneNumberID, mode, verifyToken string) Result {
	tenant, err := s.tenants.GetByPhoneNumberID(ctx, phoneNumberID)
	if err != nil {
		s.log.WithError(err).Error("Tenant lookup failed during handshake")
		return rejected(http.StatusInternalServerError, "tenant resolution failed")
	}
	if tenant == nil {
		return rejected(http.StatusNotFound, "tenant not found")
	}

	expected, err := s.secrets.Decrypt(tenant.VerifyTokenEnc)
	if err != nil {
		s.log.WithField("tenant_id", tenant.ID).WithError(err).Error("Verify token cannot be decrypted")
		return rejected(http.StatusForbidden, "invalid verification token")
	}
	if mode != "subscribe" || verifyToken != expected {
		return rejected(http.StatusForbidden, "invalid verification token")
	}
	return received()
}
