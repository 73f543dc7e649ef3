package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zapagent/internal/entities"
	"zapagent/internal/interfaces"
	"zapagent/internal/usecases"
)

// Stub collaborators for routing-level tests. Orchestration behavior itself is
// covered in the usecases package.

type stubSecrets struct{}

func (stubSecrets) Encrypt(plaintext string) (string, error) { return "enc:" + plaintext, nil }

func (stubSecrets) Decrypt(ciphertext string) (string, error) {
	if !strings.HasPrefix(ciphertext, "enc:") {
		return "", errors.New("cannot decrypt value")
	}
	return strings.TrimPrefix(ciphertext, "enc:"), nil
}

type stubTenantStore struct {
	tenant *entities.Tenant
}

func (s *stubTenantStore) GetByPhoneNumberID(_ context.Context, id string) (*entities.Tenant, error) {
	if s.tenant != nil && s.tenant.PhoneNumberID == id {
		return s.tenant, nil
	}
	return nil, nil
}

func (s *stubTenantStore) GetByZAPIInstance(context.Context, string) (*entities.Tenant, error) {
	return nil, nil
}

func (s *stubTenantStore) GetByDisplayNumber(context.Context, string) (*entities.Tenant, error) {
	return nil, nil
}

type stubSessionStore struct{}

func (stubSessionStore) Get(context.Context, int, string) (*entities.SessionPolicy, error) {
	return nil, nil
}

func (stubSessionStore) Upsert(context.Context, int, string, bool) error { return nil }

type stubConversationStore struct {
	appended int
}

func (s *stubConversationStore) Append(context.Context, *entities.ConversationTurn) error {
	s.appended++
	return nil
}

func (s *stubConversationStore) RecentHistory(context.Context, int, string, int) ([]entities.HistoryEntry, error) {
	return nil, nil
}

type stubGenerator struct{}

func (stubGenerator) Generate(context.Context, string, string, string, string, []entities.HistoryEntry) string {
	return "ok"
}

type stubSender struct{}

func (stubSender) Send(context.Context, string, string) interfaces.SendOutcome {
	return interfaces.SendOutcome{Success: true, StatusCode: 200}
}

type stubDispatcher struct{}

func (stubDispatcher) Dispatch(*entities.Tenant) (interfaces.Sender, error) {
	return stubSender{}, nil
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestRouter(t *testing.T, tenant *entities.Tenant) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := quietLogger()
	service := usecases.NewWebhookService(
		&stubTenantStore{tenant: tenant},
		&stubConversationStore{},
		usecases.NewPolicyGate(stubSessionStore{}, log),
		stubGenerator{},
		stubDispatcher{},
		stubSecrets{},
		true, // stub tenants carry no real HMAC secret
		log,
	)

	r := gin.New()
	SetupRoutes(r, service, nil, nil, nil, NewMiddleware("jwt-secret", "admin-key"), log)
	return r
}

func verifiedTenant() *entities.Tenant {
	return &entities.Tenant{
		ID:             1,
		Provider:       "meta",
		PhoneNumberID:  "101",
		VerifyTokenEnc: "enc:verify-me",
		Active:         true,
	}
}

func perform(r *gin.Engine, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHomeAndHealth(t *testing.T) {
	r := newTestRouter(t, nil)

	w := perform(r, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "running")

	w = perform(r, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestStatusCallbacksAcknowledge(t *testing.T) {
	r := newTestRouter(t, nil)

	for _, path := range []string{"/webhook/delivery", "/webhook/connected", "/webhook/disconnected", "/webhook/status"} {
		w := perform(r, http.MethodPost, path, `{"anything":true}`, nil)
		assert.Equal(t, http.StatusOK, w.Code, "path %s", path)
		assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	}
}

func TestReceiveWebhookAccepted(t *testing.T) {
	r := newTestRouter(t, verifiedTenant())
	body := `{"entry":[{"changes":[{"value":{"metadata":{"phone_number_id":"101"},"messages":[{"from":"5511999","text":{"body":"oi"}}]}}]}]}`

	w := perform(r, http.MethodPost, "/webhook", body, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"received"}`, w.Body.String())
}

func TestReceiveWebhookMalformed(t *testing.T) {
	r := newTestRouter(t, nil)

	w := perform(r, http.MethodPost, "/webhook", `{"foo":"bar"}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "detail")
}

func TestReceiveWebhookUnknownTenant(t *testing.T) {
	r := newTestRouter(t, nil)
	body := `{"entry":[{"changes":[{"value":{"metadata":{"phone_number_id":"999"},"messages":[{"from":"5511999","text":{"body":"oi"}}]}}]}]}`

	w := perform(r, http.MethodPost, "/webhook", body, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestVerifyWebhookHandshake(t *testing.T) {
	r := newTestRouter(t, verifiedTenant())

	w := perform(r, http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=verify-me&hub.challenge=12345&phone_number_id=101", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	// the challenge is echoed as plain text, not JSON
	assert.Equal(t, "12345", w.Body.String())

	w = perform(r, http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=12345&phone_number_id=101", "", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = perform(r, http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=verify-me&hub.challenge=12345&phone_number_id=999", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPingDBRequiresAdminKey(t *testing.T) {
	r := newTestRouter(t, nil)

	w := perform(r, http.MethodGet, "/ping-db", "", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = perform(r, http.MethodGet, "/ping-db", "", map[string]string{"X-API-Key": "wrong"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestProvisioningRoutesRequireAuth(t *testing.T) {
	r := newTestRouter(t, nil)

	w := perform(r, http.MethodGet, "/api/tenants", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = perform(r, http.MethodGet, "/api/tenants", "", map[string]string{"Authorization": "Bearer not-a-jwt"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequestIDHeaderEcho(t *testing.T) {
	r := newTestRouter(t, nil)

	w := perform(r, http.MethodGet, "/health", "", map[string]string{"X-Request-ID": "req-1"})
	assert.Equal(t, "req-1", w.Header().Get("X-Request-ID"))

	w = perform(r, http.MethodGet, "/health", "", nil)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}
