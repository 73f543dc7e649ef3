package usecases

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"zapagent/internal/entities"
	"zapagent/internal/interfaces"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// fakeSecrets encrypts by prefixing "enc:"; anything without the prefix is
// undecryptable.
type fakeSecrets struct{}

func (fakeSecrets) Encrypt(plaintext string) (string, error) {
	return "enc:" + plaintext, nil
}

func (fakeSecrets) Decrypt(ciphertext string) (string, error) {
	if !strings.HasPrefix(ciphertext, "enc:") {
		return "", errors.New("cannot decrypt value")
	}
	return strings.TrimPrefix(ciphertext, "enc:"), nil
}

type brokenSecrets struct{}

func (brokenSecrets) Encrypt(string) (string, error) { return "", errors.New("encrypt failed") }
func (brokenSecrets) Decrypt(string) (string, error) { return "", errors.New("decrypt failed") }

type sessionKey struct {
	tenantID int
	phone    string
}

type fakeSessionStore struct {
	rows map[sessionKey]*entities.SessionPolicy
	err  error
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{rows: make(map[sessionKey]*entities.SessionPolicy)}
}

func (f *fakeSessionStore) Get(_ context.Context, tenantID int, phone string) (*entities.SessionPolicy, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.rows[sessionKey{tenantID, phone}], nil
}

func (f *fakeSessionStore) Upsert(_ context.Context, tenantID int, phone string, aiEnabled bool) error {
	if f.err != nil {
		return f.err
	}
	f.rows[sessionKey{tenantID, phone}] = &entities.SessionPolicy{
		TenantID:    tenantID,
		PhoneNumber: phone,
		AIEnabled:   aiEnabled,
	}
	return nil
}

type fakeTenantStore struct {
	byPhoneNumberID map[string]*entities.Tenant
	byInstance      map[string]*entities.Tenant
	byDisplay       map[string]*entities.Tenant
	err             error
}

func newFakeTenantStore(tenants ...*entities.Tenant) *fakeTenantStore {
	f := &fakeTenantStore{
		byPhoneNumberID: make(map[string]*entities.Tenant),
		byInstance:      make(map[string]*entities.Tenant),
		byDisplay:       make(map[string]*entities.Tenant),
	}
	secrets := fakeSecrets{}
	for _, t := range tenants {
		if t.PhoneNumberID != "" {
			f.byPhoneNumberID[t.PhoneNumberID] = t
		}
		if t.ZAPIInstanceEnc != "" {
			if id, err := secrets.Decrypt(t.ZAPIInstanceEnc); err == nil {
				f.byInstance[id] = t
			}
		}
		if t.DisplayNumber != "" {
			f.byDisplay[t.DisplayNumber] = t
		}
	}
	return f
}

func (f *fakeTenantStore) GetByPhoneNumberID(_ context.Context, id string) (*entities.Tenant, error) {
	return f.byPhoneNumberID[id], f.err
}

func (f *fakeTenantStore) GetByZAPIInstance(_ context.Context, id string) (*entities.Tenant, error) {
	return f.byInstance[id], f.err
}

func (f *fakeTenantStore) GetByDisplayNumber(_ context.Context, phone string) (*entities.Tenant, error) {
	return f.byDisplay[phone], f.err
}

type fakeConversationStore struct {
	appended  []entities.ConversationTurn
	history   []entities.HistoryEntry
	appendErr error
	histErr   error
}

func (f *fakeConversationStore) Append(_ context.Context, turn *entities.ConversationTurn) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.appended = append(f.appended, *turn)
	return nil
}

func (f *fakeConversationStore) RecentHistory(_ context.Context, _ int, _ string, _ int) ([]entities.HistoryEntry, error) {
	return f.history, f.histErr
}

type fakeGenerator struct {
	reply       string
	calls       int
	gotInput    string
	gotPrompt   string
	gotHistory  []entities.HistoryEntry
	gotLanguage string
	gotTone     string
}

func (f *fakeGenerator) Generate(_ context.Context, userInput, prompt, language, tone string, history []entities.HistoryEntry) string {
	f.calls++
	f.gotInput = userInput
	f.gotPrompt = prompt
	f.gotLanguage = language
	f.gotTone = tone
	f.gotHistory = history
	return f.reply
}

type sentMessage struct {
	Phone string
	Text  string
}

type fakeSender struct {
	sent    []sentMessage
	outcome interfaces.SendOutcome
}

func newFakeSender() *fakeSender {
	return &fakeSender{outcome: interfaces.SendOutcome{Success: true, StatusCode: 200}}
}

func (f *fakeSender) Send(_ context.Context, phone, text string) interfaces.SendOutcome {
	f.sent = append(f.sent, sentMessage{Phone: phone, Text: text})
	return f.outcome
}

type fakeDispatcher struct {
	sender *fakeSender
	err    error
	calls  int
}

func (f *fakeDispatcher) Dispatch(_ *entities.Tenant) (interfaces.Sender, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.sender, nil
}
