package usecases

import (
	"errors"
	"fmt"
	"strings"

	"zapagent/internal/entities"
	"zapagent/internal/infrastructure"
	"zapagent/internal/interfaces"
)

// ErrUnsupportedProvider means the tenant row carries a provider name outside
// the closed set. Misconfiguration, fatal for the request, never retried.
var ErrUnsupportedProvider = errors.New("unsupported provider")

// ProviderDispatcher builds a ready-to-use Sender for a tenant. Credentials
// are decrypted exactly once, here; senders never see ciphertext.
type ProviderDispatcher struct {
	secrets         interfaces.SecretStore
	graphAPIVersion string
	zapiBaseURL     string
}

func NewProviderDispatcher(secrets interfaces.SecretStore, graphAPIVersion, zapiBaseURL string) *ProviderDispatcher {
	return &ProviderDispatcher{
		secrets:         secrets,
		graphAPIVersion: graphAPIVersion,
		zapiBaseURL:     zapiBaseURL,
	}
}

func (d *ProviderDispatcher) Dispatch(tenant *entities.Tenant) (interfaces.Sender, error) {
	switch strings.ToLower(strings.TrimSpace(tenant.Provider)) {
	case entities.ProviderMeta:
		token, err := d.secrets.Decrypt(tenant.WhatsAppTokenEnc)
		if err != nil {
			return nil, fmt.Errorf("decrypt whatsapp token for tenant %d: %w", tenant.ID, err)
		}
		return infrastructure.NewMetaCloudClient(d.graphAPIVersion, token, tenant.PhoneNumberID), nil

	case entities.ProviderZAPI:
		instanceID, err := d.secrets.Decrypt(tenant.ZAPIInstanceEnc)
		if err != nil {
			return nil, fmt.Errorf("decrypt zapi instance id for tenant %d: %w", tenant.ID, err)
		}
		apiToken, err := d.secrets.Decrypt(tenant.ZAPITokenEnc)
		if err != nil {
			return nil, fmt.Errorf("decrypt zapi token for tenant %d: %w", tenant.ID, err)
		}
		return infrastructure.NewZAPIClient(d.zapiBaseURL, instanceID, apiToken), nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProvider, tenant.Provider)
	}
}
