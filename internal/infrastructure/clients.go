package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"zapagent/internal/interfaces"
)

const sendTimeout = 15 * time.Second

// httpClient is shared by both senders. Webhook acks never wait on a send
// longer than sendTimeout.
var httpClient = &http.Client{Timeout: sendTimeout}

// MetaCloudClient posts replies to the Meta Graph messages endpoint for one
// tenant's phone_number_id.
type MetaCloudClient struct {
	baseURL       string // overridable in tests
	apiVersion    string
	accessToken   string
	phoneNumberID string
}

func NewMetaCloudClient(apiVersion, accessToken, phoneNumberID string) *MetaCloudClient {
	return &MetaCloudClient{
		baseURL:       "https://graph.facebook.com",
		apiVersion:    apiVersion,
		accessToken:   accessToken,
		phoneNumberID: phoneNumberID,
	}
}

func (m *MetaCloudClient) Send(ctx context.Context, phone, text string) interfaces.SendOutcome {
	url := fmt.Sprintf("%s/%s/%s/messages", m.baseURL, m.apiVersion, m.phoneNumberID)
	payload := map[string]any{
		"messaging_product": "whatsapp",
		"to":                phone,
		"type":              "text",
		"text": map[string]string{
			"body": text,
		},
	}
	return postJSON(ctx, url, payload, "Bearer "+m.accessToken)
}

// ZAPIClient posts replies to the Z-API per-instance endpoint. Instance id
// and token are part of the URL path.
type ZAPIClient struct {
	baseURL    string
	instanceID string
	apiToken   string
}

func NewZAPIClient(baseURL, instanceID, apiToken string) *ZAPIClient {
	return &ZAPIClient{
		baseURL:    baseURL,
		instanceID: instanceID,
		apiToken:   apiToken,
	}
}

func (z *ZAPIClient) Send(ctx context.Context, phone, text string) interfaces.SendOutcome {
	url := fmt.Sprintf("%s/instances/%s/token/%s/send-messages", z.baseURL, z.instanceID, z.apiToken)
	payload := map[string]any{
		"phone":   phone,
		"message": text,
	}
	return postJSON(ctx, url, payload, "")
}

func postJSON(ctx context.Context, url string, payload any, authorization string) interfaces.SendOutcome {
	data, err := json.Marshal(payload)
	if err != nil {
		return interfaces.SendOutcome{Success: false, Body: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return interfaces.SendOutcome{Success: false, Body: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return interfaces.SendOutcome{Success: false, Body: err.Error()}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return interfaces.SendOutcome{
		Success:    resp.StatusCode >= 200 && resp.StatusCode < 300,
		StatusCode: resp.StatusCode,
		Body:       string(body),
	}
}
