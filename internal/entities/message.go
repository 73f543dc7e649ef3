package entities

// InboundMessage is the canonical shape the classifier produces from a raw
// webhook body. Never persisted.
type InboundMessage struct {
	ProviderType string // "meta" or "zapi"
	LookupKey    string // phone_number_id (meta) or sender phone (zapi fallback)
	InstanceID   string // zapi instanceId when the payload carries one
	From         string // end-user phone
	Text         string
	RawPayload   map[string]any
}
