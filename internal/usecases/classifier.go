package usecases

import (
	"encoding/json"
	"errors"
	"fmt"

	"zapagent/internal/entities"
)

// ErrMalformedPayload means the classifier could not extract the required
// fields. The wrapped message carries the field path that failed.
var ErrMalformedPayload = errors.New("malformed payload")

// ClassKind distinguishes a real user message from a recognized-but-irrelevant
// event. Ignorable events are acknowledged with 200 and nothing else happens.
type ClassKind int

const (
	ClassMessage ClassKind = iota
	ClassIgnorable
)

// Classification is the tri-state classifier result. Message is set only for
// ClassMessage; Reason only for ClassIgnorable.
type Classification struct {
	Kind    ClassKind
	Message *entities.InboundMessage
	Reason  string
}

func malformed(path string) error {
	return fmt.Errorf("%w: field %q missing or of wrong type", ErrMalformedPayload, path)
}

func stringField(m map[string]any, key, path string) (string, error) {
	v, ok := m[key].(string)
	if !ok {
		return "", malformed(path)
	}
	return v, nil
}

func mapField(m map[string]any, key, path string) (map[string]any, error) {
	v, ok := m[key].(map[string]any)
	if !ok {
		return nil, malformed(path)
	}
	return v, nil
}

func firstOfList(m map[string]any, key, path string) (map[string]any, error) {
	list, ok := m[key].([]any)
	if !ok || len(list) == 0 {
		return nil, malformed(path)
	}
	item, ok := list[0].(map[string]any)
	if !ok {
		return nil, malformed(path + "[0]")
	}
	return item, nil
}

// ClassifyPayload normalizes a raw webhook body into an InboundMessage. The
// supported shapes are checked in precedence order; the first structural match
// wins and any extraction failure inside the matched shape is malformed, it
// never falls through to the next shape.
func ClassifyPayload(raw []byte) (*Classification, error) {
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %v", ErrMalformedPayload, err)
	}

	if _, ok := payload["entry"]; ok {
		return classifyMetaCloud(payload)
	}
	if _, ok := payload["messages"]; ok {
		return classifyGatewayClassic(payload)
	}
	if event, _ := payload["event"].(string); event == "message" {
		if _, ok := payload["message"]; ok {
			return classifyGatewayEvent(payload)
		}
	}
	if typ, _ := payload["type"].(string); typ == "ReceivedCallback" {
		return classifyGatewayCallback(payload)
	}

	return nil, fmt.Errorf("%w: no recognized payload shape", ErrMalformedPayload)
}

// classifyMetaCloud handles the Meta Cloud API envelope:
// entry[0].changes[0].value.{metadata.phone_number_id, messages[0]}.
func classifyMetaCloud(payload map[string]any) (*Classification, error) {
	entry, err := firstOfList(payload, "entry", "entry")
	if err != nil {
		return nil, err
	}
	change, err := firstOfList(entry, "changes", "entry[0].changes")
	if err != nil {
		return nil, err
	}
	value, err := mapField(change, "value", "entry[0].changes[0].value")
	if err != nil {
		return nil, err
	}
	metadata, err := mapField(value, "metadata", "entry[0].changes[0].value.metadata")
	if err != nil {
		return nil, err
	}
	phoneNumberID, err := stringField(metadata, "phone_number_id", "entry[0].changes[0].value.metadata.phone_number_id")
	if err != nil {
		return nil, err
	}
	msg, err := firstOfList(value, "messages", "entry[0].changes[0].value.messages")
	if err != nil {
		return nil, err
	}
	from, err := stringField(msg, "from", "entry[0].changes[0].value.messages[0].from")
	if err != nil {
		return nil, err
	}
	text, err := mapField(msg, "text", "entry[0].changes[0].value.messages[0].text")
	if err != nil {
		return nil, err
	}
	body, err := stringField(text, "body", "entry[0].changes[0].value.messages[0].text.body")
	if err != nil {
		return nil, err
	}

	return &Classification{Kind: ClassMessage, Message: &entities.InboundMessage{
		ProviderType: entities.ProviderMeta,
		LookupKey:    phoneNumberID,
		From:         from,
		Text:         body,
		RawPayload:   payload,
	}}, nil
}

// classifyGatewayClassic handles the gateway's messages-list shape. The
// tenant is resolved later from instanceId (if present) or the sender phone.
func classifyGatewayClassic(payload map[string]any) (*Classification, error) {
	msg, err := firstOfList(payload, "messages", "messages")
	if err != nil {
		return nil, err
	}
	from, err := stringField(msg, "from", "messages[0].from")
	if err != nil {
		return nil, err
	}
	text, err := mapField(msg, "text", "messages[0].text")
	if err != nil {
		return nil, err
	}
	body, err := stringField(text, "body", "messages[0].text.body")
	if err != nil {
		return nil, err
	}

	instanceID, _ := payload["instanceId"].(string)
	return &Classification{Kind: ClassMessage, Message: &entities.InboundMessage{
		ProviderType: entities.ProviderZAPI,
		LookupKey:    from,
		InstanceID:   instanceID,
		From:         from,
		Text:         body,
		RawPayload:   payload,
	}}, nil
}

// classifyGatewayEvent handles the alternate event shape where message.text
// is a plain string, not a nested object.
func classifyGatewayEvent(payload map[string]any) (*Classification, error) {
	msg, err := mapField(payload, "message", "message")
	if err != nil {
		return nil, err
	}
	from, err := stringField(msg, "from", "message.from")
	if err != nil {
		return nil, err
	}
	text, err := stringField(msg, "text", "message.text")
	if err != nil {
		return nil, err
	}

	instanceID, _ := payload["instanceId"].(string)
	return &Classification{Kind: ClassMessage, Message: &entities.InboundMessage{
		ProviderType: entities.ProviderZAPI,
		LookupKey:    from,
		InstanceID:   instanceID,
		From:         from,
		Text:         text,
		RawPayload:   payload,
	}}, nil
}

// classifyGatewayCallback handles ReceivedCallback. Echoes of our own sends
// (fromMe) and status-only callbacks without text are ignorable, not errors.
func classifyGatewayCallback(payload map[string]any) (*Classification, error) {
	if fromMe, _ := payload["fromMe"].(bool); fromMe {
		return &Classification{Kind: ClassIgnorable, Reason: "callback for own outbound message"}, nil
	}
	text, ok := payload["text"].(map[string]any)
	if !ok {
		return &Classification{Kind: ClassIgnorable, Reason: "callback without text"}, nil
	}
	message, ok := text["message"].(string)
	if !ok || message == "" {
		return &Classification{Kind: ClassIgnorable, Reason: "callback without text message"}, nil
	}
	phone, err := stringField(payload, "phone", "phone")
	if err != nil {
		return nil, err
	}

	instanceID, _ := payload["instanceId"].(string)
	return &Classification{Kind: ClassMessage, Message: &entities.InboundMessage{
		ProviderType: entities.ProviderZAPI,
		LookupKey:    phone,
		InstanceID:   instanceID,
		From:         phone,
		Text:         message,
		RawPayload:   payload,
	}}, nil
}
