package usecases

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zapagent/internal/entities"
)

func activeTenant(id int) *entities.Tenant {
	return &entities.Tenant{ID: id, Provider: entities.ProviderMeta, Active: true}
}

func TestGateProceedsByDefault(t *testing.T) {
	gate := NewPolicyGate(newFakeSessionStore(), testLogger())

	decision, err := gate.Evaluate(context.Background(), activeTenant(1), "5511999", "oi")
	require.NoError(t, err)
	assert.Equal(t, GateProceed, decision)
}

func TestGateSuppressesInactiveTenant(t *testing.T) {
	sessions := newFakeSessionStore()
	gate := NewPolicyGate(sessions, testLogger())
	tenant := activeTenant(1)
	tenant.Active = false

	decision, err := gate.Evaluate(context.Background(), tenant, "5511999", "/humano")
	require.NoError(t, err)
	assert.Equal(t, GateSuppressed, decision)
	// tenant pause must not write session state
	assert.Empty(t, sessions.rows)
}

func TestGateDisableCommandLifecycle(t *testing.T) {
	sessions := newFakeSessionStore()
	gate := NewPolicyGate(sessions, testLogger())
	tenant := activeTenant(1)
	ctx := context.Background()

	decision, err := gate.Evaluate(ctx, tenant, "5511999", "/humano")
	require.NoError(t, err)
	assert.Equal(t, GateDisabledAck, decision)

	// every later message is suppressed until re-enabled
	decision, err = gate.Evaluate(ctx, tenant, "5511999", "oi")
	require.NoError(t, err)
	assert.Equal(t, GateSuppressed, decision)

	decision, err = gate.Evaluate(ctx, tenant, "5511999", "/ia")
	require.NoError(t, err)
	assert.Equal(t, GateEnabledAck, decision)

	decision, err = gate.Evaluate(ctx, tenant, "5511999", "oi")
	require.NoError(t, err)
	assert.Equal(t, GateProceed, decision)
}

func TestGateCommandAliasesAndNormalization(t *testing.T) {
	sessions := newFakeSessionStore()
	gate := NewPolicyGate(sessions, testLogger())
	ctx := context.Background()

	for _, cmd := range []string{"!humano", "#humano", "  /HUMANO  "} {
		decision, err := gate.Evaluate(ctx, activeTenant(1), "5511999", cmd)
		require.NoError(t, err)
		assert.Equal(t, GateDisabledAck, decision, "command %q", cmd)
	}
}

// Enabling with no stored row is already the default: acknowledge without
// writing anything.
func TestGateEnableWithoutRowIsNoOpAck(t *testing.T) {
	sessions := newFakeSessionStore()
	gate := NewPolicyGate(sessions, testLogger())

	decision, err := gate.Evaluate(context.Background(), activeTenant(1), "5511999", "/ia")
	require.NoError(t, err)
	assert.Equal(t, GateEnabledAck, decision)
	assert.Empty(t, sessions.rows)
}

// Gate state is scoped per (tenant, phone): the same phone under another
// tenant is unaffected.
func TestGateScopedPerTenant(t *testing.T) {
	sessions := newFakeSessionStore()
	gate := NewPolicyGate(sessions, testLogger())
	ctx := context.Background()

	_, err := gate.Evaluate(ctx, activeTenant(1), "5511999", "/humano")
	require.NoError(t, err)

	decision, err := gate.Evaluate(ctx, activeTenant(2), "5511999", "oi")
	require.NoError(t, err)
	assert.Equal(t, GateProceed, decision)

	decision, err = gate.Evaluate(ctx, activeTenant(1), "5511999", "oi")
	require.NoError(t, err)
	assert.Equal(t, GateSuppressed, decision)
}
