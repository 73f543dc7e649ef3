package usecases

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"zapagent/internal/entities"
	"zapagent/internal/interfaces"
)

// GateDecision is the policy gate verdict for one inbound message.
type GateDecision int

const (
	// GateProceed lets the message through to generation.
	GateProceed GateDecision = iota
	// GateDisabledAck: the message was a handoff command; AI is now off for
	// this (tenant, phone) and an acknowledgment may be echoed.
	GateDisabledAck
	// GateEnabledAck: the message was a resume command; AI is on again.
	GateEnabledAck
	// GateSuppressed: tenant paused or AI disabled for this phone; drop
	// silently with a 200 ack.
	GateSuppressed
)

var (
	disableAliases = []string{"/humano", "!humano", "#humano"}
	enableAliases  = []string{"/ia", "!ia", "#ia"}
)

// PolicyGate applies the per-tenant pause flag and the per (tenant, phone)
// AI opt-out commands. It runs after signature verification and strictly
// before generation.
type PolicyGate struct {
	sessions interfaces.SessionPolicyStore
	log      *logrus.Logger
}

func NewPolicyGate(sessions interfaces.SessionPolicyStore, log *logrus.Logger) *PolicyGate {
	return &PolicyGate{sessions: sessions, log: log}
}

func matchesAlias(text string, aliases []string) bool {
	normalized := strings.ToLower(strings.TrimSpace(text))
	for _, a := range aliases {
		if normalized == a {
			return true
		}
	}
	return false
}

// Evaluate decides what to do with the message. State is only written for
// explicit toggle commands; a resume command with no stored row is a no-op
// acknowledgment because the default is already enabled.
func (g *PolicyGate) Evaluate(ctx context.Context, tenant *entities.Tenant, phone, text string) (GateDecision, error) {
	if !tenant.Active {
		return GateSuppressed, nil
	}

	if matchesAlias(text, disableAliases) {
		if err := g.sessions.Upsert(ctx, tenant.ID, phone, false); err != nil {
			return GateSuppressed, err
		}
		g.log.WithFields(logrus.Fields{
			"tenant_id": tenant.ID,
			"phone":     phone,
		}).Info("AI disabled for session by user command")
		return GateDisabledAck, nil
	}

	if matchesAlias(text, enableAliases) {
		policy, err := g.sessions.Get(ctx, tenant.ID, phone)
		if err != nil {
			return GateSuppressed, err
		}
		if policy != nil {
			if err := g.sessions.Upsert(ctx, tenant.ID, phone, true); err != nil {
				return GateSuppressed, err
			}
		}
		g.log.WithFields(logrus.Fields{
			"tenant_id": tenant.ID,
			"phone":     phone,
		}).Info("AI enabled for session by user command")
		return GateEnabledAck, nil
	}

	policy, err := g.sessions.Get(ctx, tenant.ID, phone)
	if err != nil {
		return GateSuppressed, err
	}
	if policy != nil && !policy.AIEnabled {
		return GateSuppressed, nil
	}
	return GateProceed, nil
}
