// Package subscription models the Auth/Subscription collaborator as an
// opaque bearer-token vendor (spec.md §1 Non-goals, §9 Design Notes): it
// only reads claims from the token into a Summary and never validates the
// token against a remote identity provider. No other package reads the
// Summary; cloud-backed embedding and VLM calls are gated only by their
// API keys.
package subscription

import (
	"github.com/golang-jwt/jwt/v5"
)

// Summary is the reduced view of subscription state, replacing the
// source's observable/reactive UI state per spec.md §9.
type Summary struct {
	IsCloudEnabled  bool
	MonthlyBudgetUSD *float64
}

// claims is the expected shape of the bearer token's payload. Unknown
// fields are ignored; missing fields degrade to IsCloudEnabled=false.
type claims struct {
	jwt.RegisteredClaims
	CloudEnabled bool     `json:"cloud_enabled"`
	BudgetUSD    *float64 `json:"monthly_budget_usd"`
}

// Manager reads a bearer token's claims to produce a Summary. It never
// contacts the issuing service; validation of the token's authenticity is
// the external vendor's responsibility (spec.md §1).
type Manager struct {
	token string
}

// New constructs a Manager from an opaque bearer token, re-architecting
// the source's weak SubscriptionManager -> AuthManager back-reference as
// constructor injection per spec.md §9.
func New(token string) *Manager {
	return &Manager{token: token}
}

// Summary parses the token's claims without verifying its signature —
// only the issuing vendor's signing key could do that, and this process
// never holds it — returning a zero-value Summary (cloud disabled) for
// any unparseable or empty token.
func (m *Manager) Summary() Summary {
	if m.token == "" {
		return Summary{}
	}

	parser := jwt.NewParser()
	var c claims
	_, _, err := parser.ParseUnverified(m.token, &c)
	if err != nil {
		return Summary{}
	}

	return Summary{
		IsCloudEnabled:   c.CloudEnabled,
		MonthlyBudgetUSD: c.BudgetUSD,
	}
}
