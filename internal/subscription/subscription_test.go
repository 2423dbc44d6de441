package subscription

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

func signToken(t *testing.T, c claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString([]byte("test-signing-key"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestSummaryReadsCloudEnabledClaim(t *testing.T) {
	budget := 25.0
	tok := signToken(t, claims{CloudEnabled: true, BudgetUSD: &budget})
	s := New(tok).Summary()
	if !s.IsCloudEnabled {
		t.Error("expected cloud enabled")
	}
	if s.MonthlyBudgetUSD == nil || *s.MonthlyBudgetUSD != 25.0 {
		t.Errorf("expected budget 25.0, got %v", s.MonthlyBudgetUSD)
	}
}

func TestSummaryEmptyTokenDisablesCloud(t *testing.T) {
	s := New("").Summary()
	if s.IsCloudEnabled {
		t.Error("expected cloud disabled for empty token")
	}
	if s.MonthlyBudgetUSD != nil {
		t.Error("expected nil budget for empty token")
	}
}

func TestSummaryMalformedTokenDisablesCloud(t *testing.T) {
	s := New("not-a-jwt").Summary()
	if s.IsCloudEnabled {
		t.Error("expected cloud disabled for malformed token")
	}
}

func TestSummaryDoesNotRequireBudget(t *testing.T) {
	tok := signToken(t, claims{CloudEnabled: false})
	s := New(tok).Summary()
	if s.MonthlyBudgetUSD != nil {
		t.Error("expected nil budget when not set")
	}
}
