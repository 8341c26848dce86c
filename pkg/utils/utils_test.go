package utils

import (
	"testing"
	"time"
)

func TestGetenvHelpers(t *testing.T) {
	t.Setenv("COSTS_TEST_INT", "12")
	t.Setenv("COSTS_TEST_BAD_INT", "twelve")
	t.Setenv("COSTS_TEST_DURATION", "90s")

	if got := GetenvInt("COSTS_TEST_INT", 1); got != 12 {
		t.Errorf("GetenvInt = %d, want 12", got)
	}
	if got := GetenvInt("COSTS_TEST_BAD_INT", 3); got != 3 {
		t.Errorf("GetenvInt with malformed value = %d, want fallback 3", got)
	}
	if got := GetenvDuration("COSTS_TEST_DURATION", time.Minute); got != 90*time.Second {
		t.Errorf("GetenvDuration = %v, want 90s", got)
	}
	if got := Getenv("COSTS_TEST_UNSET", "fallback"); got != "fallback" {
		t.Errorf("Getenv = %q, want fallback", got)
	}
}

func TestTokenRoundTrip(t *testing.T) {
	SetJWTSecret("test-secret")

	token, err := GenerateAccessToken(7, 42, "ana", "Admin", time.Minute)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}
	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.TenantID != 42 || claims.UserID != 7 || claims.Role != "Admin" {
		t.Errorf("claims = %+v", claims)
	}

	noTenant, err := GenerateAccessToken(7, 0, "ana", "Admin", time.Minute)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}
	if _, err := ValidateToken(noTenant); err == nil {
		t.Error("token without tenant should be rejected")
	}

	SetJWTSecret("another-secret")
	if _, err := ValidateToken(token); err == nil {
		t.Error("token signed with an old secret should be rejected")
	}
}

func TestParseDate(t *testing.T) {
	if d, err := ParseDate(""); err != nil || d != nil {
		t.Errorf("ParseDate(\"\") = %v, %v", d, err)
	}
	d, err := ParseDate("2024-03-01")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if d.Year() != 2024 || d.Month() != time.March || d.Day() != 1 {
		t.Errorf("ParseDate = %v", d)
	}
	if _, err := ParseDate("01/03/2024"); err == nil {
		t.Error("expected error for malformed date")
	}
}
