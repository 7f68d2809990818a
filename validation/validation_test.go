package validation

import (
	"strings"
	"testing"
)

func TestValidateMap(t *testing.T) {
	rules := map[string][]string{
		"userid": {"required", "min:3"},
		"email":  {"required", "email"},
		"passwd": {"required"},
	}

	violations := ValidateMap(map[string]any{
		"userid": "alice",
		"email":  "alice@example.com",
		"passwd": "secret",
	}, rules)
	if !violations.IsEmpty() {
		t.Errorf("expected no violations, got %v", violations.Errors)
	}

	violations = ValidateMap(map[string]any{
		"userid": "al",
		"email":  "not-an-email",
	}, rules)
	if violations.IsEmpty() {
		t.Fatal("expected violations")
	}
	if len(violations.Errors["userid"]) != 1 {
		t.Errorf("expected one userid violation, got %v", violations.Errors["userid"])
	}
	if len(violations.Errors["email"]) != 1 {
		t.Errorf("expected one email violation, got %v", violations.Errors["email"])
	}
	if len(violations.Errors["passwd"]) != 1 {
		t.Errorf("expected a missing field to fail required, got %v", violations.Errors["passwd"])
	}
	if violations.First() == "" {
		t.Error("expected First to return a message")
	}
}

func TestValidateMapUnknownRule(t *testing.T) {
	violations := ValidateMap(
		map[string]any{"field": "value"},
		map[string][]string{"field": {"frobnicate"}},
	)
	if violations.IsEmpty() {
		t.Fatal("expected an unknown rule to be reported")
	}
	if !strings.Contains(violations.First(), "invalid validation rule") {
		t.Errorf("unexpected message %q", violations.First())
	}
}

func TestViolationsMarshalJSON(t *testing.T) {
	violations := ValidateMap(
		map[string]any{},
		map[string][]string{"email": {"required"}},
	)

	raw, err := violations.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != `{"errors":{"email":["email is required"]}}` {
		t.Errorf("unexpected json %s", raw)
	}
}
