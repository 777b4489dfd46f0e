package sanitization

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestSanitizeLogString_StripsCRLF(t *testing.T) {
	got := SanitizeLogString("a\r\nb\nc\rd")
	if got != "abcd" {
		t.Fatalf("expected abcd, got %q", got)
	}
}

func TestSanitizeFieldValue_RedactsMasksAndRecurses(t *testing.T) {
	t.Parallel()

	if got := SanitizeFieldValue("secret_access_key", "abc"); got != redactedValue {
		t.Fatalf("expected secret key to be redacted, got %#v", got)
	}
	if got := SanitizeFieldValue("github_token", "ghp_x"); got != redactedValue {
		t.Fatalf("expected token to be redacted, got %#v", got)
	}
	if got := SanitizeFieldValue("aws_credentials", "x"); got != redactedValue {
		t.Fatalf("expected substring credential to be redacted, got %#v", got)
	}
	if got := SanitizeFieldValue("account", "123456789012"); got != "********9012" {
		t.Fatalf("expected account to be masked, got %#v", got)
	}
	if got := SanitizeFieldValue("environment", "prod\r\n"); got != "prod" {
		t.Fatalf("expected allowed field to be stripped but not masked, got %#v", got)
	}
	if got := SanitizeFieldValue("ok", "a\nb"); got != "ab" {
		t.Fatalf("expected log sanitization for unknown keys, got %#v", got)
	}

	out, ok := SanitizeFieldValue("ctx", map[string]any{
		"codeStarConnectionArn": "arn:aws:codestar-connections:us-east-1:123456789012:connection/abcd-1234",
		"appName":               "foo",
	}).(map[string]any)
	if !ok {
		t.Fatalf("expected map output, got %T", out)
	}
	if out["codeStarConnectionArn"] != "arn:aws:codestar-connections:us-east-1:********9012:connection/...1234" {
		t.Fatalf("unexpected nested arn: %#v", out["codeStarConnectionArn"])
	}
	if out["appName"] != "foo" {
		t.Fatalf("unexpected nested app name: %#v", out["appName"])
	}
}

func TestMaskARN(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"", redactedValue},
		{"arn:aws:sns:us-east-1:123456789012:alerts", "arn:aws:sns:us-east-1:********9012:...erts"},
		{"arn:aws:iam::123456789012:role/deployer", "arn:aws:iam::********9012:role/...oyer"},
		{"arn:aws:s3:::bucket", "arn:aws:s3:::...cket"},
		{"not-an-arn", "...-arn"},
	}
	for _, tt := range tests {
		if got := MaskARN(tt.in); got != tt.want {
			t.Fatalf("MaskARN(%q)=%q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMaskFirstLast(t *testing.T) {
	t.Parallel()

	if got := MaskFirstLast("", 2, 2); got != emptyMaskedValue {
		t.Fatalf("expected empty marker, got %q", got)
	}
	if got := MaskFirstLast("abcdef", 3, 3); got != maskedValue {
		t.Fatalf("expected masked marker, got %q", got)
	}
	if got := MaskFirstLast("abcdef", -1, 2); got != maskedValue {
		t.Fatalf("expected masked marker for negative lengths, got %q", got)
	}
	if got := MaskFirstLast("abcdef", 2, 2); got != "ab***ef" {
		t.Fatalf("expected first/last preserved, got %q", got)
	}
}

func TestSanitizeJSON_RedactsKnownFields(t *testing.T) {
	input := []byte(`{"appName":"foo","isProd":true,"account":"123456789012","repo":{"owner":"acme","oauth_token":"x"}}`)
	out := SanitizeJSON(input)

	if !strings.Contains(out, `"oauth_token": "[REDACTED]"`) {
		t.Fatalf("expected nested token redacted, got: %s", out)
	}
	if strings.Contains(out, "123456789012") {
		t.Fatalf("expected account masked, got: %s", out)
	}
	if !strings.Contains(out, `"isProd": true`) {
		t.Fatalf("expected bool preserved, got: %s", out)
	}

	var parsed any
	if err := json.Unmarshal([]byte(out), &parsed); err != nil {
		t.Fatalf("expected valid json, got error: %v\nout=%s", err, out)
	}

	if got := SanitizeJSON(nil); got != "(empty)" {
		t.Fatalf("expected empty marker, got %q", got)
	}
	if got := SanitizeJSON([]byte("{")); !strings.HasPrefix(got, "(malformed JSON") {
		t.Fatalf("expected malformed marker, got %q", got)
	}
}
