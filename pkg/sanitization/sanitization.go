package sanitization

import (
	"fmt"
	"strings"
	"unicode"
)

const redactedValue = "[REDACTED]"

const (
	emptyMaskedValue = "(empty)"
	maskedValue      = "***masked***"
)

// AllowedFields are field names that bypass masking (control characters are still stripped).
var AllowedFields = map[string]bool{
	"app_name":    true,
	"environment": true,
	"region":      true,
	"domain":      true,
	"subdomain":   true,
}

// SanitizationType defines how to sanitize a field.
type SanitizationType int

const (
	FullyRedact SanitizationType = iota
	PartialMask
	ARNMask
)

// SensitiveFields defines fields that require explicit sanitization behavior.
//
// Keys are lowercased field names; camelCase context keys are matched after lowercasing.
var SensitiveFields = map[string]SanitizationType{
	"password":          FullyRedact,
	"secret":            FullyRedact,
	"secret_access_key": FullyRedact,
	"session_token":     FullyRedact,
	"github_token":      FullyRedact,
	"oauth_token":       FullyRedact,

	"account":    PartialMask,
	"account_id": PartialMask,
	"access_key": PartialMask,

	"connection_arn":        ARNMask,
	"codestarconnectionarn": ARNMask,
	"topic_arn":             ARNMask,
	"role_arn":              ARNMask,
}

// SanitizeLogString removes control characters that could enable log forging.
func SanitizeLogString(value string) string {
	if value == "" {
		return value
	}
	value = strings.ReplaceAll(value, "\r", "")
	value = strings.ReplaceAll(value, "\n", "")
	return value
}

// SanitizeFieldValue sanitizes a field value based on its key name.
func SanitizeFieldValue(key string, value any) any {
	keyLower := strings.ToLower(strings.TrimSpace(key))
	if keyLower == "" || AllowedFields[keyLower] {
		return sanitizeValue(value)
	}

	if typ, ok := SensitiveFields[keyLower]; ok {
		switch typ {
		case FullyRedact:
			return redactedValue
		case PartialMask:
			return maskRestrictedValue(value)
		case ARNMask:
			return maskARNValue(value)
		default:
			return redactedValue
		}
	}

	for _, substr := range []string{"secret", "token", "password", "private_key", "credential"} {
		if strings.Contains(keyLower, substr) {
			return redactedValue
		}
	}

	return sanitizeValue(value)
}

// MaskFirstLast keeps the first prefixLen and last suffixLen characters and masks the middle.
func MaskFirstLast(value string, prefixLen, suffixLen int) string {
	if value == "" {
		return emptyMaskedValue
	}
	if prefixLen < 0 || suffixLen < 0 {
		return maskedValue
	}
	if len(value) <= prefixLen+suffixLen {
		return maskedValue
	}
	return value[:prefixLen] + "***" + value[len(value)-suffixLen:]
}

// MaskARN keeps the partition, service and region of an ARN and masks the account and the
// trailing 4 characters of the resource id.
//
//	arn:aws:codestar-connections:us-east-1:123456789012:connection/abcd-1234
//	-> arn:aws:codestar-connections:us-east-1:********9012:connection/...1234
func MaskARN(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return redactedValue
	}
	parts := strings.SplitN(value, ":", 6)
	if len(parts) != 6 || parts[0] != "arn" {
		return maskRestrictedString(value)
	}

	account := parts[4]
	if account != "" {
		account = maskRestrictedString(account)
	}

	resource := parts[5]
	if idx := strings.LastIndexAny(resource, "/:"); idx >= 0 && idx < len(resource)-1 {
		resource = resource[:idx+1] + maskRestrictedString(resource[idx+1:])
	} else {
		resource = maskRestrictedString(resource)
	}

	return strings.Join([]string{parts[0], parts[1], parts[2], parts[3], account, resource}, ":")
}

func sanitizeValue(value any) any {
	switch typed := value.(type) {
	case nil:
		return nil
	case string:
		return SanitizeLogString(typed)
	case []byte:
		return SanitizeLogString(string(typed))
	case bool:
		return typed
	case map[string]any:
		out := make(map[string]any, len(typed))
		for k, v := range typed {
			out[k] = SanitizeFieldValue(k, v)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i := range typed {
			out[i] = sanitizeValue(typed[i])
		}
		return out
	default:
		return SanitizeLogString(fmt.Sprintf("%v", typed))
	}
}

func maskARNValue(value any) string {
	switch v := value.(type) {
	case string:
		return MaskARN(v)
	case []byte:
		return MaskARN(string(v))
	default:
		return redactedValue
	}
}

func maskRestrictedValue(value any) string {
	switch v := value.(type) {
	case string:
		return maskRestrictedString(v)
	case []byte:
		return maskRestrictedString(string(v))
	default:
		return redactedValue
	}
}

func maskRestrictedString(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return redactedValue
	}

	// Account ids: mask all but the last 4 digits.
	cleaned := stripNonDigits(value)
	if len(cleaned) == len(value) && len(cleaned) >= 4 {
		if len(cleaned) == 4 {
			return strings.Repeat("*", 4)
		}
		return strings.Repeat("*", len(cleaned)-4) + cleaned[len(cleaned)-4:]
	}

	if len(value) > 4 {
		return "..." + value[len(value)-4:]
	}
	return redactedValue
}

func stripNonDigits(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
