package observability

import (
	"strings"
	"unicode"
)

const (
	maxFieldRunes  = 256
	maxRouteRunes  = 180
	maxMethodRunes = 10
	maxUserIDRunes = 64
)

// dropUnsafe removes control characters that could break log lines or
// terminals, keeping ordinary whitespace, then caps the rune count.
func dropUnsafe(value string, limit int) string {
	if limit <= 0 {
		limit = maxFieldRunes
	}
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' && r != '\r' && r != '\t' {
			return -1
		}
		return r
	}, value)
	runes := []rune(cleaned)
	if len(runes) > limit {
		return string(runes[:limit])
	}
	return cleaned
}

// SanitizeRoute normalises a route pattern for log and metric labels.
func SanitizeRoute(route string) string {
	if route == "" {
		return "/"
	}
	return dropUnsafe(route, maxRouteRunes)
}

// SanitizeMethod normalises an HTTP method for log and metric labels.
func SanitizeMethod(method string) string {
	return dropUnsafe(method, maxMethodRunes)
}

// SanitizeUserID bounds identifiers before they reach logs.
func SanitizeUserID(uid string) string {
	if uid == "" {
		return ""
	}
	return dropUnsafe(uid, maxUserIDRunes)
}

// MaskEmail keeps the first character of the local part and the domain,
// hiding the rest. Guest customers are keyed by email, so raw addresses
// must not reach log output.
func MaskEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return maskTail(email, 0)
	}
	local, domain := email[:at], email[at+1:]
	return maskTail(local, 1) + "@" + domain
}

// MaskPhone hides all but the last two digits of a phone number.
func MaskPhone(phone string) string {
	phone = strings.TrimSpace(phone)
	return maskTail(phone, 2)
}

func maskTail(value string, keep int) string {
	runes := []rune(value)
	if len(runes) <= keep {
		return strings.Repeat("*", len(runes))
	}
	var anchor string
	if keep > 0 {
		if strings.ContainsAny(value, "@") || !isDigitish(runes[0]) {
			anchor = string(runes[:keep])
			return anchor + strings.Repeat("*", len(runes)-keep)
		}
		anchor = string(runes[len(runes)-keep:])
		return strings.Repeat("*", len(runes)-keep) + anchor
	}
	return strings.Repeat("*", len(runes))
}

func isDigitish(r rune) bool {
	return r == '+' || (r >= '0' && r <= '9')
}

// MaskContactValue redacts a log field whose key suggests customer contact
// details. Unknown keys pass through after control-character stripping.
func MaskContactValue(key string, value any) any {
	s, ok := value.(string)
	if !ok {
		return value
	}
	switch {
	case strings.Contains(strings.ToLower(key), "email"):
		return MaskEmail(s)
	case strings.Contains(strings.ToLower(key), "phone"):
		return MaskPhone(s)
	default:
		return dropUnsafe(s, maxFieldRunes)
	}
}
