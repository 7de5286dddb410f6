package observability

import "testing"

func TestMaskEmail(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"asha@example.com", "a***@example.com"},
		{"a@example.com", "*@example.com"},
		{"not-an-email", "************"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := MaskEmail(tc.in); got != tc.want {
			t.Errorf("MaskEmail(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestMaskPhone(t *testing.T) {
	if got := MaskPhone("+919800000001"); got != "***********01" {
		t.Errorf("unexpected masked phone %q", got)
	}
	if got := MaskPhone("42"); got != "**" {
		t.Errorf("expected fully masked short number, got %q", got)
	}
}

func TestMaskContactValue(t *testing.T) {
	if got := MaskContactValue("guest_email", "asha@example.com"); got != "a***@example.com" {
		t.Errorf("expected masked email field, got %v", got)
	}
	if got := MaskContactValue("phone_number", "+919800000001"); got != "***********01" {
		t.Errorf("expected masked phone field, got %v", got)
	}
	if got := MaskContactValue("order", "ord_123"); got != "ord_123" {
		t.Errorf("expected passthrough for non-contact key, got %v", got)
	}
	if got := MaskContactValue("count", 3); got != 3 {
		t.Errorf("expected non-string passthrough, got %v", got)
	}
}

func TestSanitizeRouteStripsControlCharacters(t *testing.T) {
	if got := SanitizeRoute("/api/v1/orders\x1b[31m"); got != "/api/v1/orders[31m" {
		t.Errorf("unexpected sanitized route %q", got)
	}
	if got := SanitizeRoute(""); got != "/" {
		t.Errorf("expected root for empty route, got %q", got)
	}
}
