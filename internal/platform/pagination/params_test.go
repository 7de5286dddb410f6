package pagination

import (
	"errors"
	"net/url"
	"testing"
)

func TestParsePageDefaults(t *testing.T) {
	page, err := ParsePage(url.Values{}, Limits{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Size != DefaultPageSize {
		t.Fatalf("expected default size %d, got %d", DefaultPageSize, page.Size)
	}
	if page.Token != "" {
		t.Fatalf("expected empty token, got %q", page.Token)
	}
}

func TestParsePageNilValues(t *testing.T) {
	page, err := ParsePage(nil, Limits{Default: 20})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Size != 20 {
		t.Fatalf("expected size 20, got %d", page.Size)
	}
}

func TestParsePageClampsToMax(t *testing.T) {
	values := url.Values{"page_size": {"500"}}
	page, err := ParsePage(values, Limits{Max: 100})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Size != 100 {
		t.Fatalf("expected clamp to 100, got %d", page.Size)
	}
}

func TestParsePageDefaultAboveMaxClamped(t *testing.T) {
	page, err := ParsePage(url.Values{}, Limits{Default: 200, Max: 50})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Size != 50 {
		t.Fatalf("expected default clamped to max 50, got %d", page.Size)
	}
}

func TestParsePageRejectsBadSizes(t *testing.T) {
	for _, raw := range []string{"abc", "0", "-5", "1.5"} {
		values := url.Values{"page_size": {raw}}
		if _, err := ParsePage(values, Limits{}); !errors.Is(err, ErrInvalidPageSize) {
			t.Errorf("page_size=%q: expected ErrInvalidPageSize, got %v", raw, err)
		}
	}
}

func TestParsePageValidTokenRoundTrip(t *testing.T) {
	token, err := EncodeToken(Cursor{StartAfter: []any{"2026-01-01", "ord_9"}})
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if token == "" {
		t.Fatalf("expected non-empty token")
	}

	values := url.Values{"page_token": {token}}
	page, err := ParsePage(values, Limits{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Token != token {
		t.Fatalf("expected token passthrough, got %q", page.Token)
	}

	cursor, err := DecodeToken(token)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(cursor.StartAfter) != 2 || cursor.StartAfter[0] != "2026-01-01" {
		t.Fatalf("unexpected cursor %+v", cursor)
	}
}

func TestParsePageRejectsMalformedToken(t *testing.T) {
	values := url.Values{"page_token": {"!!not base64!!"}}
	if _, err := ParsePage(values, Limits{}); !errors.Is(err, ErrInvalidPageToken) {
		t.Fatalf("expected ErrInvalidPageToken, got %v", err)
	}
}

func TestEncodeTokenEmptyCursor(t *testing.T) {
	token, err := EncodeToken(Cursor{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token != "" {
		t.Fatalf("expected empty token for empty cursor, got %q", token)
	}
}

func TestDecodeTokenEmpty(t *testing.T) {
	cursor, err := DecodeToken("   ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cursor.StartAfter) != 0 || len(cursor.StartAt) != 0 {
		t.Fatalf("expected zero cursor, got %+v", cursor)
	}
}
