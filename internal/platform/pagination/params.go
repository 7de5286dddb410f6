package pagination

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	// DefaultPageSize applies when the client omits page_size.
	DefaultPageSize = 50
	// DefaultMaxPageSize caps page_size to keep listing queries bounded.
	DefaultMaxPageSize = 100
)

var (
	ErrInvalidPageSize  = errors.New("pagination: invalid page_size")
	ErrInvalidPageToken = errors.New("pagination: invalid page_token")
)

// Page holds the client-requested page window for a listing endpoint.
type Page struct {
	Size  int
	Token string
}

// Limits bound page sizes per endpoint. Zero values fall back to the
// package defaults.
type Limits struct {
	Default int
	Max     int
}

func (l Limits) normalise() Limits {
	if l.Max <= 0 {
		l.Max = DefaultMaxPageSize
	}
	if l.Default <= 0 {
		l.Default = DefaultPageSize
	}
	if l.Default > l.Max {
		l.Default = l.Max
	}
	return l
}

// ParsePage extracts page_size and page_token from listing query parameters.
// The token is decoded once here so a malformed cursor fails fast at the
// handler instead of deep inside a Firestore query.
func ParsePage(values url.Values, limits Limits) (Page, error) {
	limits = limits.normalise()
	if values == nil {
		return Page{Size: limits.Default}, nil
	}

	page := Page{Size: limits.Default}

	if raw := strings.TrimSpace(values.Get("page_size")); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil {
			return Page{}, fmt.Errorf("%w: must be an integer", ErrInvalidPageSize)
		}
		if size <= 0 {
			return Page{}, fmt.Errorf("%w: must be greater than zero", ErrInvalidPageSize)
		}
		if size > limits.Max {
			size = limits.Max
		}
		page.Size = size
	}

	if token := strings.TrimSpace(values.Get("page_token")); token != "" {
		if _, err := DecodeToken(token); err != nil {
			return Page{}, err
		}
		page.Token = token
	}

	return page, nil
}
