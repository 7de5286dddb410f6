package storage

import (
	"errors"

	"github.com/quickfynd/api/internal/platform/auth"
)

// ErrPermissionDenied is returned when the caller may not access an asset.
var ErrPermissionDenied = errors.New("storage: permission denied")

// AuthorizeDownload decides whether identity may download an asset owned
// by ownerID. Public assets set allowAnonymous; otherwise the owner and
// staff roles qualify.
func AuthorizeDownload(identity *auth.Identity, ownerID string, allowAnonymous bool) error {
	switch {
	case allowAnonymous:
		return nil
	case identity == nil:
		return ErrPermissionDenied
	case ownerID != "" && identity.UID == ownerID:
		return nil
	case identity.HasAnyRole(auth.RoleSeller, auth.RoleAdmin):
		return nil
	default:
		return ErrPermissionDenied
	}
}
