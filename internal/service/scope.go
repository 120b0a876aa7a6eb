package service

import (
	"habita/internal/domain"
)

// ResolveScope maps a caller to the data boundary their reports run
// inside. Admins see everything; any other caller is limited to rows tied
// to properties they own. The user collection is admin-only, full stop.
func ResolveScope(caller domain.Caller, t domain.ReportType) (domain.Scope, error) {
	if caller.IsAdmin {
		return domain.Scope{All: true}, nil
	}
	if t == domain.ReportUsuarios {
		return domain.Scope{}, domain.ErrForbidden
	}
	return domain.Scope{OwnerID: caller.UserID}, nil
}
