// internal/service/access.go
package service

import (
	"billing-api/internal/domain"
	"billing-api/internal/repository"
	"billing-api/internal/util"
)

// ScopeFor translates a principal into the row visibility applied to list
// reads: admins see all rows, regular users only rows owned by their
// identity. This is the single place the admin-vs-owner decision is made
// for lists; handlers never compare roles themselves.
func ScopeFor(p domain.Principal) repository.Scope {
	if p.IsAdmin() {
		return repository.Unrestricted()
	}
	return repository.OwnedBy(p.Identity)
}

// Authorize is the record-level check applied to detail reads: a fetched
// row whose owner does not match a non-admin principal is rejected with
// ErrForbidden rather than reported missing, so ordinal ids cannot be
// probed for existence.
func Authorize(p domain.Principal, ownerUsername string) error {
	if p.IsAdmin() {
		return nil
	}
	if p.Identity == ownerUsername {
		return nil
	}
	return util.ErrForbidden
}
