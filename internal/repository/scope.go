// internal/repository/scope.go
package repository

// Scope narrows list reads to the rows a principal may see. An admin scope
// is unrestricted; a user scope limits rows to those whose owning user
// matches OwnerUsername (by username equality join). Repositories apply it
// uniformly to bill, transaction, and purchase list queries.
type Scope struct {
	All           bool
	OwnerUsername string
}

// Unrestricted returns a scope that matches every row.
func Unrestricted() Scope {
	return Scope{All: true}
}

// OwnedBy returns a scope restricted to rows owned by the given username.
func OwnedBy(username string) Scope {
	return Scope{OwnerUsername: username}
}
