package shared

import (
	"strconv"
	"strings"
)

// Principal is the actor whose roles are evaluated during authorization.
type Principal interface {
	GetID() int64
}

// CustomerID identifies a storefront customer. Zero is the anonymous guest.
type CustomerID int64

// Guest is the anonymous principal.
const Guest CustomerID = 0

// GetID implements Principal.
func (c CustomerID) GetID() int64 { return int64(c) }

func (c CustomerID) String() string { return strconv.FormatInt(int64(c), 10) }

// IsGuest reports whether the principal is anonymous.
func (c CustomerID) IsGuest() bool { return c <= 0 }

// PrincipalFromSession resolves the customer bound to the session; sessions
// without a valid customer id resolve to Guest.
func PrincipalFromSession(sess *Session) CustomerID {
	if sess == nil {
		return Guest
	}
	raw := strings.TrimSpace(sess.User())
	if raw == "" {
		return Guest
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return Guest
	}
	return CustomerID(id)
}
