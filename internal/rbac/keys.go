package rbac

import (
	"fmt"
	"strings"
)

// CachePrefix scopes every decision cache entry.
const CachePrefix = "acl:"

// roleScope is the prefix shared by every entry derived from one role, so a
// single prefix invalidation drops both the capability list and decisions.
func roleScope(roleID int64) string {
	return fmt.Sprintf("%srole:%d:", CachePrefix, roleID)
}

func capabilitiesKey(roleID int64) string {
	return roleScope(roleID) + "capabilities"
}

func allowedKey(systemName string, roleID int64) string {
	return roleScope(roleID) + "allowed:" + strings.ToLower(systemName)
}
