package gate

import "strings"

// Permission grants an action on a resource type, written "resource:action".
// Either side may be the wildcard "*".
type Permission string

// Wildcard matches any resource type or any action.
const Wildcard = "*"

// PermissionAll grants everything.
const PermissionAll Permission = "*:*"

// NewPermission builds the permission for action on resourceType.
func NewPermission(resourceType string, action Action) Permission {
	return Permission(resourceType + ":" + string(action))
}

// Parse splits p into its resource type and action. Malformed permissions
// yield empty strings.
func (p Permission) Parse() (resourceType string, action Action) {
	res, act, ok := strings.Cut(string(p), ":")
	if !ok || res == "" || act == "" {
		return "", ""
	}
	return res, Action(act)
}

// Matches reports whether the granted permission p covers requested.
// "staff:*" covers every staff action and "*:list" covers listing anything.
func (p Permission) Matches(requested Permission) bool {
	res, act := p.Parse()
	reqRes, reqAct := requested.Parse()
	if res == "" || reqRes == "" {
		return false
	}
	return (res == Wildcard || res == reqRes) && (act == Wildcard || act == reqAct)
}
