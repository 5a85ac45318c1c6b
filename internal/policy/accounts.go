package policy

import (
	"context"
	"strconv"

	"github.com/diewo77/eventdesk/auth"
	"github.com/diewo77/eventdesk/gate"
)

type identified interface {
	RecordID() string
}

// SelfDeletePolicy keeps users from deleting the account they are logged
// in with. Every other action is left to role permissions.
type SelfDeletePolicy struct{}

func NewSelfDeletePolicy() *SelfDeletePolicy {
	return &SelfDeletePolicy{}
}

// Can refuses a delete whose target is the principal's own account. A
// delete on something that carries no record id is refused too.
func (p *SelfDeletePolicy) Can(_ context.Context, user auth.Principal, action gate.Action, resource any) bool {
	if action != gate.ActionDelete {
		return true
	}
	rec, ok := resource.(identified)
	if !ok {
		return false
	}
	return rec.RecordID() != strconv.FormatInt(user.AccountID, 10)
}
