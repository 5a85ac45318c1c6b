package gate

import "errors"

var (
	ErrUnauthorized  = errors.New("unauthorized")
	ErrUnknownRole   = errors.New("unknown role")
	ErrPolicyRefused = errors.New("refused by resource policy")
)
