package mpe

import "errors"

var (
	ErrInvalidManager     = errors.New("mpe: manager channel must be 0 or 15")
	ErrInvalidMemberCount = errors.New("mpe: member channel count out of range")
	ErrInvalidMode        = errors.New("mpe: midi mode must be 3 or 4")
	ErrNoFreeChannel      = errors.New("mpe: no member channel available")
	ErrUnknownDevice      = errors.New("mpe: unknown device")
)
