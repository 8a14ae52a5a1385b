package domain

import "errors"

// Sentinel errors used across layers.
var (
	ErrNotFound         = errors.New("not found")
	ErrAppNotFound      = errors.New("application not found")
	ErrBadLaunchPath    = errors.New("launch path is not valid")
	ErrBackendFailure   = errors.New("conversation backend failed")
	ErrSkillUnavailable = errors.New("skill is not configured")
)
