package app

import "github.com/detekto/cellwatch/internal/config"

// ConfigPermissions answers permission checks from the live config, so a
// grant revoked through SaveAndApplyConfig is seen by the next poll.
type ConfigPermissions struct {
	current func() config.AppConfig
}

func NewConfigPermissions(current func() config.AppConfig) ConfigPermissions {
	return ConfigPermissions{current: current}
}

func (p ConfigPermissions) HasFineLocation() bool {
	if p.current == nil {
		return false
	}

	return p.current().Permissions.FineLocation
}

func (p ConfigPermissions) HasReadPhoneState() bool {
	if p.current == nil {
		return false
	}

	return p.current().Permissions.ReadPhoneState
}
