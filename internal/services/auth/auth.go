package auth

import (
	"errors"

	"benlowery/agentctl/internal/util"
)

const ServiceName = "agentctl"

// DefaultProfile is the console profile used when none is named.
const DefaultProfile = "default"

var ErrTokenNotFound = errors.New("auth token not found")

// Store holds console API tokens keyed by profile name.
type Store interface {
	SetToken(profile string, token string) error
	GetToken(profile string) (string, error)
	DeleteToken(profile string) error
}

// DefaultStore returns the standard auth store backed by the OS keychain.
func DefaultStore() Store {
	return NewKeyringStore(ServiceName)
}

// NormalizeProfile normalizes a profile name for consistent key lookup.
func NormalizeProfile(profile string) string {
	return util.NormalizeKey(profile)
}
