package auth

import (
	"errors"

	"github.com/zalando/go-keyring"
)

type KeyringStore struct {
	serviceName string
}

func NewKeyringStore(serviceName string) *KeyringStore {
	if serviceName == "" {
		serviceName = ServiceName
	}
	return &KeyringStore{serviceName: serviceName}
}

func (k *KeyringStore) SetToken(profile string, token string) error {
	profileKey := NormalizeProfile(profile)
	return keyring.Set(k.serviceName, profileKey, token)
}

func (k *KeyringStore) GetToken(profile string) (string, error) {
	profileKey := NormalizeProfile(profile)
	token, err := keyring.Get(k.serviceName, profileKey)
	if err == nil {
		return token, nil
	}
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrTokenNotFound
	}
	return "", err
}

func (k *KeyringStore) DeleteToken(profile string) error {
	profileKey := NormalizeProfile(profile)
	err := keyring.Delete(k.serviceName, profileKey)
	if errors.Is(err, keyring.ErrNotFound) {
		return ErrTokenNotFound
	}
	return err
}
