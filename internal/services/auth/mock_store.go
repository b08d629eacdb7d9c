package auth

// MockStore is an in-memory auth store for testing.
type MockStore struct {
	tokens map[string]string
}

func NewMockStore() *MockStore {
	return &MockStore{tokens: make(map[string]string)}
}

func (m *MockStore) SetToken(profile string, token string) error {
	m.tokens[profile] = token
	return nil
}

func (m *MockStore) GetToken(profile string) (string, error) {
	token, ok := m.tokens[profile]
	if !ok {
		return "", ErrTokenNotFound
	}
	return token, nil
}

func (m *MockStore) DeleteToken(profile string) error {
	if _, ok := m.tokens[profile]; !ok {
		return ErrTokenNotFound
	}
	delete(m.tokens, profile)
	return nil
}
