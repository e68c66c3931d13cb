package keyring

import "sync"

// MockStore implements Store in memory for tests. Errors can be injected
// per operation.
type MockStore struct {
	mu     sync.Mutex
	data   map[string]string
	getErr error
	setErr error
	delErr error
}

// NewMockStore creates an empty mock store.
func NewMockStore() *MockStore {
	return &MockStore{data: make(map[string]string)}
}

func mockKey(service, key string) string {
	return service + ":" + key
}

func (m *MockStore) Get(service, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return "", m.getErr
	}
	v, ok := m.data[mockKey(service, key)]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *MockStore) Set(service, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.data[mockKey(service, key)] = value
	return nil
}

func (m *MockStore) Delete(service, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.delErr != nil {
		return m.delErr
	}
	delete(m.data, mockKey(service, key))
	return nil
}

func (m *MockStore) WithGetError(err error) *MockStore {
	m.getErr = err
	return m
}

func (m *MockStore) WithSetError(err error) *MockStore {
	m.setErr = err
	return m
}

func (m *MockStore) WithDeleteError(err error) *MockStore {
	m.delErr = err
	return m
}

// WithCredentials pre-populates remembered credentials.
func (m *MockStore) WithCredentials(username, password string) *MockStore {
	m.data[mockKey(ServiceName, KeyUsername)] = username
	m.data[mockKey(ServiceName, KeyPassword)] = password
	return m
}

// Len reports how many secrets are stored.
func (m *MockStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}
