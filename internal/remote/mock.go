package remote

import (
	"context"
	"errors"
	"sync"
	"time"

	"google.golang.org/grpc/codes"

	"github.com/chiro2001/financial-frontend/internal/auth"
	"github.com/chiro2001/financial-frontend/internal/market"
	"github.com/chiro2001/financial-frontend/pkg/finapi"
)

// MockClient is a scripted Client for tests. Configure its exported fields
// before use; copies made by WithToken share call statistics.
type MockClient struct {
	Entities []market.Entity
	ListErr  error

	// Series maps a symbol to the bars returned for every granularity.
	Series    map[string][]market.Bar
	SeriesErr error

	// Predict computes a channel prediction. The default repeats the last
	// input value length times.
	Predict func(channel []float64, length int) ([]float64, error)

	Metadata    map[string]*market.Metadata
	MetadataErr error

	// Users accepted by Login; Register adds to it.
	Users map[string]string

	// RequireToken rejects data calls made without a token.
	RequireToken bool

	// Gate, when set, holds every data call until it is closed or the
	// call's context ends.
	Gate chan struct{}

	endpoint string
	token    string
	stats    *mockStats
}

type mockStats struct {
	mu     sync.Mutex
	calls  map[string]int
	tokens map[string]string
	users  map[string]string
	closed bool
}

var _ Client = (*MockClient)(nil)

// NewMockClient returns an empty mock for endpoint.
func NewMockClient(endpoint string) *MockClient {
	return &MockClient{
		endpoint: endpoint,
		stats: &mockStats{
			calls:  make(map[string]int),
			tokens: make(map[string]string),
			users:  make(map[string]string),
		},
	}
}

// Calls reports how many times method was invoked across all copies.
func (m *MockClient) Calls(method string) int {
	m.stats.mu.Lock()
	defer m.stats.mu.Unlock()
	return m.stats.calls[method]
}

// LastToken reports the token used by the latest call of method.
func (m *MockClient) LastToken(method string) string {
	m.stats.mu.Lock()
	defer m.stats.mu.Unlock()
	return m.stats.tokens[method]
}

// Closed reports whether Close was called on any copy.
func (m *MockClient) Closed() bool {
	m.stats.mu.Lock()
	defer m.stats.mu.Unlock()
	return m.stats.closed
}

// Token returns the token this copy authenticates with.
func (m *MockClient) Token() string {
	return m.token
}

func (m *MockClient) enter(ctx context.Context, method string, data bool) error {
	m.stats.mu.Lock()
	m.stats.calls[method]++
	m.stats.tokens[method] = m.token
	m.stats.mu.Unlock()

	if !data {
		return nil
	}
	if m.Gate != nil {
		select {
		case <-m.Gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if m.RequireToken && m.token == "" {
		return &finapi.APIError{Code: codes.Unauthenticated, Message: "missing credentials"}
	}
	return nil
}

func (m *MockClient) ListEntities(ctx context.Context) ([]market.Entity, error) {
	if err := m.enter(ctx, "ListEntities", true); err != nil {
		return nil, err
	}
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	return append([]market.Entity(nil), m.Entities...), nil
}

func (m *MockClient) FetchSeries(ctx context.Context, id string, _ market.Granularity) ([]market.Bar, error) {
	if err := m.enter(ctx, "FetchSeries", true); err != nil {
		return nil, err
	}
	if m.SeriesErr != nil {
		return nil, m.SeriesErr
	}
	bars, ok := m.Series[id]
	if !ok {
		return nil, &finapi.APIError{Code: codes.NotFound, Message: "unknown symbol " + id}
	}
	return append([]market.Bar(nil), bars...), nil
}

func (m *MockClient) FetchPrediction(ctx context.Context, channel []float64, length int) ([]float64, error) {
	if err := m.enter(ctx, "FetchPrediction", true); err != nil {
		return nil, err
	}
	if m.Predict != nil {
		return m.Predict(channel, length)
	}
	if len(channel) == 0 {
		return nil, errors.New("empty input series")
	}
	out := make([]float64, length)
	for i := range out {
		out[i] = channel[len(channel)-1]
	}
	return out, nil
}

func (m *MockClient) FetchMetadata(ctx context.Context, id string) (*market.Metadata, error) {
	if err := m.enter(ctx, "FetchMetadata", true); err != nil {
		return nil, err
	}
	if m.MetadataErr != nil {
		return nil, m.MetadataErr
	}
	if md, ok := m.Metadata[id]; ok {
		c := *md
		return &c, nil
	}
	return &market.Metadata{}, nil
}

func (m *MockClient) Login(ctx context.Context, username, password string) (*auth.Token, error) {
	if err := m.enter(ctx, "Login", false); err != nil {
		return nil, err
	}
	m.stats.mu.Lock()
	registered, ok := m.stats.users[username]
	m.stats.mu.Unlock()
	if !ok {
		registered, ok = m.Users[username]
	}
	if !ok || registered != password {
		return nil, &finapi.APIError{Code: codes.Unauthenticated, Message: "wrong username or password"}
	}
	return &auth.Token{
		AccessToken: "token-" + username,
		ExpiresAt:   time.Now().Add(time.Hour).Unix(),
		Endpoint:    m.endpoint,
		Username:    username,
	}, nil
}

func (m *MockClient) Register(ctx context.Context, username, password string) error {
	if err := m.enter(ctx, "Register", false); err != nil {
		return err
	}
	m.stats.mu.Lock()
	defer m.stats.mu.Unlock()
	if _, ok := m.stats.users[username]; ok {
		return &finapi.APIError{Code: codes.AlreadyExists, Message: "user exists"}
	}
	if _, ok := m.Users[username]; ok {
		return &finapi.APIError{Code: codes.AlreadyExists, Message: "user exists"}
	}
	m.stats.users[username] = password
	return nil
}

func (m *MockClient) WithToken(token string) Client {
	c := *m
	c.token = token
	return &c
}

func (m *MockClient) Endpoint() string {
	return m.endpoint
}

func (m *MockClient) Close() error {
	m.stats.mu.Lock()
	defer m.stats.mu.Unlock()
	m.stats.closed = true
	return nil
}
