package main

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// This file contains mocks definitions needed to perform unit tests.

type MockBookStorage struct {
	AddFunc    func(ctx context.Context, book *Book) error
	GetOneFunc func(ctx context.Context, id string) (Book, error)
	DeleteFunc func(ctx context.Context, id string) error
	UpdateFunc func(ctx context.Context, id string, book Book) error
	GetAllFunc func(ctx context.Context) ([]Book, error)
}

// Add mocks the behavior of book creation by the repository.
func (m *MockBookStorage) Add(ctx context.Context, book *Book) error {
	return m.AddFunc(ctx, book)
}

// GetOne mocks the behavior of retrieving a book by the repository.
func (m *MockBookStorage) GetOne(ctx context.Context, id string) (Book, error) {
	return m.GetOneFunc(ctx, id)
}

// Delete mocks the behavior of deleting a book by the repository.
func (m *MockBookStorage) Delete(ctx context.Context, id string) error {
	return m.DeleteFunc(ctx, id)
}

// Update mocks the behavior of updating a book by the repository.
func (m *MockBookStorage) Update(ctx context.Context, id string, book Book) error {
	return m.UpdateFunc(ctx, id, book)
}

// GetAll mocks the behavior of retrieving all books by the repository.
func (m *MockBookStorage) GetAll(ctx context.Context) ([]Book, error) {
	return m.GetAllFunc(ctx)
}

// pushed is a book published on a given queue.
type pushed struct {
	qid  string
	book Book
}

// MockQueuer records pushed books and replays them on Pop.
type MockQueuer struct {
	mu      sync.Mutex
	Pushed  []pushed
	PushErr error
	PopFunc func(ctx context.Context, qids ...string) (string, Book, error)
}

func (mq *MockQueuer) Push(_ context.Context, qid string, book Book) error {
	mq.mu.Lock()
	defer mq.mu.Unlock()
	if mq.PushErr != nil {
		return mq.PushErr
	}
	mq.Pushed = append(mq.Pushed, pushed{qid, book})
	return nil
}

func (mq *MockQueuer) Pop(ctx context.Context, qids ...string) (string, Book, error) {
	return mq.PopFunc(ctx, qids...)
}

// MockClocker implements a fake Clocker.
type MockClocker struct {
	MockNow time.Time
}

// NewMockClocker returns a mocked instance with fixed time.
func NewMockClocker() *MockClocker {
	return &MockClocker{time.Date(2023, 0o7, 0o2, 0o0, 0o0, 0o0, 0o00000000, time.UTC)}
}

// Now returns an already defined time to be used as mock. This
// equals to `Sun, 02 Jul 2023 00:00:00 UTC` in time.RFC1123 format.
// equals to `2023-07-02 00:00:00 +0000 UTC` in String format.
func (mck *MockClocker) Now() time.Time {
	return mck.MockNow
}

// MockUIDHandler implements a fake UIDHandler.
type MockUIDHandler struct {
	MockedUID string
	Valid     bool
}

// NewMockUIDHandler returns a mocked instance with predictable id.
func NewMockUIDHandler(id string, valid bool) *MockUIDHandler {
	return &MockUIDHandler{MockedUID: id, Valid: valid}
}

// Generate constructs a predictable id to be used as mock.
func (muid *MockUIDHandler) Generate(prefix string) string {
	return prefix + ":" + muid.MockedUID
}

// NewBookID returns the mocked id.
func (muid *MockUIDHandler) NewBookID() string {
	return muid.MockedUID
}

// IsValidBookID mocks the book id check by providing configured status.
func (muid *MockUIDHandler) IsValidBookID(_ string) bool {
	return muid.Valid
}

// testBookID is a well-formed book id used across tests.
const testBookID = "64a0f3c2e13f2b7d9c8e4a11"

// newTestConfig returns the minimal configuration used by the api handlers.
func newTestConfig() *Config {
	return &Config{
		Server: ServerConfig{BasePath: "/api/PresensiHarianGuru"},
		Auth: AuthConfig{
			Secret:   "test-secret",
			Issuer:   "bookstore-test",
			TokenTTL: time.Hour,
		},
	}
}

// newTestAPIHandler builds an api handler on top of the provided storage.
func newTestAPIHandler(storage BookStorage) *APIHandler {
	config := newTestConfig()
	clock := NewMockClocker()
	metrics := NewMetrics()
	bs := NewBookService(zap.NewNop(), config, storage, nil, metrics)
	return NewAPIHandler(
		zap.NewNop(),
		config,
		&Statistics{started: clock.Now()},
		clock,
		NewMockUIDHandler("abc", true),
		NewAuthenticator(&config.Auth, clock),
		metrics,
		bs,
	)
}
