package mocks

import (
	"context"

	"nihilism-server/internal/models"
	"nihilism-server/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockPlayerStore is a mock type for the PlayerStore type
type MockPlayerStore struct {
	mock.Mock
}

// Save provides a mock function with given fields: ctx, player
func (_m *MockPlayerStore) Save(ctx context.Context, player *models.Player) error {
	ret := _m.Called(ctx, player)

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, *models.Player) error); ok {
		r0 = rf(ctx, player)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// Load provides a mock function with given fields: ctx, id
func (_m *MockPlayerStore) Load(ctx context.Context, id uuid.UUID) (*models.Player, error) {
	ret := _m.Called(ctx, id)

	var r0 *models.Player
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, uuid.UUID) (*models.Player, error)); ok {
		return rf(ctx, id)
	}
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.Player)
	}
	r1 = ret.Error(1)

	return r0, r1
}

// Delete provides a mock function with given fields: ctx, id
func (_m *MockPlayerStore) Delete(ctx context.Context, id uuid.UUID) error {
	ret := _m.Called(ctx, id)
	return ret.Error(0)
}

// List provides a mock function with given fields: ctx
func (_m *MockPlayerStore) List(ctx context.Context) ([]uuid.UUID, error) {
	ret := _m.Called(ctx)

	var r0 []uuid.UUID
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]uuid.UUID)
	}

	return r0, ret.Error(1)
}

// NewMockPlayerStore creates a new instance of MockPlayerStore. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockPlayerStore(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockPlayerStore {
	m := &MockPlayerStore{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

var _ repository.PlayerStore = (*MockPlayerStore)(nil)
