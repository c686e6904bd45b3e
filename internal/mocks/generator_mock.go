package mocks

import (
	"context"

	"nihilism-server/internal/models"
	"nihilism-server/internal/narrator"

	"github.com/stretchr/testify/mock"
)

// MockGenerator is a mock type for the Generator type
type MockGenerator struct {
	mock.Mock
}

// GenerateNarrative provides a mock function with given fields: ctx, player, userInput
func (_m *MockGenerator) GenerateNarrative(ctx context.Context, player *models.Player, userInput *string) (models.NarrativeMoment, error) {
	ret := _m.Called(ctx, player, userInput)

	if rf, ok := ret.Get(0).(func(context.Context, *models.Player, *string) (models.NarrativeMoment, error)); ok {
		return rf(ctx, player, userInput)
	}

	var r0 models.NarrativeMoment
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(models.NarrativeMoment)
	}

	return r0, ret.Error(1)
}

// ProcessChoice provides a mock function with given fields: ctx, player, choice
func (_m *MockGenerator) ProcessChoice(ctx context.Context, player *models.Player, choice models.Choice) (models.NarrativeMoment, error) {
	ret := _m.Called(ctx, player, choice)

	if rf, ok := ret.Get(0).(func(context.Context, *models.Player, models.Choice) (models.NarrativeMoment, error)); ok {
		return rf(ctx, player, choice)
	}

	var r0 models.NarrativeMoment
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(models.NarrativeMoment)
	}

	return r0, ret.Error(1)
}

// NewMockGenerator creates a new instance of MockGenerator. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockGenerator(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockGenerator {
	m := &MockGenerator{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

var _ narrator.Generator = (*MockGenerator)(nil)
