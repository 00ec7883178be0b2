// File: internal/mocks/mocks.go
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/2300033498-rgb/LoginTesting/internal/browser"
	"github.com/2300033498-rgb/LoginTesting/internal/results"
)

// -- Browser Driver Mock --

// MockDriver mocks the browser.Driver interface.
type MockDriver struct {
	mock.Mock
}

var _ browser.Driver = (*MockDriver)(nil)

func (m *MockDriver) Navigate(ctx context.Context, url string) error {
	return m.Called(ctx, url).Error(0)
}
func (m *MockDriver) CurrentURL(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}
func (m *MockDriver) Find(ctx context.Context, loc browser.Locator) (browser.Element, error) {
	args := m.Called(ctx, loc)
	if args.Get(0) == nil {
		return browser.Element{}, args.Error(1)
	}
	return args.Get(0).(browser.Element), args.Error(1)
}
func (m *MockDriver) Click(ctx context.Context, loc browser.Locator) error {
	return m.Called(ctx, loc).Error(0)
}
func (m *MockDriver) SendKeys(ctx context.Context, loc browser.Locator, text string) error {
	return m.Called(ctx, loc, text).Error(0)
}
func (m *MockDriver) Clear(ctx context.Context, loc browser.Locator) error {
	return m.Called(ctx, loc).Error(0)
}
func (m *MockDriver) ScrollIntoView(ctx context.Context, loc browser.Locator) error {
	return m.Called(ctx, loc).Error(0)
}
func (m *MockDriver) Evaluate(ctx context.Context, script string) (any, error) {
	args := m.Called(ctx, script)
	return args.Get(0), args.Error(1)
}
func (m *MockDriver) Screenshot(ctx context.Context) ([]byte, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}
func (m *MockDriver) Quit(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// -- Results Store Mock --

// MockRecordStore mocks the results.Store interface.
type MockRecordStore struct {
	mock.Mock
}

var _ results.Store = (*MockRecordStore)(nil)

func (m *MockRecordStore) PersistRecords(ctx context.Context, records []results.Record) error {
	return m.Called(ctx, records).Error(0)
}
func (m *MockRecordStore) GetRecordsByRunID(ctx context.Context, runID string) ([]results.Record, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]results.Record), args.Error(1)
}
