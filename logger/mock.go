package logger

import (
	"github.com/stretchr/testify/mock"
)

// MockLogger records log calls for assertions. Every logging method is
// called with (msg, keysAndValues), so expectations look like
//
//	m.On("Warn", "request timeout", mock.Anything).Return()
type MockLogger struct {
	mock.Mock
}

var _ Logger = (*MockLogger)(nil)

// NewMockLogger returns a MockLogger without expectations.
func NewMockLogger() *MockLogger {
	return &MockLogger{}
}

// NewNopMockLogger returns a MockLogger that accepts every call.
func NewNopMockLogger() *MockLogger {
	m := NewMockLogger()
	for _, method := range logMethods {
		m.On(method, mock.Anything, mock.Anything).Return()
	}
	m.On("SetLevel", mock.Anything).Return()
	m.On("Level").Return(DebugLevel)

	return m
}

var logMethods = []string{"Debug", "Info", "Warn", "Error", "Fatal"}

func (m *MockLogger) Debug(msg string, keysAndValues ...any) { m.Called(msg, keysAndValues) }
func (m *MockLogger) Info(msg string, keysAndValues ...any)  { m.Called(msg, keysAndValues) }
func (m *MockLogger) Warn(msg string, keysAndValues ...any)  { m.Called(msg, keysAndValues) }
func (m *MockLogger) Error(msg string, keysAndValues ...any) { m.Called(msg, keysAndValues) }

// Fatal records the call and does not exit.
func (m *MockLogger) Fatal(msg string, keysAndValues ...any) { m.Called(msg, keysAndValues) }

func (m *MockLogger) SetLevel(level Level) {
	m.Called(level)
}

func (m *MockLogger) Level() Level {
	return m.Called().Get(0).(Level)
}

// With returns m itself so expectations keep applying to child loggers.
func (m *MockLogger) With(_ ...any) Logger {
	return m
}
