package logging

// MockLogger records log calls for test assertions.
type MockLogger struct {
	Messages []MockMessage
}

// MockMessage is a single recorded log call.
type MockMessage struct {
	Level   string
	Message string
	Fields  []Field
}

// NewMockLogger creates an empty mock logger.
func NewMockLogger() *MockLogger {
	return &MockLogger{}
}

func (m *MockLogger) record(level, msg string, fields []Field) {
	m.Messages = append(m.Messages, MockMessage{Level: level, Message: msg, Fields: fields})
}

func (m *MockLogger) Debug(msg string, fields ...Field) { m.record("debug", msg, fields) }
func (m *MockLogger) Info(msg string, fields ...Field)  { m.record("info", msg, fields) }
func (m *MockLogger) Warn(msg string, fields ...Field)  { m.record("warn", msg, fields) }
func (m *MockLogger) Error(msg string, fields ...Field) { m.record("error", msg, fields) }

func (m *MockLogger) WithError(err error) Logger {
	return m
}

func (m *MockLogger) WithField(key string, value interface{}) Logger {
	return m
}

// HasMessage reports whether a message at the given level was logged.
func (m *MockLogger) HasMessage(level, msg string) bool {
	for _, rec := range m.Messages {
		if rec.Level == level && rec.Message == msg {
			return true
		}
	}
	return false
}
