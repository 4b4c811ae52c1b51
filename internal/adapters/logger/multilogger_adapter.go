package logger_adapter

import (
	"fmt"
	"listam-parser-service/internal/core/port"
)

// MultiLoggerAdapter рассылает каждую запись во все sink-и (stdout и, если включен, fluent-bit)
type MultiLoggerAdapter struct {
	sinks []port.LoggerPort
}

// NewMultiloggerAdapter отбрасывает nil-sink-и. Если остался один sink, он возвращается как есть.
func NewMultiloggerAdapter(sinks ...port.LoggerPort) (port.LoggerPort, error) {
	active := make([]port.LoggerPort, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			active = append(active, s)
		}
	}
	switch len(active) {
	case 0:
		return nil, fmt.Errorf("multilogger: at least one logger is required")
	case 1:
		return active[0], nil
	}
	return &MultiLoggerAdapter{sinks: active}, nil
}

func (m *MultiLoggerAdapter) each(write func(port.LoggerPort)) {
	for _, s := range m.sinks {
		write(s)
	}
}

func (m *MultiLoggerAdapter) Info(msg string, fields port.Fields) {
	m.each(func(s port.LoggerPort) { s.Info(msg, fields) })
}

func (m *MultiLoggerAdapter) Warn(msg string, fields port.Fields) {
	m.each(func(s port.LoggerPort) { s.Warn(msg, fields) })
}

func (m *MultiLoggerAdapter) Error(msg string, err error, fields port.Fields) {
	m.each(func(s port.LoggerPort) { s.Error(msg, err, fields) })
}

func (m *MultiLoggerAdapter) Debug(msg string, fields port.Fields) {
	m.each(func(s port.LoggerPort) { s.Debug(msg, fields) })
}

func (m *MultiLoggerAdapter) WithFields(fields port.Fields) port.LoggerPort {
	enriched := make([]port.LoggerPort, len(m.sinks))
	for i, s := range m.sinks {
		enriched[i] = s.WithFields(fields)
	}
	return &MultiLoggerAdapter{sinks: enriched}
}
