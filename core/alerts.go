package core

import (
	"fmt"
	"sync"
	"time"
)

type AlertLevel string

const (
	AlertSuccess AlertLevel = "success"
	AlertInfo    AlertLevel = "info"
	AlertWarning AlertLevel = "warning"
	AlertError   AlertLevel = "error"
)

// Alert is a transient user-facing message (a toast).
type Alert struct {
	Level   AlertLevel `json:"level"`
	Message string     `json:"message"`
	Time    time.Time  `json:"time"`
}

// Alerts is the side channel through which actions report their outcome.
// It is safe for concurrent use.
type Alerts struct {
	mu     sync.Mutex
	queue  []Alert
	logger Logger
}

// NewAlerts returns an empty queue. When logger is not nil every alert is echoed to it.
func NewAlerts(logger Logger) *Alerts {
	return &Alerts{logger: logger}
}

func (a *Alerts) push(level AlertLevel, format string, args ...interface{}) {
	alert := Alert{Level: level, Message: fmt.Sprintf(format, args...), Time: time.Now().UTC()}

	a.mu.Lock()
	a.queue = append(a.queue, alert)
	a.mu.Unlock()

	if a.logger == nil {
		return
	}
	switch level {
	case AlertError:
		a.logger.Error(alert.Message)
	case AlertWarning:
		a.logger.Warn(alert.Message)
	default:
		a.logger.Info(alert.Message)
	}
}

func (a *Alerts) Success(format string, args ...interface{}) { a.push(AlertSuccess, format, args...) }
func (a *Alerts) Info(format string, args ...interface{})    { a.push(AlertInfo, format, args...) }
func (a *Alerts) Warning(format string, args ...interface{}) { a.push(AlertWarning, format, args...) }
func (a *Alerts) Error(format string, args ...interface{})   { a.push(AlertError, format, args...) }

// Peek returns a copy of the pending alerts without consuming them.
func (a *Alerts) Peek() []Alert {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Alert, len(a.queue))
	copy(out, a.queue)
	return out
}

// Drain returns and removes all pending alerts.
func (a *Alerts) Drain() []Alert {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := a.queue
	a.queue = nil
	if out == nil {
		out = []Alert{}
	}
	return out
}
