// Package logger dispatches leveled, structured log calls to the configured
// backends. Calls are no-ops until Init has been called.
package logger

import "sync"

// Instance is a logging backend.
type Instance interface {
	Debug(message string, keyvals ...any)
	Info(message string, keyvals ...any)
	Warn(message string, keyvals ...any)
	Error(message string, keyvals ...any)
}

// Logger holds the backends every call is sent to.
type Logger struct {
	instances []Instance
}

var (
	mu        sync.RWMutex
	singleton *Logger
)

func get() *Logger {
	mu.RLock()
	defer mu.RUnlock()
	return singleton
}

// Init sets the backends of the global logger, replacing earlier ones.
func Init(instances ...Instance) {
	mu.Lock()
	defer mu.Unlock()
	singleton = &Logger{instances: instances}
}

// Debug logs at DEBUG level.
func Debug(message string, keyvals ...any) {
	if l := get(); l != nil {
		for _, i := range l.instances {
			i.Debug(message, keyvals...)
		}
	}
}

// Info logs at INFO level.
func Info(message string, keyvals ...any) {
	if l := get(); l != nil {
		for _, i := range l.instances {
			i.Info(message, keyvals...)
		}
	}
}

// Warn logs at WARN level.
func Warn(message string, keyvals ...any) {
	if l := get(); l != nil {
		for _, i := range l.instances {
			i.Warn(message, keyvals...)
		}
	}
}

// Error logs at ERROR level.
func Error(message string, keyvals ...any) {
	if l := get(); l != nil {
		for _, i := range l.instances {
			i.Error(message, keyvals...)
		}
	}
}
