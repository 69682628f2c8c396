package core

// Logger is the app-wide logging contract.
// Implementations may inspect args for known types (eg. a logged in user)
// and forward them to an error tracking service.
type Logger interface {
	Enable(enabled bool)
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
