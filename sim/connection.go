package sim

// SendError marks a failure send or receive
type SendError struct{}

// NewSendError creates a SendError
func NewSendError() *SendError {
	return new(SendError)
}

// A Connection is responsible for delivering messages to its destination.
type Connection interface {
	Named
	Hookable

	PlugIn(port Port)
	NotifyAvailable(port Port)
	NotifySend()
}
