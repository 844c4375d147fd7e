package messenger

import "reflect"

// Subscription is the entry created by a registration. It holds no strong
// reference to the subscriber or the callback owner.
type Subscription struct {
	id              string
	messageType     reflect.Type
	token           any
	includeSubtypes bool
	handle          *weakHandle
	m               *Messenger
}

// ID returns the unique identifier of the subscription.
func (s *Subscription) ID() string { return s.id }

// MessageType returns the type the subscription was registered for.
func (s *Subscription) MessageType() reflect.Type { return s.messageType }

// Token returns the filter token, or nil if the subscription has none.
func (s *Subscription) Token() any { return s.token }

// IncludesSubtypes reports whether the subscription matches related types.
func (s *Subscription) IncludesSubtypes() bool { return s.includeSubtypes }

// Method returns the name of the callback function.
func (s *Subscription) Method() string { return s.handle.method }

// Active reports whether the subscription can still receive messages.
// It turns false once the subscriber or owner is collected, or after Cancel.
func (s *Subscription) Active() bool { return s.handle.IsAlive() }

// Cancel stops delivery to this subscription. The entry is removed by the next cleanup pass.
func (s *Subscription) Cancel() {
	if !s.handle.IsAlive() {
		return
	}
	s.handle.MarkForDeletion()
	s.m.requestCleanup()
}
