package mail

import "context"

// Message represents an outbound email
type Message struct {
	To       string
	ToName   string
	CC       []string
	BCC      []string
	Subject  string
	HTMLBody string
	// Label tags the message kind for transport-side analytics
	// (e.g. "quote_response", "rig_response")
	Label string
}

// Sender is the outbound mail transport boundary. Implementations are
// synchronous; timeout policy belongs to the transport.
type Sender interface {
	Send(ctx context.Context, msg *Message) error
}
