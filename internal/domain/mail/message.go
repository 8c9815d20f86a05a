package mail

import "context"

// Attachment is a file sent along with a message.
type Attachment struct {
	Name string
	Data []byte
}

// Message is a composed HTML email.
type Message struct {
	To          []string
	Cc          []string
	Subject     string
	HTMLBody    string
	Attachments []Attachment
}

// Sender delivers composed messages.
type Sender interface {
	Send(ctx context.Context, msg *Message) error
}

// Notifier pushes a short plain-text notice to an administrator channel.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}
