package mq

import "context"

// MessageQueue carries deferred cleanup work (project image purges and
// owner cascades) off the request path. Receive blocks up to the
// transport's long-poll window and returns nil when no message arrived.
type MessageQueue interface {
	Send(ctx context.Context, body string) error
	Receive(ctx context.Context, visibilityTimeout int32) (*Message, error)
	Delete(ctx context.Context, msg *Message) error
}

type Message struct {
	Id   string
	Body string
}
