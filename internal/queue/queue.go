package queue

import (
	"context"
	"time"
)

// Delivery is one received message together with its acknowledgment handles.
// Ack removes the message from the queue; Reject returns it for redelivery
// after the broker's redelivery policy.
type Delivery interface {
	Body() []byte
	Ack() error
	Reject() error
}

// Consumer receives at most one message per call, waiting up to the given
// duration before reporting an empty queue with (nil, nil).
type Consumer interface {
	Receive(ctx context.Context, wait time.Duration) (Delivery, error)
	Close() error
}
