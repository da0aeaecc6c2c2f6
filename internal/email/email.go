package email

import (
	"context"
	"fmt"

	"github.com/mavvricks/eloque/internal/kafka"
)

type Sender struct{}

func NewSender() *Sender {
	return &Sender{}
}

func (s *Sender) Send(ctx context.Context, event kafka.Event) error {
	if event.ClientEmail == "" {
		return nil
	}
	fmt.Printf("send email to %s about %s for booking %s on %s\n", event.ClientEmail, event.Type, event.Reference, event.EventDate)
	return nil
}
