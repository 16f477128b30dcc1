package mail

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// SESAPI is the subset of the SES v2 client the sender uses.
type SESAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

type SESSender struct {
	client SESAPI
	from   string
	now    func() time.Time
}

// NewSESSender returns a sender that uses from whenever a message leaves
// its From empty.
func NewSESSender(client SESAPI, from string) *SESSender {
	return &SESSender{client: client, from: from, now: time.Now}
}

func (s *SESSender) Send(ctx context.Context, msg Message) error {
	if msg.From == "" {
		msg.From = s.from
	}

	if msg.To == "" {
		return fmt.Errorf("sending email: missing recipient")
	}

	raw, err := BuildRaw(msg, s.now())
	if err != nil {
		return fmt.Errorf("building email: %w", err)
	}

	_, err = s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(msg.From),
		Destination:      &types.Destination{ToAddresses: []string{msg.To}},
		Content:          &types.EmailContent{Raw: &types.RawMessage{Data: raw}},
	})
	if err != nil {
		return fmt.Errorf("sending email to %s: %w", msg.To, err)
	}

	return nil
}
