package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// SQSNotifier implements the Notifier interface by publishing events to an
// SQS queue consumed by the delivery workers (email, in-app, etc.).
type SQSNotifier struct {
	Client   *sqs.Client
	QueueURL string
}

// NewSQSNotifier creates a new SQSNotifier.
func NewSQSNotifier(client *sqs.Client, queueURL string) *SQSNotifier {
	return &SQSNotifier{
		Client:   client,
		QueueURL: queueURL,
	}
}

// Make sure we conform to the interface
var _ Notifier = (*SQSNotifier)(nil)

type event struct {
	Kind        string            `json:"kind"`
	RecipientID string            `json:"recipient_id"`
	Payload     map[string]string `json:"payload,omitempty"`
	SentAt      time.Time         `json:"sent_at"`
}

// Notify sends the event to the notification queue.
func (n *SQSNotifier) Notify(ctx context.Context, kind, recipientID string, payload map[string]string) error {
	body, err := json.Marshal(event{
		Kind:        kind,
		RecipientID: recipientID,
		Payload:     payload,
		SentAt:      time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	_, err = n.Client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(n.QueueURL),
		MessageBody: aws.String(string(body)),
	})
	if err != nil {
		return fmt.Errorf("failed to send notification to SQS: %w", err)
	}

	return nil
}
