package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"karya/internal/domain"
	"karya/internal/service"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// SQSClient is the subset of the SQS API used here.
type SQSClient interface {
	SendMessage(ctx context.Context, in *sqs.SendMessageInput, opts ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	ReceiveMessage(ctx context.Context, in *sqs.ReceiveMessageInput, opts ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, in *sqs.DeleteMessageInput, opts ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
	ChangeMessageVisibility(ctx context.Context, in *sqs.ChangeMessageVisibilityInput, opts ...func(*sqs.Options)) (*sqs.ChangeMessageVisibilityOutput, error)
}

// nackVisibility is how long a nacked message stays hidden before SQS
// redelivers it.
const nackVisibility = 30

type SQS struct {
	client SQSClient
	url    string
}

func NewSQS(client SQSClient, queueURL string) *SQS {
	return &SQS{client: client, url: queueURL}
}

func (q *SQS) Send(ctx context.Context, msg domain.ReminderMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal reminder: %w", err)
	}
	_, err = q.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(q.url),
		MessageBody: aws.String(string(body)),
	})
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

func (q *SQS) Receive(ctx context.Context, max int, wait time.Duration) ([]Delivery, error) {
	if max <= 0 || max > 10 {
		max = 10
	}
	out, err := q.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(q.url),
		MaxNumberOfMessages: int32(max),
		WaitTimeSeconds:     int32(wait / time.Second),
	})
	if err != nil {
		return nil, fmt.Errorf("receive messages: %w", err)
	}

	deliveries := make([]Delivery, 0, len(out.Messages))
	for _, m := range out.Messages {
		deliveries = append(deliveries, Delivery{
			Message: service.QueuedMessage{ID: aws.ToString(m.MessageId), Body: []byte(aws.ToString(m.Body))},
			Handle:  aws.ToString(m.ReceiptHandle),
		})
	}
	return deliveries, nil
}

func (q *SQS) Ack(ctx context.Context, d Delivery) error {
	_, err := q.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(q.url),
		ReceiptHandle: aws.String(d.Handle),
	})
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	return nil
}

// Nack shortens the visibility timeout so the message comes back after
// nackVisibility seconds instead of the queue's full timeout.
func (q *SQS) Nack(ctx context.Context, d Delivery) error {
	_, err := q.client.ChangeMessageVisibility(ctx, &sqs.ChangeMessageVisibilityInput{
		QueueUrl:          aws.String(q.url),
		ReceiptHandle:     aws.String(d.Handle),
		VisibilityTimeout: nackVisibility,
	})
	if err != nil {
		return fmt.Errorf("change visibility: %w", err)
	}
	return nil
}
