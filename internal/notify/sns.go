// Package notify publishes formatted reminders.
package notify

import (
	"context"
	"fmt"

	"karya/internal/domain"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

type SNSClient interface {
	Publish(ctx context.Context, in *sns.PublishInput, opts ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNS publishes reminders to a topic. Subscribers filter on the owner_id
// message attribute.
type SNS struct {
	client   SNSClient
	topicARN string
}

func NewSNS(client SNSClient, topicARN string) *SNS {
	return &SNS{client: client, topicARN: topicARN}
}

func (n *SNS) Publish(ctx context.Context, r domain.Reminder) error {
	_, err := n.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(n.topicARN),
		Subject:  aws.String(r.Subject),
		Message:  aws.String(r.Text),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"owner_id": {DataType: aws.String("String"), StringValue: aws.String(r.OwnerID)},
		},
	})
	if err != nil {
		return fmt.Errorf("publish to %s: %w", n.topicARN, err)
	}
	return nil
}
