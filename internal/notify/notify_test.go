package notify

import (
	"context"
	"errors"
	"testing"

	"karya/internal/domain"
	"karya/internal/testutil"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSNS struct {
	in  *sns.PublishInput
	err error
}

func (f *fakeSNS) Publish(ctx context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.in = in
	return &sns.PublishOutput{MessageId: aws.String("1")}, f.err
}

func TestSNSPublish(t *testing.T) {
	client := &fakeSNS{}
	n := NewSNS(client, "arn:aws:sns:us-east-1:1:reminders")

	r := domain.FormatReminder(domain.ReminderMessage{OwnerID: "u1", TaskID: "t1", Title: "Pay rent", DueDate: "12/01/2025"})
	require.NoError(t, n.Publish(context.Background(), r))

	assert.Equal(t, "Task Reminder", aws.ToString(client.in.Subject))
	assert.Equal(t, "arn:aws:sns:us-east-1:1:reminders", aws.ToString(client.in.TopicArn))
	assert.Contains(t, aws.ToString(client.in.Message), "Title: Pay rent")
	assert.Equal(t, "u1", aws.ToString(client.in.MessageAttributes["owner_id"].StringValue))

	client.err = errors.New("throttled")
	assert.ErrorContains(t, n.Publish(context.Background(), r), "throttled")
}

func TestFanout(t *testing.T) {
	ok := &testutil.FakeNotifier{}
	bad := &testutil.FakeNotifier{PublishErr: errors.New("down")}
	after := &testutil.FakeNotifier{}

	err := Fanout{ok, nil, bad, after}.Publish(context.Background(), domain.Reminder{OwnerID: "u1", TaskID: "t1"})
	assert.ErrorContains(t, err, "down")
	assert.Len(t, ok.Published, 1)
	assert.Len(t, after.Published, 1)

	assert.NoError(t, Fanout{ok}.Publish(context.Background(), domain.Reminder{}))
}
