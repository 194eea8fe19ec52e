package dynamo

import (
	"context"
	"errors"
	"testing"
	"time"

	"karya/internal/domain"
	"karya/internal/update"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	items []map[string]types.AttributeValue

	puts    []*dynamodb.PutItemInput
	queries []*dynamodb.QueryInput
	scans   []*dynamodb.ScanInput
	updates []*dynamodb.UpdateItemInput
	deletes []*dynamodb.DeleteItemInput

	updateErr error
	queryErr  error
}

func (f *fakeClient) PutItem(ctx context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.puts = append(f.puts, in)
	f.items = append(f.items, in.Item)
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeClient) Query(ctx context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.queries = append(f.queries, in)
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return &dynamodb.QueryOutput{Items: f.items}, nil
}

func (f *fakeClient) Scan(ctx context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.scans = append(f.scans, in)
	return &dynamodb.ScanOutput{Items: f.items}, nil
}

func (f *fakeClient) UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.updates = append(f.updates, in)
	return &dynamodb.UpdateItemOutput{}, f.updateErr
}

func (f *fakeClient) DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.deletes = append(f.deletes, in)
	return &dynamodb.DeleteItemOutput{}, nil
}

func (f *fakeClient) DescribeTable(ctx context.Context, in *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	return &dynamodb.DescribeTableOutput{}, nil
}

func TestPutAndList(t *testing.T) {
	client := &fakeClient{}
	store := NewTaskStore(client, "tasks", "")
	ctx := context.Background()

	task := &domain.Task{OwnerID: "u1", TaskID: "t1", Title: "Pay rent", DueDate: "12/01/2025", Status: domain.StatusPending}
	require.NoError(t, task.SetDue())
	require.NoError(t, store.Put(ctx, task))

	item := client.puts[0].Item
	assert.Equal(t, "tasks", aws.ToString(client.puts[0].TableName))
	assert.IsType(t, &types.AttributeValueMemberNULL{}, item["attachment_url"])
	assert.Equal(t, &types.AttributeValueMemberS{Value: "2025-12-01"}, item["due_on"])

	tasks, err := store.ListByOwner(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Pay rent", tasks[0].Title)
	assert.Nil(t, tasks[0].AttachmentURL)
	assert.Equal(t, "owner_id = :owner_id", aws.ToString(client.queries[0].KeyConditionExpression))
}

func TestListEmpty(t *testing.T) {
	store := NewTaskStore(&fakeClient{}, "tasks", "")
	tasks, err := store.ListByOwner(context.Background(), "u1")
	require.NoError(t, err)
	assert.NotNil(t, tasks)
	assert.Empty(t, tasks)
}

func TestUpdateUsesBuilderOutput(t *testing.T) {
	client := &fakeClient{}
	store := NewTaskStore(client, "tasks", "")

	req, err := update.Build(map[string]any{"status": "Done"})
	require.NoError(t, err)
	require.NoError(t, store.Update(context.Background(), "u1", "t1", req))

	in := client.updates[0]
	assert.Equal(t, "SET #status = :status", aws.ToString(in.UpdateExpression))
	assert.Equal(t, map[string]string{"#status": "status"}, in.ExpressionAttributeNames)
	assert.Equal(t, &types.AttributeValueMemberS{Value: "Done"}, in.ExpressionAttributeValues[":status"])
	assert.Equal(t, "attribute_exists(task_id)", aws.ToString(in.ConditionExpression))
	assert.Equal(t, &types.AttributeValueMemberS{Value: "u1"}, in.Key["owner_id"])

	req, err = update.Build(map[string]any{"title": "x"})
	require.NoError(t, err)
	require.NoError(t, store.Update(context.Background(), "u1", "t1", req))
	assert.Nil(t, client.updates[1].ExpressionAttributeNames)
}

func TestUpdateMissingTask(t *testing.T) {
	client := &fakeClient{updateErr: &types.ConditionalCheckFailedException{Message: aws.String("conditional request failed")}}
	store := NewTaskStore(client, "tasks", "")

	req, _ := update.Build(map[string]any{"title": "x"})
	err := store.Update(context.Background(), "u1", "nope", req)
	assert.True(t, errors.Is(err, domain.ErrNotFound), "got %v", err)

	client.updateErr = errors.New("throttled")
	err = store.Update(context.Background(), "u1", "nope", req)
	assert.False(t, errors.Is(err, domain.ErrNotFound))
	assert.Error(t, err)
}

func TestDueWithinIndexQueriesEachMonth(t *testing.T) {
	client := &fakeClient{}
	store := NewTaskStore(client, "tasks", "due-index")
	w := domain.LookaheadWindow(time.Date(2025, 12, 30, 0, 0, 0, 0, time.UTC), 5)

	_, err := store.DueWithin(context.Background(), w)
	require.NoError(t, err)
	require.Len(t, client.queries, 2)

	months := []string{}
	for _, q := range client.queries {
		assert.Equal(t, "due-index", aws.ToString(q.IndexName))
		assert.Equal(t, &types.AttributeValueMemberS{Value: "2025-12-30"}, q.ExpressionAttributeValues[":from"])
		assert.Equal(t, &types.AttributeValueMemberS{Value: "2026-01-04"}, q.ExpressionAttributeValues[":to"])
		months = append(months, q.ExpressionAttributeValues[":month"].(*types.AttributeValueMemberS).Value)
	}
	assert.Equal(t, []string{"2025-12", "2026-01"}, months)
}

func TestDueWithinScanFallback(t *testing.T) {
	client := &fakeClient{}
	for _, due := range []string{"12/01/2025", "12/10/2025", "not a date"} {
		item, err := attributevalue.MarshalMap(map[string]string{"owner_id": "u1", "task_id": due, "due_date": due})
		require.NoError(t, err)
		client.items = append(client.items, item)
	}
	store := NewTaskStore(client, "tasks", "")

	tasks, err := store.DueWithin(context.Background(), domain.LookaheadWindow(time.Date(2025, 11, 28, 0, 0, 0, 0, time.UTC), 5))
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "12/01/2025", tasks[0].DueDate)
	assert.Equal(t, "2025-12-01", tasks[0].DueOn)
	assert.Len(t, client.scans, 1)
	assert.Empty(t, client.queries)
}

func TestListByStatusAndDelete(t *testing.T) {
	client := &fakeClient{}
	store := NewTaskStore(client, "tasks", "")

	_, err := store.ListByStatus(context.Background(), domain.StatusReminderPending)
	require.NoError(t, err)
	assert.Equal(t, "#status = :status", aws.ToString(client.scans[0].FilterExpression))

	require.NoError(t, store.Delete(context.Background(), "u1", "t1"))
	assert.Equal(t, &types.AttributeValueMemberS{Value: "t1"}, client.deletes[0].Key["task_id"])
}

func TestPolicyStore(t *testing.T) {
	client := &fakeClient{}
	store := NewPolicyStore(client, "policies")

	require.NoError(t, store.PutPolicy(context.Background(), domain.APIPolicy("karya", "arn:aws:execute-api:us-east-1:1:abc")))
	item := client.puts[0].Item
	assert.Equal(t, &types.AttributeValueMemberS{Value: "karya"}, item["group"])
	assert.IsType(t, &types.AttributeValueMemberM{}, item["policy"])
}
