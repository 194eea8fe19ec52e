// Package dynamo implements the task and policy stores on DynamoDB.
package dynamo

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"karya/internal/domain"
	"karya/internal/update"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Client is the subset of the DynamoDB API the stores use.
type Client interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, opts ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, opts ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	DescribeTable(ctx context.Context, in *dynamodb.DescribeTableInput, opts ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// TaskStore keeps tasks in a table keyed by (owner_id, task_id).
type TaskStore struct {
	client   Client
	table    string
	dueIndex string
}

// NewTaskStore returns a store for table. When dueIndex names a global
// secondary index on (due_month, due_on) the scanner queries it, otherwise it
// falls back to a full table scan.
func NewTaskStore(client Client, table, dueIndex string) *TaskStore {
	return &TaskStore{client: client, table: table, dueIndex: dueIndex}
}

func (s *TaskStore) itemKey(ownerID, taskID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		domain.AttrOwnerID: &types.AttributeValueMemberS{Value: ownerID},
		domain.AttrTaskID:  &types.AttributeValueMemberS{Value: taskID},
	}
}

func (s *TaskStore) Put(ctx context.Context, t *domain.Task) error {
	item, err := attributevalue.MarshalMap(t)
	if err != nil {
		return fmt.Errorf("marshal task: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put task: %w", err)
	}
	return nil
}

func (s *TaskStore) ListByOwner(ctx context.Context, ownerID string) ([]domain.Task, error) {
	p := dynamodb.NewQueryPaginator(s.client, &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		KeyConditionExpression: aws.String("owner_id = :owner_id"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":owner_id": &types.AttributeValueMemberS{Value: ownerID},
		},
	})

	tasks := []domain.Task{}
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("query tasks: %w", err)
		}
		batch, err := unmarshalTasks(page.Items)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, batch...)
	}
	return tasks, nil
}

// Update applies req to an existing item. A missing item yields a not found
// error instead of an upsert.
func (s *TaskStore) Update(ctx context.Context, ownerID, taskID string, req *update.Request) error {
	values, err := attributevalue.MarshalMap(req.Values)
	if err != nil {
		return fmt.Errorf("marshal update values: %w", err)
	}

	in := &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.table),
		Key:                       s.itemKey(ownerID, taskID),
		UpdateExpression:          aws.String(req.Expression()),
		ConditionExpression:       aws.String("attribute_exists(task_id)"),
		ExpressionAttributeValues: values,
	}
	if len(req.Names) > 0 {
		in.ExpressionAttributeNames = req.Names
	}

	if _, err := s.client.UpdateItem(ctx, in); err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return domain.NotFound("update task", "task %s not found", taskID)
		}
		return fmt.Errorf("update task: %w", err)
	}
	return nil
}

func (s *TaskStore) Delete(ctx context.Context, ownerID, taskID string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.table),
		Key:       s.itemKey(ownerID, taskID),
	})
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

// DueWithin returns the tasks whose due date falls inside w.
func (s *TaskStore) DueWithin(ctx context.Context, w domain.Window) ([]domain.Task, error) {
	if s.dueIndex == "" {
		return s.scanDue(ctx, w)
	}

	tasks := []domain.Task{}
	for _, month := range w.Months() {
		p := dynamodb.NewQueryPaginator(s.client, &dynamodb.QueryInput{
			TableName:              aws.String(s.table),
			IndexName:              aws.String(s.dueIndex),
			KeyConditionExpression: aws.String("due_month = :month AND due_on BETWEEN :from AND :to"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":month": &types.AttributeValueMemberS{Value: month},
				":from":  &types.AttributeValueMemberS{Value: domain.DueOn(w.From)},
				":to":    &types.AttributeValueMemberS{Value: domain.DueOn(w.To)},
			},
		})
		for p.HasMorePages() {
			page, err := p.NextPage(ctx)
			if err != nil {
				return nil, fmt.Errorf("query due index %s: %w", month, err)
			}
			batch, err := unmarshalTasks(page.Items)
			if err != nil {
				return nil, err
			}
			tasks = append(tasks, batch...)
		}
	}
	return tasks, nil
}

// scanDue reads the whole table and filters in process. Items written before
// due_on existed only carry due_date, so the date is parsed here.
func (s *TaskStore) scanDue(ctx context.Context, w domain.Window) ([]domain.Task, error) {
	all, err := s.scan(ctx, &dynamodb.ScanInput{TableName: aws.String(s.table)})
	if err != nil {
		return nil, err
	}
	tasks := []domain.Task{}
	for _, t := range all {
		d, err := domain.ParseDueDate(t.DueDate)
		if err != nil {
			continue
		}
		if w.Contains(d) {
			tasks = append(tasks, t)
		}
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].DueOn < tasks[j].DueOn })
	return tasks, nil
}

func (s *TaskStore) ListByStatus(ctx context.Context, status string) ([]domain.Task, error) {
	return s.scan(ctx, &dynamodb.ScanInput{
		TableName:                aws.String(s.table),
		FilterExpression:         aws.String("#status = :status"),
		ExpressionAttributeNames: map[string]string{"#status": domain.AttrStatus},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":status": &types.AttributeValueMemberS{Value: status},
		},
	})
}

func (s *TaskStore) scan(ctx context.Context, in *dynamodb.ScanInput) ([]domain.Task, error) {
	p := dynamodb.NewScanPaginator(s.client, in)
	tasks := []domain.Task{}
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("scan tasks: %w", err)
		}
		batch, err := unmarshalTasks(page.Items)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, batch...)
	}
	return tasks, nil
}

// Ping checks that the table exists and is reachable.
func (s *TaskStore) Ping(ctx context.Context) error {
	_, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(s.table)})
	return err
}

func unmarshalTasks(items []map[string]types.AttributeValue) ([]domain.Task, error) {
	tasks := make([]domain.Task, 0, len(items))
	if err := attributevalue.UnmarshalListOfMaps(items, &tasks); err != nil {
		return nil, fmt.Errorf("unmarshal tasks: %w", err)
	}
	for i := range tasks {
		if tasks[i].DueOn == "" {
			_ = tasks[i].SetDue()
		}
	}
	return tasks, nil
}
