package dynamo

import (
	"context"
	"fmt"

	"karya/internal/domain"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// PolicyStore writes authorizer policy items keyed by group.
type PolicyStore struct {
	client Client
	table  string
}

func NewPolicyStore(client Client, table string) *PolicyStore {
	return &PolicyStore{client: client, table: table}
}

func (s *PolicyStore) PutPolicy(ctx context.Context, p domain.Policy) error {
	item, err := attributevalue.MarshalMap(p)
	if err != nil {
		return fmt.Errorf("marshal policy: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put policy: %w", err)
	}
	return nil
}
