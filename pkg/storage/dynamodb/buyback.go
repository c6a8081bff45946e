package dynamodb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/chris/membership-rewards/pkg/models"
)

// GetBuyBackPool retrieves the singleton buy-back pool record. A missing
// record is the zero pool, not an error; the first distribution creates it.
func (s *Store) GetBuyBackPool(ctx context.Context) (*models.BuyBackPool, error) {
	key, err := attributevalue.MarshalMap(map[string]string{"id": models.BuyBackPoolID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal buy-back pool ID: %w", err)
	}

	result, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.Tables.BuyBack),
		Key:       key,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get buy-back pool from DynamoDB: %w", err)
	}
	if result.Item == nil {
		return &models.BuyBackPool{ID: models.BuyBackPoolID}, nil
	}

	var pool models.BuyBackPool
	if err := attributevalue.UnmarshalMap(result.Item, &pool); err != nil {
		return nil, fmt.Errorf("failed to unmarshal buy-back pool: %w", err)
	}

	return &pool, nil
}
