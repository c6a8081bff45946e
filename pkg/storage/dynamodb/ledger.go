package dynamodb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/chris/membership-rewards/pkg/models"
)

// GSI names on the ledger table.
const (
	ledgerAccountIndex  = "account_id-timestamp-index"
	ledgerSourceIndex   = "source_account_id-index"
	ledgerCategoryIndex = "category-index"
)

// ListLedgerEntries retrieves the most recent ledger entries for an account,
// newest first.
func (s *Store) ListLedgerEntries(ctx context.Context, accountID string, limit int32) ([]models.LedgerEntry, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.Tables.Ledger),
		IndexName:              aws.String(ledgerAccountIndex),
		KeyConditionExpression: aws.String("account_id = :account_id"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":account_id": &types.AttributeValueMemberS{Value: accountID},
		},
		ScanIndexForward: aws.Bool(false),
	}
	if limit > 0 {
		input.Limit = aws.Int32(limit)
	}

	result, err := s.Client.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger entries: %w", err)
	}

	var entries []models.LedgerEntry
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &entries); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ledger entries: %w", err)
	}

	return entries, nil
}

// ListEntriesBySource retrieves every entry attributed to the given source
// account, i.e. all rewards that account's triggers produced for others.
func (s *Store) ListEntriesBySource(ctx context.Context, sourceAccountID string) ([]models.LedgerEntry, error) {
	result, err := s.Client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.Tables.Ledger),
		IndexName:              aws.String(ledgerSourceIndex),
		KeyConditionExpression: aws.String("source_account_id = :source_account_id"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":source_account_id": &types.AttributeValueMemberS{Value: sourceAccountID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger entries by source: %w", err)
	}

	var entries []models.LedgerEntry
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &entries); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ledger entries: %w", err)
	}

	return entries, nil
}

// PurgeCategory deletes every ledger entry in the given category and returns
// the number of rows removed. Admin backfills use this to regenerate a
// category from scratch; nothing else deletes ledger rows.
func (s *Store) PurgeCategory(ctx context.Context, category string) (int, error) {
	deleted := 0
	var startKey map[string]types.AttributeValue

	for {
		result, err := s.Client.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(s.Tables.Ledger),
			IndexName:              aws.String(ledgerCategoryIndex),
			KeyConditionExpression: aws.String("category = :category"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":category": &types.AttributeValueMemberS{Value: category},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return deleted, fmt.Errorf("failed to query ledger category %s: %w", category, err)
		}

		for _, item := range result.Items {
			ref, ok := item["reference"]
			if !ok {
				continue
			}
			_, err := s.Client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
				TableName: aws.String(s.Tables.Ledger),
				Key:       map[string]types.AttributeValue{"reference": ref},
			})
			if err != nil {
				return deleted, fmt.Errorf("failed to delete ledger entry: %w", err)
			}
			deleted++
		}

		if result.LastEvaluatedKey == nil {
			break
		}
		startKey = result.LastEvaluatedKey
	}

	return deleted, nil
}
