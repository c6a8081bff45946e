package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/chris/membership-rewards/pkg/models"
	"github.com/chris/membership-rewards/pkg/storage"
)

// GetReferrer returns the account id of the direct referrer of accountID.
// The referrals table is keyed by the referred account, so a chain walk is
// one GetItem per level.
func (s *Store) GetReferrer(ctx context.Context, accountID string) (string, error) {
	key, err := attributevalue.MarshalMap(map[string]string{"referred_id": accountID})
	if err != nil {
		return "", fmt.Errorf("failed to marshal referred ID: %w", err)
	}

	result, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.Tables.Referrals),
		Key:       key,
	})
	if err != nil {
		return "", fmt.Errorf("failed to get referral edge from DynamoDB: %w", err)
	}
	if result.Item == nil {
		return "", fmt.Errorf("referrer of %s: %w", accountID, storage.ErrNotFound)
	}

	var edge models.ReferralEdge
	if err := attributevalue.UnmarshalMap(result.Item, &edge); err != nil {
		return "", fmt.Errorf("failed to unmarshal referral edge: %w", err)
	}

	return edge.ReferrerID, nil
}

// CreateEdge records the referrer -> referred link created at registration.
func (s *Store) CreateEdge(ctx context.Context, edge *models.ReferralEdge) error {
	if edge.CreatedAt.IsZero() {
		edge.CreatedAt = time.Now().UTC()
	}
	if edge.Status == "" {
		edge.Status = models.EdgeActive
	}

	edgeAV, err := attributevalue.MarshalMap(edge)
	if err != nil {
		return fmt.Errorf("failed to marshal referral edge: %w", err)
	}

	_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.Tables.Referrals),
		Item:                edgeAV,
		ConditionExpression: aws.String("attribute_not_exists(referred_id)"),
	})
	if err != nil {
		var condCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckFailed) {
			return fmt.Errorf("referral edge for %s already exists", edge.ReferredID)
		}
		return fmt.Errorf("failed to create referral edge in DynamoDB: %w", err)
	}

	return nil
}
