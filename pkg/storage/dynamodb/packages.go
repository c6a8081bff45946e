package dynamodb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/chris/membership-rewards/pkg/models"
	"github.com/chris/membership-rewards/pkg/storage"
)

// GetPackage retrieves a reward package from DynamoDB by its ID.
func (s *Store) GetPackage(ctx context.Context, packageID string) (*models.RewardPackage, error) {
	key, err := attributevalue.MarshalMap(map[string]string{"id": packageID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal package ID: %w", err)
	}

	result, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.Tables.Packages),
		Key:       key,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get package from DynamoDB: %w", err)
	}
	if result.Item == nil {
		return nil, fmt.Errorf("package %s: %w", packageID, storage.ErrNotFound)
	}

	var pkg models.RewardPackage
	if err := attributevalue.UnmarshalMap(result.Item, &pkg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal package: %w", err)
	}

	return &pkg, nil
}

// PutPackage creates or replaces a reward package. Only admin tooling calls
// this; the engine treats packages as read-only.
func (s *Store) PutPackage(ctx context.Context, pkg *models.RewardPackage) error {
	pkgAV, err := attributevalue.MarshalMap(pkg)
	if err != nil {
		return fmt.Errorf("failed to marshal package: %w", err)
	}

	_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.Tables.Packages),
		Item:      pkgAV,
	})
	if err != nil {
		return fmt.Errorf("failed to put package in DynamoDB: %w", err)
	}

	return nil
}

// ListPackages retrieves all reward packages from DynamoDB.
func (s *Store) ListPackages(ctx context.Context) ([]models.RewardPackage, error) {
	result, err := s.Client.Scan(ctx, &dynamodb.ScanInput{
		TableName: aws.String(s.Tables.Packages),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan packages table: %w", err)
	}

	var pkgs []models.RewardPackage
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &pkgs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal packages: %w", err)
	}

	return pkgs, nil
}
