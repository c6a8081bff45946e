package dynamodb

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/chris/membership-rewards/pkg/storage"
)

// DynamoDBAPI is the subset of the DynamoDB client the store uses. Tests
// substitute a mock.
type DynamoDBAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// Tables names every table the store touches.
type Tables struct {
	Accounts         string
	Packages         string
	Referrals        string
	Ledger           string
	Events           string
	Empowerments     string
	EmpowermentAudit string
	ShelterRewards   string
	Renewals         string
	BuyBack          string
}

// Store implements the Storage interface using AWS DynamoDB. Every trigger
// commits through a single TransactWriteItems call, so a distribution's
// wallet mutations, ledger writes, and idempotency guard land atomically.
type Store struct {
	Client DynamoDBAPI
	Tables Tables
}

// New creates a new Store.
func New(client DynamoDBAPI, tables Tables) *Store {
	return &Store{Client: client, Tables: tables}
}

// Make sure we conform to the interface
var _ storage.Storage = (*Store)(nil)
