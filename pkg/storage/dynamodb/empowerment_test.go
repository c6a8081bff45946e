package dynamodb

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/chris/membership-rewards/pkg/models"
	"github.com/chris/membership-rewards/pkg/storage"
	"github.com/chris/membership-rewards/pkg/storage/dynamodb/mocks"
)

func TestCreateEmpowerment(t *testing.T) {
	pkg := &models.EmpowermentPackage{
		ID:            "emp-1",
		SponsorID:     "sponsor",
		BeneficiaryID: "beneficiary",
		Status:        models.EmpowermentActive,
	}
	audit := &models.EmpowermentTransaction{ID: "tx-1", PackageID: "emp-1", Action: "activate"}

	t.Run("Guard Package And Audit In One Transaction", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := New(mockClient, testTables())

		var input *dynamodb.TransactWriteItemsInput
		mockClient.On("TransactWriteItems", mock.Anything, mock.Anything).
			Return(&dynamodb.TransactWriteItemsOutput{}, nil).
			Run(func(args mock.Arguments) {
				input = args.Get(1).(*dynamodb.TransactWriteItemsInput)
			})

		created, err := store.CreateEmpowerment(context.Background(), pkg, audit)

		assert.NoError(t, err)
		assert.Equal(t, int64(1), created.Version)
		assert.Len(t, input.TransactItems, 3)
		assert.Equal(t, "empowerments", *input.TransactItems[0].Put.TableName)
		assert.Equal(t, "empowerments", *input.TransactItems[1].Put.TableName)
		assert.Equal(t, "empowerment_audit", *input.TransactItems[2].Put.TableName)
		mockClient.AssertExpectations(t)
	})

	t.Run("One Package Per Pairing", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := New(mockClient, testTables())

		canceled := &types.TransactionCanceledException{
			CancellationReasons: []types.CancellationReason{
				{Code: aws.String("ConditionalCheckFailed")},
				{Code: aws.String("None")},
				{Code: aws.String("None")},
			},
		}
		mockClient.On("TransactWriteItems", mock.Anything, mock.Anything).Return(nil, canceled)

		_, err := store.CreateEmpowerment(context.Background(), pkg, audit)

		assert.ErrorIs(t, err, storage.ErrNotEligible)
		assert.Contains(t, err.Error(), "already exists")
	})
}

func TestGetEmpowerment(t *testing.T) {
	t.Run("Not Found", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := New(mockClient, testTables())

		mockClient.On("GetItem", mock.Anything, mock.Anything).
			Return(&dynamodb.GetItemOutput{Item: nil}, nil)

		_, err := store.GetEmpowerment(context.Background(), "ghost")

		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestListMaturedActive(t *testing.T) {
	mockClient := new(mocks.DynamoDBAPI)
	store := New(mockClient, testTables())

	pkg := models.EmpowermentPackage{ID: "emp-1", Status: models.EmpowermentActive}
	pkgAV, _ := attributevalue.MarshalMap(pkg)

	var input *dynamodb.QueryInput
	mockClient.On("Query", mock.Anything, mock.AnythingOfType("*dynamodb.QueryInput")).
		Return(&dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{pkgAV}}, nil).
		Run(func(args mock.Arguments) {
			input = args.Get(1).(*dynamodb.QueryInput)
		})

	got, err := store.ListMaturedActive(context.Background(), time.Now().UTC())

	assert.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, empowermentStatusIndex, *input.IndexName)
	assert.Equal(t,
		&types.AttributeValueMemberS{Value: string(models.EmpowermentActive)},
		input.ExpressionAttributeValues[":status"])
	mockClient.AssertExpectations(t)
}

func TestApplyTransition(t *testing.T) {
	transition := func() *models.EmpowermentTransition {
		return &models.EmpowermentTransition{
			PackageID: "emp-1",
			From:      models.EmpowermentApproved,
			To:        models.EmpowermentReleased,
			Postings: []models.Posting{
				{AccountID: "beneficiary", Wallet: models.WalletEducation, Amount: 9250},
			},
			Entries: []models.LedgerEntry{
				{Reference: "ref-1", AccountID: "beneficiary", Category: models.CategoryEmpowerRelease, Amount: 9250},
			},
			Audit: models.EmpowermentTransaction{ID: "tx-2", PackageID: "emp-1", Action: "release"},
		}
	}

	t.Run("Status Guard Leads The Transaction", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := New(mockClient, testTables())

		var input *dynamodb.TransactWriteItemsInput
		mockClient.On("TransactWriteItems", mock.Anything, mock.Anything).
			Return(&dynamodb.TransactWriteItemsOutput{}, nil).
			Run(func(args mock.Arguments) {
				input = args.Get(1).(*dynamodb.TransactWriteItemsInput)
			})

		err := store.ApplyTransition(context.Background(), transition())

		assert.NoError(t, err)
		// status update, one account update, one ledger put, audit put
		assert.Len(t, input.TransactItems, 4)

		guard := input.TransactItems[0].Update
		assert.Equal(t, "empowerments", *guard.TableName)
		assert.Contains(t, *guard.ConditionExpression, "#status = :from")
		assert.Equal(t,
			&types.AttributeValueMemberS{Value: string(models.EmpowermentApproved)},
			guard.ExpressionAttributeValues[":from"])
		mockClient.AssertExpectations(t)
	})

	t.Run("Stale State Maps To Invalid State", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := New(mockClient, testTables())

		canceled := &types.TransactionCanceledException{
			CancellationReasons: []types.CancellationReason{
				{Code: aws.String("ConditionalCheckFailed")},
				{Code: aws.String("None")},
				{Code: aws.String("None")},
				{Code: aws.String("None")},
			},
		}
		mockClient.On("TransactWriteItems", mock.Anything, mock.Anything).Return(nil, canceled)

		err := store.ApplyTransition(context.Background(), transition())

		assert.ErrorIs(t, err, storage.ErrInvalidState)
	})

	t.Run("Debit Failure Maps To Insufficient Balance", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := New(mockClient, testTables())

		canceled := &types.TransactionCanceledException{
			CancellationReasons: []types.CancellationReason{
				{Code: aws.String("None")},
				{Code: aws.String("ConditionalCheckFailed")},
				{Code: aws.String("None")},
			},
		}
		mockClient.On("TransactWriteItems", mock.Anything, mock.Anything).Return(nil, canceled)

		tr := transition()
		tr.Entries = nil
		tr.Postings = []models.Posting{
			{AccountID: "sponsor", Wallet: models.WalletMain, Amount: -1500},
		}

		err := store.ApplyTransition(context.Background(), tr)

		assert.ErrorIs(t, err, storage.ErrInsufficientBalance)
	})
}
