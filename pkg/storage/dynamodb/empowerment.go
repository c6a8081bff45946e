package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/chris/membership-rewards/pkg/models"
	"github.com/chris/membership-rewards/pkg/storage"
)

// GSI on the empowerments table used by the maturity sweep.
const empowermentStatusIndex = "status-maturity_at-index"

// pairGuardID is the key of the marker item that enforces at most one
// package per sponsor/beneficiary pairing.
func pairGuardID(sponsorID, beneficiaryID string) string {
	return fmt.Sprintf("pair#%s#%s", sponsorID, beneficiaryID)
}

// CreateEmpowerment writes the package, its pairing guard, and the activation
// audit row in one transaction. A second package for the same pairing fails
// on the guard's existence condition.
func (s *Store) CreateEmpowerment(ctx context.Context, pkg *models.EmpowermentPackage, audit *models.EmpowermentTransaction) (*models.EmpowermentPackage, error) {
	now := time.Now().UTC()
	pkg.Version = 1
	pkg.CreatedAt = now
	pkg.UpdatedAt = now

	pkgAV, err := attributevalue.MarshalMap(pkg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal empowerment package: %w", err)
	}
	auditAV, err := attributevalue.MarshalMap(audit)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal empowerment audit: %w", err)
	}
	guardAV, err := attributevalue.MarshalMap(map[string]interface{}{
		"id":         pairGuardID(pkg.SponsorID, pkg.BeneficiaryID),
		"package_id": pkg.ID,
		"created_at": now.Format(time.RFC3339),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal pairing guard: %w", err)
	}

	_, err = s.Client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: &types.Put{
				TableName:           aws.String(s.Tables.Empowerments),
				Item:                guardAV,
				ConditionExpression: aws.String("attribute_not_exists(id)"),
			}},
			{Put: &types.Put{
				TableName:           aws.String(s.Tables.Empowerments),
				Item:                pkgAV,
				ConditionExpression: aws.String("attribute_not_exists(id)"),
			}},
			{Put: &types.Put{
				TableName: aws.String(s.Tables.EmpowermentAudit),
				Item:      auditAV,
			}},
		},
	})
	if err != nil {
		var canceled *types.TransactionCanceledException
		if errors.As(err, &canceled) {
			for _, reason := range canceled.CancellationReasons {
				if reason.Code != nil && *reason.Code == "ConditionalCheckFailed" {
					return nil, fmt.Errorf("empowerment for sponsor %s and beneficiary %s already exists: %w",
						pkg.SponsorID, pkg.BeneficiaryID, storage.ErrNotEligible)
				}
			}
		}
		return nil, fmt.Errorf("failed to create empowerment package: %w", err)
	}

	return pkg, nil
}

// GetEmpowerment retrieves an empowerment package by its ID.
func (s *Store) GetEmpowerment(ctx context.Context, packageID string) (*models.EmpowermentPackage, error) {
	key, err := attributevalue.MarshalMap(map[string]string{"id": packageID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal empowerment ID: %w", err)
	}

	result, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.Tables.Empowerments),
		Key:       key,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get empowerment from DynamoDB: %w", err)
	}
	if result.Item == nil {
		return nil, fmt.Errorf("empowerment %s: %w", packageID, storage.ErrNotFound)
	}

	var pkg models.EmpowermentPackage
	if err := attributevalue.UnmarshalMap(result.Item, &pkg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal empowerment: %w", err)
	}

	return &pkg, nil
}

// ListMaturedActive queries the status GSI for ACTIVE packages whose maturity
// date has passed.
func (s *Store) ListMaturedActive(ctx context.Context, asOf time.Time) ([]models.EmpowermentPackage, error) {
	asOfAV, err := attributevalue.Marshal(asOf.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal cutoff time: %w", err)
	}

	result, err := s.Client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.Tables.Empowerments),
		IndexName:              aws.String(empowermentStatusIndex),
		KeyConditionExpression: aws.String("#status = :status AND maturity_at <= :as_of"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":status": &types.AttributeValueMemberS{Value: string(models.EmpowermentActive)},
			":as_of":  asOfAV,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query matured empowerments: %w", err)
	}

	var pkgs []models.EmpowermentPackage
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &pkgs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal empowerments: %w", err)
	}

	return pkgs, nil
}

// ApplyTransition commits one lifecycle step in a single transaction: the
// status change guarded by the from-state, the wallet movements, the ledger
// entries, and the audit row.
func (s *Store) ApplyTransition(ctx context.Context, t *models.EmpowermentTransition) error {
	now := time.Now().UTC()
	var items []types.TransactWriteItem
	var kinds []itemKind

	statusItem, err := s.statusUpdateItem(t, now)
	if err != nil {
		return err
	}
	items = append(items, *statusItem)
	kinds = append(kinds, kindEvent) // reason zero maps to the state guard

	// Postings aggregated per account, same shape as a distribution.
	byAccount := make(map[string]map[models.Wallet]int64)
	for _, p := range t.Postings {
		m, ok := byAccount[p.AccountID]
		if !ok {
			m = make(map[models.Wallet]int64)
			byAccount[p.AccountID] = m
		}
		m[p.Wallet] += p.Amount
	}
	accountIDs := make([]string, 0, len(byAccount))
	for id := range byAccount {
		accountIDs = append(accountIDs, id)
	}
	sort.Strings(accountIDs)

	for _, accountID := range accountIDs {
		item, kind, err := s.accountUpdateItem(accountID, byAccount[accountID], nil, now)
		if err != nil {
			return err
		}
		items = append(items, *item)
		kinds = append(kinds, kind)
	}

	for i := range t.Entries {
		entry := t.Entries[i]
		if entry.Status == "" {
			entry.Status = models.EntrySettled
		}
		if entry.Timestamp.IsZero() {
			entry.Timestamp = now
		}
		entryAV, err := attributevalue.MarshalMap(entry)
		if err != nil {
			return fmt.Errorf("failed to marshal ledger entry: %w", err)
		}
		items = append(items, types.TransactWriteItem{
			Put: &types.Put{
				TableName:           aws.String(s.Tables.Ledger),
				Item:                entryAV,
				ConditionExpression: aws.String("attribute_not_exists(#ref)"),
				ExpressionAttributeNames: map[string]string{
					"#ref": "reference",
				},
			},
		})
		kinds = append(kinds, kindLedger)
	}

	auditAV, err := attributevalue.MarshalMap(t.Audit)
	if err != nil {
		return fmt.Errorf("failed to marshal empowerment audit: %w", err)
	}
	items = append(items, types.TransactWriteItem{
		Put: &types.Put{
			TableName: aws.String(s.Tables.EmpowermentAudit),
			Item:      auditAV,
		},
	})
	kinds = append(kinds, kindOther)

	_, err = s.Client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: items,
	})
	if err != nil {
		var canceled *types.TransactionCanceledException
		if errors.As(err, &canceled) {
			return s.mapTransitionCancellation(canceled, kinds, t)
		}
		return fmt.Errorf("empowerment transition failed: %w", err)
	}

	return nil
}

// statusUpdateItem builds the guarded status change on the package row.
func (s *Store) statusUpdateItem(t *models.EmpowermentTransition, now time.Time) (*types.TransactWriteItem, error) {
	names := map[string]string{
		"#status":  "status",
		"#updated": "updated_at",
	}
	nowAV, err := attributevalue.Marshal(now)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal timestamp: %w", err)
	}
	values := map[string]types.AttributeValue{
		":from": &types.AttributeValueMemberS{Value: string(t.From)},
		":to":   &types.AttributeValueMemberS{Value: string(t.To)},
		":now":  nowAV,
		":one":  &types.AttributeValueMemberN{Value: "1"},
	}

	setParts := []string{"#status = :to", "#updated = :now"}

	if t.TotalTax != nil {
		names["#tax"] = "total_tax"
		values[":tax"] = &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", *t.TotalTax)}
		setParts = append(setParts, "#tax = :tax")
	}
	if t.ApprovedAt != nil {
		av, err := attributevalue.Marshal(*t.ApprovedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal approval time: %w", err)
		}
		names["#approved"] = "approved_at"
		values[":approved"] = av
		setParts = append(setParts, "#approved = :approved")
	}
	if t.ReleasedAt != nil {
		av, err := attributevalue.Marshal(*t.ReleasedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal release time: %w", err)
		}
		names["#released"] = "released_at"
		values[":released"] = av
		setParts = append(setParts, "#released = :released")
	}
	if t.Converted != nil {
		names["#conv"] = "converted"
		values[":conv"] = &types.AttributeValueMemberBOOL{Value: *t.Converted}
		setParts = append(setParts, "#conv = :conv")
	}
	if t.ConversionAmount != nil {
		names["#camt"] = "conversion_amount"
		values[":camt"] = &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", *t.ConversionAmount)}
		setParts = append(setParts, "#camt = :camt")
	}

	expr := "SET " + strings.Join(setParts, ", ") + " ADD version :one"

	return &types.TransactWriteItem{
		Update: &types.Update{
			TableName: aws.String(s.Tables.Empowerments),
			Key: map[string]types.AttributeValue{
				"id": &types.AttributeValueMemberS{Value: t.PackageID},
			},
			UpdateExpression:          aws.String(expr),
			ConditionExpression:       aws.String("attribute_exists(id) AND #status = :from"),
			ExpressionAttributeNames:  names,
			ExpressionAttributeValues: values,
		},
	}, nil
}

func (s *Store) mapTransitionCancellation(canceled *types.TransactionCanceledException, kinds []itemKind, t *models.EmpowermentTransition) error {
	for i, reason := range canceled.CancellationReasons {
		if reason.Code == nil || *reason.Code != "ConditionalCheckFailed" {
			continue
		}
		if i >= len(kinds) {
			break
		}
		switch kinds[i] {
		case kindEvent:
			return fmt.Errorf("empowerment %s is no longer %s: %w", t.PackageID, t.From, storage.ErrInvalidState)
		case kindAccountDebit:
			return fmt.Errorf("debit condition failed: %w", storage.ErrInsufficientBalance)
		default:
			return fmt.Errorf("conditional check failed: %w", storage.ErrVersionConflict)
		}
	}
	return fmt.Errorf("empowerment transition canceled: %w", canceled)
}

// ListTransitions retrieves the audit rows for a package, oldest first.
func (s *Store) ListTransitions(ctx context.Context, packageID string) ([]models.EmpowermentTransaction, error) {
	result, err := s.Client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.Tables.EmpowermentAudit),
		IndexName:              aws.String("package_id-timestamp-index"),
		KeyConditionExpression: aws.String("package_id = :package_id"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":package_id": &types.AttributeValueMemberS{Value: packageID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query empowerment audit: %w", err)
	}

	var rows []models.EmpowermentTransaction
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal empowerment audit rows: %w", err)
	}

	return rows, nil
}
