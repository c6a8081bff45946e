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

// itemKind tags each transact item so a cancellation reason can be mapped
// back to a sentinel error.
type itemKind int

const (
	kindEvent itemKind = iota
	kindAccountCredit
	kindAccountDebit
	kindLedger
	kindOther
)

// ApplyDistribution commits a distribution in a single TransactWriteItems
// call. The idempotency event, every wallet movement, every ledger entry,
// the shelter records, the buy-back credit, and the acting account's field
// mutation all land together or not at all.
//
// Returns storage.ErrDuplicateTrigger when the trigger event already exists,
// storage.ErrInsufficientBalance when a debit would drive a wallet negative,
// and storage.ErrVersionConflict for any other conditional failure.
func (s *Store) ApplyDistribution(ctx context.Context, d *models.Distribution) error {
	if d.Event == nil {
		return fmt.Errorf("distribution has no trigger event")
	}

	now := time.Now().UTC()
	var items []types.TransactWriteItem
	var kinds []itemKind

	// The event goes first so a duplicate trigger is reason zero in the
	// cancellation list.
	eventAV, err := attributevalue.MarshalMap(d.Event)
	if err != nil {
		return fmt.Errorf("failed to marshal trigger event: %w", err)
	}
	items = append(items, types.TransactWriteItem{
		Put: &types.Put{
			TableName:           aws.String(s.Tables.Events),
			Item:                eventAV,
			ConditionExpression: aws.String("attribute_not_exists(event_id)"),
		},
	})
	kinds = append(kinds, kindEvent)

	// One update per account, wallet deltas aggregated. Sorted for a
	// deterministic item order.
	byAccount := d.PostingsByAccount()
	accountIDs := make([]string, 0, len(byAccount))
	for id := range byAccount {
		accountIDs = append(accountIDs, id)
	}
	sort.Strings(accountIDs)

	mutation := d.Mutation
	if mutation != nil {
		if _, ok := byAccount[mutation.AccountID]; !ok {
			accountIDs = append(accountIDs, mutation.AccountID)
		}
	}

	for _, accountID := range accountIDs {
		var mut *models.AccountMutation
		if mutation != nil && mutation.AccountID == accountID {
			mut = mutation
		}
		item, kind, err := s.accountUpdateItem(accountID, byAccount[accountID], mut, now)
		if err != nil {
			return err
		}
		items = append(items, *item)
		kinds = append(kinds, kind)
	}

	for i := range d.Entries {
		entry := d.Entries[i]
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

	for i := range d.Shelter {
		shelterAV, err := attributevalue.MarshalMap(d.Shelter[i])
		if err != nil {
			return fmt.Errorf("failed to marshal shelter reward: %w", err)
		}
		items = append(items, types.TransactWriteItem{
			Put: &types.Put{
				TableName: aws.String(s.Tables.ShelterRewards),
				Item:      shelterAV,
			},
		})
		kinds = append(kinds, kindOther)
	}

	if d.BuyBack > 0 {
		nowAV, err := attributevalue.Marshal(now)
		if err != nil {
			return fmt.Errorf("failed to marshal timestamp: %w", err)
		}
		items = append(items, types.TransactWriteItem{
			Update: &types.Update{
				TableName: aws.String(s.Tables.BuyBack),
				Key: map[string]types.AttributeValue{
					"id": &types.AttributeValueMemberS{Value: models.BuyBackPoolID},
				},
				UpdateExpression: aws.String("SET updated_at = :now ADD balance :bb, version :one"),
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":now": nowAV,
					":bb":  &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", d.BuyBack)},
					":one": &types.AttributeValueMemberN{Value: "1"},
				},
			},
		})
		kinds = append(kinds, kindOther)
	}

	if d.Renewal != nil {
		renewalAV, err := attributevalue.MarshalMap(d.Renewal)
		if err != nil {
			return fmt.Errorf("failed to marshal renewal record: %w", err)
		}
		items = append(items, types.TransactWriteItem{
			Put: &types.Put{
				TableName: aws.String(s.Tables.Renewals),
				Item:      renewalAV,
			},
		})
		kinds = append(kinds, kindOther)
	}

	_, err = s.Client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: items,
	})
	if err != nil {
		var canceled *types.TransactionCanceledException
		if errors.As(err, &canceled) {
			return s.mapCancellation(canceled, kinds, d.Event.EventID)
		}
		return fmt.Errorf("distribution transaction failed: %w", err)
	}

	return nil
}

// accountUpdateItem builds the single Update for one account: ADD for every
// wallet delta and the version bump, SET for mutation fields, and a balance
// condition on every debited wallet.
func (s *Store) accountUpdateItem(accountID string, deltas map[models.Wallet]int64, mut *models.AccountMutation, now time.Time) (*types.TransactWriteItem, itemKind, error) {
	names := map[string]string{"#updated": "updated_at"}
	values := map[string]types.AttributeValue{
		":one": &types.AttributeValueMemberN{Value: "1"},
	}

	nowAV, err := attributevalue.Marshal(now)
	if err != nil {
		return nil, kindOther, fmt.Errorf("failed to marshal timestamp: %w", err)
	}
	values[":now"] = nowAV

	setParts := []string{"#updated = :now"}
	addParts := []string{"version :one"}
	condParts := []string{"attribute_exists(id)"}
	kind := kindAccountCredit

	wallets := make([]models.Wallet, 0, len(deltas))
	for w := range deltas {
		wallets = append(wallets, w)
	}
	sort.Slice(wallets, func(i, j int) bool { return wallets[i] < wallets[j] })

	for i, w := range wallets {
		attr, err := models.WalletAttribute(w)
		if err != nil {
			return nil, kindOther, err
		}
		nameKey := fmt.Sprintf("#w%d", i)
		valueKey := fmt.Sprintf(":w%d", i)
		names[nameKey] = attr
		values[valueKey] = &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", deltas[w])}
		addParts = append(addParts, fmt.Sprintf("%s %s", nameKey, valueKey))

		if deltas[w] < 0 {
			kind = kindAccountDebit
			needKey := fmt.Sprintf(":need%d", i)
			values[needKey] = &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", -deltas[w])}
			condParts = append(condParts, fmt.Sprintf("%s >= %s", nameKey, needKey))
		}
	}

	if mut != nil {
		if mut.ActivePackageID != nil {
			names["#pkg"] = "active_package_id"
			values[":pkg"] = &types.AttributeValueMemberS{Value: *mut.ActivePackageID}
			setParts = append(setParts, "#pkg = :pkg")
		}
		if mut.ActivatedAt != nil {
			av, err := attributevalue.Marshal(*mut.ActivatedAt)
			if err != nil {
				return nil, kindOther, fmt.Errorf("failed to marshal activation time: %w", err)
			}
			names["#act"] = "activated_at"
			values[":act"] = av
			setParts = append(setParts, "#act = :act")
		}
		if mut.ExpiresAt != nil {
			av, err := attributevalue.Marshal(*mut.ExpiresAt)
			if err != nil {
				return nil, kindOther, fmt.Errorf("failed to marshal expiry time: %w", err)
			}
			names["#exp"] = "expires_at"
			values[":exp"] = av
			setParts = append(setParts, "#exp = :exp")
		}
		if mut.PalliativeTier != nil {
			names["#tier"] = "palliative_tier"
			values[":tier"] = &types.AttributeValueMemberS{Value: string(*mut.PalliativeTier)}
			setParts = append(setParts, "#tier = :tier")
		}
		if mut.PalliativeActive != nil {
			names["#pact"] = "palliative_active"
			values[":pact"] = &types.AttributeValueMemberBOOL{Value: *mut.PalliativeActive}
			setParts = append(setParts, "#pact = :pact")
		}
		if mut.PalliativeType != nil {
			names["#ptype"] = "palliative_type"
			values[":ptype"] = &types.AttributeValueMemberS{Value: string(*mut.PalliativeType)}
			setParts = append(setParts, "#ptype = :ptype")
		}
		if mut.IncrementRenewal {
			names["#rc"] = "renewal_count"
			addParts = append(addParts, "#rc :one")
		}
	}

	expr := "SET " + strings.Join(setParts, ", ") + " ADD " + strings.Join(addParts, ", ")

	return &types.TransactWriteItem{
		Update: &types.Update{
			TableName: aws.String(s.Tables.Accounts),
			Key: map[string]types.AttributeValue{
				"id": &types.AttributeValueMemberS{Value: accountID},
			},
			UpdateExpression:          aws.String(expr),
			ConditionExpression:       aws.String(strings.Join(condParts, " AND ")),
			ExpressionAttributeNames:  names,
			ExpressionAttributeValues: values,
		},
	}, kind, nil
}

// mapCancellation translates a transaction cancellation into the sentinel
// the caller can act on. Cancellation reasons line up with the item order.
func (s *Store) mapCancellation(canceled *types.TransactionCanceledException, kinds []itemKind, eventID string) error {
	for i, reason := range canceled.CancellationReasons {
		if reason.Code == nil || *reason.Code != "ConditionalCheckFailed" {
			continue
		}
		if i >= len(kinds) {
			break
		}
		switch kinds[i] {
		case kindEvent:
			return fmt.Errorf("trigger %s already applied: %w", eventID, storage.ErrDuplicateTrigger)
		case kindAccountDebit:
			return fmt.Errorf("debit condition failed: %w", storage.ErrInsufficientBalance)
		default:
			return fmt.Errorf("conditional check failed: %w", storage.ErrVersionConflict)
		}
	}
	return fmt.Errorf("distribution transaction canceled: %w", canceled)
}
