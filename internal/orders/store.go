package orders

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/ukegedo/fruver-orderflow/internal/apperrors"
	"github.com/ukegedo/fruver-orderflow/internal/aws"
)

var (
	// ErrStatusMismatch is returned when the stored status differs from the expected one.
	ErrStatusMismatch = fmt.Errorf("%w: status mismatch/conditional failed", apperrors.ErrConflict)
	// ErrOrderExists is returned when creating an order whose id is taken.
	ErrOrderExists = fmt.Errorf("%w: order already exists", apperrors.ErrConflict)
	// ErrStockConflict is returned when a stock write in the same transaction was rejected.
	ErrStockConflict = fmt.Errorf("%w: stock write rejected", apperrors.ErrConflict)
)

// Store encapsulates operations on the orders table.
type Store struct {
	client    aws.DynamoDBAPI
	tableName string
	nowFunc   func() time.Time
}

// NewStore creates a new orders Store.
func NewStore(client aws.DynamoDBAPI, tableName string) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		nowFunc:   time.Now,
	}
}

// Create persists a new order with its line items. When stockWrites are given
// the order put and every stock write are issued as one TransactWriteItems
// call, so either all of them apply or none does.
func (s *Store) Create(ctx context.Context, order Order, stockWrites ...types.TransactWriteItem) error {
	now := s.nowFunc().UTC()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now

	orderMap, err := attributevalue.MarshalMap(order)
	if err != nil {
		return fmt.Errorf("marshal order item: %w", err)
	}
	put := &types.Put{
		TableName:           &s.tableName,
		Item:                orderMap,
		ConditionExpression: aws.String("attribute_not_exists(order_id)"),
	}

	if len(stockWrites) == 0 {
		_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
			TableName:           put.TableName,
			Item:                put.Item,
			ConditionExpression: put.ConditionExpression,
		})
		if err != nil {
			var cf *types.ConditionalCheckFailedException
			if errors.As(err, &cf) {
				return fmt.Errorf("order %s: %w", order.OrderID, ErrOrderExists)
			}
			return fmt.Errorf("put order: %w", err)
		}
		return nil
	}

	transactItems := append([]types.TransactWriteItem{{Put: put}}, stockWrites...)
	_, err = s.client.TransactWriteItems(ctx, &dyn.TransactWriteItemsInput{TransactItems: transactItems})
	if err != nil {
		return fmt.Errorf("order %s: %w", order.OrderID, transactError(err, ErrOrderExists))
	}
	return nil
}

// Get fetches an order by order_id. Returns (nil, nil) if not found.
func (s *Store) Get(ctx context.Context, orderID string) (*Order, error) {
	key := map[string]types.AttributeValue{
		"order_id": &types.AttributeValueMemberS{Value: orderID},
	}
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key:       key,
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var o Order
	if err := attributevalue.UnmarshalMap(out.Item, &o); err != nil {
		return nil, fmt.Errorf("unmarshal order: %w", err)
	}
	return &o, nil
}

// List returns every order, newest first.
func (s *Store) List(ctx context.Context) ([]Order, error) {
	var out []Order
	if err := aws.ScanAll(ctx, s.client, s.tableName, &out); err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// UpdateStatus conditionally updates the order status from expected -> newStatus.
// Returns nil on success, ErrStatusMismatch if condition failed.
func (s *Store) UpdateStatus(ctx context.Context, orderID string, expectedStatus, newStatus Status) error {
	_, err := s.client.UpdateItem(ctx, s.statusUpdate(orderID, expectedStatus, newStatus))
	if err != nil {
		var sc *types.ConditionalCheckFailedException
		if errors.As(err, &sc) {
			return ErrStatusMismatch
		}
		return fmt.Errorf("update item: %w", err)
	}
	return nil
}

// ApplyTransition moves the order from expected -> newStatus together with
// stockWrites in a single transaction. Without stock writes it is UpdateStatus.
func (s *Store) ApplyTransition(ctx context.Context, orderID string, expectedStatus, newStatus Status, stockWrites ...types.TransactWriteItem) error {
	if len(stockWrites) == 0 {
		return s.UpdateStatus(ctx, orderID, expectedStatus, newStatus)
	}

	in := s.statusUpdate(orderID, expectedStatus, newStatus)
	update := types.TransactWriteItem{
		Update: &types.Update{
			TableName:                 in.TableName,
			Key:                       in.Key,
			UpdateExpression:          in.UpdateExpression,
			ConditionExpression:       in.ConditionExpression,
			ExpressionAttributeNames:  in.ExpressionAttributeNames,
			ExpressionAttributeValues: in.ExpressionAttributeValues,
		},
	}
	transactItems := append([]types.TransactWriteItem{update}, stockWrites...)
	_, err := s.client.TransactWriteItems(ctx, &dyn.TransactWriteItemsInput{TransactItems: transactItems})
	if err != nil {
		return transactError(err, ErrStatusMismatch)
	}
	return nil
}

func (s *Store) statusUpdate(orderID string, expectedStatus, newStatus Status) *dyn.UpdateItemInput {
	now := s.nowFunc().UTC()
	return &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
		},
		UpdateExpression:         aws.String("SET #s = :new, updated_at = :ua"),
		ExpressionAttributeNames: map[string]string{"#s": "status"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":new":      &types.AttributeValueMemberS{Value: string(newStatus)},
			":expected": &types.AttributeValueMemberS{Value: string(expectedStatus)},
			":ua":       &types.AttributeValueMemberS{Value: now.Format(time.RFC3339Nano)},
		},
		ConditionExpression: aws.String("#s = :expected"),
	}
}

// transactError maps a canceled transaction whose first item is the order
// write: a failure there is orderErr, a failure elsewhere is ErrStockConflict.
func transactError(err error, orderErr error) error {
	var tce *types.TransactionCanceledException
	if !errors.As(err, &tce) {
		return fmt.Errorf("transact write: %w", err)
	}
	for i, r := range tce.CancellationReasons {
		if r.Code == nil || *r.Code != "ConditionalCheckFailed" {
			continue
		}
		if i == 0 {
			return orderErr
		}
		return ErrStockConflict
	}
	return fmt.Errorf("transaction canceled: %w", err)
}
