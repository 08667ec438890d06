package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/ukegedo/fruver-orderflow/internal/apperrors"
	"github.com/ukegedo/fruver-orderflow/internal/aws"
)

var (
	// ErrDuplicateName is returned when a product or category name is taken.
	ErrDuplicateName = fmt.Errorf("%w: name already registered", apperrors.ErrConflict)
	// ErrStockChanged is returned when stock moved between the read and the conditional write.
	ErrStockChanged = fmt.Errorf("%w: stock changed concurrently", apperrors.ErrConflict)
)

// Store encapsulates operations on the products and categories tables.
type Store struct {
	client          aws.DynamoDBAPI
	productsTable   string
	categoriesTable string
	nowFunc         func() time.Time
}

// NewStore creates a new catalog Store.
func NewStore(client aws.DynamoDBAPI, productsTable, categoriesTable string) *Store {
	return &Store{
		client:          client,
		productsTable:   productsTable,
		categoriesTable: categoriesTable,
		nowFunc:         time.Now,
	}
}

// ProductsTable returns the products table name.
func (s *Store) ProductsTable() string { return s.productsTable }

func validateProduct(p Product) error {
	if strings.TrimSpace(p.Name) == "" {
		return apperrors.Invalid("name", "is required")
	}
	if !p.UnitPrice.IsPositive() {
		return apperrors.Invalid("unit_price", "must be greater than zero")
	}
	if p.Stock < 0 {
		return apperrors.Invalid("stock", "must not be negative")
	}
	if !ValidUnit(p.Unit) {
		return apperrors.Invalid("unit", fmt.Sprintf("must be one of %s", strings.Join(Units, ", ")))
	}
	return nil
}

// Create validates and persists a new product. The id is generated when empty.
func (s *Store) Create(ctx context.Context, p Product) (*Product, error) {
	p.Name = strings.TrimSpace(p.Name)
	if err := validateProduct(p); err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, p.CategoryID); err != nil {
		return nil, err
	}
	if err := s.checkNameFree(ctx, p.Name, ""); err != nil {
		return nil, err
	}

	if p.ProductID == "" {
		p.ProductID = uuid.NewString()
	}
	now := s.nowFunc().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	item, err := attributevalue.MarshalMap(p)
	if err != nil {
		return nil, fmt.Errorf("marshal product: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName:           &s.productsTable,
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(product_id)"),
	})
	if err != nil {
		var cf *types.ConditionalCheckFailedException
		if errors.As(err, &cf) {
			return nil, fmt.Errorf("product %s: %w", p.ProductID, apperrors.ErrConflict)
		}
		return nil, fmt.Errorf("put product: %w", err)
	}
	return &p, nil
}

// Get fetches a product by id. Returns (nil, nil) if not found.
func (s *Store) Get(ctx context.Context, productID string) (*Product, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.productsTable,
		Key:       productKey(productID),
	})
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var p Product
	if err := attributevalue.UnmarshalMap(out.Item, &p); err != nil {
		return nil, fmt.Errorf("unmarshal product: %w", err)
	}
	return &p, nil
}

// List returns every product ordered by name.
func (s *Store) List(ctx context.Context) ([]Product, error) {
	var out []Product
	if err := aws.ScanAll(ctx, s.client, s.productsTable, &out); err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Update replaces the editable fields of an existing product.
func (s *Store) Update(ctx context.Context, p Product) (*Product, error) {
	p.Name = strings.TrimSpace(p.Name)
	if err := validateProduct(p); err != nil {
		return nil, err
	}
	existing, err := s.Get(ctx, p.ProductID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, apperrors.NotFound("product", p.ProductID)
	}
	if err := s.checkCategory(ctx, p.CategoryID); err != nil {
		return nil, err
	}
	if err := s.checkNameFree(ctx, p.Name, p.ProductID); err != nil {
		return nil, err
	}

	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = s.nowFunc().UTC()
	item, err := attributevalue.MarshalMap(p)
	if err != nil {
		return nil, fmt.Errorf("marshal product: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName:           &s.productsTable,
		Item:                item,
		ConditionExpression: aws.String("attribute_exists(product_id)"),
	})
	if err != nil {
		var cf *types.ConditionalCheckFailedException
		if errors.As(err, &cf) {
			return nil, apperrors.NotFound("product", p.ProductID)
		}
		return nil, fmt.Errorf("put product: %w", err)
	}
	return &p, nil
}

// Delete removes a product. Orders keep their line item snapshots.
func (s *Store) Delete(ctx context.Context, productID string) error {
	_, err := s.client.DeleteItem(ctx, &dyn.DeleteItemInput{
		TableName:           &s.productsTable,
		Key:                 productKey(productID),
		ConditionExpression: aws.String("attribute_exists(product_id)"),
	})
	if err != nil {
		var cf *types.ConditionalCheckFailedException
		if errors.As(err, &cf) {
			return apperrors.NotFound("product", productID)
		}
		return fmt.Errorf("delete product: %w", err)
	}
	return nil
}

// SetStock overwrites the stock quantity of a product.
func (s *Store) SetStock(ctx context.Context, productID string, quantity int) error {
	if quantity < 0 {
		return apperrors.Invalid("stock", "must not be negative")
	}
	now := s.nowFunc().UTC()
	_, err := s.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName:        &s.productsTable,
		Key:              productKey(productID),
		UpdateExpression: aws.String("SET stock = :s, updated_at = :ua"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":s":  intAttr(quantity),
			":ua": &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		},
		ConditionExpression: aws.String("attribute_exists(product_id)"),
	})
	if err != nil {
		var cf *types.ConditionalCheckFailedException
		if errors.As(err, &cf) {
			return apperrors.NotFound("product", productID)
		}
		return fmt.Errorf("set stock: %w", err)
	}
	return nil
}

// AdjustStock adds delta (positive) or removes -delta (negative) units.
// Removing more than is available is rejected rather than clamped.
func (s *Store) AdjustStock(ctx context.Context, productID string, delta int) (*Product, error) {
	if delta == 0 {
		return nil, apperrors.Invalid("delta", "must not be zero")
	}
	p, err := s.Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperrors.NotFound("product", productID)
	}
	next := p.Stock + delta
	if next < 0 {
		return nil, apperrors.Invalid("delta", fmt.Sprintf("insufficient stock to remove %d units, available %d", -delta, p.Stock))
	}

	now := s.nowFunc().UTC()
	_, err = s.client.UpdateItem(ctx, s.stockUpdate(productID, p.Stock, next, now))
	if err != nil {
		var cf *types.ConditionalCheckFailedException
		if errors.As(err, &cf) {
			return nil, ErrStockChanged
		}
		return nil, fmt.Errorf("adjust stock: %w", err)
	}
	p.Stock = next
	p.UpdatedAt = now
	return p, nil
}

// StockWrite builds a transactional stock update that only applies if the
// product still exists and its stock still equals expected.
func (s *Store) StockWrite(productID string, expected, next int) types.TransactWriteItem {
	in := s.stockUpdate(productID, expected, next, s.nowFunc().UTC())
	return types.TransactWriteItem{
		Update: &types.Update{
			TableName:                 in.TableName,
			Key:                       in.Key,
			UpdateExpression:          in.UpdateExpression,
			ConditionExpression:       in.ConditionExpression,
			ExpressionAttributeValues: in.ExpressionAttributeValues,
		},
	}
}

func (s *Store) stockUpdate(productID string, expected, next int, now time.Time) *dyn.UpdateItemInput {
	return &dyn.UpdateItemInput{
		TableName:        &s.productsTable,
		Key:              productKey(productID),
		UpdateExpression: aws.String("SET stock = :next, updated_at = :ua"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":next": intAttr(next),
			":prev": intAttr(expected),
			":ua":   &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		},
		ConditionExpression: aws.String("attribute_exists(product_id) AND stock = :prev"),
	}
}

func (s *Store) checkNameFree(ctx context.Context, name, selfID string) error {
	products, err := s.List(ctx)
	if err != nil {
		return err
	}
	for _, other := range products {
		if other.ProductID != selfID && strings.EqualFold(other.Name, name) {
			return fmt.Errorf("product %q: %w", name, ErrDuplicateName)
		}
	}
	return nil
}

func (s *Store) checkCategory(ctx context.Context, categoryID string) error {
	if categoryID == "" {
		return nil
	}
	c, err := s.GetCategory(ctx, categoryID)
	if err != nil {
		return err
	}
	if c == nil {
		return apperrors.NotFound("category", categoryID)
	}
	return nil
}

func productKey(productID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"product_id": &types.AttributeValueMemberS{Value: productID},
	}
}

func intAttr(n int) types.AttributeValue {
	return &types.AttributeValueMemberN{Value: strconv.Itoa(n)}
}
