package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/ukegedo/fruver-orderflow/internal/apperrors"
	"github.com/ukegedo/fruver-orderflow/internal/aws"
)

// CreateCategory persists a category with a unique name.
func (s *Store) CreateCategory(ctx context.Context, name string) (*Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.Invalid("name", "is required")
	}
	existing, err := s.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range existing {
		if strings.EqualFold(c.Name, name) {
			return nil, fmt.Errorf("category %q: %w", name, ErrDuplicateName)
		}
	}

	c := Category{CategoryID: uuid.NewString(), Name: name}
	item, err := attributevalue.MarshalMap(c)
	if err != nil {
		return nil, fmt.Errorf("marshal category: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName:           &s.categoriesTable,
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(category_id)"),
	})
	if err != nil {
		var cf *types.ConditionalCheckFailedException
		if errors.As(err, &cf) {
			return nil, fmt.Errorf("category %s: %w", c.CategoryID, apperrors.ErrConflict)
		}
		return nil, fmt.Errorf("put category: %w", err)
	}
	return &c, nil
}

// GetCategory fetches a category by id. Returns (nil, nil) if not found.
func (s *Store) GetCategory(ctx context.Context, categoryID string) (*Category, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.categoriesTable,
		Key: map[string]types.AttributeValue{
			"category_id": &types.AttributeValueMemberS{Value: categoryID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var c Category
	if err := attributevalue.UnmarshalMap(out.Item, &c); err != nil {
		return nil, fmt.Errorf("unmarshal category: %w", err)
	}
	return &c, nil
}

// ListCategories returns every category ordered by name.
func (s *Store) ListCategories(ctx context.Context) ([]Category, error) {
	var out []Category
	if err := aws.ScanAll(ctx, s.client, s.categoriesTable, &out); err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
