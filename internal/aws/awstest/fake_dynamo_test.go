package awstest

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
)

func putItems(n int) []types.TransactWriteItem {
	out := make([]types.TransactWriteItem, n)
	for i := range out {
		out[i] = types.TransactWriteItem{Put: &types.Put{
			TableName: aws.String("products"),
			Item: map[string]types.AttributeValue{
				"product_id": &types.AttributeValueMemberS{Value: "p-" + strconv.Itoa(i)},
			},
		}}
	}
	return out
}

func TestTransactWriteItems_ActionLimit(t *testing.T) {
	fake := NewFakeDynamo().CreateTable("products", "product_id")
	ctx := context.Background()

	_, err := fake.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: putItems(MaxTransactItems + 1)})
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) || apiErr.ErrorCode() != "ValidationException" {
		t.Fatalf("expected ValidationException, got %v", err)
	}
	if fake.Len("products") != 0 {
		t.Fatalf("rejected transaction wrote %d items", fake.Len("products"))
	}

	if _, err := fake.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: putItems(MaxTransactItems)}); err != nil {
		t.Fatalf("transaction at the limit: %v", err)
	}
	if fake.Len("products") != MaxTransactItems {
		t.Fatalf("expected %d items, got %d", MaxTransactItems, fake.Len("products"))
	}
}
