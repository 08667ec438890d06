package orders

import (
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

func putInput(table string, item map[string]types.AttributeValue) *dyn.PutItemInput {
	return &dyn.PutItemInput{TableName: &table, Item: item}
}
