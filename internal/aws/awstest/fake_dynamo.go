// Package awstest provides in-memory stand-ins for the AWS clients used by the
// stores, for tests.
package awstest

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
)

// MaxTransactItems is the DynamoDB limit on actions in one TransactWriteItems call.
const MaxTransactItems = 100

type table struct {
	key   string
	items map[string]map[string]types.AttributeValue
}

// FakeDynamo is an in-memory DynamoDB supporting the expression subset the
// stores emit: attribute_exists(x), attribute_not_exists(x), x = :v and
// x < :v joined with AND and OR for conditions, and SET x = :v, ... for updates.
// TransactWriteItems is all-or-nothing.
type FakeDynamo struct {
	mu     sync.Mutex
	tables map[string]*table

	PutCalls      int
	UpdateCalls   int
	TransactCalls int

	failures map[string]error
}

// NewFakeDynamo returns an empty fake with no tables.
func NewFakeDynamo() *FakeDynamo {
	return &FakeDynamo{
		tables:   map[string]*table{},
		failures: map[string]error{},
	}
}

// CreateTable registers a table whose partition key is keyAttr.
func (f *FakeDynamo) CreateTable(name, keyAttr string) *FakeDynamo {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tables[name] = &table{key: keyAttr, items: map[string]map[string]types.AttributeValue{}}
	return f
}

// FailNext makes the next call of op (e.g. "TransactWriteItems") return err.
func (f *FakeDynamo) FailNext(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[op] = err
}

// Item returns a copy of the stored item, or nil.
func (f *FakeDynamo) Item(tableName, key string) map[string]types.AttributeValue {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tables[tableName]
	if !ok {
		return nil
	}
	return copyItem(t.items[key])
}

// Len returns the number of items in a table.
func (f *FakeDynamo) Len(tableName string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.tables[tableName]; ok {
		return len(t.items)
	}
	return 0
}

func (f *FakeDynamo) injected(op string) error {
	if err, ok := f.failures[op]; ok {
		delete(f.failures, op)
		return err
	}
	return nil
}

func (f *FakeDynamo) table(name *string) (*table, error) {
	if name == nil {
		return nil, errors.New("missing table name")
	}
	t, ok := f.tables[*name]
	if !ok {
		return nil, &types.ResourceNotFoundException{Message: name}
	}
	return t, nil
}

func (f *FakeDynamo) PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.PutCalls++
	if err := f.injected("PutItem"); err != nil {
		return nil, err
	}
	t, err := f.table(in.TableName)
	if err != nil {
		return nil, err
	}
	k, err := keyOf(t, in.Item)
	if err != nil {
		return nil, err
	}
	ok, err := evalCondition(in.ConditionExpression, in.ExpressionAttributeNames, in.ExpressionAttributeValues, t.items[k])
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &types.ConditionalCheckFailedException{Message: strPtr("The conditional request failed")}
	}
	t.items[k] = copyItem(in.Item)
	return &dynamodb.PutItemOutput{}, nil
}

func (f *FakeDynamo) GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.injected("GetItem"); err != nil {
		return nil, err
	}
	t, err := f.table(in.TableName)
	if err != nil {
		return nil, err
	}
	k, err := keyOf(t, in.Key)
	if err != nil {
		return nil, err
	}
	item, ok := t.items[k]
	if !ok {
		return &dynamodb.GetItemOutput{}, nil
	}
	return &dynamodb.GetItemOutput{Item: copyItem(item)}, nil
}

func (f *FakeDynamo) UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.UpdateCalls++
	if err := f.injected("UpdateItem"); err != nil {
		return nil, err
	}
	t, err := f.table(in.TableName)
	if err != nil {
		return nil, err
	}
	k, err := keyOf(t, in.Key)
	if err != nil {
		return nil, err
	}
	current := t.items[k]
	ok, err := evalCondition(in.ConditionExpression, in.ExpressionAttributeNames, in.ExpressionAttributeValues, current)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &types.ConditionalCheckFailedException{Message: strPtr("The conditional request failed")}
	}
	next, err := applyUpdate(in.UpdateExpression, in.ExpressionAttributeNames, in.ExpressionAttributeValues, in.Key, current)
	if err != nil {
		return nil, err
	}
	t.items[k] = next
	return &dynamodb.UpdateItemOutput{Attributes: copyItem(next)}, nil
}

func (f *FakeDynamo) DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.injected("DeleteItem"); err != nil {
		return nil, err
	}
	t, err := f.table(in.TableName)
	if err != nil {
		return nil, err
	}
	k, err := keyOf(t, in.Key)
	if err != nil {
		return nil, err
	}
	ok, err := evalCondition(in.ConditionExpression, in.ExpressionAttributeNames, in.ExpressionAttributeValues, t.items[k])
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &types.ConditionalCheckFailedException{Message: strPtr("The conditional request failed")}
	}
	delete(t.items, k)
	return &dynamodb.DeleteItemOutput{}, nil
}

// Scan returns every item in key order in a single page.
func (f *FakeDynamo) Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.injected("Scan"); err != nil {
		return nil, err
	}
	t, err := f.table(in.TableName)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(t.items))
	for k := range t.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := &dynamodb.ScanOutput{}
	for _, k := range keys {
		out.Items = append(out.Items, copyItem(t.items[k]))
	}
	out.Count = int32(len(out.Items))
	return out, nil
}

type pendingWrite struct {
	table *table
	key   string
	item  map[string]types.AttributeValue // nil means delete
}

func (f *FakeDynamo) TransactWriteItems(ctx context.Context, in *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.TransactCalls++
	if err := f.injected("TransactWriteItems"); err != nil {
		return nil, err
	}
	if len(in.TransactItems) > MaxTransactItems {
		return nil, &smithy.GenericAPIError{
			Code:    "ValidationException",
			Message: fmt.Sprintf("Member must have length less than or equal to %d", MaxTransactItems),
		}
	}

	reasons := make([]types.CancellationReason, len(in.TransactItems))
	writes := make([]pendingWrite, 0, len(in.TransactItems))
	seen := map[string]bool{}
	canceled := false

	for i, it := range in.TransactItems {
		reasons[i] = types.CancellationReason{Code: strPtr("None")}
		var (
			tableName *string
			key       map[string]types.AttributeValue
			cond      *string
			names     map[string]string
			values    map[string]types.AttributeValue
		)
		switch {
		case it.Put != nil:
			tableName, key, cond, names, values = it.Put.TableName, it.Put.Item, it.Put.ConditionExpression, it.Put.ExpressionAttributeNames, it.Put.ExpressionAttributeValues
		case it.Update != nil:
			tableName, key, cond, names, values = it.Update.TableName, it.Update.Key, it.Update.ConditionExpression, it.Update.ExpressionAttributeNames, it.Update.ExpressionAttributeValues
		case it.Delete != nil:
			tableName, key, cond, names, values = it.Delete.TableName, it.Delete.Key, it.Delete.ConditionExpression, it.Delete.ExpressionAttributeNames, it.Delete.ExpressionAttributeValues
		case it.ConditionCheck != nil:
			tableName, key, cond, names, values = it.ConditionCheck.TableName, it.ConditionCheck.Key, it.ConditionCheck.ConditionExpression, it.ConditionCheck.ExpressionAttributeNames, it.ConditionCheck.ExpressionAttributeValues
		default:
			return nil, errors.New("empty transact item")
		}

		t, err := f.table(tableName)
		if err != nil {
			return nil, err
		}
		k, err := keyOf(t, key)
		if err != nil {
			return nil, err
		}
		target := *tableName + "/" + k
		if seen[target] {
			return nil, &types.TransactionCanceledException{Message: strPtr("Transaction request cannot include multiple operations on one item")}
		}
		seen[target] = true

		ok, err := evalCondition(cond, names, values, t.items[k])
		if err != nil {
			return nil, err
		}
		if !ok {
			reasons[i] = types.CancellationReason{Code: strPtr("ConditionalCheckFailed")}
			canceled = true
			continue
		}

		switch {
		case it.Put != nil:
			writes = append(writes, pendingWrite{table: t, key: k, item: copyItem(it.Put.Item)})
		case it.Update != nil:
			next, err := applyUpdate(it.Update.UpdateExpression, names, values, key, t.items[k])
			if err != nil {
				return nil, err
			}
			writes = append(writes, pendingWrite{table: t, key: k, item: next})
		case it.Delete != nil:
			writes = append(writes, pendingWrite{table: t, key: k})
		}
	}

	if canceled {
		return nil, &types.TransactionCanceledException{
			Message:             strPtr("Transaction cancelled, please refer cancellation reasons for specific reasons"),
			CancellationReasons: reasons,
		}
	}
	for _, w := range writes {
		if w.item == nil {
			delete(w.table.items, w.key)
			continue
		}
		w.table.items[w.key] = w.item
	}
	return &dynamodb.TransactWriteItemsOutput{}, nil
}

func keyOf(t *table, item map[string]types.AttributeValue) (string, error) {
	v, ok := item[t.key]
	if !ok {
		return "", fmt.Errorf("missing key attribute %q", t.key)
	}
	switch av := v.(type) {
	case *types.AttributeValueMemberS:
		return av.Value, nil
	case *types.AttributeValueMemberN:
		return av.Value, nil
	default:
		return "", fmt.Errorf("unsupported key type %T", v)
	}
}

func resolveName(name string, names map[string]string) string {
	if strings.HasPrefix(name, "#") {
		if n, ok := names[name]; ok {
			return n
		}
	}
	return name
}

func evalCondition(expr *string, names map[string]string, values map[string]types.AttributeValue, item map[string]types.AttributeValue) (bool, error) {
	if expr == nil || strings.TrimSpace(*expr) == "" {
		return true, nil
	}
	for _, alt := range strings.Split(*expr, " OR ") {
		ok, err := evalConjunction(alt, names, values, item)
		if err != nil || ok {
			return ok, err
		}
	}
	return false, nil
}

// evalConjunction supports attribute_exists, attribute_not_exists, "a = :v"
// and numeric "a < :v" clauses joined by AND.
func evalConjunction(expr string, names map[string]string, values map[string]types.AttributeValue, item map[string]types.AttributeValue) (bool, error) {
	for _, clause := range strings.Split(expr, " AND ") {
		clause = strings.TrimSpace(clause)
		switch {
		case strings.HasPrefix(clause, "attribute_exists(") && strings.HasSuffix(clause, ")"):
			attr := resolveName(strings.TrimSuffix(strings.TrimPrefix(clause, "attribute_exists("), ")"), names)
			if _, ok := item[attr]; !ok {
				return false, nil
			}
		case strings.HasPrefix(clause, "attribute_not_exists(") && strings.HasSuffix(clause, ")"):
			attr := resolveName(strings.TrimSuffix(strings.TrimPrefix(clause, "attribute_not_exists("), ")"), names)
			if _, ok := item[attr]; ok {
				return false, nil
			}
		case strings.Contains(clause, " < "):
			lhs, rhs, _ := strings.Cut(clause, " < ")
			want, ok := values[strings.TrimSpace(rhs)]
			if !ok {
				return false, fmt.Errorf("missing expression value %q", rhs)
			}
			got, ok := item[resolveName(strings.TrimSpace(lhs), names)]
			if !ok {
				return false, nil
			}
			g, gerr := numberOf(got)
			w, werr := numberOf(want)
			if gerr != nil || werr != nil {
				return false, fmt.Errorf("non-numeric comparison %q", clause)
			}
			if !(g < w) {
				return false, nil
			}
		default:
			lhs, rhs, ok := strings.Cut(clause, " = ")
			if !ok {
				return false, fmt.Errorf("unsupported condition %q", clause)
			}
			want, ok := values[strings.TrimSpace(rhs)]
			if !ok {
				return false, fmt.Errorf("missing expression value %q", rhs)
			}
			got, ok := item[resolveName(strings.TrimSpace(lhs), names)]
			if !ok || !reflect.DeepEqual(got, want) {
				return false, nil
			}
		}
	}
	return true, nil
}

func numberOf(av types.AttributeValue) (float64, error) {
	n, ok := av.(*types.AttributeValueMemberN)
	if !ok {
		return 0, errors.New("not a number")
	}
	return strconv.ParseFloat(n.Value, 64)
}

func applyUpdate(expr *string, names map[string]string, values map[string]types.AttributeValue, key, current map[string]types.AttributeValue) (map[string]types.AttributeValue, error) {
	if expr == nil {
		return nil, errors.New("missing update expression")
	}
	body, ok := strings.CutPrefix(strings.TrimSpace(*expr), "SET ")
	if !ok {
		return nil, fmt.Errorf("unsupported update expression %q", *expr)
	}
	next := copyItem(current)
	if next == nil {
		next = copyItem(key)
	}
	for _, assign := range strings.Split(body, ",") {
		lhs, rhs, ok := strings.Cut(assign, "=")
		if !ok {
			return nil, fmt.Errorf("unsupported assignment %q", assign)
		}
		v, ok := values[strings.TrimSpace(rhs)]
		if !ok {
			return nil, fmt.Errorf("missing expression value %q", rhs)
		}
		next[resolveName(strings.TrimSpace(lhs), names)] = v
	}
	return next, nil
}

func copyItem(item map[string]types.AttributeValue) map[string]types.AttributeValue {
	if item == nil {
		return nil
	}
	out := make(map[string]types.AttributeValue, len(item))
	for k, v := range item {
		out[k] = v
	}
	return out
}

func strPtr(s string) *string { return &s }
