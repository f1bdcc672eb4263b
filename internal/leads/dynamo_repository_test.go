package leads

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
)

// mockDynamo keeps items in a map and honours the attribute_exists /
// attribute_not_exists conditions the repository sends.
type mockDynamo struct {
	items    map[string]map[string]types.AttributeValue
	pageSize int
	err      error

	putInput    *dynamodb.PutItemInput
	updateInput *dynamodb.UpdateItemInput
	scanCalls   int
}

func newMockDynamo() *mockDynamo {
	return &mockDynamo{items: map[string]map[string]types.AttributeValue{}, pageSize: 2}
}

func keyOf(key map[string]types.AttributeValue) string {
	return key["id"].(*types.AttributeValueMemberS).Value
}

func conditionFailed() error {
	return &types.ConditionalCheckFailedException{Message: stringPtr("The conditional request failed")}
}

func stringPtr(s string) *string { return &s }

func (m *mockDynamo) PutItem(ctx context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	m.putInput = in
	if m.err != nil {
		return nil, m.err
	}
	id := keyOf(in.Item)
	if _, exists := m.items[id]; exists {
		return nil, conditionFailed()
	}
	m.items[id] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (m *mockDynamo) GetItem(ctx context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &dynamodb.GetItemOutput{Item: m.items[keyOf(in.Key)]}, nil
}

func (m *mockDynamo) UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	m.updateInput = in
	if m.err != nil {
		return nil, m.err
	}
	item, ok := m.items[keyOf(in.Key)]
	if !ok {
		return nil, conditionFailed()
	}
	item["status"] = in.ExpressionAttributeValues[":status"]
	return &dynamodb.UpdateItemOutput{Attributes: item}, nil
}

func (m *mockDynamo) DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	if m.err != nil {
		return nil, m.err
	}
	id := keyOf(in.Key)
	if _, ok := m.items[id]; !ok {
		return nil, conditionFailed()
	}
	delete(m.items, id)
	return &dynamodb.DeleteItemOutput{}, nil
}

func (m *mockDynamo) Scan(ctx context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	m.scanCalls++
	if m.err != nil {
		return nil, m.err
	}
	ids := make([]string, 0, len(m.items))
	for id := range m.items {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	start := 0
	if in.ExclusiveStartKey != nil {
		last := keyOf(in.ExclusiveStartKey)
		for i, id := range ids {
			if id == last {
				start = i + 1
			}
		}
	}
	end := start + m.pageSize
	if end > len(ids) {
		end = len(ids)
	}

	out := &dynamodb.ScanOutput{}
	for _, id := range ids[start:end] {
		item := m.items[id]
		if want, ok := in.ExpressionAttributeValues[":status"]; ok {
			if item["status"].(*types.AttributeValueMemberS).Value != want.(*types.AttributeValueMemberS).Value {
				continue
			}
		}
		out.Items = append(out.Items, item)
	}
	if end < len(ids) {
		out.LastEvaluatedKey = idKey(ids[end-1])
	}
	return out, nil
}

func TestDynamoRepository_CreateGuardsOverwrite(t *testing.T) {
	mock := newMockDynamo()
	repo := NewDynamoRepository(mock, "form_submissions")

	lead, err := repo.Create(context.Background(), sampleFields("hello"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if got := *mock.putInput.ConditionExpression; got != "attribute_not_exists(id)" {
		t.Fatalf("unexpected condition %q", got)
	}

	var stored Lead
	if err := attributevalue.UnmarshalMap(mock.putInput.Item, &stored); err != nil {
		t.Fatalf("failed to unmarshal stored lead: %v", err)
	}
	if stored.ID != lead.ID || stored.Status != StatusNew || stored.Message != "hello" {
		t.Fatalf("unexpected stored lead %+v", stored)
	}
}

func TestDynamoRepository_ListPagesAndSorts(t *testing.T) {
	mock := newMockDynamo()
	repo := NewDynamoRepository(mock, "form_submissions")
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	repo.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Hour)
	}

	for _, msg := range []string{"one", "two", "three", "four", "five"} {
		if _, err := repo.Create(context.Background(), sampleFields(msg)); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	res, err := repo.List(context.Background(), ListFilter{Limit: 2, Offset: 1})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if mock.scanCalls != 3 {
		t.Fatalf("expected scan to follow pagination, got %d calls", mock.scanCalls)
	}
	if res.Total != 5 || len(res.Items) != 2 {
		t.Fatalf("expected 2 of 5, got %d of %d", len(res.Items), res.Total)
	}
	if res.Items[0].Message != "four" || res.Items[1].Message != "three" {
		t.Fatalf("expected newest first after offset, got %s, %s", res.Items[0].Message, res.Items[1].Message)
	}
}

func TestDynamoRepository_StatusFilterAndUpdate(t *testing.T) {
	mock := newMockDynamo()
	repo := NewDynamoRepository(mock, "form_submissions")
	ctx := context.Background()

	a, _ := repo.Create(ctx, sampleFields("a"))
	_, _ = repo.Create(ctx, sampleFields("b"))

	updated, err := repo.UpdateStatus(ctx, a.ID, StatusReviewed)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Status != StatusReviewed || updated.Message != "a" {
		t.Fatalf("unexpected updated lead %+v", updated)
	}
	if names := mock.updateInput.ExpressionAttributeNames; names["#status"] != "status" {
		t.Fatalf("expected reserved status attribute aliased, got %v", names)
	}

	reviewed := StatusReviewed
	res, err := repo.List(ctx, ListFilter{Status: &reviewed})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if res.Total != 1 || res.Items[0].ID != a.ID {
		t.Fatalf("expected only reviewed lead, got %+v", res.Items)
	}
}

func TestDynamoRepository_MissingItems(t *testing.T) {
	repo := NewDynamoRepository(newMockDynamo(), "form_submissions")
	ctx := context.Background()

	if _, err := repo.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get: expected not found, got %v", err)
	}
	if _, err := repo.UpdateStatus(ctx, "missing", StatusArchived); !errors.Is(err, ErrNotFound) {
		t.Fatalf("update: expected not found, got %v", err)
	}

	lead, _ := repo.Create(ctx, sampleFields("hello"))
	if err := repo.Delete(ctx, lead.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.Delete(ctx, lead.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete: expected not found, got %v", err)
	}
}

func TestDynamoRepository_ClassifiesErrors(t *testing.T) {
	mock := newMockDynamo()
	repo := NewDynamoRepository(mock, "form_submissions")
	ctx := context.Background()

	mock.err = &smithy.GenericAPIError{Code: "ValidationException", Message: "item size too large"}
	if _, err := repo.Create(ctx, sampleFields("hello")); KindOf(err) != StoreRejected {
		t.Fatalf("expected rejected, got %v", err)
	}

	mock.err = &smithy.GenericAPIError{Code: "ProvisionedThroughputExceededException"}
	if _, err := repo.List(ctx, ListFilter{}); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}

	mock.err = errors.New("request send failed")
	if _, err := repo.Get(ctx, "x"); KindOf(err) != StoreUnavailable {
		t.Fatalf("expected unavailable, got %v", err)
	}
}
