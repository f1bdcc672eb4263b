package leads

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"
)

type dynamoAPI interface {
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(context.Context, *dynamodb.UpdateItemInput, ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(context.Context, *dynamodb.DeleteItemInput, ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(context.Context, *dynamodb.ScanInput, ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// DynamoRepository stores leads in a DynamoDB table keyed by id.
// Listing scans the table and sorts in memory, which suits a lead table
// measured in thousands of rows, not millions.
type DynamoRepository struct {
	client    dynamoAPI
	tableName string
	now       func() time.Time
}

// NewDynamoRepository builds a repository backed by the provided DynamoDB client.
func NewDynamoRepository(client dynamoAPI, tableName string) *DynamoRepository {
	if client == nil {
		panic("leads: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("leads: table name cannot be empty")
	}
	return &DynamoRepository{
		client:    client,
		tableName: tableName,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create puts a new item, refusing to overwrite an existing id.
func (r *DynamoRepository) Create(ctx context.Context, f Fields) (*Lead, error) {
	if err := checkFields(f); err != nil {
		return nil, storeErr("create", StoreRejected, err)
	}
	lead := &Lead{
		ID:          uuid.New().String(),
		FirstName:   f.FirstName,
		LastName:    f.LastName,
		Company:     f.Company,
		Email:       f.Email,
		Phone:       f.Phone,
		CompanyType: f.CompanyType,
		Message:     f.Message,
		Status:      StatusNew,
		CreatedAt:   r.now(),
	}
	item, err := attributevalue.MarshalMap(lead)
	if err != nil {
		return nil, storeErr("create", StoreRejected, err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		return nil, classifyDynamoError("create", err, StoreRejected)
	}
	return lead, nil
}

// List scans the table, applying the status filter server side.
func (r *DynamoRepository) List(ctx context.Context, filter ListFilter) (*ListResult, error) {
	filter = filter.Normalize()

	input := &dynamodb.ScanInput{TableName: aws.String(r.tableName)}
	if filter.Status != nil {
		input.FilterExpression = aws.String("#status = :status")
		input.ExpressionAttributeNames = map[string]string{"#status": "status"}
		input.ExpressionAttributeValues = map[string]types.AttributeValue{
			":status": &types.AttributeValueMemberS{Value: string(*filter.Status)},
		}
	}

	var all []*Lead
	for {
		out, err := r.client.Scan(ctx, input)
		if err != nil {
			return nil, classifyDynamoError("list", err, StoreUnavailable)
		}
		var page []*Lead
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, storeErr("list", StoreUnavailable, err)
		}
		all = append(all, page...)
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	result := &ListResult{Items: []*Lead{}, Total: len(all)}
	for i := filter.Offset; i < len(all) && len(result.Items) < filter.Limit; i++ {
		result.Items = append(result.Items, all[i])
	}
	return result, nil
}

// Get fetches a lead by id.
func (r *DynamoRepository) Get(ctx context.Context, id string) (*Lead, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       idKey(id),
	})
	if err != nil {
		return nil, classifyDynamoError("get", err, StoreUnavailable)
	}
	if out.Item == nil {
		return nil, storeErr("get", NotFound, nil)
	}
	var lead Lead
	if err := attributevalue.UnmarshalMap(out.Item, &lead); err != nil {
		return nil, storeErr("get", StoreUnavailable, err)
	}
	return &lead, nil
}

// UpdateStatus sets only the status attribute of an existing item.
func (r *DynamoRepository) UpdateStatus(ctx context.Context, id string, status Status) (*Lead, error) {
	if !status.Valid() {
		return nil, storeErr("update status", StoreRejected, ErrInvalidStatus)
	}
	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                aws.String(r.tableName),
		Key:                      idKey(id),
		UpdateExpression:         aws.String("SET #status = :status"),
		ConditionExpression:      aws.String("attribute_exists(id)"),
		ExpressionAttributeNames: map[string]string{"#status": "status"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":status": &types.AttributeValueMemberS{Value: string(status)},
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	if err != nil {
		return nil, classifyDynamoError("update status", err, NotFound)
	}
	var lead Lead
	if err := attributevalue.UnmarshalMap(out.Attributes, &lead); err != nil {
		return nil, storeErr("update status", StoreUnavailable, err)
	}
	return &lead, nil
}

// Delete removes an existing item.
func (r *DynamoRepository) Delete(ctx context.Context, id string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 idKey(id),
		ConditionExpression: aws.String("attribute_exists(id)"),
	})
	if err != nil {
		return classifyDynamoError("delete", err, NotFound)
	}
	return nil
}

func idKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"id": &types.AttributeValueMemberS{Value: id},
	}
}

// classifyDynamoError maps SDK errors onto store kinds. conditionKind is the
// meaning of a failed condition expression for the calling operation.
func classifyDynamoError(op string, err error, conditionKind StoreErrorKind) error {
	var condErr *types.ConditionalCheckFailedException
	if errors.As(err, &condErr) {
		return storeErr(op, conditionKind, err)
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() == "ValidationException" {
		return storeErr(op, StoreRejected, err)
	}
	return storeErr(op, StoreUnavailable, err)
}

var _ Repository = (*DynamoRepository)(nil)
