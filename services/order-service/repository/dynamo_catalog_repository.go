package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/yashrajoria/multivendor-store/services/order-service/models"
)

// DynamoCatalogRepository reads products from a table keyed by product_id.
type DynamoCatalogRepository struct {
	client *dynamodb.Client
	table  string
}

func NewDynamoCatalogRepository(client *dynamodb.Client, table string) *DynamoCatalogRepository {
	return &DynamoCatalogRepository{client: client, table: table}
}

func (r *DynamoCatalogRepository) key(id string) (map[string]types.AttributeValue, error) {
	key, err := attributevalue.MarshalMap(map[string]string{"product_id": id})
	if err != nil {
		return nil, fmt.Errorf("marshal key: %w", err)
	}
	return key, nil
}

func (r *DynamoCatalogRepository) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	key, err := r.key(id)
	if err != nil {
		return nil, err
	}

	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      &r.table,
		Key:            key,
		ConsistentRead: boolPtr(true),
	})
	if err != nil {
		return nil, fmt.Errorf("dynamodb GetItem failed: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, ErrProductNotFound
	}

	var product models.Product
	if err := attributevalue.UnmarshalMap(out.Item, &product); err != nil {
		return nil, fmt.Errorf("unmarshal product: %w", err)
	}
	return &product, nil
}

func (r *DynamoCatalogRepository) DecrementStock(ctx context.Context, id string, qty int) error {
	key, err := r.key(id)
	if err != nil {
		return err
	}

	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           &r.table,
		Key:                 key,
		UpdateExpression:    strPtr("SET stock = stock - :qty"),
		ConditionExpression: strPtr("attribute_exists(product_id) AND stock >= :qty"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":qty": &types.AttributeValueMemberN{Value: strconv.Itoa(qty)},
		},
	})
	var condErr *types.ConditionalCheckFailedException
	if errors.As(err, &condErr) {
		if _, getErr := r.GetProduct(ctx, id); errors.Is(getErr, ErrProductNotFound) {
			return ErrProductNotFound
		}
		return ErrInsufficientStock
	}
	if err != nil {
		return fmt.Errorf("decrement stock failed: %w", err)
	}
	return nil
}

func (r *DynamoCatalogRepository) RestoreStock(ctx context.Context, id string, qty int) error {
	key, err := r.key(id)
	if err != nil {
		return err
	}

	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           &r.table,
		Key:                 key,
		UpdateExpression:    strPtr("ADD stock :qty"),
		ConditionExpression: strPtr("attribute_exists(product_id)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":qty": &types.AttributeValueMemberN{Value: strconv.Itoa(qty)},
		},
	})
	var condErr *types.ConditionalCheckFailedException
	if errors.As(err, &condErr) {
		return ErrProductNotFound
	}
	if err != nil {
		return fmt.Errorf("restore stock failed: %w", err)
	}
	return nil
}

// PutProduct writes the full catalog record, replacing any existing item.
func (r *DynamoCatalogRepository) PutProduct(ctx context.Context, product *models.Product) error {
	item, err := attributevalue.MarshalMap(product)
	if err != nil {
		return fmt.Errorf("marshal product: %w", err)
	}
	if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &r.table,
		Item:      item,
	}); err != nil {
		return fmt.Errorf("dynamodb PutItem failed: %w", err)
	}
	return nil
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }
