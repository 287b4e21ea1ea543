package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/memphis-pe/oc-api/internal/domain"
)

// TokenRepo provides typed DynamoDB operations over both push-registration
// storage shapes: the legacy singleton table (one token per user email) and
// the per-device records table.
type TokenRepo struct {
	client         *dynamodb.Client
	singletonTable string
	devicesTable   string
}

func NewTokenRepo(client *dynamodb.Client, singletonTable, devicesTable string) *TokenRepo {
	return &TokenRepo{client: client, singletonTable: singletonTable, devicesTable: devicesTable}
}

// GetSingleton returns the legacy one-per-user token record, or ErrNotFound.
func (r *TokenRepo) GetSingleton(ctx context.Context, email string) (*domain.PushToken, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.singletonTable),
		Key:       strKey("user_email", email),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("push token not found: %w", domain.ErrNotFound)
	}
	var t domain.PushToken
	if err := attributevalue.UnmarshalMap(out.Item, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TokenRepo) PutSingleton(ctx context.Context, t *domain.PushToken) error {
	t.UpdatedAt = time.Now().UTC()
	item, err := attributevalue.MarshalMap(t)
	if err != nil {
		return fmt.Errorf("marshal push token: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.singletonTable),
		Item:      item,
	})
	return err
}

func (r *TokenRepo) DeleteSingleton(ctx context.Context, email string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.singletonTable),
		Key:       strKey("user_email", email),
	})
	return err
}

// ListDevices returns every device record of a user, active or not. Filtering
// on the active flag stays in the application layer because a missing flag
// counts as active.
func (r *TokenRepo) ListDevices(ctx context.Context, email string) ([]domain.DeviceToken, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.devicesTable),
		KeyConditionExpression: aws.String("user_email = :e"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":e": &types.AttributeValueMemberS{Value: email},
		},
	})
	if err != nil {
		return nil, err
	}
	var devices []domain.DeviceToken
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &devices); err != nil {
		return nil, err
	}
	return devices, nil
}

func (r *TokenRepo) PutDevice(ctx context.Context, d *domain.DeviceToken) error {
	item, err := attributevalue.MarshalMap(d)
	if err != nil {
		return fmt.Errorf("marshal device token: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.devicesTable),
		Item:      item,
	})
	return err
}

func (r *TokenRepo) DeactivateDevice(ctx context.Context, email, deviceID string) error {
	ue, err := buildUpdateExpr(map[string]interface{}{
		fieldActivo:    false,
		fieldUpdatedAt: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.devicesTable),
		Key:                       compositeKey("user_email", email, "device_id", deviceID),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return err
}

func (r *TokenRepo) DeleteDevice(ctx context.Context, email, deviceID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.devicesTable),
		Key:       compositeKey("user_email", email, "device_id", deviceID),
	})
	return err
}

// ScanSingletonsByToken returns every singleton record holding the given
// token, across all users. Full table scan; purges are rare and the table is
// small.
func (r *TokenRepo) ScanSingletonsByToken(ctx context.Context, token string) ([]domain.PushToken, error) {
	out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
		TableName:        aws.String(r.singletonTable),
		FilterExpression: aws.String("#tk = :t"),
		ExpressionAttributeNames: map[string]string{
			"#tk": "token",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t": &types.AttributeValueMemberS{Value: token},
		},
	})
	if err != nil {
		return nil, err
	}
	var tokens []domain.PushToken
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &tokens); err != nil {
		return nil, err
	}
	return tokens, nil
}

// ScanDevicesByToken returns every device record holding the given token,
// across all users.
func (r *TokenRepo) ScanDevicesByToken(ctx context.Context, token string) ([]domain.DeviceToken, error) {
	out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
		TableName:        aws.String(r.devicesTable),
		FilterExpression: aws.String("#tk = :t"),
		ExpressionAttributeNames: map[string]string{
			"#tk": "token",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t": &types.AttributeValueMemberS{Value: token},
		},
	})
	if err != nil {
		return nil, err
	}
	var devices []domain.DeviceToken
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &devices); err != nil {
		return nil, err
	}
	return devices, nil
}
