package userstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/xxxsen/photoshare/internal/model"
	"github.com/xxxsen/photoshare/internal/pkg/awsutil"
	appErr "github.com/xxxsen/photoshare/internal/pkg/errors"
)

const (
	attrEmail                 = "email"
	attrName                  = "name"
	attrPasswordHash          = "passwordHash"
	attrCreatedAt             = "createdAt"
	attrProfileImageURL       = "profileImageUrl"
	attrProfileImageUpdatedAt = "profileImageUpdatedAt"
)

type dynamoConfig struct {
	awsutil.Options
	Table string `json:"table"`
}

type dynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

type dynamoStore struct {
	client dynamoAPI
	table  string
}

func init() {
	Register("dynamodb", createDynamoStore)
}

func createDynamoStore(args interface{}) (Store, error) {
	cfg := &dynamoConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	if cfg.Table == "" {
		return nil, fmt.Errorf("dynamodb table is required")
	}
	if cfg.Region == "" {
		return nil, fmt.Errorf("dynamodb region is required")
	}
	awsCfg, err := awsutil.LoadConfig(context.Background(), cfg.Options)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		o.BaseEndpoint = awsutil.BaseEndpoint(cfg.Endpoint)
	})
	return newDynamoStore(client, cfg.Table), nil
}

func newDynamoStore(client dynamoAPI, table string) *dynamoStore {
	return &dynamoStore{client: client, table: table}
}

func (s *dynamoStore) Put(ctx context.Context, user *model.User) error {
	if err := validateKey(user.Email); err != nil {
		return err
	}
	_, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      marshalUser(user),
	})
	return err
}

func (s *dynamoStore) Get(ctx context.Context, email string) (*model.User, error) {
	if email == "" {
		return nil, appErr.ErrNotFound
	}
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.table),
		Key:            emailKey(email),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Item) == 0 {
		return nil, appErr.ErrNotFound
	}
	return unmarshalUser(out.Item)
}

func (s *dynamoStore) SetProfileImage(ctx context.Context, email, key string, at time.Time) error {
	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(s.table),
		Key:                 emailKey(email),
		UpdateExpression:    aws.String("SET #img = :key, #imgAt = :at"),
		ConditionExpression: aws.String("attribute_exists(#email)"),
		ExpressionAttributeNames: map[string]string{
			"#img":   attrProfileImageURL,
			"#imgAt": attrProfileImageUpdatedAt,
			"#email": attrEmail,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":key": &types.AttributeValueMemberS{Value: key},
			":at":  &types.AttributeValueMemberS{Value: formatTime(at)},
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	})
	if isConditionFailed(err) {
		return appErr.ErrNotFound
	}
	return err
}

func (s *dynamoStore) ClearProfileImage(ctx context.Context, email, key string) error {
	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(s.table),
		Key:                 emailKey(email),
		UpdateExpression:    aws.String("REMOVE #img, #imgAt"),
		ConditionExpression: aws.String("#img = :key"),
		ExpressionAttributeNames: map[string]string{
			"#img":   attrProfileImageURL,
			"#imgAt": attrProfileImageUpdatedAt,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":key": &types.AttributeValueMemberS{Value: key},
		},
	})
	if isConditionFailed(err) {
		return nil
	}
	return err
}

func (s *dynamoStore) ListWithProfileImage(ctx context.Context) ([]*model.User, error) {
	paginator := dynamodb.NewScanPaginator(s.client, &dynamodb.ScanInput{
		TableName:                aws.String(s.table),
		FilterExpression:         aws.String("attribute_exists(#img)"),
		ExpressionAttributeNames: map[string]string{"#img": attrProfileImageURL},
	})
	var out []*model.User
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, item := range page.Items {
			user, err := unmarshalUser(item)
			if err != nil {
				return nil, err
			}
			out = append(out, user)
		}
	}
	return out, nil
}

func emailKey(email string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrEmail: &types.AttributeValueMemberS{Value: email},
	}
}

func marshalUser(user *model.User) map[string]types.AttributeValue {
	item := map[string]types.AttributeValue{
		attrEmail:        &types.AttributeValueMemberS{Value: user.Email},
		attrName:         &types.AttributeValueMemberS{Value: user.Name},
		attrPasswordHash: &types.AttributeValueMemberS{Value: user.PasswordHash},
		attrCreatedAt:    &types.AttributeValueMemberS{Value: formatTime(user.CreatedAt)},
	}
	if user.ProfileImageURL != "" {
		item[attrProfileImageURL] = &types.AttributeValueMemberS{Value: user.ProfileImageURL}
		item[attrProfileImageUpdatedAt] = &types.AttributeValueMemberS{Value: formatTime(user.ProfileImageUpdatedAt)}
	}
	return item
}

func unmarshalUser(item map[string]types.AttributeValue) (*model.User, error) {
	user := &model.User{
		Email:           stringAttr(item, attrEmail),
		Name:            stringAttr(item, attrName),
		PasswordHash:    stringAttr(item, attrPasswordHash),
		ProfileImageURL: stringAttr(item, attrProfileImageURL),
	}
	if user.Email == "" {
		return nil, fmt.Errorf("dynamodb item has no %s attribute", attrEmail)
	}
	var err error
	if user.CreatedAt, err = parseTime(stringAttr(item, attrCreatedAt)); err != nil {
		return nil, fmt.Errorf("parse %s: %w", attrCreatedAt, err)
	}
	if user.ProfileImageUpdatedAt, err = parseTime(stringAttr(item, attrProfileImageUpdatedAt)); err != nil {
		return nil, fmt.Errorf("parse %s: %w", attrProfileImageUpdatedAt, err)
	}
	return user, nil
}

func stringAttr(item map[string]types.AttributeValue, name string) string {
	if v, ok := item[name].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, value)
}

func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}
