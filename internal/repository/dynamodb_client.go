package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"seminar-bot/internal/domain"
)

const (
	skSession             = "SESSION"
	skRegistration        = "REGISTRATION"
	sessionTTL            = 30 * 24 * time.Hour // 30-day TTL
	condFirstRegistration = "attribute_not_exists(PK)"
)

// dynamodbAPI is the minimal DynamoDB interface required by the clients.
// Defined here for testability.
type dynamodbAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

type table struct {
	api       dynamodbAPI
	tableName string
}

func newTable(api dynamodbAPI, tableName string) (table, error) {
	if api == nil {
		return table{}, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return table{}, errors.New("repository: table name must not be empty")
	}
	return table{api: api, tableName: tableName}, nil
}

func (t table) key(pk, sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: pk},
		"SK": &types.AttributeValueMemberS{Value: sk},
	}
}

// SessionClient keeps conversation sessions in a DynamoDB table.
type SessionClient struct {
	table
	now func() time.Time
}

// NewSessionClient creates a session store over tableName.
func NewSessionClient(api dynamodbAPI, tableName string) (*SessionClient, error) {
	t, err := newTable(api, tableName)
	if err != nil {
		return nil, err
	}
	return &SessionClient{table: t, now: time.Now}, nil
}

// convPK returns the DynamoDB partition key for a conversation.
func convPK(chatID int64) string {
	return "CONV#" + strconv.FormatInt(chatID, 10)
}

// GetSession loads the session of chatID. A conversation never seen before gets a
// fresh session.
func (c *SessionClient) GetSession(ctx context.Context, chatID int64) (domain.Session, error) {
	out, err := c.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(c.tableName),
		Key:            c.key(convPK(chatID), skSession),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return domain.Session{}, fmt.Errorf("repository: GetSession get item: %w", err)
	}
	if out == nil || len(out.Item) == 0 {
		return domain.NewSession(), nil
	}

	s, err := itemToSession(out.Item)
	if err != nil {
		return domain.Session{}, fmt.Errorf("repository: GetSession decode: %w", err)
	}
	return s, nil
}

// PutSession replaces the session of chatID and refreshes its TTL.
func (c *SessionClient) PutSession(ctx context.Context, chatID int64, s domain.Session) error {
	item := sessionItem(s)
	for k, v := range c.key(convPK(chatID), skSession) {
		item[k] = v
	}
	item["updatedAt"] = &types.AttributeValueMemberS{Value: c.now().UTC().Format(time.RFC3339)}
	item["ttl"] = &types.AttributeValueMemberN{Value: strconv.FormatInt(c.now().Add(sessionTTL).Unix(), 10)}

	_, err := c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(c.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("repository: PutSession: %w", err)
	}
	return nil
}

func sessionItem(s domain.Session) map[string]types.AttributeValue {
	fields := make(map[string]types.AttributeValue, len(s.Fields))
	for k, v := range s.Fields {
		fields[k] = &types.AttributeValueMemberS{Value: v}
	}
	return map[string]types.AttributeValue{
		"state":  &types.AttributeValueMemberS{Value: string(s.State)},
		"locale": &types.AttributeValueMemberS{Value: string(s.Locale)},
		"fields": &types.AttributeValueMemberM{Value: fields},
	}
}

func itemToSession(item map[string]types.AttributeValue) (domain.Session, error) {
	state, err := strAttr(item, "state")
	if err != nil {
		return domain.Session{}, err
	}
	locale, _ := strAttr(item, "locale") // allow empty

	s := domain.Session{
		State:  domain.State(state),
		Locale: domain.Locale(locale),
		Fields: map[string]string{},
	}
	if raw, ok := item["fields"]; ok {
		m, ok := raw.(*types.AttributeValueMemberM)
		if !ok {
			return domain.Session{}, errors.New("repository: attribute \"fields\" is not a map")
		}
		for k := range m.Value {
			v, err := strAttr(m.Value, k)
			if err != nil {
				return domain.Session{}, err
			}
			s.Fields[k] = v
		}
	}
	return s, nil
}

// RegistrationClient keeps completed registrations in a DynamoDB table, one item
// per user.
type RegistrationClient struct {
	table
}

// NewRegistrationClient creates a record store over tableName.
func NewRegistrationClient(api dynamodbAPI, tableName string) (*RegistrationClient, error) {
	t, err := newTable(api, tableName)
	if err != nil {
		return nil, err
	}
	return &RegistrationClient{table: t}, nil
}

func userPK(userID int64) string {
	return "USER#" + strconv.FormatInt(userID, 10)
}

// Exists reports whether userID already has a registration.
func (c *RegistrationClient) Exists(ctx context.Context, userID int64) (bool, error) {
	out, err := c.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:            aws.String(c.tableName),
		Key:                  c.key(userPK(userID), skRegistration),
		ConsistentRead:       aws.Bool(true),
		ProjectionExpression: aws.String("PK"),
	})
	if err != nil {
		return false, fmt.Errorf("repository: Exists get item: %w", err)
	}
	return out != nil && len(out.Item) > 0, nil
}

// Insert stores rec unless the user already has a registration, in which case it
// returns domain.ErrDuplicateRegistration.
func (c *RegistrationClient) Insert(ctx context.Context, rec domain.RegistrationRecord) error {
	if rec.UserID == 0 {
		return errors.New("repository: Insert: user id is required")
	}

	_, err := c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(c.tableName),
		Item:                registrationItem(rec),
		ConditionExpression: aws.String(condFirstRegistration),
	})
	if err != nil {
		var conditional *types.ConditionalCheckFailedException
		if errors.As(err, &conditional) {
			return fmt.Errorf("repository: Insert: %w", domain.ErrDuplicateRegistration)
		}
		return fmt.Errorf("repository: Insert: %w", err)
	}
	return nil
}

func registrationItem(rec domain.RegistrationRecord) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK":           &types.AttributeValueMemberS{Value: userPK(rec.UserID)},
		"SK":           &types.AttributeValueMemberS{Value: skRegistration},
		"id":           &types.AttributeValueMemberS{Value: rec.ID},
		"tgId":         &types.AttributeValueMemberN{Value: strconv.FormatInt(rec.UserID, 10)},
		"username":     &types.AttributeValueMemberS{Value: rec.Username},
		"name":         &types.AttributeValueMemberS{Value: rec.DisplayName},
		"organization": &types.AttributeValueMemberS{Value: rec.Organization},
		"phoneNumber":  &types.AttributeValueMemberS{Value: rec.PhoneNumber},
		"date":         &types.AttributeValueMemberS{Value: rec.EventDate},
		"hotelInfo":    &types.AttributeValueMemberBOOL{Value: rec.WantsHotel},
		"createdAt":    &types.AttributeValueMemberS{Value: rec.CreatedAt.UTC().Format(time.RFC3339)},
	}
}

func strAttr(item map[string]types.AttributeValue, key string) (string, error) {
	v, ok := item[key]
	if !ok {
		return "", fmt.Errorf("repository: missing attribute %q", key)
	}
	s, ok := v.(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("repository: attribute %q is not a string", key)
	}
	return s.Value, nil
}
