package lock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

const (
	skLock          = "LOCK"
	condLockFree    = "attribute_not_exists(PK) OR expiresAt < :now"
	condLockOwned   = "#owner = :owner"
	updateLockLease = "SET expiresAt = :exp, #ttl = :ttl"
)

// dynamoLockAPI is the subset of *dynamodb.Client used by Dynamo.
type dynamoLockAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// Dynamo is a lease-based lock kept as one item per key in a DynamoDB table. It
// excludes across Lambda execution environments. The item carries a ttl attribute so
// table expiry sweeps abandoned leases.
type Dynamo struct {
	api       dynamoLockAPI
	tableName string
	ttl       time.Duration
	retry     time.Duration
	now       func() time.Time
	logger    *slog.Logger
}

func NewDynamo(api dynamoLockAPI, tableName string, ttl time.Duration, logger *slog.Logger) (*Dynamo, error) {
	if api == nil {
		return nil, errors.New("lock: dynamodb api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("lock: table name must not be empty")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dynamo{
		api:       api,
		tableName: tableName,
		ttl:       ttl,
		retry:     defaultRetry,
		now:       time.Now,
		logger:    logger,
	}, nil
}

func lockPK(key string) string {
	return "LOCK#" + key
}

func (d *Dynamo) key(key string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: lockPK(key)},
		"SK": &types.AttributeValueMemberS{Value: skLock},
	}
}

// Lock polls until the lease on key is free or expired, or ctx is done.
func (d *Dynamo) Lock(ctx context.Context, key string) (func(), error) {
	owner := uuid.NewString()

	ticker := time.NewTicker(d.retry)
	defer ticker.Stop()
	for {
		err := d.acquire(ctx, key, owner)
		if err == nil {
			l := keepAlive(lockPK(key), d.ttl, d.renewer(key, owner), d.logger)
			return d.unlockFunc(key, owner, l), nil
		}
		var conditional *types.ConditionalCheckFailedException
		if !errors.As(err, &conditional) {
			return nil, fmt.Errorf("lock: acquire %s: %w", key, err)
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("lock: acquire %s: %w", key, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (d *Dynamo) acquire(ctx context.Context, key, owner string) error {
	now := d.now()
	expiresAt, ttl := d.expiry(now)
	item := d.key(key)
	item["owner"] = &types.AttributeValueMemberS{Value: owner}
	item["expiresAt"] = expiresAt
	item["ttl"] = ttl

	_, err := d.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(d.tableName),
		Item:                      item,
		ConditionExpression:       aws.String(condLockFree),
		ExpressionAttributeValues: map[string]types.AttributeValue{":now": millis(now)},
	})
	return err
}

// expiry returns the lease deadline in unix millis and the item's table TTL in unix
// seconds, an hour past the deadline.
func (d *Dynamo) expiry(now time.Time) (expiresAt, ttl types.AttributeValue) {
	deadline := now.Add(d.ttl)
	return millis(deadline), &types.AttributeValueMemberN{Value: strconv.FormatInt(deadline.Add(time.Hour).Unix(), 10)}
}

func (d *Dynamo) renewer(key, owner string) renewFunc {
	return func(ctx context.Context) (bool, error) {
		expiresAt, ttl := d.expiry(d.now())
		_, err := d.api.UpdateItem(ctx, &dynamodb.UpdateItemInput{
			TableName:                aws.String(d.tableName),
			Key:                      d.key(key),
			UpdateExpression:         aws.String(updateLockLease),
			ConditionExpression:      aws.String(condLockOwned),
			ExpressionAttributeNames: map[string]string{"#owner": "owner", "#ttl": "ttl"},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":exp":   expiresAt,
				":ttl":   ttl,
				":owner": &types.AttributeValueMemberS{Value: owner},
			},
		})
		var conditional *types.ConditionalCheckFailedException
		if errors.As(err, &conditional) {
			return false, nil
		}
		return err == nil, err
	}
}

func (d *Dynamo) unlockFunc(key, owner string, l *lease) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			l.stop()
			ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
			defer cancel()
			_, err := d.api.DeleteItem(ctx, &dynamodb.DeleteItemInput{
				TableName:                 aws.String(d.tableName),
				Key:                       d.key(key),
				ConditionExpression:       aws.String(condLockOwned),
				ExpressionAttributeNames:  map[string]string{"#owner": "owner"},
				ExpressionAttributeValues: map[string]types.AttributeValue{":owner": &types.AttributeValueMemberS{Value: owner}},
			})
			var conditional *types.ConditionalCheckFailedException
			switch {
			case errors.As(err, &conditional):
				d.logger.Warn("lock lease lost before release", "key", lockPK(key))
			case err != nil:
				d.logger.Warn("lock release failed", "key", lockPK(key), "err", err)
			}
		})
	}
}

func millis(t time.Time) *types.AttributeValueMemberN {
	return &types.AttributeValueMemberN{Value: strconv.FormatInt(t.UnixMilli(), 10)}
}
