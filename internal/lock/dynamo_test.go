package lock

import (
	"context"
	"errors"
	"maps"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/require"
)

// lockTable evaluates the lock's condition expressions over an in-memory table.
type lockTable struct {
	mu       sync.Mutex
	items    map[string]map[string]types.AttributeValue
	putErr   error
	puts     int
	renewals int
	deletes  int
}

func newLockTable() *lockTable {
	return &lockTable{items: map[string]map[string]types.AttributeValue{}}
}

func itemKey(key map[string]types.AttributeValue) string {
	return key["PK"].(*types.AttributeValueMemberS).Value + "|" + key["SK"].(*types.AttributeValueMemberS).Value
}

func numAttr(v types.AttributeValue) int64 {
	n, _ := strconv.ParseInt(v.(*types.AttributeValueMemberN).Value, 10, 64)
	return n
}

func ownedBy(item map[string]types.AttributeValue, values map[string]types.AttributeValue) bool {
	return item != nil && item["owner"].(*types.AttributeValueMemberS).Value == values[":owner"].(*types.AttributeValueMemberS).Value
}

func (f *lockTable) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts++
	if f.putErr != nil {
		return nil, f.putErr
	}
	k := itemKey(in.Item)
	if cur, ok := f.items[k]; ok && aws.ToString(in.ConditionExpression) == condLockFree {
		if numAttr(cur["expiresAt"]) >= numAttr(in.ExpressionAttributeValues[":now"]) {
			return nil, &types.ConditionalCheckFailedException{}
		}
	}
	f.items[k] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *lockTable) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.renewals++
	item := f.items[itemKey(in.Key)]
	if !ownedBy(item, in.ExpressionAttributeValues) {
		return nil, &types.ConditionalCheckFailedException{}
	}
	item["expiresAt"] = in.ExpressionAttributeValues[":exp"]
	item["ttl"] = in.ExpressionAttributeValues[":ttl"]
	return &dynamodb.UpdateItemOutput{}, nil
}

func (f *lockTable) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes++
	k := itemKey(in.Key)
	if !ownedBy(f.items[k], in.ExpressionAttributeValues) {
		return nil, &types.ConditionalCheckFailedException{}
	}
	delete(f.items, k)
	return &dynamodb.DeleteItemOutput{}, nil
}

func (f *lockTable) item(key string) map[string]types.AttributeValue {
	f.mu.Lock()
	defer f.mu.Unlock()
	return maps.Clone(f.items[lockPK(key)+"|"+skLock])
}

func (f *lockTable) renewCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.renewals
}

func newTestDynamoLock(t *testing.T, table *lockTable, ttl time.Duration) *Dynamo {
	t.Helper()
	l, err := NewDynamo(table, "bot", ttl, nil)
	require.NoError(t, err)
	l.retry = time.Millisecond
	return l
}

func TestNewDynamo_Validation(t *testing.T) {
	_, err := NewDynamo(nil, "bot", time.Second, nil)
	require.Error(t, err)
	_, err = NewDynamo(newLockTable(), " ", time.Second, nil)
	require.Error(t, err)
}

func TestDynamo_AcquireWritesLease(t *testing.T) {
	table := newLockTable()
	l := newTestDynamoLock(t, table, 0)
	l.now = func() time.Time { return time.UnixMilli(1_700_000_000_000) }

	unlock, err := l.Lock(context.Background(), "conv:1")
	require.NoError(t, err)

	item := table.item("conv:1")
	require.NotNil(t, item)
	require.NotEmpty(t, item["owner"].(*types.AttributeValueMemberS).Value)
	require.Equal(t, int64(1_700_000_030_000), numAttr(item["expiresAt"]))
	require.Equal(t, int64(1_700_003_630), numAttr(item["ttl"]))

	unlock()
	unlock()
	require.Nil(t, table.item("conv:1"))
	require.Equal(t, 1, table.deletes)
}

func TestDynamo_ExcludesAcrossInstances(t *testing.T) {
	table := newLockTable()
	a := newTestDynamoLock(t, table, 0)
	b := newTestDynamoLock(t, table, 0)

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		l := a
		if i%2 == 1 {
			l = b
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(context.Background(), "conv:1")
			if err != nil {
				t.Error(err)
				return
			}
			defer unlock()
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			atomic.AddInt32(&inside, -1)
		}()
	}
	wg.Wait()
	require.Equal(t, int32(1), maxInside)
}

func TestDynamo_TakesOverExpiredLease(t *testing.T) {
	table := newLockTable()
	now := time.UnixMilli(1_700_000_000_000)
	crashed := newTestDynamoLock(t, table, time.Hour)
	crashed.now = func() time.Time { return now }
	_, err := crashed.Lock(context.Background(), "conv:1")
	require.NoError(t, err)

	later := newTestDynamoLock(t, table, time.Hour)
	later.now = func() time.Time { return now.Add(2 * time.Hour) }
	unlock, err := later.Lock(context.Background(), "conv:1")
	require.NoError(t, err)
	unlock()
}

func TestDynamo_RenewsLeaseWhileHeld(t *testing.T) {
	table := newLockTable()
	l := newTestDynamoLock(t, table, 30*time.Millisecond)

	unlock, err := l.Lock(context.Background(), "conv:1")
	require.NoError(t, err)
	first := numAttr(table.item("conv:1")["expiresAt"])
	require.Eventually(t, func() bool { return table.renewCount() >= 2 }, time.Second, 5*time.Millisecond)
	require.Greater(t, numAttr(table.item("conv:1")["expiresAt"]), first)

	unlock()
	renewed := table.renewCount()
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, renewed, table.renewCount())
}

func TestDynamo_Errors(t *testing.T) {
	table := newLockTable()
	table.putErr = errors.New("throttled")
	l := newTestDynamoLock(t, table, 0)
	_, err := l.Lock(context.Background(), "conv:1")
	require.ErrorContains(t, err, "throttled")
	require.Equal(t, 1, table.puts)

	table = newLockTable()
	holder := newTestDynamoLock(t, table, 0)
	unlock, err := holder.Lock(context.Background(), "conv:1")
	require.NoError(t, err)
	defer unlock()

	waiter := newTestDynamoLock(t, table, 0)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = waiter.Lock(ctx, "conv:1")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
