package dynamo

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/saverr-hub/internal/config"
	"github.com/saverr-hub/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(t *testing.T, v interface{}) map[string]types.AttributeValue {
	t.Helper()
	m, err := attributevalue.MarshalMap(v)
	require.NoError(t, err)
	return m
}

func TestUserRepo_GetNotFound(t *testing.T) {
	repo := NewUserRepo(&fakeAPI{}, "users")
	_, err := repo.Get(context.Background(), "u1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUserRepo_GetByTelegramID(t *testing.T) {
	api := &fakeAPI{queryOut: []*dynamodb.QueryOutput{{
		Items: []map[string]types.AttributeValue{item(t, domain.User{UserID: "u1", TelegramUserID: 42})},
	}}}
	repo := NewUserRepo(api, "users")

	u, err := repo.GetByTelegramID(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, "u1", u.UserID)

	q := api.queries[0]
	assert.Equal(t, indexTelegramUserID, aws.ToString(q.IndexName))
	assert.Equal(t, map[string]string{"#a": fieldTelegramUserID}, q.ExpressionAttributeNames)
	assert.Equal(t, &types.AttributeValueMemberN{Value: "42"}, q.ExpressionAttributeValues[":v"])
}

func TestUserRepo_GSIMisses(t *testing.T) {
	repo := NewUserRepo(&fakeAPI{}, "users")
	ctx := context.Background()

	_, err := repo.GetByPhone(ctx, "+33600000000")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = repo.GetByCorrelationID(ctx, "01J0")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUserRepo_TransportErrorIsNotNotFound(t *testing.T) {
	repo := NewUserRepo(&fakeAPI{err: errors.New("throttled")}, "users")
	_, err := repo.GetByTelegramID(context.Background(), 42)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
}

func TestUserRepo_UpdateStampsUpdatedAt(t *testing.T) {
	api := &fakeAPI{}
	repo := NewUserRepo(api, "users")

	require.NoError(t, repo.Update(context.Background(), "u1", map[string]interface{}{"kyc_status": domain.VerificationApproved}))
	in := api.updates[0]
	assert.Equal(t, "SET #f0 = :v0, #f1 = :v1", aws.ToString(in.UpdateExpression))
	assert.Equal(t, "kyc_status", in.ExpressionAttributeNames["#f0"])
	assert.Equal(t, fieldUpdatedAt, in.ExpressionAttributeNames["#f1"])
	assert.Equal(t, &types.AttributeValueMemberS{Value: "APPROVED"}, in.ExpressionAttributeValues[":v0"])
}

func TestTransactionRepo_ListByUserFollowsPages(t *testing.T) {
	api := &fakeAPI{queryOut: []*dynamodb.QueryOutput{
		{
			Items:            []map[string]types.AttributeValue{item(t, domain.Transaction{TransactionID: "t3", Status: domain.TxCompleted})},
			LastEvaluatedKey: strKey(fieldTransactionID, "t3"),
		},
		{
			Items: []map[string]types.AttributeValue{item(t, domain.Transaction{TransactionID: "t2", Status: domain.TxProcessing})},
		},
	}}
	repo := NewTransactionRepo(api, "transactions")

	txs, err := repo.ListByUser(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, "t3", txs[0].TransactionID)
	assert.Equal(t, "t2", txs[1].TransactionID)

	require.Len(t, api.queries, 2)
	q := api.queries[0]
	assert.False(t, aws.ToBool(q.ScanIndexForward))
	assert.Equal(t, "#s <> :created", aws.ToString(q.FilterExpression))
	assert.Equal(t, &types.AttributeValueMemberS{Value: "CREATED"}, q.ExpressionAttributeValues[":created"])
	assert.Equal(t, strKey(fieldTransactionID, "t3"), api.queries[1].ExclusiveStartKey)
}

func TestTransactionRepo_ListByUserEmpty(t *testing.T) {
	txs, err := NewTransactionRepo(&fakeAPI{}, "transactions").ListByUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.NotNil(t, txs)
	assert.Empty(t, txs)
}

func TestTransactionRepo_GetAndPut(t *testing.T) {
	api := &fakeAPI{getOut: &dynamodb.GetItemOutput{Item: item(t, domain.Transaction{TransactionID: "t1", Reference: "tx_ref_x"})}}
	repo := NewTransactionRepo(api, "transactions")

	tx, err := repo.Get(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, "tx_ref_x", tx.Reference)

	require.NoError(t, repo.Put(context.Background(), tx))
	assert.Equal(t, "attribute_not_exists(transaction_id)", aws.ToString(api.puts[0].ConditionExpression))

	_, err = NewTransactionRepo(&fakeAPI{}, "transactions").Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestNotifyGuard_Claim(t *testing.T) {
	api := &fakeAPI{}
	g := NewNotifyGuard(api, "notify_guard")

	ok, err := g.Claim(context.Background(), "tx:t1", "PROCESSING")
	require.NoError(t, err)
	assert.True(t, ok)
	in := api.puts[0]
	assert.Equal(t, "attribute_not_exists(#k) OR #s <> :s", aws.ToString(in.ConditionExpression))
	assert.Equal(t, &types.AttributeValueMemberS{Value: "tx:t1"}, in.Item[fieldGuardKey])

	api.putErr = &types.ConditionalCheckFailedException{Message: aws.String("conditional request failed")}
	ok, err = g.Claim(context.Background(), "tx:t1", "PROCESSING")
	require.NoError(t, err)
	assert.False(t, ok)

	api.putErr = errors.New("throttled")
	_, err = g.Claim(context.Background(), "tx:t1", "COMPLETED")
	assert.EqualError(t, err, "throttled")
}

func TestTableDefinitions(t *testing.T) {
	defs := tableDefinitions(config.DynamoTables{
		Users: "users", Transactions: "transactions", Notifications: "notifications", NotifyGuard: "notify_guard",
	})
	require.Len(t, defs, 4)
	names := map[string]bool{}
	for _, d := range defs {
		names[aws.ToString(d.TableName)] = true
	}
	assert.Equal(t, map[string]bool{"users": true, "transactions": true, "notifications": true, "notify_guard": true}, names)
	assert.Len(t, defs[0].GlobalSecondaryIndexes, 3)
}
