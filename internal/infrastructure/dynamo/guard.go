package dynamo

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const guardRetention = 30 * 24 * time.Hour

// NotifyGuard stores the last notified status per key with a conditional
// write, so concurrent deliveries of the same webhook notify once.
type NotifyGuard struct {
	client    API
	tableName string
	now       func() time.Time
}

func NewNotifyGuard(client API, tableName string) *NotifyGuard {
	return &NotifyGuard{client: client, tableName: tableName, now: time.Now}
}

// Claim records status for key and reports true, unless status is already
// the recorded one.
func (g *NotifyGuard) Claim(ctx context.Context, key, status string) (bool, error) {
	now := g.now().UTC()
	_, err := g.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(g.tableName),
		Item: map[string]types.AttributeValue{
			fieldGuardKey:   &types.AttributeValueMemberS{Value: key},
			fieldLastStatus: &types.AttributeValueMemberS{Value: status},
			fieldUpdatedAt:  &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
			fieldExpiresAt:  &types.AttributeValueMemberN{Value: strconv.FormatInt(now.Add(guardRetention).Unix(), 10)},
		},
		ConditionExpression:       aws.String("attribute_not_exists(#k) OR #s <> :s"),
		ExpressionAttributeNames:  map[string]string{"#k": fieldGuardKey, "#s": fieldLastStatus},
		ExpressionAttributeValues: map[string]types.AttributeValue{":s": &types.AttributeValueMemberS{Value: status}},
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
