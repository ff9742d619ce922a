package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Babar-Jawad-Anjum/advanced-auth-api/internal/domain"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// AccountRepo provides typed DynamoDB operations for the accounts table.
type AccountRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewAccountRepo(client *dynamodb.Client, tableName string) *AccountRepo {
	return &AccountRepo{client: client, tableName: tableName}
}

func (r *AccountRepo) Put(ctx context.Context, a *domain.Account) error {
	item, err := attributevalue.MarshalMap(a)
	if err != nil {
		return fmt.Errorf("marshal account: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *AccountRepo) Get(ctx context.Context, accountID string) (*domain.Account, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("account_id", accountID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, domain.ErrAccountNotFound
	}
	var a domain.Account
	if err := attributevalue.UnmarshalMap(out.Item, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.queryGSI(ctx, "email-index", fieldEmail, email)
}

// GetByVerificationCode addresses an account by an outstanding verification
// code. A consumed code no longer exists on any record, so "already used"
// and "never issued" are the same miss.
func (r *AccountRepo) GetByVerificationCode(ctx context.Context, code string) (*domain.Account, error) {
	return r.queryGSI(ctx, "verification_code-index", fieldVerificationCode, code)
}

// GetByResetToken addresses an account by an outstanding reset token.
func (r *AccountRepo) GetByResetToken(ctx context.Context, token string) (*domain.Account, error) {
	return r.queryGSI(ctx, "reset_token-index", fieldResetToken, token)
}

func (r *AccountRepo) Update(ctx context.Context, accountID string, updates map[string]interface{}) error {
	updates[fieldUpdatedAt] = time.Now().UTC().Format(time.RFC3339)
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("account_id", accountID),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return err
}

// SetResetToken records an outstanding password-reset token and its absolute
// expiry on the account. Issuing a new token overwrites any earlier one.
func (r *AccountRepo) SetResetToken(ctx context.Context, accountID, token string, expiresAt int64) error {
	return r.Update(ctx, accountID, map[string]interface{}{
		fieldResetToken:     token,
		fieldResetExpiresAt: expiresAt,
	})
}

// SetLastLogin stamps the account's last successful login.
func (r *AccountRepo) SetLastLogin(ctx context.Context, accountID string, t time.Time) error {
	return r.Update(ctx, accountID, map[string]interface{}{
		fieldLastLoginAt: t.UTC().Format(time.RFC3339),
	})
}

// ConsumeVerificationCode marks the account verified and clears the
// verification fields in a single conditional write. The condition re-checks
// the code and its expiry at write time, so under concurrent requests at most
// one caller consumes a given code; all others see ErrInvalidOrExpiredCode.
func (r *AccountRepo) ConsumeVerificationCode(ctx context.Context, accountID, code string, now time.Time) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("account_id", accountID),
		UpdateExpression: aws.String(
			"SET is_verified = :verified, updated_at = :updated REMOVE verification_code, verification_expires_at"),
		ConditionExpression: aws.String(
			"verification_code = :code AND verification_expires_at > :now"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":verified": &types.AttributeValueMemberBOOL{Value: true},
			":updated":  &types.AttributeValueMemberS{Value: now.UTC().Format(time.RFC3339)},
			":code":     &types.AttributeValueMemberS{Value: code},
			":now":      &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", now.Unix())},
		},
	})
	if isConditionalCheckFailed(err) {
		return domain.ErrInvalidOrExpiredCode
	}
	return err
}

// ConsumeResetToken installs the new password hash and clears the reset
// fields in a single conditional write, with the same at-most-once guarantee
// as ConsumeVerificationCode.
func (r *AccountRepo) ConsumeResetToken(ctx context.Context, accountID, token, newPasswordHash string, now time.Time) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("account_id", accountID),
		UpdateExpression: aws.String(
			"SET password_hash = :hash, updated_at = :updated REMOVE reset_token, reset_expires_at"),
		ConditionExpression: aws.String(
			"reset_token = :token AND reset_expires_at > :now"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":hash":    &types.AttributeValueMemberS{Value: newPasswordHash},
			":updated": &types.AttributeValueMemberS{Value: now.UTC().Format(time.RFC3339)},
			":token":   &types.AttributeValueMemberS{Value: token},
			":now":     &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", now.Unix())},
		},
	})
	if isConditionalCheckFailed(err) {
		return domain.ErrInvalidOrExpiredToken
	}
	return err
}

func (r *AccountRepo) queryGSI(ctx context.Context, index, attr, value string) (*domain.Account, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(index),
		KeyConditionExpression:    aws.String("#a = :v"),
		ExpressionAttributeNames:  map[string]string{"#a": attr},
		ExpressionAttributeValues: map[string]types.AttributeValue{":v": &types.AttributeValueMemberS{Value: value}},
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, domain.ErrAccountNotFound
	}
	var a domain.Account
	if err := attributevalue.UnmarshalMap(out.Items[0], &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func isConditionalCheckFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}
