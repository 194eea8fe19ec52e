// Package identity provisions users in the Cognito user pool.
package identity

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
)

type CognitoClient interface {
	AdminCreateUser(ctx context.Context, in *cognitoidentityprovider.AdminCreateUserInput, opts ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.AdminCreateUserOutput, error)
	AdminSetUserPassword(ctx context.Context, in *cognitoidentityprovider.AdminSetUserPasswordInput, opts ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.AdminSetUserPasswordOutput, error)
}

type Cognito struct {
	client CognitoClient
	poolID string
}

func NewCognito(client CognitoClient, userPoolID string) *Cognito {
	return &Cognito{client: client, poolID: userPoolID}
}

// CreateUser creates the user without sending the invitation message.
func (c *Cognito) CreateUser(ctx context.Context, username, temporaryPassword string) error {
	_, err := c.client.AdminCreateUser(ctx, &cognitoidentityprovider.AdminCreateUserInput{
		UserPoolId:        aws.String(c.poolID),
		Username:          aws.String(username),
		TemporaryPassword: aws.String(temporaryPassword),
		MessageAction:     types.MessageActionTypeSuppress,
	})
	if err != nil {
		return fmt.Errorf("admin create user %s: %w", username, err)
	}
	return nil
}

func (c *Cognito) SetPermanentPassword(ctx context.Context, username, password string) error {
	_, err := c.client.AdminSetUserPassword(ctx, &cognitoidentityprovider.AdminSetUserPasswordInput{
		UserPoolId: aws.String(c.poolID),
		Username:   aws.String(username),
		Password:   aws.String(password),
		Permanent:  true,
	})
	if err != nil {
		return fmt.Errorf("admin set password %s: %w", username, err)
	}
	return nil
}
