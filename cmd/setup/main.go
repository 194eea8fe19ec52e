// Command setup runs the one-time provisioning routines:
//
//	setup user   -username alice -password 'S3cret!pass'
//	setup policy -group karya-users -api-arn arn:aws:execute-api:us-east-1:123456789012:abc123
//	setup token  -owner alice
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"karya/internal/bootstrap"
	"karya/internal/config"
	"karya/internal/identity"
	"karya/internal/logger"
	"karya/internal/service"
	"karya/internal/store/dynamo"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: setup <user|policy|token> [flags]")
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}
	config.LoadDotenv()
	boot := config.FromEnv()
	logger.Init(boot.LogLevel, boot.LogJSON)
	ctx := context.Background()

	switch os.Args[1] {
	case "user":
		fs := flag.NewFlagSet("user", flag.ExitOnError)
		username := fs.String("username", "", "user name")
		password := fs.String("password", "", "permanent password")
		_ = fs.Parse(os.Args[2:])

		cfg := config.Load(config.KeyUserPoolID)
		s := newSetup(ctx, cfg)
		if err := s.CreateUser(ctx, *username, *password); err != nil {
			logger.Fatal("create user failed", "error", err)
		}

	case "policy":
		fs := flag.NewFlagSet("policy", flag.ExitOnError)
		group := fs.String("group", "", "user group the policy applies to")
		apiARN := fs.String("api-arn", "", "execute-api ARN prefix of the deployed API")
		_ = fs.Parse(os.Args[2:])

		cfg := config.Load(config.KeyPolicyTableName)
		s := newSetup(ctx, cfg)
		if err := s.SeedPolicy(ctx, *group, *apiARN); err != nil {
			logger.Fatal("seed policy failed", "error", err)
		}

	case "token":
		fs := flag.NewFlagSet("token", flag.ExitOnError)
		owner := fs.String("owner", "", "owner id to put in the subject")
		ttl := fs.Duration("ttl", 24*time.Hour, "token lifetime")
		_ = fs.Parse(os.Args[2:])

		cfg := config.Load(config.KeyJWTSecret)
		if *owner == "" {
			logger.Fatal("owner is required")
		}
		tokens, err := service.NewTokenManager(cfg.JWTSecret, *ttl)
		if err != nil {
			logger.Fatal("token manager", "error", err)
		}
		token, err := tokens.Generate(*owner)
		if err != nil {
			logger.Fatal("failed to generate token", "error", err)
		}
		fmt.Println(token)

	default:
		usage()
	}
}

func newSetup(ctx context.Context, cfg *config.Config) *service.SetupService {
	a, err := bootstrap.LoadAWS(ctx, cfg.AWSEndpointURL)
	if err != nil {
		logger.Fatal("failed to load aws config", "error", err)
	}
	return service.NewSetupService(
		identity.NewCognito(a.Cognito(), cfg.UserPoolID),
		dynamo.NewPolicyStore(a.DynamoDB(), cfg.PolicyTableName),
	)
}
