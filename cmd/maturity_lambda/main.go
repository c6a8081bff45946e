package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/joho/godotenv"

	"github.com/chris/membership-rewards/pkg/empowerment"
	"github.com/chris/membership-rewards/pkg/notifier"
	dydbstore "github.com/chris/membership-rewards/pkg/storage/dynamodb"
)

var lifecycle *empowerment.Service

const sweepActor = "maturity-sweep"

func init() {
	// Load environment variables for local testing.
	godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		log.Fatalf("unable to load SDK config, %v", err)
	}

	dbClient := dynamodb.NewFromConfig(cfg)

	var n notifier.Notifier = &notifier.Noop{}
	if queueURL := os.Getenv("SQS_NOTIFICATIONS_QUEUE_URL"); queueURL != "" {
		n = notifier.NewSQSNotifier(sqs.NewFromConfig(cfg), queueURL)
	}

	tables := dydbstore.Tables{
		Accounts:         os.Getenv("DYNAMODB_ACCOUNTS_TABLE_NAME"),
		Packages:         os.Getenv("DYNAMODB_PACKAGES_TABLE_NAME"),
		Referrals:        os.Getenv("DYNAMODB_REFERRALS_TABLE_NAME"),
		Ledger:           os.Getenv("DYNAMODB_LEDGER_TABLE_NAME"),
		Events:           os.Getenv("DYNAMODB_EVENTS_TABLE_NAME"),
		Empowerments:     os.Getenv("DYNAMODB_EMPOWERMENTS_TABLE_NAME"),
		EmpowermentAudit: os.Getenv("DYNAMODB_EMPOWERMENT_AUDIT_TABLE_NAME"),
		ShelterRewards:   os.Getenv("DYNAMODB_SHELTER_REWARDS_TABLE_NAME"),
		Renewals:         os.Getenv("DYNAMODB_RENEWALS_TABLE_NAME"),
		BuyBack:          os.Getenv("DYNAMODB_BUYBACK_TABLE_NAME"),
	}

	store := dydbstore.New(dbClient, tables)

	// The sweep never activates memberships, so no engine is wired in.
	lifecycle = empowerment.NewService(store, nil, n, logger)
}

// HandleRequest is triggered by an EventBridge Schedule. It moves every
// empowerment package past its maturity date into pending-maturity review.
func HandleRequest(ctx context.Context) error {
	log.Println("Starting empowerment maturity sweep...")

	moved, err := lifecycle.SweepMaturity(ctx, sweepActor)
	if err != nil {
		log.Printf("ERROR: maturity sweep failed: %v", err)
		return err
	}

	log.Printf("Maturity sweep finished, %d package(s) moved to pending review", moved)
	return nil
}

func main() {
	lambda.Start(HandleRequest)
}
