package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/chris/membership-rewards/pkg/empowerment"
	"github.com/chris/membership-rewards/pkg/handlers/accounts"
	"github.com/chris/membership-rewards/pkg/handlers/empowerments"
	"github.com/chris/membership-rewards/pkg/handlers/ledger"
	"github.com/chris/membership-rewards/pkg/handlers/memberships"
	"github.com/chris/membership-rewards/pkg/handlers/packages"
	custommiddleware "github.com/chris/membership-rewards/pkg/middleware"
	"github.com/chris/membership-rewards/pkg/notifier"
	"github.com/chris/membership-rewards/pkg/rewards"
	dydbstore "github.com/chris/membership-rewards/pkg/storage/dynamodb"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		log.Fatalf("unable to load SDK config, %v", err)
	}

	dbClient := dynamodb.NewFromConfig(cfg)
	tables := tablesFromEnv()

	// SQS notifier for post-commit reward and lifecycle events.
	var n notifier.Notifier = &notifier.Noop{}
	if queueURL := os.Getenv("SQS_NOTIFICATIONS_QUEUE_URL"); queueURL != "" {
		n = notifier.NewSQSNotifier(sqs.NewFromConfig(cfg), queueURL)
	} else {
		log.Println("SQS_NOTIFICATIONS_QUEUE_URL not set, notifications disabled")
	}

	store := dydbstore.New(dbClient, tables)
	engine := rewards.NewEngine(store, n, logger)
	lifecycle := empowerment.NewService(store, engine, n, logger)

	accountsHandler := accounts.NewAccountsHandler(store)
	membershipsHandler := memberships.NewMembershipsHandler(engine)
	empowermentsHandler := empowerments.NewEmpowermentsHandler(lifecycle, store)
	ledgerHandler := ledger.NewLedgerHandler(store)
	packagesHandler := packages.NewPackagesHandler(store)

	router := chi.NewRouter()
	router.Use(custommiddleware.NewStructuredLogger(logger))

	router.Route("/accounts", func(r chi.Router) {
		r.Post("/", accountsHandler.CreateAccount)
		r.Get("/", accountsHandler.ListAccounts)
		r.Get("/{accountID}", accountsHandler.GetAccount)
		r.Get("/{accountID}/ledger", ledgerHandler.ListLedgerEntries)
		r.Get("/{accountID}/earnings", ledgerHandler.ListEarningsBySource)
	})
	router.Route("/packages", func(r chi.Router) {
		r.Get("/", packagesHandler.ListPackages)
		r.Get("/{packageID}", packagesHandler.GetPackage)
		r.Put("/{packageID}", packagesHandler.PutPackage)
	})
	router.Route("/memberships", func(r chi.Router) {
		r.Post("/activate", membershipsHandler.Activate)
		r.Post("/renew", membershipsHandler.Renew)
		r.Post("/upgrade", membershipsHandler.Upgrade)
	})
	router.Route("/empowerments", func(r chi.Router) {
		r.Post("/", empowermentsHandler.CreateEmpowerment)
		r.Get("/{empowermentID}", empowermentsHandler.GetEmpowerment)
		r.Get("/{empowermentID}/transitions", empowermentsHandler.ListTransitions)
		r.Post("/{empowermentID}/check-maturity", empowermentsHandler.CheckMaturity)
		r.Post("/{empowermentID}/approve", empowermentsHandler.Approve)
		r.Post("/{empowermentID}/release", empowermentsHandler.Release)
		r.Post("/{empowermentID}/fallback", empowermentsHandler.Fallback)
		r.Post("/{empowermentID}/convert", empowermentsHandler.Convert)
	})
	router.Get("/buyback", ledgerHandler.GetBuyBackPool)
	router.Delete("/ledger/categories/{category}", ledgerHandler.PurgeCategory)

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Starting server on port %s", port)

	if err := http.ListenAndServe(":"+port, router); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// tablesFromEnv reads every table name; the service refuses to start with
// any of them missing.
func tablesFromEnv() dydbstore.Tables {
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
	if tables.Accounts == "" || tables.Packages == "" || tables.Referrals == "" ||
		tables.Ledger == "" || tables.Events == "" || tables.Empowerments == "" ||
		tables.EmpowermentAudit == "" || tables.ShelterRewards == "" ||
		tables.Renewals == "" || tables.BuyBack == "" {
		log.Fatal("One or more DynamoDB table name environment variables are not set")
	}
	return tables
}
