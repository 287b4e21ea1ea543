package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/memphis-pe/oc-api/internal/application/notifier"
	"github.com/memphis-pe/oc-api/internal/config"
	"github.com/memphis-pe/oc-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/memphis-pe/oc-api/internal/infrastructure/jwt"
	"github.com/memphis-pe/oc-api/internal/infrastructure/push"
	"github.com/memphis-pe/oc-api/internal/infrastructure/ruc"
	s3infra "github.com/memphis-pe/oc-api/internal/infrastructure/s3"
	"github.com/memphis-pe/oc-api/internal/infrastructure/smtp"
	"github.com/memphis-pe/oc-api/internal/infrastructure/stream"
	transporthttp "github.com/memphis-pe/oc-api/internal/transport/http"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(context.Background(), dynamoClient, cfg.DynamoTables)

	// JWT provider (optional — graceful fallback if keys are missing).
	var jwtProvider *jwtinfra.Provider
	if p, err := jwtinfra.NewProvider(cfg); err == nil {
		jwtProvider = p
	} else {
		log.Printf("WARN: JWT provider not available: %v", err)
	}

	// S3 store for CSV exports.
	s3Client := s3infra.NewClient(cfg)
	s3Store := s3infra.NewStore(s3Client, cfg.S3BucketName)

	// SMTP mailer.
	mailer := smtp.NewMailer(cfg)

	// SNS push sender (optional — graceful fallback).
	var pushSender push.Sender
	if sender, err := push.NewSender(cfg); err == nil {
		pushSender = sender
	} else {
		log.Printf("WARN: push sender not available: %v", err)
	}

	tokenRepo := dynamo.NewTokenRepo(dynamoClient, cfg.DynamoTables.PushTokens, cfg.DynamoTables.UserDevices)

	notifierSvc := notifier.NewService(tokenRepo, pushSender, mailer, notifier.Options{
		Lists: notifier.DistributionLists{
			Operaciones: cfg.OperationsList,
			Gerencia:    cfg.ManagementList,
			Finanzas:    cfg.FinanceList,
		},
		WebBaseURL: cfg.WebAppBaseURL,
		MailCopies: cfg.SendMailCopies,
	})

	// Change-feed poller: order events drive the notification pipeline.
	pollerCtx, stopPoller := context.WithCancel(context.Background())
	streamsClient := stream.NewClient(cfg)
	poller := stream.NewPoller(dynamoClient, streamsClient, cfg.DynamoTables.Orders, notifierSvc, cfg.StreamPollInterval)
	go poller.Run(pollerCtx)

	deps := &transporthttp.Deps{
		OrderRepo:    dynamo.NewOrderRepo(dynamoClient, cfg.DynamoTables.Orders),
		SupplierRepo: dynamo.NewSupplierRepo(dynamoClient, cfg.DynamoTables.Suppliers),
		UserRepo:     dynamo.NewUserRepo(dynamoClient, cfg.DynamoTables.Users),
		SessionRepo:  dynamo.NewSessionRepo(dynamoClient, cfg.DynamoTables.Sessions),
		TokenRepo:    tokenRepo,
		S3Store:      s3Store,
		Mailer:       mailer,
		PushSender:   pushSender,
		RUCClient:    ruc.NewClient(cfg),
		JWTProvider:  jwtProvider,
	}

	router := transporthttp.NewRouter(cfg, deps, notifierSvc)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	stopPoller()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
