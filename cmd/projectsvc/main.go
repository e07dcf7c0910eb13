package main

import (
	"context"
	"encoding/base64"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/zlnvch/canvashub/api"
	"github.com/zlnvch/canvashub/cache/redis"
	"github.com/zlnvch/canvashub/mq/sqsmq"
	"github.com/zlnvch/canvashub/store/dynamo"
)

const (
	DynamoDBTable        = "CanvasHub"
	SQSPurgeQueue        = "ProjectPurgeQueue"
	DefaultAllowedOrigin = "*"
)

func main() {
	ctx := context.Background()
	devMode := os.Getenv("DEV_MODE") == "true"

	projectStore, err := dynamo.NewDynamoProjectStore(ctx, devMode, os.Getenv("DYNAMODB_ENDPOINT"), DynamoDBTable)
	if err != nil {
		log.Fatalf("Failed to create dynamodb store: %v", err)
	}

	purgeQueue, err := sqsmq.NewSQSMessageQueue(ctx, devMode, os.Getenv("SQS_ENDPOINT"), SQSPurgeQueue)
	if err != nil {
		log.Fatalf("Failed to create SQS MQ: %v", err)
	}

	projectCache, err := redis.NewRedisProjectCache(ctx, devMode, os.Getenv("REDIS_ENDPOINT"))
	if err != nil {
		log.Fatalf("Failed to create redis cache: %v", err)
	}

	jwtSecret, err := base64.StdEncoding.DecodeString(os.Getenv("JWT_SECRET"))
	if err != nil {
		log.Fatalf("Failed to decode base64 jwtSecret: %v", err)
	}

	shutdownCtx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	canvasHubApi, err := api.NewCanvasHubAPI(projectStore, purgeQueue, projectCache, jwtSecret, shutdownCtx)
	if err != nil {
		log.Fatalf("Failed to create canvashub api: %v", err)
	}

	allowedOrigin := os.Getenv("ALLOWED_ORIGIN")
	if allowedOrigin == "" {
		allowedOrigin = DefaultAllowedOrigin
	}

	mux := http.NewServeMux()
	canvasHubApi.RegisterRoutes(mux, allowedOrigin)

	hostPort := "8080"
	if p := os.Getenv("HOST_PORT"); p != "" {
		hostPort = p
	}
	log.Printf("Starting project service on host port: %s\n", hostPort)
	log.Fatal(http.ListenAndServe(":"+hostPort, mux))
}
