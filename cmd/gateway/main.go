package main

import (
	"context"
	"encoding/base64"
	"log"
	"net/http"
	"os"

	"github.com/zlnvch/canvashub/cache/redis"
	"github.com/zlnvch/canvashub/gateway"
	"github.com/zlnvch/canvashub/mq/sqsmq"
	"github.com/zlnvch/canvashub/service"
	"github.com/zlnvch/canvashub/store/dynamo"
	"golang.org/x/oauth2"
)

const (
	DynamoDBTable      = "CanvasHub"
	SQSPurgeQueue      = "ProjectPurgeQueue"
	DefaultUpstreamURL = "http://localhost:8080"
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

	redirectURL := os.Getenv("OAUTH_REDIRECT_URL")
	var oauthConfigs = map[string]*oauth2.Config{
		"github": {
			ClientID:     os.Getenv("GITHUB_CLIENT_ID"),
			ClientSecret: os.Getenv("GITHUB_CLIENT_SECRET"),
			RedirectURL:  redirectURL,
		},
		"google": {
			ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
			ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
			RedirectURL:  redirectURL,
		},
	}

	jwtSecret, err := base64.StdEncoding.DecodeString(os.Getenv("JWT_SECRET"))
	if err != nil {
		log.Fatalf("Failed to decode base64 jwtSecret: %v", err)
	}

	svc, err := service.NewService(projectStore, projectCache, purgeQueue, oauthConfigs, jwtSecret)
	if err != nil {
		log.Fatalf("Failed to create service: %v", err)
	}

	upstreamURL := os.Getenv("UPSTREAM_URL")
	if upstreamURL == "" {
		upstreamURL = DefaultUpstreamURL
	}
	proxy, err := gateway.NewUpstreamProxy(upstreamURL)
	if err != nil {
		log.Fatalf("Failed to create upstream proxy: %v", err)
	}

	mux := http.NewServeMux()
	gateway.NewHandler(svc, proxy).RegisterRoutes(mux)

	hostPort := "8081"
	if p := os.Getenv("HOST_PORT"); p != "" {
		hostPort = p
	}
	log.Printf("Starting gateway on host port: %s\n", hostPort)
	log.Fatal(http.ListenAndServe(":"+hostPort, mux))
}
