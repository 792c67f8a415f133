package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/adi-uchiha/jems/chat/chatapi"
	"github.com/adi-uchiha/jems/chat/chatinfra"
	"github.com/adi-uchiha/jems/chat/chatsrv"
	"github.com/adi-uchiha/jems/internal/ai/embeddings"
	"github.com/adi-uchiha/jems/internal/ai/generation"
	"github.com/adi-uchiha/jems/pkg/auth"
	"github.com/adi-uchiha/jems/pkg/logx"
	"github.com/adi-uchiha/jems/resume/resumeinfra"
	"github.com/adi-uchiha/jems/retrieval/retrievalinfra"
	"github.com/adi-uchiha/jems/retrieval/retrievalsrv"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

// Container holds all application dependencies
type Container struct {
	// Infrastructure
	DB    *sqlx.DB
	Redis *redis.Client

	// Services
	TokenService        *auth.TokenService
	RetrieverService    *retrievalsrv.RetrieverService
	TurnService         *chatsrv.TurnService
	ConversationService *chatsrv.ConversationService

	// API Handlers
	ChatHandlers *chatapi.Handlers
}

// NewContainer initializes the dependency injection container
func NewContainer() *Container {
	c := &Container{}
	c.initInfrastructure()
	c.initServices()
	return c
}

func (c *Container) initInfrastructure() {
	// 1. Database Connection
	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbUser := os.Getenv("DB_USER")
	dbPass := os.Getenv("DB_PASS")
	dbName := os.Getenv("DB_NAME")
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		dbHost, dbPort, dbUser, dbPass, dbName)

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		logx.Fatalf("Failed to connect to database: %v", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	c.DB = db

	// 2. Redis Connection
	c.Redis = redis.NewClient(&redis.Options{
		Addr:     os.Getenv("REDIS_ADDR"),
		Password: os.Getenv("REDIS_PASS"),
		DB:       0,
	})
	if _, err := c.Redis.Ping(context.Background()).Result(); err != nil {
		logx.Warnf("Failed to connect to Redis: %v", err)
	}
}

func (c *Container) initServices() {
	openAIKey := os.Getenv("OPENAI_API_KEY")
	if openAIKey == "" {
		logx.Warn("OPENAI_API_KEY is not set, generation and retrieval will fail")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logx.Warn("JWT_SECRET is not set, using default (unsafe for production)")
		jwtSecret = "super-secret-key-please-change-me-in-production"
	}
	c.TokenService = auth.NewTokenService(jwtSecret, "jems", 24*time.Hour)

	// --- Repositories ---
	conversationRepo := chatinfra.NewPostgresConversationRepository(c.DB)
	messageRepo := chatinfra.NewPostgresMessageRepository(c.DB)
	snapshotRepo := resumeinfra.NewPostgresSnapshotRepository(c.DB)
	postingIndex := retrievalinfra.NewPgvectorIndex(c.DB)
	turnState := chatinfra.NewRedisTurnState(c.Redis)

	// --- AI Adapters ---
	embedder := embeddings.NewGenerator(openAIKey, os.Getenv("EMBEDDING_MODEL"))
	generator := generation.NewStreamer(openAIKey, generation.Config{
		Model:       os.Getenv("GENERATION_MODEL"),
		MaxTokens:   int64(envInt("GENERATION_MAX_TOKENS", 2048)),
		Temperature: envFloat("GENERATION_TEMPERATURE", 0.7),
	})

	// --- Domain Services ---
	c.RetrieverService = retrievalsrv.NewRetrieverService(embedder, postingIndex)

	turnOpts := chatsrv.DefaultTurnOptions()
	turnOpts.TopK = envInt("RETRIEVAL_TOP_K", turnOpts.TopK)
	turnOpts.MinScore = envFloat("RETRIEVAL_MIN_SCORE", turnOpts.MinScore)

	c.TurnService = chatsrv.NewTurnService(
		conversationRepo,
		messageRepo,
		turnState,
		c.RetrieverService,
		snapshotRepo,
		generator,
		turnOpts,
	)
	c.ConversationService = chatsrv.NewConversationService(conversationRepo, messageRepo)

	// --- Handlers ---
	c.ChatHandlers = chatapi.NewHandlers(c.TurnService, c.ConversationService)
}

func envInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		logx.Warnf("Invalid %s=%q, using %d", key, raw, fallback)
		return fallback
	}
	return v
}

func envFloat(key string, fallback float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		logx.Warnf("Invalid %s=%q, using %g", key, raw, fallback)
		return fallback
	}
	return v
}
