package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"newsrag/api"
	"newsrag/chat"
	"newsrag/common"
	"newsrag/config"
	"newsrag/embeddings"
	"newsrag/generation"
	"newsrag/ingest"
	"newsrag/kafka"
	"newsrag/retrieval"
	"newsrag/vectorstore"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables from .env if present (non-fatal if missing)
	_ = godotenv.Load()

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	embedder := embeddings.NewDefaultProvider(os.Getenv("EMBED_MODEL"))
	if embedder == nil {
		log.Fatal("No embedding provider configured: set COHERE_API_KEY or JINA_API_KEY")
	}
	log.Printf("Embedding provider: %s (%d dims)", embedder.ModelName(), embedder.Dimension())

	generator := generation.NewDefaultGenerator(os.Getenv("GEN_MODEL"))
	if generator == nil {
		log.Fatal("No generation provider configured: set COHERE_API_KEY")
	}
	log.Printf("Generation model: %s", generator.ModelName())

	alias := getEnvOrDefault("QDRANT_COLLECTION", "news_chunks")
	store, err := vectorstore.NewQdrant(vectorstore.QdrantConfig{
		Host:           getEnvOrDefault("QDRANT_HOST", "localhost"),
		Port:           getEnvIntOrDefault("QDRANT_PORT", 6333),
		APIKey:         os.Getenv("QDRANT_API_KEY"),
		CollectionName: alias,
		Dimension:      embedder.Dimension(),
	})
	if err != nil {
		log.Fatalf("Failed to connect to Qdrant: %v", err)
	}
	defer store.Close()

	sessions, err := chat.NewRedisSessionStore(chat.NewRedisSessionConfigFromEnv())
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer sessions.Close()

	searchService := retrieval.NewService(
		retrieval.NewNormalizer(retrieval.DefaultNormalizerConfig()),
		embedder,
		store,
	)

	chatService := chat.NewService(chat.ServiceConfig{
		Sessions:    sessions,
		Retriever:   searchService,
		Generator:   generator,
		TokenBudget: getEnvIntOrDefault("TOKEN_BUDGET", config.DefaultTokenBudget),
		GenParams: generation.Params{
			Temperature: getEnvFloatOrDefault("GEN_TEMPERATURE", 0.3),
			MaxTokens:   getEnvIntOrDefault("GEN_MAX_TOKENS", 500),
		},
	})

	// Raw-article archival is optional; ingestion runs without it.
	var archive *common.ArticleArchive
	if archiveCfg := common.NewArchiveConfigFromEnv(); archiveCfg.Bucket != "" {
		archive, err = common.NewArticleArchive(rootCtx, archiveCfg)
		if err != nil {
			log.Printf("Warning: article archive disabled: %v", err)
			archive = nil
		} else {
			log.Printf("Archiving raw articles to s3://%s/%s", archiveCfg.Bucket, archiveCfg.Prefix)
		}
	}

	pipeline := ingest.NewPipeline(ingest.NewChunker(ingest.ChunkerConfig{}), embedder, archive)
	refresher := ingest.NewRefresher(
		pipeline,
		store,
		alias,
		splitList(os.Getenv("FEEDS")),
		getEnvIntOrDefault("FETCH_COUNT", config.DefaultFetchCount),
		time.Duration(getEnvIntOrDefault("REFRESH_INTERVAL_MINUTES", 0))*time.Minute,
	)
	refresher.Start(rootCtx)
	defer refresher.Stop()

	// Kafka refresh commands are optional; the ticker covers scheduling
	// when no broker is configured.
	if kafkaCfg := kafka.NewConsumerConfigFromEnv(); len(kafkaCfg.Brokers) > 0 {
		kafkaCfg.Handler = kafka.NewRefreshHandler(refresher)
		consumer, err := kafka.NewConsumer(kafkaCfg)
		if err != nil {
			log.Fatalf("Failed to create Kafka consumer: %v", err)
		}
		if err := consumer.Start(rootCtx); err != nil {
			log.Fatalf("Failed to start Kafka consumer: %v", err)
		}
		defer consumer.Close()
	}

	router := api.NewRouter(api.Deps{
		Chat:       chatService,
		Sessions:   sessions,
		Search:     searchService,
		Refresher:  refresher,
		Store:      store,
		AdminToken: os.Getenv("ADMIN_TOKEN"),
	})

	addr := ":8080"
	if v := os.Getenv("PORT"); v != "" {
		addr = ":" + v
	}

	server := &http.Server{Addr: addr, Handler: router}
	go func() {
		log.Printf("Starting API server on %s", addr)
		log.Println("API endpoints available:")
		log.Println("  GET    /health")
		log.Println("  POST   /api/chat")
		log.Println("  POST   /api/search")
		log.Println("  GET    /api/sessions/:id")
		log.Println("  GET    /api/sessions/:id/history")
		log.Println("  DELETE /api/sessions/:id")
		log.Println("  POST   /api/admin/ingest/refresh")
		log.Println("  GET    /api/admin/ingest/status")
		log.Println("  GET    /api/admin/index/count")
		log.Println("  DELETE /api/admin/index")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-rootCtx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvIntOrDefault(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if v, err := strconv.Atoi(val); err == nil {
			return v
		}
	}
	return defaultVal
}

func getEnvFloatOrDefault(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if v, err := strconv.ParseFloat(val, 64); err == nil {
			return v
		}
	}
	return defaultVal
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
