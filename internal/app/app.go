package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/okezie-c/docingest/internal/config"
	"github.com/okezie-c/docingest/internal/core"
	db "github.com/okezie-c/docingest/internal/core/database"
	"github.com/okezie-c/docingest/internal/core/ingestion_engine"
	"github.com/okezie-c/docingest/internal/core/layout"
	"github.com/okezie-c/docingest/internal/core/llm"
	objectclient "github.com/okezie-c/docingest/internal/core/object-client"
	"github.com/okezie-c/docingest/internal/worker"
)

// App owns every long-lived service handle. Dependencies are constructed
// once at startup and passed by reference into the worker and handlers,
// never reached for as ambient globals.
type App struct {
	Cfg       *config.Config
	DBClient  *db.DatabaseClient
	Layout    core.LayoutEngine
	Extractor *ingestion_engine.DocumentExtractor
	Worker    *worker.Worker // nil when DATABASE_URL is not configured
	Server    *Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	appCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	var layoutEngine core.LayoutEngine
	if cfg.DoclingURL != "" {
		layoutEngine = layout.NewDoclingClient(cfg.DoclingURL)
		log.Printf("Using docling layout sidecar at %s", cfg.DoclingURL)
	} else {
		layoutEngine = layout.NewDocconvEngine()
		log.Println("DOCLING_URL not set; using local docconv extraction (text only)")
	}

	var objClient core.ObjectClient
	if cfg.ObjectStorageConfigured() {
		var err error
		objClient, err = objectclient.NewS3Client(appCtx, cfg)
		if err != nil {
			return nil, err
		}
	} else {
		log.Println("Object storage not configured; extracted images stay inline")
	}

	var vision core.VisionProvider
	if cfg.AIAPIKey != "" {
		v, err := llm.NewGeminiVision(appCtx, cfg.AIAPIKey, cfg.VisionModel)
		if err != nil {
			return nil, fmt.Errorf("couldn't initialize the vision provider: %w", err)
		}
		vision = v
	} else {
		log.Println("Vision provider not configured; image chunks keep generic descriptions")
	}

	pipeCfg := &ingestion_engine.PipelineConfig{
		MaxChunkSize:     cfg.MaxChunkSize,
		OverlapFraction:  cfg.OverlapFraction,
		MinImageBytes:    cfg.MinImageBytes,
		ImageConcurrency: 10,
		StorePacing:      150 * time.Millisecond,
	}

	chunker := ingestion_engine.NewChunker(cfg.MaxChunkSize, cfg.OverlapFraction)
	images := ingestion_engine.NewImagePipeline(vision, objClient, cfg.BucketName, pipeCfg)
	extractor := ingestion_engine.NewDocumentExtractor(chunker, images)

	a := &App{
		Cfg:       cfg,
		Layout:    layoutEngine,
		Extractor: extractor,
	}

	// The worker path needs the job table and the vector index; without a
	// database the API still serves synchronous extraction.
	if cfg.DatabaseURL != "" {
		dbClient, err := db.NewDatabaseClient(appCtx, cfg)
		if err != nil {
			return nil, err
		}
		log.Println("Database initialized and ready.")

		embedder, err := newEmbedder(appCtx, cfg)
		if err != nil {
			return nil, err
		}

		embedStore := ingestion_engine.NewEmbedStore(embedder, dbClient, pipeCfg)
		a.DBClient = dbClient
		a.Worker = worker.New(dbClient, layoutEngine, extractor, embedStore, objClient,
			time.Duration(cfg.PollInterval)*time.Second)
	} else {
		log.Println("DATABASE_URL not configured - worker will not start")
		log.Println("Jobs will not be processed automatically")
	}

	a.Server = NewServer(cfg, layoutEngine, extractor)
	return a, nil
}

func newEmbedder(ctx context.Context, cfg *config.Config) (core.EmbeddingProvider, error) {
	switch cfg.EmbedProvider {
	case "openai":
		emb, err := llm.NewOpenAIEmbedder(cfg.OpenAIAPIKey, cfg.EmbedModel)
		if err != nil {
			return nil, fmt.Errorf("couldn't initialize the embedder: %w", err)
		}
		return emb, nil
	default:
		emb, err := llm.NewGeminiEmbedder(ctx, cfg.AIAPIKey, cfg.EmbedModel)
		if err != nil {
			return nil, fmt.Errorf("couldn't initialize the embedder: %w", err)
		}
		return emb, nil
	}
}

func (a *App) Close() {
	if a.DBClient != nil {
		_ = a.DBClient.Close()
	}
}
