package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"interview/app/agent"
	"interview/app/api"
	"interview/app/middleware"
	"interview/config"
	"interview/model"
	"interview/session"
	"interview/speech"
	"interview/store"
	"interview/vision"
)

const (
	maxBodySize     = 100 << 20
	shutdownTimeout = 10 * time.Second
)

// Deps are the collaborators behind the HTTP surface.
type Deps struct {
	Sessions  *session.Store
	Agent     api.InterviewAgent
	STT       api.Transcriber
	TTS       api.SpeechSynthesizer
	Emotion   api.EmotionAnalyzer
	DB        api.Pinger
	SourceDir string
}

// NewApp builds the fiber application and registers every route.
func NewApp(deps Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: api.ErrorHandler,
		BodyLimit:    maxBodySize,
	})

	app.Use(requestid.New())
	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} ${locals:requestid} ${status} ${method} ${path} ${latency}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowHeaders:  "Origin, Content-Type, Accept, " + middleware.SessionHeader,
		ExposeHeaders: middleware.SessionHeader,
	}))

	var (
		checkHandler     = api.NewCheckHandler(deps.DB)
		interviewHandler = api.NewInterviewHandler(deps.Sessions, deps.Agent)
		audioHandler     = api.NewAudioHandler(deps.STT, deps.Agent)
		videoHandler     = api.NewVideoHandler(deps.Emotion)
		reportHandler    = api.NewReportHandler(deps.Agent)
		ttsHandler       = api.NewTTSHandler(deps.TTS)
		fileHandler      = api.NewFileHandler(deps.SourceDir)
		withSession      = middleware.Session(deps.Sessions)
		check            = app.Group("/check")
	)

	app.Get("/", checkHandler.HandleHealthy)
	check.Get("/healthy", checkHandler.HandleHealthy)
	check.Get("/ready", checkHandler.HandleReady)

	app.Post("/start-interview", interviewHandler.HandleStartInterview)
	app.Get("/get-job-info", withSession, interviewHandler.HandleGetJobInfo)
	app.Get("/generate-problems", withSession, interviewHandler.HandleGenerateProblems)
	app.Delete("/session", withSession, interviewHandler.HandleDeleteSession)

	app.Post("/upload", withSession, audioHandler.HandleUpload)
	app.Post("/analyze-video", withSession, videoHandler.HandleAnalyzeVideo)
	app.Post("/generate-report", withSession, reportHandler.HandleGenerateReport)
	app.Get("/question-tts/:id", withSession, ttsHandler.HandleQuestionTTS)

	app.Post("/documents", fileHandler.HandleUploadDocument)

	return app
}

type Server struct {
	listenAddr string
	app        *fiber.App
	store      *store.PostgresStore
	logger     *slog.Logger
}

// New connects the vector store and wires every provider client.
func New(ctx context.Context, cfg *config.Config) (*Server, error) {
	logger := slog.Default()

	pool, err := store.NewPostgresStore(ctx, cfg.DSN(), cfg.EmbeddingDim)
	if err != nil {
		return nil, fmt.Errorf("connect to Postgres database: %w", err)
	}
	if err := pool.Init(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	embedder, err := model.NewEmbedder(ctx, cfg)
	if err != nil {
		pool.Close()
		return nil, err
	}

	llm := model.NewLLM(model.LLMConfig{
		BaseURL:   cfg.LLMBaseURL,
		APIKey:    cfg.LLMAPIKey,
		Model:     cfg.LLMModel,
		MaxTokens: cfg.LLMMaxTokens,
		Timeout:   cfg.ProviderTimeout,
	})

	var web agent.WebSearcher
	if cfg.WebSearchEnabled {
		web = model.NewWebSearch("", cfg.ProviderTimeout)
	}

	interviewAgent, err := agent.New(agent.Options{
		LLM:                llm,
		Embedder:           embedder,
		Store:              pool,
		Web:                web,
		TopK:               cfg.RetrievalTopK,
		MaxTokens:          cfg.LLMMaxTokens,
		EmbeddingCacheSize: cfg.EmbeddingCacheSize,
		Logger:             logger,
	})
	if err != nil {
		pool.Close()
		return nil, err
	}

	deps := Deps{
		Sessions: session.NewStore(cfg.SessionMax, cfg.SessionTTL),
		Agent:    interviewAgent,
		STT: speech.NewAssemblyAI(speech.AssemblyAIOptions{
			BaseURL:      cfg.AssemblyAIBaseURL,
			APIKey:       cfg.AssemblyAIAPIKey,
			PollInterval: cfg.TranscribePollInterval,
			PollTimeout:  cfg.TranscribeTimeout,
			Timeout:      cfg.ProviderTimeout,
		}),
		TTS: speech.NewElevenLabs(speech.ElevenLabsOptions{
			BaseURL: cfg.ElevenLabsBaseURL,
			APIKey:  cfg.ElevenLabsAPIKey,
			VoiceID: cfg.ElevenLabsVoiceID,
			ModelID: cfg.ElevenLabsModelID,
			Timeout: cfg.ProviderTimeout,
		}),
		Emotion:   vision.NewEmotionClient(cfg.EmotionServiceURL, 2*cfg.ProviderTimeout, 2),
		DB:        pool,
		SourceDir: cfg.LoaderSourceDir,
	}

	return &Server{
		listenAddr: cfg.ServerAddr,
		app:        NewApp(deps),
		store:      pool,
		logger:     logger,
	}, nil
}

func (s *Server) Run() error {
	s.logger.Info("server starting", "addr", s.listenAddr)
	if err := s.app.Listen(s.listenAddr); err != nil {
		s.logger.Error("error to start server", "error", err.Error())
		return err
	}
	return nil
}

func (s *Server) Stop() {
	if err := s.app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		s.logger.Error("server shutdown", "error", err)
	}
	if err := s.store.Close(); err != nil {
		s.logger.Error("close store", "error", err)
	}
	s.logger.Info("server stopped")
}
