package cli

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"studyquiz-service/internal/app"
	"studyquiz-service/internal/config"
	"studyquiz-service/internal/domain"
	"studyquiz-service/internal/infra/memory"
	pgstore "studyquiz-service/internal/infra/postgres"
	redisstore "studyquiz-service/internal/infra/redis"
	transport "studyquiz-service/internal/transport/http"
)

// NewServeCmd builds the CLI subcommand to start the server.
func NewServeCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the quiz engine server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	bankTTL := config.TTLDuration(cfg.Quiz.BankTTL, 10*time.Minute)
	progressTTL := config.TTLDuration(cfg.Quiz.ProgressTTL, 24*time.Hour)

	var (
		bunDB *bun.DB
		pool  *pgxpool.Pool
	)
	if cfg.Postgres.URL != "" {
		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.URL)))
		bunDB = bun.NewDB(sqldb, pgdialect.New())
		defer bunDB.Close()

		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var (
		quizzes  app.QuizRepository
		progress app.ProgressStore
		answers  app.AnswerRepository
		results  app.ResultRepository
		notes    app.NoteRepository
		dir      app.Directory
	)
	if bunDB != nil {
		quizzes = pgstore.NewQuizRepository(bunDB, pool)
		progress = pgstore.NewProgressStore(bunDB)
		answers = pgstore.NewAnswerRepository(bunDB)
		results = pgstore.NewResultRepository(bunDB)
		notes = pgstore.NewNoteRepository(bunDB)
		dir = pgstore.NewDirectory(bunDB)
	} else {
		quizzes = memory.NewQuizRepository()
		progress = memory.NewProgressStore()
		answers = memory.NewAnswerRepository()
		results = memory.NewResultRepository()
		notes = memory.NewNoteRepository()
		dir = memory.NewDirectory([]string{"demo-user"}, []string{"demo-subject"})
	}
	if redisClient != nil {
		quizzes = redisstore.NewBankCache(redisClient, quizzes, bankTTL)
		progress = redisstore.NewProgressStore(redisClient, progressTTL)
	}

	notebook := app.NewNotebookService(notes)
	quizService := app.NewQuizService(quizzes, progress, answers, results, dir, notebook)
	composer := app.NewReviewComposer(notes, quizService)

	if bunDB == nil {
		seedDemoQuiz(ctx, quizService)
	}

	wsHandler := transport.NewWSHandler(quizService)
	apiHandler := transport.NewAPIHandler(quizService, notebook, composer)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	apiHandler.Register(mux)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting studyquiz service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// seedDemoQuiz stores a small bank so the in-memory mode is usable out of the
// box; production banks arrive from the AI generation pipeline upstream.
func seedDemoQuiz(ctx context.Context, service *app.QuizService) {
	id, err := service.CreateQuiz(ctx, "demo-user", "demo-subject", []domain.Question{
		{
			Ordinal:          0,
			Text:             "Which protocol resolves hostnames to IP addresses?",
			Options:          []string{"DHCP", "DNS", "ARP", "NAT"},
			CorrectIndex:     1,
			Explanation:      "DNS maps names to addresses.",
			Keyword:          "dns",
			TimeLimitSeconds: 30,
		},
		{
			Ordinal:          1,
			Text:             "What does the L in TLS stand for?",
			Options:          []string{"Layer", "Link", "Lease", "Label"},
			CorrectIndex:     0,
			Explanation:      "TLS is Transport Layer Security.",
			Keyword:          "tls",
			TimeLimitSeconds: 30,
		},
	})
	if err != nil {
		log.Printf("seed demo quiz: %v", err)
		return
	}
	log.Printf("seeded demo quiz %s", id)
}
