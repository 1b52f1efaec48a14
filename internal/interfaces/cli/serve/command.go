package serve

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"warden/internal/application/modmail/usecases"
	"warden/internal/infrastructure/audit"
	"warden/internal/infrastructure/cache"
	"warden/internal/infrastructure/config"
	"warden/internal/infrastructure/database"
	"warden/internal/infrastructure/discord"
	"warden/internal/infrastructure/email"
	"warden/internal/infrastructure/migration"
	"warden/internal/infrastructure/permission"
	"warden/internal/infrastructure/ratelimit"
	"warden/internal/infrastructure/repository"
	"warden/internal/infrastructure/scheduler"
	"warden/internal/infrastructure/transcript"
	"warden/internal/interfaces/bot"
	httpRouter "warden/internal/interfaces/http"
	sharedDB "warden/internal/shared/db"
	"warden/internal/shared/logger"
	"warden/internal/shared/services/markdown"
	"warden/internal/shared/utils"
)

var (
	env         string
	autoMigrate bool
	modelPath   string
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the modmail relay",
		Long:  `Start the modmail relay: operational HTTP API, event ingest, scheduler jobs.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")
	cmd.Flags().BoolVar(&autoMigrate, "auto-migrate", false, "Automatically run database migrations on startup (not recommended for production)")
	cmd.Flags().StringVar(&modelPath, "rbac-model", "./configs/rbac_model.conf", "Path to the casbin RBAC model file")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	if envVar := os.Getenv("WARDEN_ENV"); envVar != "" {
		env = envVar
	}

	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(&cfg.Logger); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	log := logger.NewLogger()

	log.Infow("starting warden",
		"environment", env,
		"auto_migrate", autoMigrate)

	gin.SetMode(mapEnvToGinMode(env))
	gin.DefaultWriter = io.Discard

	if err := database.Init(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	if autoMigrate {
		if env == "production" {
			log.Warnw("auto-migration is enabled in production environment")
		}
		manager := migration.NewManager(env)
		if err := manager.Migrate(database.Get(), migration.AutoMigrateModels()...); err != nil {
			return fmt.Errorf("auto-migration failed: %w", err)
		}
	}

	db := database.Get()

	ticketRepo := repository.NewModmailTicketRepository(db)
	guardRepo := repository.NewOpenGuardRepository(db)
	mappingRepo := repository.NewMessageMappingRepository(db)
	transcriptRepo := repository.NewTranscriptRepository(db)
	txManager := sharedDB.NewTransactionManager(db)

	enforcer, err := permission.NewEnforcer(db, modelPath, log)
	if err != nil {
		return fmt.Errorf("failed to initialize enforcer: %w", err)
	}
	if err := permission.InitModmailPermissions(enforcer, log); err != nil {
		return fmt.Errorf("failed to seed modmail permissions: %w", err)
	}
	authz := permission.NewModmailAuthorization(enforcer)

	var limiter usecases.FloodLimiter
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.GetAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer redisClient.Close()
		limiter = ratelimit.NewDMFloodLimiter(ratelimit.NewRedisRateLimiter(redisClient), &cfg.Modmail)
		log.Infow("dm flood limiter enabled",
			"per_minute", cfg.Modmail.FloodMessagesPerMinute,
			"per_hour", cfg.Modmail.FloodMessagesPerHour)
	} else {
		log.Infow("redis disabled, dm flood limiting off")
	}

	botService := discord.NewBotService(cfg.Discord)

	dedup := cache.NewRelayDedupCache(cache.RelayDedupConfig{
		TTL:               time.Duration(cfg.Modmail.DedupTTLSeconds) * time.Second,
		SweepInterval:     time.Duration(cfg.Modmail.DedupSweepSeconds) * time.Second,
		EvictionThreshold: cfg.Modmail.DedupEvictionThreshold,
		MaxSize:           cfg.Modmail.DedupMaxSize,
	}, log)
	defer dedup.Shutdown()

	index := cache.NewThreadStateIndex(ticketRepo, log)
	if err := index.Hydrate(context.Background()); err != nil {
		return fmt.Errorf("failed to hydrate thread index: %w", err)
	}

	var mailer transcript.Mailer
	if cfg.Email.Enabled {
		mailer = email.NewSMTPTranscriptMailer(cfg.Email, log)
		log.Infow("transcript mail enabled", "recipient", utils.MaskEmail(cfg.Email.TranscriptRecipient))
	}
	recorder := transcript.NewRecorder(transcriptRepo, markdown.NewService(), mailer, log)

	auditSink := audit.NewLogSink(log)

	settings := usecases.Settings{
		GraceWindow:      cfg.Modmail.ReopenGraceWindow(),
		ParentChannelRef: cfg.Discord.ModmailChannelID,
		StaffRoleID:      cfg.Discord.StaffRoleID,
		CommunityName:    cfg.Discord.CommunityName,
		CommunityIcon:    cfg.Discord.CommunityIconURL,
	}

	openUC := usecases.NewOpenThreadUseCase(
		ticketRepo, guardRepo, botService, authz, index, auditSink, txManager, settings, log)
	closeUC := usecases.NewCloseThreadUseCase(
		ticketRepo, guardRepo, botService, index, recorder, auditSink, txManager, settings, log)
	reopenUC := usecases.NewReopenThreadUseCase(
		ticketRepo, guardRepo, botService, authz, index, auditSink, txManager, openUC, settings, log)
	relayUC := usecases.NewRelayMessageUseCase(
		mappingRepo, botService, dedup, limiter, recorder, auditSink, settings, log)
	listUC := usecases.NewListTicketsUseCase(ticketRepo, log)
	getUC := usecases.NewGetTicketUseCase(ticketRepo, log)
	transcriptUC := usecases.NewGetTranscriptUseCase(transcriptRepo, log)

	janitor := usecases.NewStalePendingJanitor(
		ticketRepo, guardRepo, txManager, auditSink, cfg.Modmail.PendingTimeout(), log)

	sched, err := scheduler.NewSchedulerManager(log)
	if err != nil {
		return fmt.Errorf("failed to initialize scheduler: %w", err)
	}
	if err := sched.RegisterModmailJanitorJobs(janitor, cfg.Modmail.PendingTimeout()); err != nil {
		return fmt.Errorf("failed to register janitor job: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	dispatcher := bot.NewDispatcher(ticketRepo, index, relayUC, cfg.Discord.GuildID, log)

	router := httpRouter.NewRouter(listUC, getUC, transcriptUC, openUC, closeUC, reopenUC, dispatcher, cfg, log)
	router.SetupRoutes()

	srv := &http.Server{
		Addr:         cfg.Server.GetAddr(),
		Handler:      router.GetEngine(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infow("server starting", "address", cfg.Server.GetAddr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-quit:
		log.Infow("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
		return err
	}

	log.Infow("server exited gracefully")
	return nil
}

func mapEnvToGinMode(environment string) string {
	switch environment {
	case "production", "prod":
		return "release"
	case "test", "testing":
		return "test"
	default:
		return "debug"
	}
}
