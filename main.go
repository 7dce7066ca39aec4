package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"convoy-bot/announce"
	"convoy-bot/bot"
	"convoy-bot/config"
	"convoy-bot/events"
	"convoy-bot/handlers"
	"convoy-bot/internal/logging"
	"convoy-bot/lang"
	"convoy-bot/storage"
	"convoy-bot/ticket"
)

func main() {
	envFile := flag.String("env", "", "Path to .env file (defaults to ./.env)")
	cleanup := flag.Bool("cleanup", false, "Remove slash commands on shutdown")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	lang.Load(cfg.LangFile, logger)

	ctx := context.Background()

	store, err := storage.Open(ctx, cfg.Store, logger)
	if err != nil {
		logger.Warn("ticket store init failed, audit index disabled", zap.Error(err))
		store = storage.Nop()
	}
	defer func() { _ = store.Close() }()

	locker := ticket.NopLocker()
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unavailable, per-owner lock disabled", zap.Error(err))
		} else {
			locker = ticket.NewRedisLocker(rdb)
			logger.Info("per-owner ticket lock enabled")
		}
	}

	publisher, err := events.NewPublisher(cfg.AMQP, logger)
	if err != nil {
		logger.Warn("event publisher init failed, lifecycle events disabled", zap.Error(err))
		publisher = events.Nop()
	}
	defer func() { _ = publisher.Close() }()

	b, err := bot.New(cfg, logger)
	if err != nil {
		logger.Fatal("failed to create bot", zap.Error(err))
	}
	if err := b.Start(); err != nil {
		logger.Fatal("failed to start bot", zap.Error(err))
	}
	defer b.Stop()

	botID := b.BotUserID()

	manager := ticket.NewManager(b.Session, ticket.ManagerConfig{
		GuildID:        cfg.Discord.GuildID,
		BotID:          botID,
		CategoryName:   cfg.Tickets.CategoryName,
		Prefix:         cfg.Tickets.Prefix,
		StaffRole:      cfg.Tickets.StaffRole,
		AuditChannelID: cfg.Tickets.AuditChannelID,
		DeleteDelay:    cfg.Tickets.DeleteDelay,
		Log:            logger,
		Locker:         locker,
		Store:          store,
		Events:         publisher,
	})

	client := announce.NewClient(cfg.Announce.APIBase, logger)
	pipeline := announce.NewPipeline(b.Session, client, cfg.Discord.GuildID, logger, publisher)

	h := handlers.New(manager, pipeline, logger)
	h.Register(b.Session)

	b.RegisterCommands(handlers.Commands())

	logger.Info("bot is running, press Ctrl+C to exit")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	if *cleanup {
		b.CleanupCommands()
	}
}
