package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/yourname/orderbot/internal/bot"
	"github.com/yourname/orderbot/internal/cache"
	"github.com/yourname/orderbot/internal/config"
	"github.com/yourname/orderbot/internal/db"
	"github.com/yourname/orderbot/internal/logger"
	"github.com/yourname/orderbot/internal/orders"
	"github.com/yourname/orderbot/internal/repo"
	"github.com/yourname/orderbot/internal/sched"
)

func main() {
	_ = godotenv.Load()

	cfg := config.MustLoad()
	logger.Init("orderbot", cfg.Debug)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool := db.MustConnect(ctx, cfg.DatabaseURL)
	defer pool.Close()

	if err := db.ApplyMigrations(ctx, pool, "./migrations"); err != nil {
		log.Fatal().Err(err).Msg("migrations")
	}

	botAPI, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		log.Fatal().Err(err).Msg("bot init")
	}
	botAPI.Debug = false

	loc := cfg.Location()
	rUsers := repo.NewUsers(pool)
	rChats := repo.NewChats(pool)
	rOrders := repo.NewOrders(pool, loc)

	var admins *cache.AdminCache
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Msg("redis unreachable, admin cache disabled")
		} else {
			admins = cache.NewAdminCache(rdb, cfg.AdminCacheTTL)
			defer rdb.Close()
		}
	}

	processor := orders.NewProcessor(rOrders, rChats, loc)
	jobs := sched.NewRegistry(loc)
	defer jobs.StopAll()

	h := bot.NewHandler(botAPI, cfg, rUsers, rChats, processor, jobs, admins)

	if err := h.InitSummaryJobs(ctx); err != nil {
		log.Fatal().Err(err).Msg("init summary jobs")
	}

	// Graceful shutdown
	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		<-ch
		cancel()
	}()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := botAPI.GetUpdatesChan(u)

	log.Info().Str("username", botAPI.Self.UserName).Msg("orderbot started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("shutdown")
			return
		case upd := <-updates:
			h.HandleUpdate(ctx, upd)
		}
	}
}
