package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"greencreditapi/pkg/config"
	"greencreditapi/pkg/rewards"
	"greencreditapi/pkg/store"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := config.Load(); err != nil {
		panic(err)
	}

	logger, err := zap.NewProduction(zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	mongoCli, err := mongo.Connect(options.Client().ApplyURI(config.ENV.MONGO_URI))
	if err != nil {
		panic(err)
	}
	defer mongoCli.Disconnect(context.Background())
	st := store.NewMongo(mongoCli.Database(config.MONGO_DB))

	redisCli := redis.NewClient(&redis.Options{
		Addr:     config.ENV.REDIS_ADDR,
		Username: config.ENV.REDIS_USERNAME,
		Password: config.ENV.REDIS_PASSWORD,
		DB:       0,
	})
	defer redisCli.Close()

	refresh := func() {
		standings, err := rewards.RefreshSnapshot(ctx, st, redisCli, logger)
		if err != nil {
			logger.Error("leaderboard refresh failed", zap.Error(err))
			return
		}
		logger.Info("leaderboard refreshed", zap.Int("entries", len(standings)))
	}

	c := cron.New()
	if _, err := c.AddFunc(config.LEADERBOARD_SCHEDULE, refresh); err != nil {
		panic(err)
	}

	// seed the snapshot so directions are available before the first tick
	refresh()

	c.Start()
	logger.Info("Leaderboard scheduler started", zap.String("schedule", config.LEADERBOARD_SCHEDULE))

	<-ctx.Done()
	<-c.Stop().Done()
	logger.Info("Leaderboard scheduler stopped")

}
