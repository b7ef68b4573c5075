package main

import (
	"context"
	"errors"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"greencreditapi/pkg/config"
	"greencreditapi/pkg/notify"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	DEFAULT_RATE_LIMIT       = 13
	DAY_LIMIT_WARN_THRESHOLD = 2000
)

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

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

	// init redis
	redisCli := redis.NewClient(&redis.Options{
		Addr:     config.ENV.REDIS_ADDR,
		Username: config.ENV.REDIS_USERNAME,
		Password: config.ENV.REDIS_PASSWORD,
		DB:       0,
	})
	defer redisCli.Close()

	// init aws ses
	sesCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(config.ENV.AWS_REGION))
	if err != nil {
		panic(err)
	}
	sesCli := ses.NewFromConfig(sesCfg)

	dispatcher := &notify.Dispatcher{
		RedisCli: redisCli,
		SESCli:   sesCli,
		Logger:   logger,
	}

	lastQuotaCheck := time.Time{}
	rateLimit := DEFAULT_RATE_LIMIT

	logger.Info("Starting email dispatcher")

	// main loop
	for ctx.Err() == nil {
		// check for daily quota usage
		if time.Since(lastQuotaCheck) > time.Minute*10 {
			quota, err := sesCli.GetSendQuota(ctx, &ses.GetSendQuotaInput{})
			if err != nil {
				logger.Error("GetSendQuota failed", zap.Error(err))
				sleep(ctx, time.Second*10)
			} else {
				rateLimit = max(DEFAULT_RATE_LIMIT, int(math.Floor(quota.MaxSendRate)))
				dailyRemaining := int(quota.Max24HourSend - quota.SentLast24Hours)
				if dailyRemaining < DAY_LIMIT_WARN_THRESHOLD {
					logger.Warn("daily send quota almost used, backing off", zap.Int("remaining", dailyRemaining))
					sleep(ctx, time.Minute*5)
				}
			}
			lastQuotaCheck = time.Now()
		}

		start := time.Now()

		sent, err := dispatcher.Drain(ctx, rateLimit)
		if errors.Is(err, redis.Nil) {
			sleep(ctx, time.Second*10) // nothing queued
			continue
		} else if err != nil {
			logger.Error("draining notification queue failed", zap.Error(err))
			sleep(ctx, time.Minute)
			continue
		}
		logger.Debug("notifications sent", zap.Int("sent", sent))

		// avoid ses rate limit
		if remaining := time.Second - time.Since(start); remaining > 0 {
			sleep(ctx, remaining)
		}
	}

	logger.Info("Email dispatcher stopped")

}
