package main

import (
	"context"
	"net/http"
	"time"

	"greencreditapi/internal/api"
	"greencreditapi/internal/router"
	"greencreditapi/pkg/config"
	"greencreditapi/pkg/geocode"
	"greencreditapi/pkg/identity"
	"greencreditapi/pkg/objstore"
	"greencreditapi/pkg/store"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/time/rate"
)

func newLogger() (*zap.Logger, error) {

	opts := []zap.Option{
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	}
	if config.ENV.Prod() {
		return zap.NewProduction(opts...)
	}
	return zap.NewDevelopment(opts...)

}

func main() {

	ctx := context.Background()

	if err := config.Load(); err != nil {
		panic(err)
	}

	h := &api.Handler{}

	// init logger
	logger, err := newLogger()
	if err != nil {
		panic(err)
	}
	logger.Info("Server starting...")
	defer logger.Sync()
	h.Logger = logger

	// init validator
	h.Validate = api.NewValidator()

	// init mongo
	mongoCli, err := mongo.Connect(options.Client().ApplyURI(config.ENV.MONGO_URI))
	if err != nil {
		panic(err)
	}
	defer func() {
		if err = mongoCli.Disconnect(ctx); err != nil {
			panic(err)
		}
	}()
	if err := mongoCli.Ping(ctx, readpref.Primary()); err != nil {
		panic(err)
	}
	mongoStore := store.NewMongo(mongoCli.Database(config.MONGO_DB))
	if err := mongoStore.EnsureIndexes(ctx); err != nil {
		panic(err)
	}
	h.Store = mongoStore

	// init redis
	h.RedisCli = redis.NewClient(&redis.Options{
		Addr:     config.ENV.REDIS_ADDR,
		Username: config.ENV.REDIS_USERNAME,
		Password: config.ENV.REDIS_PASSWORD,
		DB:       0,
	})
	if err := h.RedisCli.Ping(ctx).Err(); err != nil {
		panic(err)
	}

	// init r2
	h.Objects = &objstore.Bucket{
		Cli:           objstore.NewR2Client(config.ENV.CF_R2_API_ENDPOINT, config.ENV.CF_R2_ACCESS_KEY, config.ENV.CF_R2_SECRET_KEY),
		Name:          config.ENV.CF_PROOF_BUCKET,
		PublicBaseUrl: config.ENV.PROOF_PUBLIC_BASE_URL,
	}

	h.Geocoder = geocode.NewClient(config.ENV.GEOCODE_BASE_URL)

	// init identity providers
	h.Google = &identity.GoogleVerifier{ClientId: config.ENV.GOOGLE_CLIENT_ID}
	if config.ENV.FIREBASE_CREDENTIALS_PATH != "" {
		fb, err := identity.InitializeFirebase(ctx, config.ENV.FIREBASE_CREDENTIALS_PATH)
		if err != nil {
			panic(err)
		}
		h.Firebase = fb
		logger.Info("Firebase authentication enabled")
	}

	h.ChatLimiter = api.NewLimiter(rate.Every(time.Second), 5)
	h.SubmitLimiter = api.NewLimiter(rate.Every(10*time.Second), 5)

	logger.Info("Server running on port " + config.ENV.PORT)
	if err := http.ListenAndServe(":"+config.ENV.PORT, router.New(h)); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}

}
