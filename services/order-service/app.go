package main

import (
	"context"
	"fmt"
	"io"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"gorm.io/gorm"

	awspkg "github.com/yashrajoria/multivendor-store/pkg/aws"
	ddb "github.com/yashrajoria/multivendor-store/pkg/dynamodb"
	"github.com/yashrajoria/multivendor-store/services/common/logger"
	"github.com/yashrajoria/multivendor-store/services/order-service/authz"
	"github.com/yashrajoria/multivendor-store/services/order-service/controllers"
	"github.com/yashrajoria/multivendor-store/services/order-service/database"
	"github.com/yashrajoria/multivendor-store/services/order-service/events"
	"github.com/yashrajoria/multivendor-store/services/order-service/kafka"
	"github.com/yashrajoria/multivendor-store/services/order-service/repository"
	"github.com/yashrajoria/multivendor-store/services/order-service/routes"
	"github.com/yashrajoria/multivendor-store/services/order-service/sender"
	"github.com/yashrajoria/multivendor-store/services/order-service/services"
)

// app holds every wired component of one process.
type app struct {
	cfg      *Config
	logger   *zap.Logger
	registry *prometheus.Registry
	metrics  *awspkg.MetricsClient

	mongoClient *mongo.Client
	gormDB      *gorm.DB
	redis       *redis.Client
	producer    *kafka.Producer

	ledger   *services.OrderService
	carts    *services.CartService
	payments *services.PaymentEventHandler
	enforcer *authz.Enforcer

	paymentQueue    *awspkg.SQSQueue
	paymentConsumer *kafka.Consumer

	closers []func() error
}

func bootstrap(ctx context.Context) (*app, error) {
	cfg, err := LoadConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	awsCfg, err := awspkg.LoadAWSConfig(ctx)
	if err != nil {
		return nil, err
	}

	var sink io.Writer
	cw, err := awspkg.NewCloudWatchLogsClient(ctx, awsCfg, serviceName)
	if err != nil {
		return nil, err
	}
	if cw != nil {
		sink = cw
	}
	log, err := logger.New(cfg.Env, sink)
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	a := &app{
		cfg:      cfg,
		logger:   log,
		registry: prometheus.NewRegistry(),
		metrics:  awspkg.NewMetricsClient(awsCfg),
	}
	a.closers = append(a.closers, func() error { _ = log.Sync(); return nil })

	if err := a.wire(ctx, awsCfg); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) wire(ctx context.Context, awsCfg sdkaws.Config) error {
	cfg := a.cfg

	// Mongo backs users and, by default, products and orders.
	mongoClient, db, err := database.ConnectMongo(ctx, cfg.MongoURL, cfg.MongoDB)
	if err != nil {
		return err
	}
	a.mongoClient = mongoClient
	a.closers = append(a.closers, func() error { return database.DisconnectMongo(mongoClient) })

	var orders repository.OrderRepository
	switch cfg.OrderStore {
	case StorePostgres:
		gdb, err := database.ConnectPostgres(cfg.Postgres)
		if err != nil {
			return err
		}
		a.gormDB = gdb
		orders = repository.NewGormOrderRepository(gdb)
	default:
		orders = repository.NewMongoOrderRepository(db)
	}

	var catalog repository.CatalogRepository
	switch cfg.CatalogBackend {
	case CatalogDynamo:
		catalog = repository.NewDynamoCatalogRepository(ddb.NewClientFromConfig(awsCfg), cfg.CatalogTable)
	default:
		catalog = repository.NewMongoCatalogRepository(db)
	}

	rdb, err := database.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return err
	}
	a.redis = rdb
	a.closers = append(a.closers, rdb.Close)
	cartRepo := repository.NewCartRepository(rdb, cfg.CartTTL)

	var notifier services.OTPNotifier
	switch cfg.Notifier {
	case NotifierSQS:
		queue := awspkg.NewSQSQueue(awsCfg, cfg.NotificationQueueURL, a.logger)
		notifier = sender.NewQueueNotifier(queue, cfg.Ledger.OTPTTL)
	default:
		smtp, err := sender.NewSMTPSender(cfg.SMTP)
		if err != nil {
			return err
		}
		notifier = sender.NewMailNotifier(smtp, cfg.Ledger.OTPTTL)
	}

	var fanout events.Fanout
	if len(cfg.KafkaBrokers) > 0 {
		a.producer = kafka.NewProducer(cfg.KafkaBrokers, cfg.OrderEventsTopic, a.logger)
		a.closers = append(a.closers, a.producer.Close)
		fanout = append(fanout, a.producer)
	}
	if cfg.OrderSNSTopicArn != "" {
		fanout = append(fanout, events.NewSNSPublisher(awspkg.NewSNSClient(awsCfg), cfg.OrderSNSTopicArn))
	}

	a.ledger = services.NewOrderService(
		orders, catalog, cartRepo, repository.NewMongoUserRepository(db), notifier, cfg.Ledger, a.logger,
	).
		WithIdempotency(repository.NewIdempotencyRepository(rdb, cfg.IdempotencyTTL)).
		WithMetrics(services.NewLedgerMetrics(a.registry))
	if len(fanout) > 0 {
		a.ledger.WithEvents(fanout)
	}

	a.carts = services.NewCartService(cartRepo, catalog)
	a.payments = services.NewPaymentEventHandler(a.ledger, a.logger)

	if cfg.PaymentEventsQueueURL != "" {
		a.paymentQueue = awspkg.NewSQSQueue(awsCfg, cfg.PaymentEventsQueueURL, a.logger)
	}
	if cfg.PaymentEventsTopic != "" && len(cfg.KafkaBrokers) > 0 {
		a.paymentConsumer = kafka.NewConsumer(cfg.KafkaBrokers, cfg.PaymentEventsTopic, cfg.PaymentConsumerGroup, a.logger)
	}

	a.enforcer, err = authz.NewEnforcer()
	return err
}

func (a *app) router() *gin.Engine {
	return routes.NewRouter(routes.Deps{
		Orders:         controllers.NewOrderController(a.ledger),
		Carts:          controllers.NewCartController(a.carts),
		Enforcer:       a.enforcer,
		Logger:         a.logger,
		Registry:       a.registry,
		CloudWatch:     a.metrics,
		RequestTimeout: a.cfg.RequestTimeout,
		OTPVerifyRate:  a.cfg.OTPVerifyRate,
		OTPVerifyBurst: a.cfg.OTPVerifyBurst,
	})
}

func (a *app) migrate(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	if err := database.EnsureMongoIndexes(ctx, a.mongoClient.Database(a.cfg.MongoDB)); err != nil {
		return err
	}
	if a.gormDB != nil {
		if err := database.Migrate(a.gormDB); err != nil {
			return err
		}
	}
	a.logger.Info("migration complete", zap.String("order_store", a.cfg.OrderStore))
	return nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && a.logger != nil {
			a.logger.Warn("close failed", zap.Error(err))
		}
	}
}
