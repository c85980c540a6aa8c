package factory

import (
	"context"
	"fmt"
	"sync"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/kms"

	"pixgate/internal/auth"
	"pixgate/internal/bucketing"
	"pixgate/internal/client"
	"pixgate/internal/config"
	"pixgate/internal/debuglog"
	"pixgate/internal/encryption"
	"pixgate/internal/events"
	"pixgate/internal/handler"
	"pixgate/internal/hashing"
	"pixgate/internal/mailer"
	"pixgate/internal/provider"
	clickhouserepo "pixgate/internal/repository/clickhouse"
	esrepo "pixgate/internal/repository/es"
	redisrepo "pixgate/internal/repository/redis"
	"pixgate/internal/repository/scylla"
	"pixgate/internal/service"
	"pixgate/internal/tls"
	"pixgate/internal/util"
)

// Factory owns the lifecycle of every application dependency: clients,
// repositories, services and handlers, wired leaf-first.
type Factory struct {
	config     *config.Config
	tlsManager *tls.Manager

	redisClient      *client.RedisClient
	scyllaClient     *scylla.Client
	kafkaProducer    *client.KafkaProducer
	esClient         *client.ESClient
	clickhouseClient *client.ClickHouseClient

	hasher    *hashing.Hasher
	encryptor *encryption.Manager
	bucketer  *bucketing.Manager
	ring      *debuglog.Ring

	closeOnce sync.Once
}

// New loads configuration and initializes every client.
func New() (*Factory, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	util.Init(cfg.Environment, cfg.Logging.Level, cfg.Logging.Format)

	f := &Factory{
		config:   cfg,
		bucketer: bucketing.NewManager(cfg.Scylla.UserBuckets, cfg.Scylla.EventBuckets),
		hasher:   hashing.NewHasher(cfg),
		ring:     debuglog.New(debuglog.DefaultCapacity),
	}

	if cfg.Server.EnableTLS {
		f.tlsManager = tls.NewManager(&cfg.Server)
	}

	f.encryptor = encryption.NewManager(cfg, newKMSClient(cfg))

	if err := f.initClients(); err != nil {
		return nil, fmt.Errorf("failed to initialize clients: %w", err)
	}

	util.Info("Factory initialized",
		util.String("environment", cfg.Environment),
		util.Bool("tls_enabled", cfg.Server.EnableTLS),
		util.Bool("kms_enabled", cfg.KMS.Enabled),
		util.Bool("backoffice_enabled", cfg.Server.BackofficeEnabled))

	return f, nil
}

func newKMSClient(cfg *config.Config) *kms.Client {
	if !cfg.KMS.Enabled {
		return nil
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.KMS.Region))
	if err != nil {
		util.Warn("Failed to load AWS config, envelope encryption falls back to local keys",
			util.ErrorField(err))
		return nil
	}
	return kms.NewFromConfig(awsCfg)
}

// initClients brings up all external clients. Outside production a missing
// backing service is a warning, not a startup failure.
func (f *Factory) initClients() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var initErrors []error

	if redisClient, err := client.NewRedisClient(f.config); err != nil {
		initErrors = append(initErrors, fmt.Errorf("redis: %w", err))
	} else {
		f.redisClient = redisClient
		if err := f.redisClient.HealthCheck(ctx); err != nil {
			initErrors = append(initErrors, fmt.Errorf("redis health check: %w", err))
		}
	}

	if scyllaClient, err := scylla.NewClient(f.config); err != nil {
		initErrors = append(initErrors, fmt.Errorf("scylla: %w", err))
	} else {
		f.scyllaClient = scyllaClient
	}

	// The gateway keeps serving without a broker; publishes are logged and
	// dropped.
	if producer, err := client.NewKafkaProducer(f.config); err != nil {
		util.Warn("Kafka producer initialization failed, events disabled", util.ErrorField(err))
	} else {
		f.kafkaProducer = producer
	}

	if esClient, err := client.NewElasticsearchClient(f.config); err != nil {
		initErrors = append(initErrors, fmt.Errorf("elasticsearch: %w", err))
	} else {
		f.esClient = esClient
	}

	if chClient, err := client.NewClickHouseClient(f.config); err != nil {
		initErrors = append(initErrors, fmt.Errorf("clickhouse: %w", err))
	} else {
		f.clickhouseClient = chClient
	}

	if len(initErrors) > 0 {
		if f.config.IsProduction() {
			return fmt.Errorf("critical service initialization failed: %v", initErrors)
		}
		for _, err := range initErrors {
			util.Warn("Service initialization warning", util.ErrorField(err))
		}
	}

	return nil
}

// RouterDeps wires repositories, services and handlers for the HTTP surface.
func (f *Factory) RouterDeps() *handler.RouterDeps {
	cfg := f.config

	sessions := redisrepo.NewSessionCache(f.redisClient)
	impersonations := redisrepo.NewImpersonationStore(f.redisClient, cfg.Session.ImpersonationRetention)
	dedup := redisrepo.NewIdempotencyGuard(f.redisClient, 7*24*time.Hour)

	users := scylla.NewUserRepository(f.scyllaClient, f.bucketer)
	wallets := scylla.NewWalletRepository(f.scyllaClient)
	keys := scylla.NewAPIKeyRepository(f.scyllaClient)

	var auditor *clickhouserepo.AuditRepository
	if f.clickhouseClient != nil {
		auditor = clickhouserepo.NewAuditRepository(f.clickhouseClient, f.bucketer)
	}
	var userIndex *esrepo.UserIndex
	if f.esClient != nil {
		userIndex = esrepo.NewUserIndex(f.esClient, cfg.Elasticsearch.UserIndex)
	}

	publisher := events.NewPublisher(f.kafkaProducer)
	mail := mailer.NewMailer(&cfg.Resend)
	providerClient := provider.NewClient(&cfg.Provider)

	resolver := auth.NewResolver([]byte(cfg.Session.Secret), sessions)

	authService := service.NewAuthService(users, sessions, f.hasher, publisher, cfg.Session)
	userService := service.NewUserService(users, userIndexOrNil(userIndex), mail, f.hasher, publisher)
	walletService := service.NewWalletService(wallets, providerClient)
	keyService := service.NewAPIKeyService(keys)
	impersonationService := service.NewImpersonationService(users, impersonations, auditorOrNil(auditor), publisher, cfg.Session)
	webhookService := service.NewWebhookService(dedup, walletService, relayAuditorOrNil(auditor), f.encryptor, publisher)

	authHandler := handler.NewAuthHandler(authService, userService, resolver, cfg.IsProduction())

	return &handler.RouterDeps{
		Config:     cfg,
		Resolver:   resolver,
		Auth:       authHandler,
		Admin:      handler.NewAdminHandler(userService),
		Backoffice: handler.NewBackofficeHandler(authHandler, userService, impersonationService),
		Pix:        handler.NewPixHandler(walletService),
		Webhook:    handler.NewWebhookHandler(webhookService),
		APIKeys:    handler.NewAPIKeyHandler(keyService),
		KeyService: keyService,
		Debug:      handler.NewDebugHandler(f.ring),
		Ring:       f.ring,
		HealthCheck: func() map[string]string {
			return f.HealthCheck(context.Background())
		},
	}
}

// A nil *T stored in an interface is not a nil interface; these keep the
// services' nil checks meaningful when a backing client is absent.

func userIndexOrNil(idx *esrepo.UserIndex) service.UserSearcher {
	if idx == nil {
		return nil
	}
	return idx
}

func auditorOrNil(a *clickhouserepo.AuditRepository) service.ImpersonationAuditor {
	if a == nil {
		return nil
	}
	return a
}

func relayAuditorOrNil(a *clickhouserepo.AuditRepository) service.RelayAuditor {
	if a == nil {
		return nil
	}
	return a
}

// HealthCheck probes every backing service.
func (f *Factory) HealthCheck(ctx context.Context) map[string]string {
	status := map[string]string{}

	probe := func(name string, err error) {
		if err != nil {
			status[name] = err.Error()
			return
		}
		status[name] = "ok"
	}

	if f.redisClient != nil {
		probe("redis", f.redisClient.HealthCheck(ctx))
	} else {
		status["redis"] = "not initialized"
	}
	if f.scyllaClient != nil {
		probe("scylla", f.scyllaClient.HealthCheck())
	} else {
		status["scylla"] = "not initialized"
	}
	if f.esClient != nil {
		probe("elasticsearch", f.esClient.HealthCheck())
	} else {
		status["elasticsearch"] = "not initialized"
	}
	if f.clickhouseClient != nil {
		probe("clickhouse", f.clickhouseClient.HealthCheck(ctx))
	} else {
		status["clickhouse"] = "not initialized"
	}
	if f.kafkaProducer != nil {
		probe("kafka", f.kafkaProducer.HealthCheck(ctx))
	} else {
		status["kafka"] = "disabled"
	}

	return status
}

func (f *Factory) Config() *config.Config {
	return f.config
}

func (f *Factory) TLSManager() *tls.Manager {
	return f.tlsManager
}

// Close shuts the clients down in reverse dependency order.
func (f *Factory) Close() error {
	f.closeOnce.Do(func() {
		util.Info("Shutting down factory")

		if f.kafkaProducer != nil {
			if err := f.kafkaProducer.Close(); err != nil {
				util.Error("Failed to close Kafka producer", util.ErrorField(err))
			}
		}
		if f.clickhouseClient != nil {
			if err := f.clickhouseClient.Close(); err != nil {
				util.Error("Failed to close ClickHouse client", util.ErrorField(err))
			}
		}
		if f.esClient != nil {
			f.esClient.Close()
		}
		if f.scyllaClient != nil {
			f.scyllaClient.Close()
		}
		if f.redisClient != nil {
			if err := f.redisClient.Close(); err != nil {
				util.Error("Failed to close Redis client", util.ErrorField(err))
			}
		}
		if f.encryptor != nil {
			f.encryptor.ClearCache()
		}

		util.Sync()
	})
	return nil
}
