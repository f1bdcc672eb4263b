package bootstrap

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/jackc/pgx/v5/pgxpool"

	appconfig "github.com/wmcproducts/partner-site/internal/config"
	"github.com/wmcproducts/partner-site/internal/leads"
	"github.com/wmcproducts/partner-site/pkg/logging"
)

// Store is the lead repository plus whatever must be closed on shutdown.
type Store struct {
	Repo  leads.Repository
	close func()
}

// Close releases the backing connection pool, if any.
func (s *Store) Close() {
	if s != nil && s.close != nil {
		s.close()
	}
}

// BuildRepository picks the lead store named by STORE_BACKEND.
func BuildRepository(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	switch cfg.StoreBackend {
	case "", "memory":
		if cfg.IsProduction() {
			logger.Warn("using in-memory lead store in production; submissions are lost on restart")
		}
		return &Store{Repo: leads.NewInMemoryRepository()}, nil

	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("bootstrap: DATABASE_URL is required for the postgres store")
		}
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: connect postgres: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("bootstrap: ping postgres: %w", err)
		}
		logger.Info("lead store ready", "backend", "postgres")
		return &Store{Repo: leads.NewPostgresRepository(pool), close: pool.Close}, nil

	case "dynamodb":
		awsCfg, err := LoadAWSConfig(ctx, cfg)
		if err != nil {
			return nil, err
		}
		client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
			o.BaseEndpoint = endpointOverride(cfg)
		})
		logger.Info("lead store ready", "backend", "dynamodb", "table", cfg.LeadsTable)
		return &Store{Repo: leads.NewDynamoRepository(client, cfg.LeadsTable)}, nil
	}
	return nil, fmt.Errorf("bootstrap: unknown STORE_BACKEND %q", cfg.StoreBackend)
}
