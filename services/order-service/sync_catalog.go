package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	awspkg "github.com/yashrajoria/multivendor-store/pkg/aws"
	ddb "github.com/yashrajoria/multivendor-store/pkg/dynamodb"
	"github.com/yashrajoria/multivendor-store/services/common/logger"
	"github.com/yashrajoria/multivendor-store/services/order-service/database"
	"github.com/yashrajoria/multivendor-store/services/order-service/models"
	"github.com/yashrajoria/multivendor-store/services/order-service/repository"
)

type productSource interface {
	EachProduct(ctx context.Context, batchSize int32, fn func(*models.Product) error) error
}

type productSink interface {
	PutProduct(ctx context.Context, product *models.Product) error
}

// syncCatalog copies every product from src to dst. Products that fail to
// write are logged and skipped; the count of copied products is returned.
func syncCatalog(ctx context.Context, src productSource, dst productSink, batchSize int32, log *zap.Logger) (int, error) {
	var copied, failed int
	err := src.EachProduct(ctx, batchSize, func(p *models.Product) error {
		if p.ID == "" {
			failed++
			log.Warn("skipping product without id", zap.String("title", p.Title))
			return nil
		}
		if err := dst.PutProduct(ctx, p); err != nil {
			failed++
			log.Warn("failed to write product", zap.String("product_id", p.ID), zap.Error(err))
			return nil
		}
		copied++
		if copied%100 == 0 {
			log.Info("catalog sync progress", zap.Int("copied", copied))
		}
		return nil
	})
	if err != nil {
		return copied, err
	}
	log.Info("catalog sync complete", zap.Int("copied", copied), zap.Int("failed", failed))
	return copied, nil
}

// syncCatalogCommand seeds the DynamoDB catalog table from the Mongo
// products collection, for switching CATALOG_BACKEND to dynamodb.
func syncCatalogCommand() *cobra.Command {
	var (
		table     string
		batchSize int32
	)
	cmd := &cobra.Command{
		Use:   "sync-catalog",
		Short: "copy the Mongo product catalog into the DynamoDB catalog table",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := LoadConfig(ctx)
			if err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			if table == "" {
				table = cfg.CatalogTable
			}

			log, err := logger.New(cfg.Env, nil)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			client, db, err := database.ConnectMongo(ctx, cfg.MongoURL, cfg.MongoDB)
			if err != nil {
				return err
			}
			defer func() { _ = database.DisconnectMongo(client) }()

			awsCfg, err := awspkg.LoadAWSConfig(ctx)
			if err != nil {
				return err
			}

			log.Info("syncing catalog", zap.String("table", table), zap.String("mongo_db", cfg.MongoDB))
			_, err = syncCatalog(ctx,
				repository.NewMongoCatalogRepository(db),
				repository.NewDynamoCatalogRepository(ddb.NewClientFromConfig(awsCfg), table),
				batchSize, log)
			return err
		},
	}
	cmd.Flags().StringVar(&table, "table", "", "DynamoDB table (defaults to CATALOG_TABLE)")
	cmd.Flags().Int32Var(&batchSize, "batch-size", 500, "Mongo cursor batch size")
	return cmd
}
