package app

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"snowbeat/internal/auth"
	"snowbeat/internal/config"
	"snowbeat/internal/database"
	"snowbeat/internal/database/snowflake"
	"snowbeat/internal/output"
	"snowbeat/internal/queries"
)

// metadataDatabase is the database selected at connect time; the probe
// queries live in its information_schema.
const metadataDatabase = "SNOWFLAKE"

// Service runs the probe pipeline against a warehouse driver.
type Service struct {
	driver database.Driver
	logger *logrus.Entry
	now    func() time.Time
}

// NewService creates a probe service.
func NewService(driver database.Driver, logger *logrus.Entry) *Service {
	return &Service{
		driver: driver,
		logger: logger,
		now:    time.Now,
	}
}

// Run executes the configured query and writes the result records to w as
// JSON lines. Nothing is written to w unless the complete result set was
// fetched. The connection, once opened, is closed on every path.
func (s *Service) Run(ctx context.Context, cfg config.Config, w io.Writer) error {
	log := s.logger.WithField("query", cfg.Query)

	q, err := queries.Resolve(cfg.Query, cfg.Warehouse)
	if err != nil {
		if errors.Is(err, queries.ErrNotFound) {
			return &ErrUnknownQuery{Name: cfg.Query, Available: queries.Names()}
		}
		return err
	}

	key, err := auth.LoadPrivateKey(cfg.KeypairPath, cfg.Passphrase)
	if err != nil {
		if errors.Is(err, auth.ErrFormat) {
			return &ErrKeyFormat{Cause: err}
		}
		return &ErrKeyFile{Path: cfg.KeypairPath, Cause: err}
	}
	log.Info("private key loaded")

	log.WithFields(logrus.Fields{
		"account":   cfg.Account,
		"warehouse": cfg.Warehouse,
	}).Info("connecting to warehouse")

	err = s.driver.Connect(ctx, database.ConnConfig{
		Account:    cfg.Account,
		User:       cfg.User,
		Warehouse:  cfg.Warehouse,
		Database:   metadataDatabase,
		PrivateKey: key,
	})
	if err != nil {
		if snowflake.IsAuthError(err) {
			return &ErrAuth{Cause: err}
		}
		return &ErrConnection{Cause: err}
	}
	defer func() {
		if cerr := s.driver.Close(); cerr != nil {
			log.WithError(cerr).Warn("closing connection")
		}
	}()
	log.Info("connected")

	if err := s.driver.UseWarehouse(ctx, cfg.Warehouse); err != nil {
		return &ErrQuery{Query: "use_warehouse", Cause: err}
	}

	result, err := s.driver.ExecuteQuery(ctx, q.SQL, q.Args...)
	if err != nil {
		return &ErrQuery{Query: q.Name, Cause: err}
	}
	log.WithFields(logrus.Fields{
		"rows":     result.RowCount,
		"duration": result.Duration.String(),
	}).Info("query executed")

	records := output.Format(result, cfg.Warehouse, cfg.Account, s.now)
	if err := output.Emit(w, records); err != nil {
		return err
	}

	log.WithField("records", len(records)).Info("records emitted")
	return nil
}
