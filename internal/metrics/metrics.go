package metrics

import (
	"context"

	"codeberg.org/mutker/sleepctl/internal/errors"
	"codeberg.org/mutker/sleepctl/internal/logger"
)

type service struct {
	repo Repository
	cfg  Config
}

// No-op implementation
type noopCollector struct{}

func NewService(cfg Config, log logger.Logger) (Collector, error) {
	errFactory := errors.New()

	if err := cfg.Validate(); err != nil {
		return nil, errFactory.Wrap(ErrInvalidConfig, err)
	}

	// If metrics is disabled, return a no-op collector
	if !cfg.Enabled {
		log.Debug().Msg("Cycle recording disabled, using no-op collector")
		return &noopCollector{}, nil
	}

	repo, err := NewRepository(cfg, log)
	if err != nil {
		log.Debug().Err(err).Msg("Failed to create metrics repository")
		return nil, err
	}

	log.Debug().
		Str("db_path", cfg.DBPath).
		Bool("enabled", cfg.Enabled).
		Msg("Metrics service initialized successfully")

	return &service{
		repo: repo,
		cfg:  cfg,
	}, nil
}

func (s *service) Record(ctx context.Context, record *CycleRecord) error {
	errFactory := errors.New()

	if record == nil {
		return errFactory.New(ErrInvalidRecord)
	}

	select {
	case <-ctx.Done():
		return errFactory.Wrap(ErrOperationTimeout, ctx.Err())
	default:
		if err := s.repo.Record(record); err != nil {
			return errFactory.Wrap(ErrRecordFailed, err)
		}
	}

	return nil
}

// Summary flushes pending records so the result covers every cycle seen.
func (s *service) Summary(ctx context.Context) (Summary, error) {
	if err := s.repo.Flush(); err != nil {
		return Summary{}, err
	}
	return s.repo.Summary(ctx)
}

func (s *service) Close() error {
	return s.repo.Close()
}

func (*noopCollector) Record(_ context.Context, _ *CycleRecord) error {
	return nil
}

func (*noopCollector) Summary(_ context.Context) (Summary, error) {
	return Summary{}, nil
}

func (*noopCollector) Close() error {
	return nil
}
