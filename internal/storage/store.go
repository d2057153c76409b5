package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4/pgxpool"
	"go.uber.org/zap"

	"skillswap/internal/storage/zapadapter"
)

var (
	ErrUserNotExist         = errors.New("user does not exist")
	ErrSameUser             = errors.New("conversation requires two distinct users")
	ErrConversationNotExist = errors.New("conversation does not exist")
	ErrMessageNotExist      = errors.New("message does not exist")
	ErrMessageBadSender     = errors.New("bad sender id")
	ErrMessageBadReceiver   = errors.New("bad receiver id")
	ErrAttachmentNotExist   = errors.New("attachment does not exist")
	ErrSwapNotExist         = errors.New("swap does not exist")
	ErrSessionNotExist      = errors.New("session does not exist")
	ErrSessionFinished      = errors.New("session already completed or cancelled")
	ErrOfferNotExist        = errors.New("offer does not exist")
	ErrBadOfferStatus       = errors.New("bad offer status")
	ErrBadActivityType      = errors.New("bad activity type")
	ErrActivityBadUser      = errors.New("bad acting user id")
)

// Store holds the connection pool all persistence calls go through.
type Store struct {
	logger *zap.SugaredLogger
	db     *pgxpool.Pool
}

// NewStore connects a pgx pool configured from cfg, with query logging
// bridged to the provided zap logger.
func NewStore(ctx context.Context, logger *zap.SugaredLogger, cfg Config, opts ...Option) (*Store, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, err
	}
	poolConfig.ConnConfig.Logger = zapadapter.NewLogger(logger.Desugar())

	for _, opt := range opts {
		opt.apply(poolConfig)
	}

	pool, err := pgxpool.ConnectConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}

	return &Store{
		logger: logger,
		db:     pool,
	}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() {
	s.db.Close()
}
