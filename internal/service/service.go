package service

import (
	"StudyVault/internal/repo"
	"StudyVault/internal/storage"
	"StudyVault/internal/task"
	"StudyVault/utils"
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
)

// Identity is the calling user. Every operation except share resolution is
// scoped to UserID.
type Identity struct {
	UserID uint64
	Email  string
}

// Publisher hands a task to the out-of-band worker.
type Publisher interface {
	Publish(ctx context.Context, msg task.Message) error
}

type Options struct {
	Cache        *utils.ListCache
	Publisher    Publisher
	Metrics      *Metrics
	Tokens       *utils.TokenIssuer
	SignedURLTTL time.Duration
	Now          func() time.Time

	// Pending holds registrations awaiting activation for RegisterTTL.
	Pending     utils.Cache
	Mailer      ActivationMailer
	RegisterTTL time.Duration
}

// Service is the lifecycle engine, sharing resolver and query façade over one
// record store and one object store.
type Service struct {
	repo      *repo.Repository
	store     storage.Store
	cache     *utils.ListCache
	publisher Publisher
	metrics   *Metrics
	tokens    *utils.TokenIssuer
	urlTTL    time.Duration
	now       func() time.Time

	pending     utils.Cache
	mailer      ActivationMailer
	registerTTL time.Duration
}

func New(repository *repo.Repository, store storage.Store, opts Options) *Service {
	ttl := opts.SignedURLTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	registerTTL := opts.RegisterTTL
	if registerTTL <= 0 {
		registerTTL = defaultRegisterTTL
	}
	return &Service{
		repo:      repository,
		store:     store,
		cache:     opts.Cache,
		publisher: opts.Publisher,
		metrics:   opts.Metrics,
		tokens:    opts.Tokens,
		urlTTL:    ttl,
		now:       now,

		pending:     opts.Pending,
		mailer:      opts.Mailer,
		registerTTL: registerTTL,
	}
}

// publish sends msg to the worker. Delivery is best effort.
func (s *Service) publish(ctx context.Context, msg task.Message) {
	if s.publisher == nil {
		log.Debug().Str("kind", msg.Kind).Msg("no publisher configured, task dropped")
		return
	}
	if err := s.publisher.Publish(ctx, msg); err != nil {
		log.Warn().Err(err).Str("kind", msg.Kind).Str("task", msg.ID).Msg("task publish failed")
	}
}

// fromRepo maps record store sentinels onto service errors.
func fromRepo(err error, kind, id string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repo.ErrNotFound):
		return notFoundError(kind, id)
	case errors.Is(err, repo.ErrDuplicate):
		return ErrConflict
	default:
		return err
	}
}
