package worker

import (
	"StudyVault/internal/storage"
	"StudyVault/internal/task"
	"StudyVault/utils"
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

// ErrPermanent marks a failure that retrying cannot fix.
var ErrPermanent = errors.New("permanent task failure")

// Notifier delivers share notices.
type Notifier interface {
	SendShareNotice(to, fileName, sharedBy string) error
}

// BlobReferences answers whether a file record still points at a blob.
type BlobReferences interface {
	ExistsByStoragePath(ctx context.Context, path string) (bool, error)
}

// Processor executes one task message.
type Processor struct {
	store    storage.Store
	refs     BlobReferences
	notifier Notifier
}

func NewProcessor(store storage.Store, refs BlobReferences, notifier Notifier) *Processor {
	return &Processor{store: store, refs: refs, notifier: notifier}
}

func (p *Processor) Handle(ctx context.Context, msg task.Message) error {
	switch msg.Kind {
	case task.KindBlobReclaim:
		return p.reclaim(ctx, msg)
	case task.KindShareNotice:
		return p.notify(msg)
	default:
		return fmt.Errorf("%w: %v", ErrPermanent, task.ErrUnknownKind)
	}
}

// reclaim deletes a blob whose record commit was reported failed. The commit
// may have landed anyway, so a blob that a record still points at is kept.
func (p *Processor) reclaim(ctx context.Context, msg task.Message) error {
	referenced, err := p.refs.ExistsByStoragePath(ctx, msg.Path)
	if err != nil {
		return fmt.Errorf("reclaim %s: check references: %w", msg.Path, err)
	}
	if referenced {
		log.Info().Str("path", msg.Path).Msg("blob still referenced, reclaim skipped")
		return nil
	}
	if err := p.store.Delete(ctx, msg.Path); err != nil {
		return fmt.Errorf("reclaim %s: %w", msg.Path, err)
	}
	log.Info().Str("path", msg.Path).Msg("orphaned blob reclaimed")
	return nil
}

func (p *Processor) notify(msg task.Message) error {
	if p.notifier == nil {
		log.Debug().Str("file", msg.FileID).Msg("share notice skipped: no notifier")
		return nil
	}
	err := p.notifier.SendShareNotice(msg.Email, msg.FileName, msg.SharedBy)
	if errors.Is(err, utils.ErrSMTPConfig) {
		log.Warn().Str("file", msg.FileID).Msg("share notice skipped: smtp not configured")
		return nil
	}
	if err != nil {
		return fmt.Errorf("share notice %s: %w", msg.FileID, err)
	}
	log.Info().Str("file", msg.FileID).Str("to", msg.Email).Msg("share notice sent")
	return nil
}
