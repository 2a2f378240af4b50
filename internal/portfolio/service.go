package portfolio

import (
	"context"
	"log/slog"
)

// Service combines the loader and the per-chat snapshot store. It is
// the single source of truth the bot handlers render from.
type Service struct {
	loader *Loader
	store  *Store
	log    *slog.Logger
}

// NewService constructs a Service.
func NewService(loader *Loader, store *Store, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}

	return &Service{
		loader: loader,
		store:  store,
		log:    log,
	}
}

// Current returns the stored snapshot for the chat, loading a fresh
// one when none is cached yet.
func (s *Service) Current(ctx context.Context, chatID int64) (*Snapshot, error) {
	snapshot, err := s.store.Get(ctx, chatID)
	if err != nil {
		s.log.Warn("snapshot store read failed, forcing reload",
			slog.Int64("chat_id", chatID),
			slog.Any("error", err),
		)
	}
	if snapshot != nil {
		return snapshot, nil
	}

	return s.Reload(ctx, chatID)
}

// Reload re-runs the full parallel fetch and replaces the stored
// snapshot. Nothing is stored when the load fails, so the previous
// snapshot stays visible.
func (s *Service) Reload(ctx context.Context, chatID int64) (*Snapshot, error) {
	snapshot, err := s.loader.Load(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.store.Set(ctx, chatID, snapshot); err != nil {
		s.log.Error("failed to store snapshot",
			slog.Int64("chat_id", chatID),
			slog.Any("error", err),
		)
	}

	return snapshot, nil
}
