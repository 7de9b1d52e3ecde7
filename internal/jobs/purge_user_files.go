package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fanpost/kanva/internal/storage"
	"github.com/fanpost/kanva/internal/worker"
)

// PurgeUserFilesHandler removes a deleted user's uploads.
type PurgeUserFilesHandler struct {
	storage storage.Storage
	logger  *slog.Logger
}

// NewPurgeUserFilesHandler creates a new handler for file purge jobs.
func NewPurgeUserFilesHandler(store storage.Storage, logger *slog.Logger) *PurgeUserFilesHandler {
	return &PurgeUserFilesHandler{
		storage: store,
		logger:  logger,
	}
}

// Type returns the job type identifier.
func (h *PurgeUserFilesHandler) Type() string {
	return worker.JobTypePurgeUserFiles
}

// Handle deletes every object below the user's prefix. The prefix must be
// exactly the user's own prefix; anything else is rejected permanently.
func (h *PurgeUserFilesHandler) Handle(ctx context.Context, payload []byte) error {
	var p worker.PurgeUserFilesPayload
	if err := worker.DecodePayload(payload, &p); err != nil {
		return err
	}

	expected := storage.UserPrefix(p.UserID)
	if p.Prefix == "" {
		p.Prefix = expected
	}
	if p.Prefix != expected || !strings.HasSuffix(p.Prefix, "/") {
		return worker.NewPermanentError(fmt.Errorf("purge user files: prefix %q does not belong to user %s", p.Prefix, p.UserID))
	}

	n, err := h.storage.DeletePrefix(ctx, p.Prefix)
	if err != nil {
		err = fmt.Errorf("purge user files %s: %w", p.UserID, err)
		if storage.IsPermanent(err) {
			return worker.NewPermanentError(err)
		}
		return err
	}

	h.logger.Info("Purged user files",
		"user_id", p.UserID,
		"prefix", p.Prefix,
		"files", n,
	)
	return nil
}
