package service

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"time"

	"github.com/fanpost/kanva/internal/domain"
	"github.com/fanpost/kanva/internal/metrics"
	"github.com/fanpost/kanva/internal/repository"
	"github.com/fanpost/kanva/internal/storage"
	"github.com/google/uuid"
)

const (
	// DefaultMigrationBatchSize is how many templates a migration pass
	// loads at once.
	DefaultMigrationBatchSize = 100

	// assetURLExpiry is how long presigned asset URLs stay valid.
	assetURLExpiry = time.Hour
)

// =============================================================================
// Interface Definition
// =============================================================================

// TemplateService manages the graphic templates of an owner.
type TemplateService interface {
	ListTemplates(ctx context.Context, ownerID uuid.UUID) ([]domain.Template, error)

	// GetTemplate returns domain.ENOTFOUND for templates of other owners
	// too, so IDs cannot be probed.
	GetTemplate(ctx context.Context, ownerID, templateID uuid.UUID) (*domain.Template, error)

	// CreateTemplate stores a new template. Legacy payloads are upgraded to
	// the current schema on the way in.
	CreateTemplate(ctx context.Context, ownerID uuid.UUID, in domain.TemplateInput) (*domain.Template, error)

	UpdateTemplate(ctx context.Context, ownerID, templateID uuid.UUID, in domain.TemplateInput) (*domain.Template, error)

	DeleteTemplate(ctx context.Context, ownerID, templateID uuid.UUID) error

	// UploadAsset stores an image for a template and, where possible, a
	// JPEG thumbnail next to it.
	UploadAsset(ctx context.Context, ownerID, templateID uuid.UUID, filename, contentType string, data io.Reader) (*domain.TemplateAsset, error)

	// MigrateAll upgrades every stored template below the current schema.
	// With dryRun set nothing is written and the report says what would be.
	MigrateAll(ctx context.Context, dryRun bool, batchSize int) (*domain.TemplateMigrationReport, error)
}

// =============================================================================
// Implementation
// =============================================================================

type templateService struct {
	store      repository.Store
	storage    storage.Storage
	thumbnails ThumbnailProcessor
	logger     *slog.Logger
}

// NewTemplateService creates a new TemplateService. files may be nil when
// uploads are disabled.
func NewTemplateService(store repository.Store, files storage.Storage, thumbnails ThumbnailProcessor, logger *slog.Logger) TemplateService {
	if thumbnails == nil {
		thumbnails = NewImagingProcessor()
	}
	return &templateService{
		store:      store,
		storage:    files,
		thumbnails: thumbnails,
		logger:     logger,
	}
}

func (s *templateService) ListTemplates(ctx context.Context, ownerID uuid.UUID) ([]domain.Template, error) {
	const op = "TemplateService.ListTemplates"

	rows, err := s.store.ListTemplatesByUser(ctx, ownerID)
	if err != nil {
		return nil, storeError(err, op, "failed to list templates")
	}

	templates := make([]domain.Template, len(rows))
	for i, row := range rows {
		templates[i] = *toTemplate(row)
	}
	return templates, nil
}

func (s *templateService) GetTemplate(ctx context.Context, ownerID, templateID uuid.UUID) (*domain.Template, error) {
	const op = "TemplateService.GetTemplate"

	row, err := s.ownedTemplate(ctx, op, ownerID, templateID)
	if err != nil {
		return nil, err
	}
	return toTemplate(row), nil
}

func (s *templateService) CreateTemplate(ctx context.Context, ownerID uuid.UUID, in domain.TemplateInput) (*domain.Template, error) {
	const op = "TemplateService.CreateTemplate"

	data, err := prepareTemplateData(op, &in)
	if err != nil {
		return nil, err
	}

	row, err := s.store.CreateTemplate(ctx, repository.CreateTemplateParams{
		UserID:        ownerID,
		Name:          in.Name,
		Kind:          string(in.Kind),
		Data:          data,
		SchemaVersion: domain.TemplateSchemaCurrent,
	})
	if err != nil {
		return nil, storeError(err, op, "failed to create template")
	}

	s.logger.Info("Template created",
		"user_id", ownerID,
		"template_id", row.ID,
	)
	return toTemplate(row), nil
}

func (s *templateService) UpdateTemplate(ctx context.Context, ownerID, templateID uuid.UUID, in domain.TemplateInput) (*domain.Template, error) {
	const op = "TemplateService.UpdateTemplate"

	data, err := prepareTemplateData(op, &in)
	if err != nil {
		return nil, err
	}

	row, err := s.store.UpdateTemplate(ctx, repository.UpdateTemplateParams{
		ID:            templateID,
		UserID:        ownerID,
		Name:          in.Name,
		Kind:          string(in.Kind),
		Data:          data,
		SchemaVersion: domain.TemplateSchemaCurrent,
	})
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, domain.NotFound(op, "template", templateID.String())
		}
		return nil, storeError(err, op, "failed to update template")
	}
	return toTemplate(row), nil
}

func (s *templateService) DeleteTemplate(ctx context.Context, ownerID, templateID uuid.UUID) error {
	const op = "TemplateService.DeleteTemplate"

	n, err := s.store.DeleteTemplate(ctx, repository.DeleteTemplateParams{
		ID:     templateID,
		UserID: ownerID,
	})
	if err != nil {
		return storeError(err, op, "failed to delete template")
	}
	if n == 0 {
		return domain.NotFound(op, "template", templateID.String())
	}

	s.logger.Info("Template deleted",
		"user_id", ownerID,
		"template_id", templateID,
	)
	return nil
}

func (s *templateService) UploadAsset(ctx context.Context, ownerID, templateID uuid.UUID, filename, contentType string, data io.Reader) (*domain.TemplateAsset, error) {
	const op = "TemplateService.UploadAsset"

	if s.storage == nil {
		return nil, domain.Unavailable(nil, op, "File uploads are not available.")
	}
	if _, err := s.ownedTemplate(ctx, op, ownerID, templateID); err != nil {
		return nil, err
	}

	// Buffer the upload: it is sniffed, stored and thumbnailed.
	body, err := io.ReadAll(io.LimitReader(data, domain.MaxTemplateAssetSize+1))
	if err != nil {
		return nil, domain.Internal(err, op, "failed to read upload")
	}
	if len(body) == 0 {
		return nil, domain.NewValidationError(op, "file", "File is empty")
	}
	if len(body) > domain.MaxTemplateAssetSize {
		return nil, domain.Errorf(domain.ETOOLARGE, op, "Images must be %d MB or smaller.", domain.MaxTemplateAssetSize/(1024*1024))
	}

	contentType = storage.DetectContentType(contentType, filename, bytes.NewReader(body))
	if !storage.IsAllowedImageType(contentType) {
		return nil, domain.NewValidationError(op, "file", "Only JPEG, PNG, WebP and GIF images are supported")
	}
	if filename == "" {
		filename = "asset" + storage.ExtensionForContentType(contentType)
	}

	key := storage.TemplateAssetKey(ownerID, templateID, filename)
	if err := s.storage.Put(ctx, key, bytes.NewReader(body), storage.PutOptions{
		ContentType: contentType,
		MaxSize:     domain.MaxTemplateAssetSize,
	}); err != nil {
		return nil, fileError(err, op, "failed to store image")
	}

	asset := &domain.TemplateAsset{
		Key:         key,
		ContentType: contentType,
		Size:        int64(len(body)),
	}
	if asset.URL, err = s.storage.URL(ctx, key, assetURLExpiry); err != nil {
		return nil, fileError(err, op, "failed to resolve image URL")
	}

	// A missing thumbnail only degrades the editor preview.
	thumb, width, height, err := s.thumbnails.GenerateThumbnail(bytes.NewReader(body), ThumbnailMaxWidth, ThumbnailMaxHeight)
	if err != nil {
		s.logger.Warn("Thumbnail generation failed",
			"key", key,
			"error", err,
		)
		return asset, nil
	}
	asset.Width, asset.Height = width, height

	thumbKey := storage.TemplateThumbnailKey(key)
	if err := s.storage.Put(ctx, thumbKey, bytes.NewReader(thumb), storage.PutOptions{
		ContentType: "image/jpeg",
		Overwrite:   true,
	}); err != nil {
		s.logger.Warn("Thumbnail upload failed",
			"key", thumbKey,
			"error", err,
		)
		return asset, nil
	}
	asset.ThumbnailKey = thumbKey
	if url, err := s.storage.URL(ctx, thumbKey, assetURLExpiry); err == nil {
		asset.ThumbnailURL = url
	}

	s.logger.Info("Template asset uploaded",
		"user_id", ownerID,
		"template_id", templateID,
		"key", key,
		"size", asset.Size,
	)
	return asset, nil
}

func (s *templateService) MigrateAll(ctx context.Context, dryRun bool, batchSize int) (*domain.TemplateMigrationReport, error) {
	const op = "TemplateService.MigrateAll"

	if batchSize <= 0 {
		batchSize = DefaultMigrationBatchSize
	}

	report := &domain.TemplateMigrationReport{DryRun: dryRun}

	// Keyset pagination: failed rows stay below the current schema and must
	// not be fetched again.
	var after uuid.UUID
	for {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		rows, err := s.store.ListTemplatesBelowSchema(ctx, repository.ListTemplatesBelowSchemaParams{
			SchemaVersion: domain.TemplateSchemaCurrent,
			AfterID:       after,
			Limit:         int32(batchSize),
		})
		if err != nil {
			return report, storeError(err, op, "failed to list templates")
		}

		for _, row := range rows {
			report.Scanned++
			s.migrateOne(ctx, row, dryRun, report)
			after = row.ID
		}

		if len(rows) < batchSize {
			break
		}
	}

	s.logger.Info("Template migration finished",
		"dry_run", dryRun,
		"scanned", report.Scanned,
		"migrated", report.Migrated,
		"skipped", report.Skipped,
		"failed", len(report.Failed),
	)
	return report, nil
}

// migrateOne converts one row and records the outcome in report.
func (s *templateService) migrateOne(ctx context.Context, row repository.Template, dryRun bool, report *domain.TemplateMigrationReport) {
	fail := func(err error) {
		if report.Failed == nil {
			report.Failed = make(map[string]string)
		}
		report.Failed[row.ID.String()] = err.Error()
		metrics.TemplatesMigrated.WithLabelValues("failed").Inc()
		s.logger.Warn("Template migration failed",
			"template_id", row.ID,
			"error", err,
		)
	}

	data, changed, err := domain.MigrateTemplateData(row.Data)
	if err != nil {
		fail(err)
		return
	}
	if dryRun {
		report.Migrated++
		return
	}

	n, err := s.store.MigrateTemplateData(ctx, repository.MigrateTemplateDataParams{
		ID:            row.ID,
		Data:          data,
		SchemaVersion: domain.TemplateSchemaCurrent,
	})
	if err != nil {
		fail(err)
		return
	}
	if n == 0 || !changed {
		// Already migrated concurrently, or the payload was current and
		// only the version column lagged.
		report.Skipped++
		metrics.TemplatesMigrated.WithLabelValues("skipped").Inc()
		return
	}

	report.Migrated++
	metrics.TemplatesMigrated.WithLabelValues("migrated").Inc()
}

// ownedTemplate loads a template and hides templates of other owners.
func (s *templateService) ownedTemplate(ctx context.Context, op string, ownerID, templateID uuid.UUID) (repository.Template, error) {
	row, err := s.store.GetTemplateByID(ctx, templateID)
	if err != nil {
		if repository.IsNotFound(err) {
			return repository.Template{}, domain.NotFound(op, "template", templateID.String())
		}
		return repository.Template{}, storeError(err, op, "failed to load template")
	}
	if row.UserID != ownerID {
		return repository.Template{}, domain.NotFound(op, "template", templateID.String())
	}
	return row, nil
}

// prepareTemplateData validates the input and returns its payload in the
// current schema.
func prepareTemplateData(op string, in *domain.TemplateInput) (json.RawMessage, error) {
	if err := in.Validate(op); err != nil {
		return nil, err
	}
	data, _, err := domain.MigrateTemplateData(in.Data)
	if err != nil {
		return nil, domain.NewValidationError(op, "data", "Unsupported template format")
	}
	return data, nil
}

func toTemplate(row repository.Template) *domain.Template {
	return &domain.Template{
		ID:            row.ID,
		UserID:        row.UserID,
		Name:          row.Name,
		Kind:          domain.TemplateKind(row.Kind),
		Data:          row.Data,
		SchemaVersion: int(row.SchemaVersion),
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}
}

// fileError maps storage failures to domain errors. Anything that is not a
// permanent rejection is an outage the client may retry.
func fileError(err error, op, message string) error {
	switch {
	case storage.IsTooLarge(err):
		return domain.Errorf(domain.ETOOLARGE, op, "Images must be %d MB or smaller.", domain.MaxTemplateAssetSize/(1024*1024))
	case storage.IsPermanent(err):
		return domain.Internal(err, op, message)
	default:
		return domain.Unavailable(err, op, "File storage is temporarily unavailable. Please try again.")
	}
}
