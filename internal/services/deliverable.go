package services

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agencyloop/agencyloop-backend/internal/logger"
	"github.com/agencyloop/agencyloop-backend/internal/repos"
	"github.com/agencyloop/agencyloop-backend/internal/types"
)

type CreateDeliverableInput struct {
	Title         string
	Description   string
	Kind          string
	ClientVisible *bool

	// Optional attachment. A failed upload does not fail the create;
	// the result carries the upload error instead.
	File         io.Reader
	FileName     string
	FileMimeType string
}

type CreateDeliverableResult struct {
	Deliverable *types.Deliverable `json:"deliverable"`
	UploadError string             `json:"upload_error,omitempty"`
}

type DeliverableService interface {
	Create(ctx context.Context, orgID uuid.UUID, input CreateDeliverableInput) (*CreateDeliverableResult, error)
	List(ctx context.Context, orgID uuid.UUID) ([]*types.Deliverable, error)
	Complete(ctx context.Context, orgID, deliverableID uuid.UUID) (*types.Deliverable, error)
}

type deliverableService struct {
	db              *gorm.DB
	log             *logger.Logger
	deliverableRepo repos.DeliverableRepo
	bucketService   BucketService
}

func NewDeliverableService(
	db *gorm.DB,
	log *logger.Logger,
	deliverableRepo repos.DeliverableRepo,
	bucketService BucketService,
) DeliverableService {
	serviceLog := log.With("service", "DeliverableService")
	return &deliverableService{
		db:              db,
		log:             serviceLog,
		deliverableRepo: deliverableRepo,
		bucketService:   bucketService,
	}
}

func (ds *deliverableService) Create(ctx context.Context, orgID uuid.UUID, input CreateDeliverableInput) (*CreateDeliverableResult, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, validationErrorf("a deliverable title is required")
	}
	kind := input.Kind
	if kind == "" {
		kind = types.DeliverableKindDeliverable
	}
	switch kind {
	case types.DeliverableKindDeliverable, types.DeliverableKindChange, types.DeliverableKindTest:
	default:
		return nil, validationErrorf("unknown deliverable kind %q", kind)
	}

	clientVisible := true
	if input.ClientVisible != nil {
		clientVisible = *input.ClientVisible
	}
	row := &types.Deliverable{
		ID:            uuid.New(),
		OrgID:         orgID,
		Title:         title,
		Description:   strings.TrimSpace(input.Description),
		Kind:          kind,
		Status:        types.DeliverableStatusInProgress,
		ClientVisible: clientVisible,
	}

	result := &CreateDeliverableResult{Deliverable: row}
	if input.File != nil && ds.bucketService != nil {
		key := fmt.Sprintf("deliverable/%s/%s%s", orgID, row.ID, filepath.Ext(input.FileName))
		if err := ds.bucketService.UploadFile(ctx, key, input.FileMimeType, input.File); err != nil {
			// The record still gets created; the caller retries the
			// attachment separately.
			ds.log.Warn("Deliverable upload failed", "error", err, "deliverable_id", row.ID)
			result.UploadError = "file upload failed"
		} else {
			row.FileBucketKey = key
			row.FileURL = ds.bucketService.GetPublicURL(key)
		}
	}

	if _, err := ds.deliverableRepo.Create(ctx, nil, []*types.Deliverable{row}); err != nil {
		return nil, fmt.Errorf("failed to create deliverable: %w", err)
	}
	return result, nil
}

func (ds *deliverableService) List(ctx context.Context, orgID uuid.UUID) ([]*types.Deliverable, error) {
	rows, err := ds.deliverableRepo.GetByOrgID(ctx, nil, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list deliverables: %w", err)
	}
	return rows, nil
}

// Complete marks a deliverable done. Completing twice keeps the
// original completion time.
func (ds *deliverableService) Complete(ctx context.Context, orgID, deliverableID uuid.UUID) (*types.Deliverable, error) {
	rows, err := ds.deliverableRepo.GetByIDs(ctx, nil, []uuid.UUID{deliverableID})
	if err != nil {
		return nil, fmt.Errorf("failed to load deliverable: %w", err)
	}
	if len(rows) == 0 || rows[0].OrgID != orgID {
		return nil, notFoundErrorf("deliverable %s", deliverableID)
	}
	row := rows[0]
	if row.Status == types.DeliverableStatusCompleted {
		return row, nil
	}
	now := time.Now().UTC()
	updates := map[string]interface{}{
		"status":       types.DeliverableStatusCompleted,
		"completed_at": &now,
	}
	if err := ds.deliverableRepo.UpdateFields(ctx, nil, deliverableID, updates); err != nil {
		return nil, fmt.Errorf("failed to complete deliverable: %w", err)
	}
	row.Status = types.DeliverableStatusCompleted
	row.CompletedAt = &now
	return row, nil
}
