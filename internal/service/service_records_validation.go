package service

import (
	"context"
	"fmt"

	"github.com/MKhiriev/wallet-cloud-sync/internal/validators"
	"github.com/MKhiriev/wallet-cloud-sync/models"
)

// RecordValidationService validates requests before they reach the wrapped
// RecordService. A malformed save fails alone with an invalid status; the
// rest of the batch is still applied.
type RecordValidationService struct {
	inner     RecordService
	validator validators.Validator
}

func NewRecordValidationService() RecordServiceWrapper {
	return &RecordValidationService{
		validator: validators.NewRecordValidator(),
	}
}

func (v *RecordValidationService) Wrap(inner RecordService) RecordService {
	v.inner = inner
	return v
}

func (v *RecordValidationService) CreateContainer(ctx context.Context, userID int64, container string) error {
	if err := v.validateContainer(ctx, container); err != nil {
		return err
	}
	return v.inner.CreateContainer(ctx, userID, container)
}

func (v *RecordValidationService) DeleteContainer(ctx context.Context, userID int64, container string) error {
	if err := v.validateContainer(ctx, container); err != nil {
		return err
	}
	return v.inner.DeleteContainer(ctx, userID, container)
}

func (v *RecordValidationService) Modify(ctx context.Context, userID int64, container string, req models.ModifyRequest) (models.ModifyResponse, error) {
	if err := v.validateContainer(ctx, container); err != nil {
		return models.ModifyResponse{}, err
	}
	if err := v.validator.Validate(ctx, req); err != nil {
		return models.ModifyResponse{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	// invalid[i] holds the rejection of req.Saves[i], if any
	invalid := make(map[int]models.ItemResult)
	valid := models.ModifyRequest{Deletes: req.Deletes}
	for i, save := range req.Saves {
		if err := v.validator.Validate(ctx, save); err != nil {
			invalid[i] = models.ItemResult{RecordID: save.RecordID, Status: models.ItemInvalid, Message: err.Error()}
			continue
		}
		valid.Saves = append(valid.Saves, save)
	}

	if len(invalid) == 0 {
		return v.inner.Modify(ctx, userID, container, req)
	}

	var applied []models.ItemResult
	if len(valid.Saves)+len(valid.Deletes) > 0 {
		resp, err := v.inner.Modify(ctx, userID, container, valid)
		if err != nil {
			return models.ModifyResponse{}, err
		}
		applied = resp.Results
	}

	return models.ModifyResponse{Results: mergeResults(len(req.Saves), invalid, applied)}, nil
}

// mergeResults restores request order: one result per save, then the
// delete results that follow the valid saves in applied.
func mergeResults(saves int, invalid map[int]models.ItemResult, applied []models.ItemResult) []models.ItemResult {
	merged := make([]models.ItemResult, 0, saves+len(applied))
	next := 0
	for i := 0; i < saves; i++ {
		if res, ok := invalid[i]; ok {
			merged = append(merged, res)
			continue
		}
		if next < len(applied) {
			merged = append(merged, applied[next])
			next++
		}
	}
	return append(merged, applied[next:]...)
}

func (v *RecordValidationService) Query(ctx context.Context, userID int64, container string, q models.RecordQuery) (models.RecordPage, error) {
	if err := v.validateContainer(ctx, container); err != nil {
		return models.RecordPage{}, err
	}
	if err := v.validator.Validate(ctx, q); err != nil {
		return models.RecordPage{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return v.inner.Query(ctx, userID, container, q)
}

func (v *RecordValidationService) FetchMetadata(ctx context.Context, userID int64, container string, req models.MetadataRequest) (models.MetadataResponse, error) {
	if err := v.validateContainer(ctx, container); err != nil {
		return models.MetadataResponse{}, err
	}
	if err := v.validator.Validate(ctx, req); err != nil {
		return models.MetadataResponse{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return v.inner.FetchMetadata(ctx, userID, container, req)
}

func (v *RecordValidationService) validateContainer(ctx context.Context, container string) error {
	if err := v.validator.Validate(ctx, validators.Container(container)); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return nil
}
