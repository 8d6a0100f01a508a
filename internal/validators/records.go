package validators

import (
	"context"
	"fmt"
	"regexp"

	"github.com/MKhiriev/wallet-cloud-sync/models"
)

// Field name constants restrict validation to a subset of fields.
const (
	FieldRecordID   = "record_id"
	FieldSubKind    = "sub_kind"
	FieldCiphertext = "ciphertext"
	FieldCreatedAt  = "created_at"

	FieldItems = "items"
	FieldLimit = "limit"
)

// Request limits of the record store API.
const (
	MaxItemsPerRequest = 400
	MaxQueryLimit      = 400
	MaxCiphertextSize  = 1 << 20
)

var (
	recordIDPattern  = regexp.MustCompile(`^[0-9a-f]{64}$`)
	containerPattern = regexp.MustCompile(`^[0-9A-Za-z_-]{1,64}$`)
)

// Container is a container name to validate.
type Container string

// RecordValidator validates record store requests: [models.RecordSave],
// [models.ModifyRequest], [models.RecordQuery], [models.MetadataRequest]
// and [Container].
//
// A modify request is checked only at the request level (size, duplicate
// ids); individual saves are validated by the caller so a bad save fails
// alone with an invalid status.
type RecordValidator struct {
}

// NewRecordValidator constructs a RecordValidator.
func NewRecordValidator() Validator {
	return &RecordValidator{}
}

func (v *RecordValidator) Validate(ctx context.Context, obj any, fields ...string) error {
	switch value := obj.(type) {
	case models.RecordSave:
		return v.validateSave(value, fields...)
	case *models.RecordSave:
		return v.validateSave(*value, fields...)
	case models.ModifyRequest:
		return v.validateModify(value)
	case *models.ModifyRequest:
		return v.validateModify(*value)
	case models.RecordQuery:
		return v.validateQuery(value, fields...)
	case *models.RecordQuery:
		return v.validateQuery(*value, fields...)
	case models.MetadataRequest:
		return v.validateMetadata(value)
	case *models.MetadataRequest:
		return v.validateMetadata(*value)
	case Container:
		if !containerPattern.MatchString(string(value)) {
			return ErrInvalidContainer
		}
		return nil
	default:
		return ErrUnsupportedType
	}
}

func (v *RecordValidator) validateSave(save models.RecordSave, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldRecordID, FieldSubKind, FieldCiphertext, FieldCreatedAt}
	}

	for _, f := range fields {
		switch f {
		case FieldRecordID:
			if !recordIDPattern.MatchString(save.RecordID) {
				return ErrInvalidRecordID
			}
		case FieldSubKind:
			if !save.SubKind.Valid() {
				return ErrInvalidSubKind
			}
		case FieldCiphertext:
			if len(save.Ciphertext) == 0 {
				return ErrEmptyCiphertext
			}
			if len(save.Ciphertext) > MaxCiphertextSize {
				return ErrCiphertextTooBig
			}
		case FieldCreatedAt:
			if save.CreatedAt.IsZero() {
				return ErrMissingCreatedAt
			}
		default:
			return ErrUnknownField
		}
	}

	return nil
}

func (v *RecordValidator) validateModify(req models.ModifyRequest) error {
	total := len(req.Saves) + len(req.Deletes)
	if total == 0 {
		return ErrEmptyModify
	}
	if total > MaxItemsPerRequest {
		return ErrTooManyItems
	}

	seen := make(map[string]struct{}, total)
	for _, s := range req.Saves {
		if _, dup := seen[s.RecordID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateRecordID, s.RecordID)
		}
		seen[s.RecordID] = struct{}{}
	}
	for _, id := range req.Deletes {
		if !recordIDPattern.MatchString(id) {
			return fmt.Errorf("%w: %q", ErrInvalidRecordID, id)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateRecordID, id)
		}
		seen[id] = struct{}{}
	}

	return nil
}

func (v *RecordValidator) validateQuery(q models.RecordQuery, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldSubKind, FieldLimit}
	}

	for _, f := range fields {
		switch f {
		case FieldSubKind:
			if !q.SubKind.Valid() {
				return ErrInvalidSubKind
			}
		case FieldLimit:
			if q.Limit <= 0 || q.Limit > MaxQueryLimit {
				return ErrInvalidLimit
			}
		default:
			return ErrUnknownField
		}
	}

	return nil
}

func (v *RecordValidator) validateMetadata(req models.MetadataRequest) error {
	if len(req.RecordIDs) == 0 {
		return ErrEmptyIDs
	}
	if len(req.RecordIDs) > MaxItemsPerRequest {
		return ErrTooManyItems
	}
	for _, id := range req.RecordIDs {
		if !recordIDPattern.MatchString(id) {
			return fmt.Errorf("%w: %q", ErrInvalidRecordID, id)
		}
	}
	return nil
}
