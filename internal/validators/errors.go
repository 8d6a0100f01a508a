package validators

import "errors"

var (
	ErrUnsupportedType = errors.New("unsupported type for validation")
	ErrUnknownField    = errors.New("unknown field for validation")

	ErrInvalidContainer  = errors.New("invalid container name")
	ErrInvalidRecordID   = errors.New("invalid record id")
	ErrInvalidSubKind    = errors.New("invalid sub kind")
	ErrEmptyCiphertext   = errors.New("ciphertext is required")
	ErrCiphertextTooBig  = errors.New("ciphertext exceeds the record size limit")
	ErrMissingCreatedAt  = errors.New("created_at is required")
	ErrEmptyModify       = errors.New("modify request has no saves and no deletes")
	ErrTooManyItems      = errors.New("too many items in one request")
	ErrDuplicateRecordID = errors.New("record id appears twice in one request")
	ErrInvalidLimit      = errors.New("invalid query limit")
	ErrEmptyIDs          = errors.New("IDs list cannot be empty")
)
