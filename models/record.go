package models

import "time"

// RecordMetadata is the remote store's version information for a record.
// ChangeTag must accompany any update of an existing record.
type RecordMetadata struct {
	RecordID   string    `json:"record_id"`
	ChangeTag  string    `json:"change_tag"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
}

// Record is an encrypted entity as stored remotely.
type Record struct {
	RecordID   string    `json:"record_id"`
	SubKind    SubKind   `json:"sub_kind"`
	Ciphertext []byte    `json:"ciphertext"`
	ChangeTag  string    `json:"change_tag"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
}

// Metadata returns the version information of the record.
func (r Record) Metadata() RecordMetadata {
	return RecordMetadata{
		RecordID:   r.RecordID,
		ChangeTag:  r.ChangeTag,
		CreatedAt:  r.CreatedAt,
		ModifiedAt: r.ModifiedAt,
	}
}

// RecordSave is one upsert of a modify request. An empty ChangeTag means
// insert; otherwise the store applies the write only if its stored tag is
// unchanged.
type RecordSave struct {
	RecordID   string    `json:"record_id"`
	SubKind    SubKind   `json:"sub_kind"`
	Ciphertext []byte    `json:"ciphertext"`
	CreatedAt  time.Time `json:"created_at"`
	ChangeTag  string    `json:"change_tag,omitempty"`
}

// ModifyRequest is a batched, non-atomic write.
type ModifyRequest struct {
	Saves   []RecordSave `json:"saves"`
	Deletes []string     `json:"deletes"`
}

// ItemStatus is the per-record outcome of a modify request.
type ItemStatus string

const (
	ItemOK                 ItemStatus = "ok"
	ItemConflict           ItemStatus = "conflict"
	ItemInvalid            ItemStatus = "invalid"
	ItemAccountUnavailable ItemStatus = "account_unavailable"
	ItemNotFound           ItemStatus = "not_found"
)

// ItemResult is the outcome for one record of a modify request. Metadata is
// set for successful saves.
type ItemResult struct {
	RecordID string          `json:"record_id"`
	Status   ItemStatus      `json:"status"`
	Metadata *RecordMetadata `json:"metadata,omitempty"`
	Message  string          `json:"message,omitempty"`
}

// ModifyResponse carries one result per saved or deleted record.
type ModifyResponse struct {
	Results []ItemResult `json:"results"`
}

// RecordQuery selects records of one subkind, newest first. A nil
// CreatedBefore means no upper bound.
type RecordQuery struct {
	SubKind       SubKind    `json:"sub_kind"`
	CreatedBefore *time.Time `json:"created_before,omitempty"`
	Limit         int        `json:"limit"`
	Cursor        string     `json:"cursor,omitempty"`
}

// RecordPage is one page of a query. An empty Cursor means the query is
// exhausted.
type RecordPage struct {
	Records []Record `json:"records"`
	Cursor  string   `json:"cursor,omitempty"`
}

// MetadataRequest asks for the metadata of the listed records.
type MetadataRequest struct {
	RecordIDs []string `json:"record_ids"`
}

// MetadataResponse lists metadata of the records that exist.
type MetadataResponse struct {
	Metadata []RecordMetadata `json:"metadata"`
}

// TokenResponse is returned by the login and register endpoints.
type TokenResponse struct {
	Token string `json:"token"`
}

// ErrorResponse is the body of a failed API call.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
