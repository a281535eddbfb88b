package models

import "time"

// Attachment records one encrypted file attached to a purchase order.
// File bytes live in object storage under StorageKey, encrypted by the
// uploader under a random file key; only the wrapped file key and nonce are
// stored here. Upload status mirrors the presign flow: rows are created
// "pending" when a PUT URL is issued and flipped to "uploaded" on confirm.
type Attachment struct {
	ID               string
	OrderID          string
	FileName         string
	StorageKey       string
	EncryptedFileKey []byte
	Nonce            []byte
	UploadStatus     string
	CreatedAt        time.Time
}

const (
	UploadStatusPending  = "pending"
	UploadStatusUploaded = "uploaded"
)
