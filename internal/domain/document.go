package domain

import (
	"fmt"
	"time"
)

// DocumentStatus represents the processing state of an uploaded document
type DocumentStatus string

const (
	DocumentStatusProcessing DocumentStatus = "processing"
	DocumentStatusReady      DocumentStatus = "ready"
	DocumentStatusFailed     DocumentStatus = "failed"
)

// Document represents an uploaded study document and its chunk lifecycle
type Document struct {
	ID         string
	Filename   string
	Size       int64
	Status     DocumentStatus
	Warning    string
	Seq        int64 // upload order, assigned by the store
	ChunkIDs   []string
	UploadedAt time.Time
}

// NewDocument creates a new Document instance in the processing state
func NewDocument(id, filename string, size int64, uploadedAt time.Time) *Document {
	return &Document{
		ID:         id,
		Filename:   filename,
		Size:       size,
		Status:     DocumentStatusProcessing,
		UploadedAt: uploadedAt,
	}
}

// ValidateDocument validates a Document instance
func ValidateDocument(d *Document) error {
	if d == nil {
		return fmt.Errorf("document cannot be nil")
	}

	if d.ID == "" {
		return fmt.Errorf("document ID is required")
	}

	if d.Filename == "" {
		return fmt.Errorf("document Filename is required")
	}

	if d.Size < 0 {
		return fmt.Errorf("document Size cannot be negative")
	}

	if !isValidDocumentStatus(d.Status) {
		return fmt.Errorf("document Status is invalid: %s", d.Status)
	}

	return nil
}

// isValidDocumentStatus checks if a DocumentStatus is valid
func isValidDocumentStatus(s DocumentStatus) bool {
	switch s {
	case DocumentStatusProcessing, DocumentStatusReady, DocumentStatusFailed:
		return true
	}
	return false
}
