package entity

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

const DocumentStatusDefault = "processing"

type Document struct {
	ID            uuid.UUID  `json:"id"`
	CustomerID    string     `json:"customerId"`
	ServiceID     *uuid.UUID `json:"serviceId"`
	Type          string     `json:"type"`
	Name          string     `json:"name"`
	ResponsibleID *uuid.UUID `json:"responsibleId"`
	Status        string     `json:"status"`
	Notes         string     `json:"notes"`
	CreatedAt     time.Time  `json:"createdAt"`
	// File is nil until a file has been uploaded.
	File *DocumentFile `json:"file,omitempty"`
}

// DocumentFile is the stored attachment of a document. Key addresses the object in the file store.
type DocumentFile struct {
	Key         string    `json:"-"`
	Name        string    `json:"name"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	UploadedAt  time.Time `json:"uploadedAt"`
}

type DocumentView struct {
	Document
	CompanyName     string `json:"companyName"`
	ServiceType     string `json:"serviceType"`
	ResponsibleName string `json:"responsibleName"`
}
