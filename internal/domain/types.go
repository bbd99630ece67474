package domain

import "io"

type (
	// ExternalId is an opaque id issued by the identity provider.
	ExternalId = string
)

// Identity is what the identity provider tells us about the current visitor.
type Identity struct {
	Id             ExternalId
	OrganizationId *ExternalId
	Name           string
	Username       string
	ImageUrl       string
}

// PendingFile is an uploaded file that passed validation but is not stored yet.
type PendingFile struct {
	Filename    string
	SizeBytes   int64
	MimeType    string
	ImageWidth  *int
	ImageHeight *int
	Data        io.Reader
}
