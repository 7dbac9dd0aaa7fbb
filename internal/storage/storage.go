package storage

import (
	"context"
	"io"
)

// UploadInput describes a media file to pin.
type UploadInput struct {
	Name        string
	ContentType string
	Body        io.Reader
	// Account is the wallet account recorded in the pin metadata.
	Account string
}

// Object is an uploaded piece of content.
type Object struct {
	CID            string
	URL            string
	Size           int64
	MirrorLocation string
}

// Service uploads media and returns its content identifier.
type Service interface {
	Upload(ctx context.Context, in UploadInput) (*Object, error)
}

// JSONPinner pins a JSON document.
type JSONPinner interface {
	PinJSON(ctx context.Context, name string, v any) (*Object, error)
}

// Mirror keeps a secondary copy of uploaded bytes.
type Mirror interface {
	Put(ctx context.Context, name, contentType string, data []byte) (string, error)
}
