package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"popballoons/internal/domain"
)

// MirroredService pins through a primary service and keeps a best effort
// copy in a mirror. Mirror failures never fail the upload.
type MirroredService struct {
	primary  Service
	mirror   Mirror
	maxBytes int64
	logger   *logrus.Entry
}

func NewMirroredService(primary Service, mirror Mirror, maxBytes int64, logger *logrus.Logger) *MirroredService {
	if logger == nil {
		logger = logrus.New()
	}
	return &MirroredService{
		primary:  primary,
		mirror:   mirror,
		maxBytes: maxBytes,
		logger:   logger.WithField("component", "storage"),
	}
}

func (s *MirroredService) Upload(ctx context.Context, in UploadInput) (*Object, error) {
	if in.Body == nil {
		return s.primary.Upload(ctx, in)
	}

	reader := in.Body
	if s.maxBytes > 0 {
		reader = io.LimitReader(in.Body, s.maxBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, &domain.UploadError{Name: in.Name, Err: fmt.Errorf("read file: %w", err)}
	}
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return nil, &domain.UploadError{Name: in.Name, Err: fmt.Errorf("%w: limit is %d bytes", domain.ErrTooLarge, s.maxBytes)}
	}

	in.Body = bytes.NewReader(data)
	obj, err := s.primary.Upload(ctx, in)
	if err != nil {
		return nil, err
	}

	if s.mirror != nil {
		location, err := s.mirror.Put(ctx, in.Name, in.ContentType, data)
		if err != nil {
			s.logger.WithError(err).WithField("cid", obj.CID).Warn("mirror upload failed")
		} else {
			obj.MirrorLocation = location
		}
	}
	return obj, nil
}

var _ Service = (*MirroredService)(nil)
