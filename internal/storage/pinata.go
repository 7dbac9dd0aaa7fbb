package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strings"
	"time"

	"github.com/ipfs/go-cid"

	"popballoons/internal/domain"
)

const (
	DefaultPinataEndpoint = "https://api.pinata.cloud"
	DefaultPinataGateway  = "https://gateway.pinata.cloud"
)

// PinataOptions configures the pinning client.
type PinataOptions struct {
	JWT        string
	Endpoint   string
	Gateway    string
	HTTPClient *http.Client
}

// PinataService pins files and JSON documents through the Pinata API.
type PinataService struct {
	jwt      string
	endpoint string
	gateway  string
	http     *http.Client
}

func NewPinataService(opts PinataOptions) *PinataService {
	if opts.Endpoint == "" {
		opts.Endpoint = DefaultPinataEndpoint
	}
	if opts.Gateway == "" {
		opts.Gateway = DefaultPinataGateway
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 2 * time.Minute}
	}
	return &PinataService{
		jwt:      strings.TrimSpace(opts.JWT),
		endpoint: strings.TrimRight(opts.Endpoint, "/"),
		gateway:  strings.TrimRight(opts.Gateway, "/"),
		http:     opts.HTTPClient,
	}
}

type pinMetadata struct {
	Name      string            `json:"name"`
	KeyValues map[string]string `json:"keyvalues,omitempty"`
}

type pinResponse struct {
	IpfsHash  string `json:"IpfsHash"`
	PinSize   int64  `json:"PinSize"`
	Timestamp string `json:"Timestamp"`
}

type pinataError struct {
	Error any `json:"error"`
}

// GatewayURL returns the public gateway address of a content identifier.
func (s *PinataService) GatewayURL(contentID string) string {
	return s.gateway + "/ipfs/" + contentID
}

func (s *PinataService) Upload(ctx context.Context, in UploadInput) (*Object, error) {
	name := filepath.Base(strings.TrimSpace(in.Name))
	if s.jwt == "" {
		return nil, &domain.UploadError{Name: name, Err: domain.ErrMissingCredentials}
	}
	if in.Body == nil {
		return nil, &domain.UploadError{Name: name, Err: errors.New("file is required")}
	}

	meta := pinMetadata{Name: "profile_" + name}
	if in.Account != "" {
		meta.KeyValues = map[string]string{"waxAccount": in.Account}
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return nil, &domain.UploadError{Name: name, Err: fmt.Errorf("marshal metadata: %w", err)}
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, name))
	contentType := in.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)
	part, err := form.CreatePart(header)
	if err != nil {
		return nil, &domain.UploadError{Name: name, Err: fmt.Errorf("create file part: %w", err)}
	}
	if _, err := io.Copy(part, in.Body); err != nil {
		return nil, &domain.UploadError{Name: name, Err: fmt.Errorf("read file: %w", err)}
	}
	if err := form.WriteField("pinataMetadata", string(metaJSON)); err != nil {
		return nil, &domain.UploadError{Name: name, Err: fmt.Errorf("write metadata: %w", err)}
	}
	if err := form.Close(); err != nil {
		return nil, &domain.UploadError{Name: name, Err: fmt.Errorf("close form: %w", err)}
	}

	obj, err := s.pin(ctx, "/pinning/pinFileToIPFS", form.FormDataContentType(), &body)
	if err != nil {
		return nil, &domain.UploadError{Name: name, Err: err}
	}
	return obj, nil
}

func (s *PinataService) PinJSON(ctx context.Context, name string, v any) (*Object, error) {
	if s.jwt == "" {
		return nil, &domain.UploadError{Name: name, Err: domain.ErrMissingCredentials}
	}
	payload, err := json.Marshal(struct {
		Content  any         `json:"pinataContent"`
		Metadata pinMetadata `json:"pinataMetadata"`
	}{Content: v, Metadata: pinMetadata{Name: name}})
	if err != nil {
		return nil, &domain.UploadError{Name: name, Err: fmt.Errorf("marshal content: %w", err)}
	}

	obj, err := s.pin(ctx, "/pinning/pinJSONToIPFS", "application/json", bytes.NewReader(payload))
	if err != nil {
		return nil, &domain.UploadError{Name: name, Err: err}
	}
	return obj, nil
}

func (s *PinataService) pin(ctx context.Context, path, contentType string, body io.Reader) (*Object, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+s.jwt)

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr pinataError
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != nil {
			return nil, fmt.Errorf("pinata status %d: %v", resp.StatusCode, apiErr.Error)
		}
		return nil, fmt.Errorf("pinata status %d", resp.StatusCode)
	}

	var out pinResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	contentID, err := cid.Decode(out.IpfsHash)
	if err != nil {
		return nil, fmt.Errorf("invalid content identifier %q: %w", out.IpfsHash, err)
	}

	return &Object{
		CID:  contentID.String(),
		URL:  s.GatewayURL(contentID.String()),
		Size: out.PinSize,
	}, nil
}

var (
	_ Service    = (*PinataService)(nil)
	_ JSONPinner = (*PinataService)(nil)
)
