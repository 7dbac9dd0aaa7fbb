package storage

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	qt "github.com/frankban/quicktest"
	"github.com/sirupsen/logrus"

	"popballoons/internal/domain"
)

const testCID = "QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG"

func TestPinataUploadWithoutJWT(t *testing.T) {
	c := qt.New(t)

	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { hits++ }))
	defer srv.Close()

	svc := NewPinataService(PinataOptions{Endpoint: srv.URL})
	_, err := svc.Upload(context.Background(), UploadInput{Name: "me.png", Body: strings.NewReader("img")})

	var upErr *domain.UploadError
	c.Assert(errors.As(err, &upErr), qt.IsTrue)
	c.Assert(errors.Is(err, domain.ErrMissingCredentials), qt.IsTrue)
	c.Assert(hits, qt.Equals, 0)
}

func TestPinataUploadSendsFileAndMetadata(t *testing.T) {
	c := qt.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/pinning/pinFileToIPFS" || r.Header.Get("Authorization") != "Bearer secret-jwt" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		data, _ := io.ReadAll(file)
		var meta pinMetadata
		_ = json.Unmarshal([]byte(r.FormValue("pinataMetadata")), &meta)
		if string(data) != "img-bytes" || header.Filename != "me.png" ||
			meta.Name != "profile_me.png" || meta.KeyValues["waxAccount"] != "alice.wam" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(pinResponse{IpfsHash: testCID, PinSize: 9})
	}))
	defer srv.Close()

	svc := NewPinataService(PinataOptions{JWT: "secret-jwt", Endpoint: srv.URL, HTTPClient: srv.Client()})
	obj, err := svc.Upload(context.Background(), UploadInput{
		Name:        "me.png",
		ContentType: "image/png",
		Body:        strings.NewReader("img-bytes"),
		Account:     "alice.wam",
	})
	c.Assert(err, qt.IsNil)
	c.Assert(obj.CID, qt.Equals, testCID)
	c.Assert(obj.URL, qt.Equals, "https://gateway.pinata.cloud/ipfs/"+testCID)
	c.Assert(obj.Size, qt.Equals, int64(9))
}

func TestPinataRejectsMalformedHash(t *testing.T) {
	c := qt.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(pinResponse{IpfsHash: "not-a-cid"})
	}))
	defer srv.Close()

	svc := NewPinataService(PinataOptions{JWT: "jwt", Endpoint: srv.URL, HTTPClient: srv.Client()})
	_, err := svc.PinJSON(context.Background(), "candidate_alice", map[string]string{"nickname": "alice"})
	var upErr *domain.UploadError
	c.Assert(errors.As(err, &upErr), qt.IsTrue)
	c.Assert(err, qt.ErrorMatches, `.*invalid content identifier.*`)
}

func TestPinataSurfacesAPIError(t *testing.T) {
	c := qt.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"invalid jwt"}`))
	}))
	defer srv.Close()

	svc := NewPinataService(PinataOptions{JWT: "jwt", Endpoint: srv.URL, HTTPClient: srv.Client()})
	_, err := svc.Upload(context.Background(), UploadInput{Name: "a.jpg", Body: strings.NewReader("x")})
	c.Assert(err, qt.ErrorMatches, `upload a.jpg failed: pinata status 403: invalid jwt`)
}

type fakeService struct {
	got []byte
	err error
}

func (f *fakeService) Upload(_ context.Context, in UploadInput) (*Object, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.got, _ = io.ReadAll(in.Body)
	return &Object{CID: testCID}, nil
}

type fakeUploader struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakeUploader) Upload(_ context.Context, input *s3.PutObjectInput, _ ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.input = input
	f.body, _ = io.ReadAll(input.Body)
	return &manager.UploadOutput{}, nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestMirroredServiceCopiesBytes(t *testing.T) {
	c := qt.New(t)

	primary := &fakeService{}
	uploader := &fakeUploader{}
	mirror := newS3Mirror(uploader, "media", "/profiles/")
	svc := NewMirroredService(primary, mirror, 1024, quietLogger())

	obj, err := svc.Upload(context.Background(), UploadInput{Name: "Me.PNG", ContentType: "image/png", Body: strings.NewReader("pixels")})
	c.Assert(err, qt.IsNil)
	c.Assert(string(primary.got), qt.Equals, "pixels")
	c.Assert(string(uploader.body), qt.Equals, "pixels")

	key := mirror.Key("Me.PNG", []byte("pixels"))
	c.Assert(strings.HasPrefix(key, "profiles/"), qt.IsTrue)
	c.Assert(strings.HasSuffix(key, ".png"), qt.IsTrue)
	c.Assert(aws.ToString(uploader.input.Key), qt.Equals, key)
	c.Assert(obj.MirrorLocation, qt.Equals, "s3://media/"+key)
}

func TestMirroredServiceIgnoresMirrorFailure(t *testing.T) {
	c := qt.New(t)

	mirror := newS3Mirror(&fakeUploader{err: errors.New("s3 down")}, "media", "")
	svc := NewMirroredService(&fakeService{}, mirror, 0, quietLogger())

	obj, err := svc.Upload(context.Background(), UploadInput{Name: "a.jpg", Body: strings.NewReader("x")})
	c.Assert(err, qt.IsNil)
	c.Assert(obj.CID, qt.Equals, testCID)
	c.Assert(obj.MirrorLocation, qt.Equals, "")
}

func TestMirroredServiceEnforcesSizeLimit(t *testing.T) {
	c := qt.New(t)

	primary := &fakeService{}
	svc := NewMirroredService(primary, nil, 4, quietLogger())
	_, err := svc.Upload(context.Background(), UploadInput{Name: "big.jpg", Body: strings.NewReader("12345")})

	var upErr *domain.UploadError
	c.Assert(errors.As(err, &upErr), qt.IsTrue)
	c.Assert(errors.Is(err, domain.ErrTooLarge), qt.IsTrue)
	c.Assert(primary.got, qt.IsNil)
}
