// Package storage issues signed upload URLs for product images.
package storage

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"
)

const (
	defaultUploadTTL  = 15 * time.Minute
	defaultFolderName = "products"
)

var allowedContentTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// ErrUnsupportedContentType is returned for non-image upload requests.
var ErrUnsupportedContentType = errors.New("storage: unsupported image content type")

// Signer signs arbitrary payloads for generating signed URLs.
type Signer interface {
	// Email returns the service account email used as the GoogleAccessID.
	Email() string
	// SignBytes signs the provided payload with the underlying private key.
	SignBytes(ctx context.Context, payload []byte) ([]byte, error)
}

// ServiceAccountSigner implements Signer backed by a service account private key.
type ServiceAccountSigner struct {
	email string
	key   *rsa.PrivateKey
}

type serviceAccountKey struct {
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
}

// NewServiceAccountSignerFromJSON builds a signer from a raw service account JSON key.
func NewServiceAccountSignerFromJSON(data []byte) (*ServiceAccountSigner, error) {
	if len(data) == 0 {
		return nil, errors.New("storage: service account JSON is empty")
	}

	var key serviceAccountKey
	if err := json.Unmarshal(data, &key); err != nil {
		return nil, fmt.Errorf("storage: decode service account json: %w", err)
	}

	key.PrivateKey = strings.TrimSpace(key.PrivateKey)
	if key.PrivateKey == "" {
		return nil, errors.New("storage: private_key missing in service account JSON")
	}
	key.ClientEmail = strings.TrimSpace(key.ClientEmail)
	if key.ClientEmail == "" {
		return nil, errors.New("storage: client_email missing in service account JSON")
	}

	rsaKey, err := parseRSAPrivateKey(key.PrivateKey)
	if err != nil {
		return nil, err
	}

	return &ServiceAccountSigner{email: key.ClientEmail, key: rsaKey}, nil
}

// NewServiceAccountSignerFromFile builds a signer by reading the JSON key from disk.
func NewServiceAccountSignerFromFile(path string) (*ServiceAccountSigner, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("storage: read service account file: %w", err)
	}
	return NewServiceAccountSignerFromJSON(contents)
}

// Email returns the signer service account email.
func (s *ServiceAccountSigner) Email() string {
	if s == nil {
		return ""
	}
	return s.email
}

// SignBytes applies RSA SHA256 signing over the payload.
func (s *ServiceAccountSigner) SignBytes(ctx context.Context, payload []byte) ([]byte, error) {
	if s == nil || s.key == nil {
		return nil, errors.New("storage: signer not initialised")
	}
	if len(payload) == 0 {
		return nil, errors.New("storage: payload is empty")
	}
	if ctx != nil {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
	}

	digest := sha256.Sum256(payload)
	sig, err := rsa.SignPKCS1v15(rand.Reader, s.key, crypto.SHA256, digest[:])
	if err != nil {
		return nil, fmt.Errorf("storage: sign payload: %w", err)
	}
	return sig, nil
}

func parseRSAPrivateKey(pemData string) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode([]byte(pemData))
	if block == nil {
		return nil, errors.New("storage: failed to decode PEM private key")
	}

	if key, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		if rsaKey, ok := key.(*rsa.PrivateKey); ok {
			return rsaKey, nil
		}
		return nil, errors.New("storage: private key is not RSA")
	}

	rsaKey, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("storage: parse RSA private key: %w", err)
	}
	return rsaKey, nil
}

// SignedUpload describes a prepared direct-to-bucket upload.
type SignedUpload struct {
	URL         string
	Method      string
	ObjectName  string
	PublicURL   string
	ContentType string
	ExpiresAt   time.Time
}

// ImageUploader prepares signed PUT URLs for product image uploads. The
// admin frontend uploads straight to the bucket and stores the public URL
// on the product.
type ImageUploader struct {
	bucket string
	signer Signer
	ttl    time.Duration
	clock  func() time.Time
}

// UploaderOption customises ImageUploader behaviour.
type UploaderOption func(*ImageUploader)

// WithUploadTTL overrides the signed URL lifetime.
func WithUploadTTL(ttl time.Duration) UploaderOption {
	return func(u *ImageUploader) {
		if ttl > 0 {
			u.ttl = ttl
		}
	}
}

// WithClock injects the time source, used by tests.
func WithClock(clock func() time.Time) UploaderOption {
	return func(u *ImageUploader) {
		if clock != nil {
			u.clock = clock
		}
	}
}

// NewImageUploader constructs an ImageUploader for the given bucket.
func NewImageUploader(bucket string, signer Signer, opts ...UploaderOption) (*ImageUploader, error) {
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, errors.New("storage: bucket is required")
	}
	if signer == nil {
		return nil, errors.New("storage: signer is required")
	}

	u := &ImageUploader{
		bucket: bucket,
		signer: signer,
		ttl:    defaultUploadTTL,
		clock:  time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(u)
		}
	}
	return u, nil
}

// SignedUploadURL prepares a signed PUT URL for a product image. The object
// name is derived from the product ID and content type so re-uploads replace
// the previous image.
func (u *ImageUploader) SignedUploadURL(ctx context.Context, productID, contentType string) (SignedUpload, error) {
	if u == nil {
		return SignedUpload{}, errors.New("storage: uploader not initialised")
	}
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return SignedUpload{}, errors.New("storage: product id is required")
	}
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	ext, ok := allowedContentTypes[contentType]
	if !ok {
		return SignedUpload{}, ErrUnsupportedContentType
	}

	object := path.Join(defaultFolderName, productID+ext)
	expires := u.clock().Add(u.ttl)

	url, err := gcs.SignedURL(u.bucket, object, &gcs.SignedURLOptions{
		GoogleAccessID: u.signer.Email(),
		Method:         "PUT",
		Expires:        expires,
		ContentType:    contentType,
		Scheme:         gcs.SigningSchemeV4,
		SignBytes: func(payload []byte) ([]byte, error) {
			return u.signer.SignBytes(ctx, payload)
		},
	})
	if err != nil {
		return SignedUpload{}, fmt.Errorf("storage: sign upload url: %w", err)
	}

	return SignedUpload{
		URL:         url,
		Method:      "PUT",
		ObjectName:  object,
		PublicURL:   fmt.Sprintf("https://storage.googleapis.com/%s/%s", u.bucket, object),
		ContentType: contentType,
		ExpiresAt:   expires,
	}, nil
}
