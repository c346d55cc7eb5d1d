package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"classtrack-backend/shared/config"
)

// AudioContentTypeForExt maps the accepted voice-recording extensions to
// their MIME types. Anything else uploads as an opaque octet stream.
func AudioContentTypeForExt(ext string) string {
	switch strings.ToLower(ext) {
	case "webm":
		return "audio/webm"
	case "mp3":
		return "audio/mpeg"
	case "m4a":
		return "audio/mp4"
	case "wav":
		return "audio/wav"
	}
	return "application/octet-stream"
}

// AudioStorage stores voice-report recordings in a MinIO bucket.
type AudioStorage struct {
	client     *minio.Client
	bucketName string
	publicBase string
}

func NewAudioStorage() (*AudioStorage, error) {
	cfg := config.GetConfig()

	// Parse endpoint URL to get host
	parsedURL, err := url.Parse(cfg.MinIOServerURL)
	if err != nil {
		return nil, fmt.Errorf("invalid MinIO endpoint: %v", err)
	}

	endpoint := parsedURL.Host
	useSSL := cfg.MinIOUseSSL

	log.Printf("🔗 Connecting to MinIO: %s (SSL: %v)", endpoint, useSSL)

	minioClient, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinIORootUser, cfg.MinIORootPassword, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %v", err)
	}

	publicBase := cfg.MinIOPublicURL
	if publicBase == "" {
		publicBase = cfg.MinIOServerURL
	}

	storage := &AudioStorage{
		client:     minioClient,
		bucketName: cfg.MinIOBucketName,
		publicBase: strings.TrimRight(publicBase, "/"),
	}

	if err := storage.initializeBucket(); err != nil {
		return nil, err
	}

	return storage, nil
}

func (s *AudioStorage) initializeBucket() error {
	ctx := context.Background()

	log.Printf("🪣 Checking bucket: %s", s.bucketName)

	exists, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %v", err)
	}

	if !exists {
		err = s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{})
		if err != nil {
			return fmt.Errorf("failed to create bucket: %v", err)
		}
		log.Printf("✅ MinIO bucket '%s' created successfully", s.bucketName)
	} else {
		log.Printf("✅ MinIO bucket '%s' already exists", s.bucketName)
	}

	return nil
}

// ObjectKey builds the per-user object path for a new recording.
func (s *AudioStorage) ObjectKey(userID uuid.UUID, ext string) string {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if ext == "" {
		ext = "webm"
	}
	return fmt.Sprintf("audio/%s/%d-%s.%s", userID, time.Now().UnixMilli(), uuid.NewString(), ext)
}

// Upload streams a recording into the bucket.
func (s *AudioStorage) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucketName, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload audio object: %v", err)
	}
	return nil
}

// PresignPut returns a presigned PUT URL for direct browser uploads.
func (s *AudioStorage) PresignPut(ctx context.Context, key string, expiry time.Duration) (string, error) {
	presigned, err := s.client.PresignedPutObject(ctx, s.bucketName, key, expiry)
	if err != nil {
		return "", fmt.Errorf("failed to presign audio upload: %v", err)
	}
	return presigned.String(), nil
}

// PublicURL returns the address a stored recording is served from.
func (s *AudioStorage) PublicURL(key string) string {
	return fmt.Sprintf("%s/%s/%s", s.publicBase, s.bucketName, key)
}
