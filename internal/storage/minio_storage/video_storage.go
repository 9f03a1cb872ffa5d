package minio_storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/url"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

// VideoStorage holds lecture videos in a single bucket. Object keys are
// unique per upload so replacing a video never overwrites the old object
// before the new reference is persisted.
type VideoStorage struct {
	storage      *MinioStorage
	bucket       string
	presignedTTL time.Duration
}

func NewVideoStorage(storage *MinioStorage, bucketName string, presignedTTL time.Duration) (*VideoStorage, error) {
	if err := storage.ensureBucket(context.Background(), bucketName); err != nil {
		return nil, err
	}
	return &VideoStorage{storage: storage, bucket: bucketName, presignedTTL: presignedTTL}, nil
}

func (s *VideoStorage) UploadVideo(
	ctx context.Context,
	lectureID uuid.UUID,
	filename string,
	reader io.Reader,
	size int64,
	contentType string,
) (objectKey string, err error) {
	ext := filepath.Ext(filename)
	if ext == "" {
		ext = ".bin"
	}

	objectKey = fmt.Sprintf("lectures/%s/%s%s", lectureID.String(), uuid.New().String(), ext)

	if contentType == "" {
		contentType = mime.TypeByExtension(ext)
		if contentType == "" {
			contentType = "application/octet-stream"
		}
	}

	_, err = s.storage.client.PutObject(
		ctx,
		s.bucket,
		objectKey,
		reader,
		size,
		minio.PutObjectOptions{ContentType: contentType},
	)
	if err != nil {
		return "", err
	}
	return objectKey, nil
}

// PresignedVideoURL issues a fresh signed GET link for the object, valid
// for the configured TTL. Expiry time is returned so callers can persist it
// next to the URL.
func (s *VideoStorage) PresignedVideoURL(ctx context.Context, objectKey string) (string, time.Time, error) {
	reqParams := make(url.Values)
	expires := time.Now().UTC().Add(s.presignedTTL)
	presignedURL, err := s.storage.client.PresignedGetObject(
		ctx,
		s.bucket,
		objectKey,
		s.presignedTTL,
		reqParams,
	)
	if err != nil {
		return "", time.Time{}, err
	}
	return presignedURL.String(), expires, nil
}

func (s *VideoStorage) DeleteVideo(ctx context.Context, objectKey string) error {
	return s.storage.client.RemoveObject(ctx, s.bucket, objectKey, minio.RemoveObjectOptions{})
}
