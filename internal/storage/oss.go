package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
)

// OSSStore keeps assets in an Alibaba Cloud OSS bucket under cocktails/.
type OSSStore struct {
	bucket  *oss.Bucket
	baseURL string
}

func NewOSSStore(endpoint, accessKeyID, accessKeySecret, bucketName string) (*OSSStore, error) {
	if endpoint == "" || bucketName == "" {
		return nil, errors.New("oss endpoint and bucket are required")
	}
	client, err := oss.New(endpoint, accessKeyID, accessKeySecret, oss.Timeout(60, 120))
	if err != nil {
		return nil, fmt.Errorf("failed to create OSS client: %w", err)
	}
	bucket, err := client.Bucket(bucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to get bucket: %w", err)
	}

	if !strings.HasPrefix(endpoint, "http") {
		endpoint = "https://" + endpoint
	}
	parts := strings.SplitN(endpoint, "://", 2)
	return &OSSStore{
		bucket:  bucket,
		baseURL: fmt.Sprintf("%s://%s.%s", parts[0], bucketName, strings.TrimRight(parts[1], "/")),
	}, nil
}

func (s *OSSStore) Save(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	if !validName(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	objectKey := "cocktails/" + name
	if err := s.bucket.PutObject(objectKey, bytes.NewReader(data), oss.ContentType(contentType), oss.WithContext(ctx)); err != nil {
		return "", fmt.Errorf("upload failed: %w", err)
	}
	return s.baseURL + "/" + objectKey, nil
}

func (s *OSSStore) Owns(ref string) bool {
	return strings.HasPrefix(ref, s.baseURL+"/cocktails/")
}

func (s *OSSStore) Delete(ctx context.Context, ref string) (bool, error) {
	if !s.Owns(ref) {
		return false, nil
	}
	objectKey := strings.TrimPrefix(ref, s.baseURL+"/")
	exists, err := s.bucket.IsObjectExist(objectKey, oss.WithContext(ctx))
	if err != nil {
		return false, fmt.Errorf("failed to check object: %w", err)
	}
	if !exists {
		return false, nil
	}
	if err := s.bucket.DeleteObject(objectKey, oss.WithContext(ctx)); err != nil {
		return false, fmt.Errorf("failed to delete object: %w", err)
	}
	return true, nil
}
