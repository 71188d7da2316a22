package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"social-go/internal/config"
	"social-go/internal/media"
)

// S3StorageService 实现了 media.StorageService 接口，对象存放在 S3 兼容的存储中 (如 MinIO)。
type S3StorageService struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

// NewS3StorageService connects to the endpoint and makes sure the bucket exists.
func NewS3StorageService(ctx context.Context, cfg config.S3Config) (media.StorageService, error) {
	endpoint := strings.TrimPrefix(strings.TrimPrefix(cfg.Endpoint, "http://"), "https://")
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("创建 S3 客户端失败: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("检查存储桶失败 '%s': %w", cfg.BucketName, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("创建存储桶失败 '%s': %w", cfg.BucketName, err)
		}
	}

	publicURL := cfg.PublicURL
	if publicURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		publicURL = fmt.Sprintf("%s://%s/%s", scheme, endpoint, cfg.BucketName)
	}

	return &S3StorageService{client: client, bucket: cfg.BucketName, publicURL: publicURL}, nil
}

func (s *S3StorageService) UploadFile(ctx context.Context, reader io.Reader, fileSize int64, fileName string, mimeType string) (*media.FileInfo, error) {
	key := objectName(fileName, mimeType)
	info, err := s.client.PutObject(ctx, s.bucket, key, reader, fileSize, minio.PutObjectOptions{ContentType: mimeType})
	if err != nil {
		return nil, fmt.Errorf("上传对象失败: %w", err)
	}
	return &media.FileInfo{
		URL:      strings.TrimSuffix(s.publicURL, "/") + "/" + key,
		Path:     key,
		Size:     info.Size,
		MimeType: mimeType,
		FileName: fileName,
	}, nil
}

func (s *S3StorageService) DeleteFile(ctx context.Context, path string) error {
	return s.client.RemoveObject(ctx, s.bucket, path, minio.RemoveObjectOptions{})
}

// NewStorageService picks the backend named by cfg.Type.
func NewStorageService(ctx context.Context, cfg config.StorageConfig) (media.StorageService, error) {
	switch cfg.Type {
	case "", "local":
		return NewLocalStorageService(cfg)
	case "s3":
		return NewS3StorageService(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}
