package data

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lk2023060901/media-path/internal/media/biz"
	apperrors "github.com/lk2023060901/media-path/internal/pkg/errors"
	"github.com/lk2023060901/media-path/internal/pkg/logger"
	"github.com/lk2023060901/media-path/internal/pkg/minio"
)

// ObjectStore 文件存储依赖的对象存储操作，*minio.Client 满足该接口
type ObjectStore interface {
	StatObject(ctx context.Context, bucketName, objectName string) (minio.ObjectInfo, error)
	GetObject(ctx context.Context, bucketName, objectName string) (io.ReadSeekCloser, error)
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// ObjectFileStorage 将 scheme://key 形式的文件 URI 映射到 MinIO bucket
type ObjectFileStorage struct {
	store         ObjectStore
	buckets       map[string]string
	defaultScheme string
	logger        *logger.Logger
}

func NewObjectFileStorage(store ObjectStore, buckets map[string]string, defaultScheme string, log *logger.Logger) *ObjectFileStorage {
	return &ObjectFileStorage{
		store:         store,
		buckets:       buckets,
		defaultScheme: defaultScheme,
		logger:        log,
	}
}

// locate 解析 URI，未知 scheme 视为对象不存在
func (s *ObjectFileStorage) locate(uri string) (bucket, key string, err error) {
	scheme, key, ok := strings.Cut(uri, "://")
	if !ok || key == "" {
		return "", "", apperrors.New(apperrors.ErrMediaFileAbsent, fmt.Sprintf("malformed file uri %q", uri))
	}
	bucket, ok = s.buckets[scheme]
	if !ok {
		return "", "", apperrors.New(apperrors.ErrMediaFileAbsent, fmt.Sprintf("no bucket for scheme %q", scheme))
	}
	return bucket, key, nil
}

func (s *ObjectFileStorage) Stat(ctx context.Context, uri string) (*biz.ObjectInfo, error) {
	bucket, key, err := s.locate(uri)
	if err != nil {
		return nil, err
	}

	info, err := s.store.StatObject(ctx, bucket, key)
	if err != nil {
		if minio.IsNotFound(err) {
			return nil, apperrors.Wrap(err, apperrors.ErrMediaFileAbsent, uri)
		}
		return nil, apperrors.Wrap(err, apperrors.ErrStorageFailed, uri)
	}
	return &biz.ObjectInfo{
		Size:         info.Size,
		ContentType:  info.ContentType,
		LastModified: info.LastModified,
	}, nil
}

func (s *ObjectFileStorage) Open(ctx context.Context, uri string) (io.ReadSeekCloser, *biz.ObjectInfo, error) {
	info, err := s.Stat(ctx, uri)
	if err != nil {
		return nil, nil, err
	}
	bucket, key, _ := s.locate(uri)

	obj, err := s.store.GetObject(ctx, bucket, key)
	if err != nil {
		return nil, nil, apperrors.Wrap(err, apperrors.ErrStorageFailed, uri)
	}
	return obj, info, nil
}

// Put 写入默认 scheme 对应的 bucket，对象键形如 2026/10/<uuid>/<name>
func (s *ObjectFileStorage) Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) (string, error) {
	bucket, ok := s.buckets[s.defaultScheme]
	if !ok {
		return "", fmt.Errorf("no bucket for default scheme %q", s.defaultScheme)
	}

	key := minio.UploadKey(time.Now(), uuid.NewString(), name)
	name = path.Base(key)

	if _, err := s.store.PutObject(ctx, bucket, key, r, size, minio.PutObjectOptions{
		ContentType:        contentType,
		ContentDisposition: fmt.Sprintf("inline; filename=%q", name),
	}); err != nil {
		return "", err
	}

	uri := s.defaultScheme + "://" + key
	s.logger.Debug("file stored", zap.String("uri", uri), zap.Int64("size", size))
	return uri, nil
}
