package minio

import (
	"context"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// PutObjectOptions represents options for uploading an object
type PutObjectOptions struct {
	ContentType        string
	ContentDisposition string
	UserMetadata       map[string]string
}

// ObjectInfo represents object information
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
}

// UploadInfo represents information about an uploaded object
type UploadInfo struct {
	Bucket string
	Key    string
	ETag   string
	Size   int64
}

// PutObject uploads an object to a bucket
func (c *Client) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts PutObjectOptions) (UploadInfo, error) {
	if err := c.checkArgs(bucketName, objectName); err != nil {
		return UploadInfo{}, WrapError("PutObject", err, bucketName, objectName)
	}

	info, err := c.client.PutObject(ctx, bucketName, objectName, reader, objectSize, minio.PutObjectOptions{
		ContentType:        opts.ContentType,
		ContentDisposition: opts.ContentDisposition,
		UserMetadata:       opts.UserMetadata,
	})
	if err != nil {
		return UploadInfo{}, WrapError("PutObject", err, bucketName, objectName)
	}

	c.logger.Info("object uploaded successfully",
		zap.String("bucket", bucketName),
		zap.String("object", objectName),
		zap.Int64("size", info.Size),
	)

	return UploadInfo{
		Bucket: info.Bucket,
		Key:    info.Key,
		ETag:   info.ETag,
		Size:   info.Size,
	}, nil
}

// GetObject opens an object for streaming. The returned reader supports
// seeking so it can back ranged responses; the caller closes it.
func (c *Client) GetObject(ctx context.Context, bucketName, objectName string) (io.ReadSeekCloser, error) {
	if err := c.checkArgs(bucketName, objectName); err != nil {
		return nil, WrapError("GetObject", err, bucketName, objectName)
	}

	object, err := c.client.GetObject(ctx, bucketName, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, WrapError("GetObject", err, bucketName, objectName)
	}
	return object, nil
}

// StatObject gets object metadata
func (c *Client) StatObject(ctx context.Context, bucketName, objectName string) (ObjectInfo, error) {
	if err := c.checkArgs(bucketName, objectName); err != nil {
		return ObjectInfo{}, WrapError("StatObject", err, bucketName, objectName)
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout)
	defer cancel()

	info, err := c.client.StatObject(ctx, bucketName, objectName, minio.StatObjectOptions{})
	if err != nil {
		return ObjectInfo{}, WrapError("StatObject", err, bucketName, objectName)
	}

	return ObjectInfo{
		Key:          info.Key,
		Size:         info.Size,
		ETag:         info.ETag,
		ContentType:  info.ContentType,
		LastModified: info.LastModified,
	}, nil
}

// RemoveObject removes an object from a bucket
func (c *Client) RemoveObject(ctx context.Context, bucketName, objectName string) error {
	if err := c.checkArgs(bucketName, objectName); err != nil {
		return WrapError("RemoveObject", err, bucketName, objectName)
	}

	if err := c.client.RemoveObject(ctx, bucketName, objectName, minio.RemoveObjectOptions{}); err != nil {
		return WrapError("RemoveObject", err, bucketName, objectName)
	}

	c.logger.Info("object removed successfully",
		zap.String("bucket", bucketName),
		zap.String("object", objectName),
	)
	return nil
}

func (c *Client) checkArgs(bucketName, objectName string) error {
	if err := c.checkClosed(); err != nil {
		return err
	}
	if bucketName == "" {
		return ErrInvalidBucketName
	}
	if objectName == "" {
		return ErrInvalidObjectName
	}
	return nil
}
