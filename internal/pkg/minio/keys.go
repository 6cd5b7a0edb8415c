package minio

import (
	"fmt"
	"net"
	"path"
	"regexp"
	"strings"
	"time"
	"unicode"
)

var bucketNameRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9\-]{1,61}[a-z0-9]$`)

// ValidateBucketName 按 S3 命名规则校验 bucket 名
func ValidateBucketName(bucketName string) error {
	switch {
	case bucketName == "":
		return fmt.Errorf("bucket name cannot be empty")
	case !bucketNameRegex.MatchString(bucketName):
		return fmt.Errorf("bucket name %q must be 3-63 lowercase letters, numbers or hyphens", bucketName)
	case strings.Contains(bucketName, "--"):
		return fmt.Errorf("bucket name %q cannot contain consecutive hyphens", bucketName)
	case net.ParseIP(bucketName) != nil:
		return fmt.Errorf("bucket name %q cannot be formatted as an IP address", bucketName)
	}
	return nil
}

// CleanFilename 取上传文件名的最后一段，去掉控制字符。
// 客户端可能传入带目录的文件名（如 IE 的 C:\Users\...\a.pdf）
func CleanFilename(name string) string {
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		if r == '\\' {
			return '/'
		}
		return r
	}, name)

	name = path.Base(strings.TrimRight(name, "/"))
	if name == "." || name == "/" {
		return ""
	}
	return strings.TrimSpace(name)
}

// UploadKey 生成上传对象键：<yyyy>/<mm>/<id>/<filename>。
// 年月分区便于按时间清理，id 保证同名文件不互相覆盖
func UploadKey(now time.Time, id, filename string) string {
	filename = CleanFilename(filename)
	if filename == "" {
		filename = "file"
	}
	return path.Join(now.UTC().Format("2006/01"), id, filename)
}
