// Package storage publishes fragment files to an S3-compatible bucket.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

// S3Config locates the bucket fragments are published to.
type S3Config struct {
	Endpoint      string
	Region        string
	AccessKey     string
	SecretKey     string
	Bucket        string
	Prefix        string
	PublicBaseURL string
	ManifestPath  string
}

// ObjectStore is the subset of the S3 API used by Publish.
type ObjectStore interface {
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, in *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// ManifestEntry records one published fragment.
type ManifestEntry struct {
	Name string `json:"name"`
	Key  string `json:"key"`
	URL  string `json:"url"`
}

// NewS3Client builds a path-style client with static credentials, which is
// what MinIO expects.
func NewS3Client(ctx context.Context, cfg S3Config) (*s3.Client, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket is not configured")
	}
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// ObjectKey is the bucket key for a local fragment file.
func ObjectKey(prefix, file string) string {
	return path.Join(prefix, filepath.Base(file))
}

// Publish uploads files in order, creating the bucket if needed. It stops at
// the first failed upload and returns the entries published so far.
func Publish(ctx context.Context, client ObjectStore, cfg S3Config, files []string, log *zap.Logger) ([]ManifestEntry, error) {
	if log == nil {
		log = zap.NewNop()
	}

	_, err := client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(cfg.Bucket)})
	if err != nil {
		_, err = client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(cfg.Bucket)})
		if err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
		log.Info("created bucket", zap.String("bucket", cfg.Bucket))
	}

	entries := make([]ManifestEntry, 0, len(files))
	for _, fpath := range files {
		entry, err := upload(ctx, client, cfg, fpath)
		if err != nil {
			return entries, err
		}
		log.Info("uploaded fragment", zap.String("key", entry.Key))
		entries = append(entries, entry)
	}
	return entries, nil
}

func upload(ctx context.Context, client ObjectStore, cfg S3Config, fpath string) (ManifestEntry, error) {
	file, err := os.Open(fpath)
	if err != nil {
		return ManifestEntry{}, fmt.Errorf("open %s: %w", fpath, err)
	}
	defer file.Close()

	key := ObjectKey(cfg.Prefix, fpath)
	in := &s3.PutObjectInput{
		Bucket: aws.String(cfg.Bucket),
		Key:    aws.String(key),
		Body:   file,
	}
	if ct := mime.TypeByExtension(filepath.Ext(fpath)); ct != "" {
		in.ContentType = aws.String(ct)
	}
	if _, err := client.PutObject(ctx, in); err != nil {
		return ManifestEntry{}, fmt.Errorf("upload %s: %w", fpath, err)
	}

	entry := ManifestEntry{Name: filepath.Base(fpath), Key: key}
	if cfg.PublicBaseURL != "" {
		entry.URL = strings.TrimRight(cfg.PublicBaseURL, "/") + "/" + key
	}
	return entry, nil
}

// WriteManifest stores entries as an indented JSON array.
func WriteManifest(manifestPath string, entries []ManifestEntry) error {
	if entries == nil {
		entries = []ManifestEntry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(manifestPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(manifestPath, append(data, '\n'), 0o644)
}
