//go:build s3example
// +build s3example

// This file provides an example S3Store implementation for share links
// that must survive restarts or be visible to a fleet of servers.
// It is excluded from regular builds because it requires AWS credentials
// to be useful.
//
// To use this in your project, build with -tags s3example and add:
//   go get github.com/aws/aws-sdk-go-v2/config

package sharelink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Store keeps share links as small JSON objects in AWS S3.
//
// Example usage:
//
//	cfg, _ := config.LoadDefaultConfig(context.Background())
//	s3Client := s3.NewFromConfig(cfg)
//	store := sharelink.NewS3Store(s3Client, "my-bucket", "links/")
//
//	r.Mount("/s", sharelink.Routes(store))
//
// Unlike MemoryStore, saving the same location twice creates two codes;
// deduplication across a bucket would need a secondary index.
type S3Store struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Store creates a new S3 share link store.
//
// Parameters:
//   - client: AWS S3 client from aws-sdk-go-v2
//   - bucket: S3 bucket name
//   - prefix: Key prefix for links (e.g., "links/")
func NewS3Store(client *s3.Client, bucket, prefix string) *S3Store {
	return &S3Store{
		client: client,
		bucket: bucket,
		prefix: prefix,
	}
}

type s3Link struct {
	Path      string    `json:"path"`
	Query     string    `json:"query"`
	CreatedAt time.Time `json:"created_at"`
}

// Save writes the location to S3 under a new code.
func (s *S3Store) Save(ctx context.Context, path, query string) (string, error) {
	code := generateCode()
	key := s.prefix + code

	body, err := json.Marshal(s3Link{
		Path:      path,
		Query:     query,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return "", err
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("s3 put failed: %w", err)
	}

	return code, nil
}

// Load retrieves a link from S3.
func (s *S3Store) Load(ctx context.Context, code string) (Link, error) {
	key := s.prefix + code

	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return Link{}, ErrNotFound
	}
	defer result.Body.Close()

	var record s3Link
	if err := json.NewDecoder(result.Body).Decode(&record); err != nil {
		return Link{}, fmt.Errorf("s3 link %s corrupt: %w", code, err)
	}

	return Link{
		Code:      code,
		Path:      record.Path,
		Query:     record.Query,
		CreatedAt: record.CreatedAt,
	}, nil
}

// Cleanup removes links older than maxAge from S3.
func (s *S3Store) Cleanup(ctx context.Context, maxAge time.Duration) error {
	cutoff := time.Now().Add(-maxAge)

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	})

	var toDelete []string

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return err
		}

		for _, obj := range page.Contents {
			if obj.LastModified != nil && obj.LastModified.Before(cutoff) {
				if obj.Key != nil {
					toDelete = append(toDelete, *obj.Key)
				}
			}
		}
	}

	for _, key := range toDelete {
		s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
	}

	return nil
}
