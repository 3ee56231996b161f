// Package store persists a job's artifacts to S3 under a contactId prefix.
package store

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsCfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// StoreError reports which of the three artifact writes failed.
type StoreError struct {
	Blob string
	Err  error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Blob, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// ObjectAPI is the slice of the S3 client the store uses.
type ObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// AudioKey returns the object key for a contact's audio blob.
func AudioKey(contactID string) string { return fmt.Sprintf("%s/%s.wav", contactID, contactID) }

// TranscriptKey returns the object key for a contact's transcript blob.
func TranscriptKey(contactID string) string { return fmt.Sprintf("%s/%s.txt", contactID, contactID) }

// SentimentKey returns the object key for a contact's sentiment blob.
func SentimentKey(contactID string) string { return fmt.Sprintf("%s/%s.json", contactID, contactID) }

// Store writes a job's three artifacts into one bucket.
type Store struct {
	api    ObjectAPI
	bucket string
}

// New builds a Store on the default AWS config, honoring AWS_ENDPOINT_URL
// for local stacks.
func New(ctx context.Context, region, bucket string) (*Store, error) {
	cfg, err := awsCfg.LoadDefaultConfig(ctx, awsCfg.WithRegion(region))
	if err != nil {
		return nil, err
	}
	endpoint := os.Getenv("AWS_ENDPOINT_URL") // e.g., http://localstack:4566
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})
	return &Store{api: client, bucket: bucket}, nil
}

// NewWithAPI builds a Store on an existing client.
func NewWithAPI(api ObjectAPI, bucket string) *Store {
	return &Store{api: api, bucket: bucket}
}

// Ready probes the bucket. Used once at startup before serving.
func (s *Store) Ready(ctx context.Context) error {
	_, err := s.api.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	return err
}

// Persist writes audio, transcript, and sentiment JSON under the contactId
// prefix. All three writes are awaited; the first failure aborts the rest
// and names the blob that failed. An earlier successful write is not undone.
func (s *Store) Persist(ctx context.Context, contactID string, audio []byte, transcript string, sentimentJSON []byte) error {
	writes := []struct {
		key         string
		contentType string
		body        *bytes.Reader
	}{
		{AudioKey(contactID), "audio/wav", bytes.NewReader(audio)},
		{TranscriptKey(contactID), "text/plain", bytes.NewReader([]byte(transcript))},
		{SentimentKey(contactID), "application/json", bytes.NewReader(sentimentJSON)},
	}
	for _, w := range writes {
		_, err := s.api.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(s.bucket),
			Key:         aws.String(w.key),
			Body:        w.body,
			ContentType: aws.String(w.contentType),
		})
		if err != nil {
			return &StoreError{Blob: w.key, Err: err}
		}
	}
	return nil
}
