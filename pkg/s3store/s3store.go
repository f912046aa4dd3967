// Package s3store provides an S3-backed read-only store for fluxbind.
//
// Object bodies under a bucket prefix become keyed values; owners that read
// a key during a build are rebuilt when Refresh observes that the object
// changed. This suits slow-moving remote data such as configuration or
// feature flags, with Refresh driven by a ticker or an external signal.
package s3store

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/fluxbind-dev/fluxbind/pkg/fluxbind"
)

// API is the subset of the S3 client used by the store.
// *s3.Client satisfies it; tests provide a stub.
type API interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Store publishes the objects under one bucket prefix as store keys.
//
// Example:
//
//	cfg, _ := config.LoadDefaultConfig(context.Background())
//	store := s3store.New(s3.NewFromConfig(cfg), "my-bucket", "flags/")
//	if err := store.Refresh(ctx); err != nil { ... }
type Store struct {
	fluxbind.StoreBase

	client API
	bucket string
	prefix string

	// bodies and etags mirror the last refreshed view of the prefix.
	bodies map[fluxbind.StoreKey][]byte
	etags  map[fluxbind.StoreKey]string
	mu     sync.RWMutex
}

// New creates a store over the objects under prefix in bucket.
// The store is empty until the first Refresh.
func New(client API, bucket, prefix string) *Store {
	return &Store{
		StoreBase: fluxbind.NewStoreBase(),
		client:    client,
		bucket:    bucket,
		prefix:    prefix,
		bodies:    make(map[fluxbind.StoreKey][]byte),
		etags:     make(map[fluxbind.StoreKey]string),
	}
}

// Get returns the body for key and records the read with the active build.
// Returns nil for a key not present at the last Refresh; reading it still
// subscribes, so the owner rebuilds when the object appears.
func (s *Store) Get(key fluxbind.StoreKey) []byte {
	s.mu.RLock()
	body := s.bodies[key]
	s.mu.RUnlock()

	fluxbind.RecordRead(s, key)
	return body
}

// Peek returns the body for key without recording a read.
func (s *Store) Peek(key fluxbind.StoreKey) []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bodies[key]
}

// Keys returns every key present at the last Refresh and records a KeyAll
// read: the owner depends on the prefix's whole object set.
func (s *Store) Keys() []fluxbind.StoreKey {
	s.mu.RLock()
	keys := make([]fluxbind.StoreKey, 0, len(s.bodies))
	for k := range s.bodies {
		keys = append(keys, k)
	}
	s.mu.RUnlock()

	fluxbind.RecordRead(s, fluxbind.KeyAll)
	return keys
}

// Refresh lists the prefix, fetches objects whose ETag changed, drops keys
// whose objects are gone, and publishes a change for every affected key.
// Notifications are delivered synchronously after the local view is
// updated, so builders triggered by them see the refreshed data.
func (s *Store) Refresh(ctx context.Context) error {
	listed := make(map[fluxbind.StoreKey]string)

	var continuation *string
	for {
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			Prefix:            aws.String(s.prefix),
			ContinuationToken: continuation,
		})
		if err != nil {
			return fmt.Errorf("s3store: list %s/%s: %w", s.bucket, s.prefix, err)
		}
		for _, obj := range out.Contents {
			key := fluxbind.StoreKey(strings.TrimPrefix(aws.ToString(obj.Key), s.prefix))
			if key == "" {
				continue // the prefix itself listed as a zero-length "directory" object
			}
			listed[key] = aws.ToString(obj.ETag)
		}
		if !aws.ToBool(out.IsTruncated) {
			break
		}
		continuation = out.NextContinuationToken
	}

	var changed []fluxbind.StoreKey

	s.mu.Lock()
	for key := range s.bodies {
		if _, ok := listed[key]; !ok {
			delete(s.bodies, key)
			delete(s.etags, key)
			changed = append(changed, key)
		}
	}
	s.mu.Unlock()

	for key, etag := range listed {
		s.mu.RLock()
		unchanged := s.etags[key] == etag && etag != ""
		s.mu.RUnlock()
		if unchanged {
			continue
		}

		body, err := s.fetch(ctx, key)
		if err != nil {
			return err
		}

		s.mu.Lock()
		s.bodies[key] = body
		s.etags[key] = etag
		s.mu.Unlock()
		changed = append(changed, key)
	}

	for _, key := range changed {
		s.Publish(key)
	}
	return nil
}

// fetch downloads one object body.
func (s *Store) fetch(ctx context.Context, key fluxbind.StoreKey) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.prefix + string(key)),
	})
	if err != nil {
		return nil, fmt.Errorf("s3store: get %s/%s%s: %w", s.bucket, s.prefix, key, err)
	}
	defer out.Body.Close()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("s3store: read %s/%s%s: %w", s.bucket, s.prefix, key, err)
	}
	return body, nil
}
