package s3

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/askdb/askdb/internal/storage"
)

func newFakeStore(t *testing.T, prefix string) (*Store, *fakeAPI) {
	t.Helper()
	fake := &fakeAPI{objects: map[string][]byte{}}
	store, err := NewWithAPI("audit-bucket", prefix, fake)
	if err != nil {
		t.Fatalf("NewWithAPI() error = %v", err)
	}
	return store, fake
}

func TestPutPrependsPrefix(t *testing.T) {
	store, fake := newFakeStore(t, "askdb/prod")

	info, err := store.Put(context.Background(), "/audit/askdb-api/history-1-9.parquet", []byte("abc"), "application/vnd.apache.parquet")
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	want := "askdb/prod/audit/askdb-api/history-1-9.parquet"
	if info.Key != want {
		t.Fatalf("info key = %q", info.Key)
	}
	if fake.lastBucket != "audit-bucket" || fake.lastContentType != "application/vnd.apache.parquet" {
		t.Fatalf("bucket/content-type = %q/%q", fake.lastBucket, fake.lastContentType)
	}
	if _, ok := fake.objects[want]; !ok {
		t.Fatalf("stored keys = %v", fake.objects)
	}
}

func TestGetRoundTrip(t *testing.T) {
	store, _ := newFakeStore(t, "")
	if _, err := store.Put(context.Background(), "a/b.parquet", []byte("payload"), ""); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	payload, err := store.Get(context.Background(), "a/b.parquet")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !bytes.Equal(payload, []byte("payload")) {
		t.Fatalf("payload = %q", payload)
	}
}

func TestGetMissingObject(t *testing.T) {
	store, _ := newFakeStore(t, "")
	if _, err := store.Get(context.Background(), "missing.parquet"); !errors.Is(err, storage.ErrObjectNotFound) {
		t.Fatalf("Get() error = %v, want ErrObjectNotFound", err)
	}
}

func TestKeyValidation(t *testing.T) {
	store, _ := newFakeStore(t, "")
	for _, key := range []string{"", "   ", "../secrets.txt", "a/../../b"} {
		if _, err := store.Put(context.Background(), key, []byte("x"), ""); err == nil {
			t.Fatalf("Put(%q) accepted invalid key", key)
		}
	}
}

func TestDeleteIgnoresMissingObject(t *testing.T) {
	store, _ := newFakeStore(t, "")
	if err := store.Delete(context.Background(), "missing/file.parquet"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
}

func TestResolveEndpoint(t *testing.T) {
	tests := []struct {
		raw        string
		useSSL     bool
		wantHost   string
		wantSecure bool
	}{
		{"https://minio.example.com", false, "minio.example.com", true},
		{"http://localhost:9000", false, "localhost:9000", false},
		{"minio.internal:9000", true, "minio.internal:9000", true},
	}
	for _, tt := range tests {
		host, secure, err := resolveEndpoint(tt.raw, tt.useSSL)
		if err != nil {
			t.Fatalf("resolveEndpoint(%q) error = %v", tt.raw, err)
		}
		if host != tt.wantHost || secure != tt.wantSecure {
			t.Fatalf("resolveEndpoint(%q) = %q/%v", tt.raw, host, secure)
		}
	}
	if _, _, err := resolveEndpoint("://bad", false); err == nil {
		t.Fatal("expected error for malformed endpoint")
	}
}

type fakeAPI struct {
	objects         map[string][]byte
	lastBucket      string
	lastContentType string
	buckets         []string
	bucketExists    bool
}

func (f *fakeAPI) Upload(_ context.Context, bucket, key string, payload []byte, contentType string) (storage.ObjectInfo, error) {
	f.lastBucket = bucket
	f.lastContentType = contentType
	f.objects[key] = append([]byte(nil), payload...)
	return storage.ObjectInfo{Key: key, Size: int64(len(payload)), ETag: "etag-1"}, nil
}

func (f *fakeAPI) Download(_ context.Context, _, key string) ([]byte, error) {
	payload, ok := f.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return payload, nil
}

func (f *fakeAPI) Remove(_ context.Context, _, key string) error {
	if _, ok := f.objects[key]; !ok {
		return storage.ErrObjectNotFound
	}
	delete(f.objects, key)
	return nil
}

func (f *fakeAPI) BucketExists(_ context.Context, _ string) (bool, error) {
	return f.bucketExists, nil
}

func (f *fakeAPI) MakeBucket(_ context.Context, bucket, _ string) error {
	f.buckets = append(f.buckets, bucket)
	return nil
}
