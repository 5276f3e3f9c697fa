package backup

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/rlindsey/tally/internal/database"
)

// mockS3Client implements s3Client for testing.
type mockS3Client struct {
	mu       sync.Mutex
	objects  map[string][]byte
	modified map[string]time.Time
}

func newMockS3() *mockS3Client {
	return &mockS3Client{
		objects:  make(map[string][]byte),
		modified: make(map[string]time.Time),
	}
}

func (m *mockS3Client) PutObject(_ context.Context, input *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, _ := io.ReadAll(input.Body)
	m.objects[*input.Key] = data
	m.modified[*input.Key] = time.Now().UTC()
	return &s3.PutObjectOutput{}, nil
}

func (m *mockS3Client) ListObjectsV2(_ context.Context, input *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var contents []types.Object
	for key := range m.objects {
		if input.Prefix != nil && !strings.HasPrefix(key, *input.Prefix) {
			continue
		}
		mod := m.modified[key]
		contents = append(contents, types.Object{
			Key:          aws.String(key),
			LastModified: &mod,
		})
	}
	return &s3.ListObjectsV2Output{Contents: contents}, nil
}

func (m *mockS3Client) DeleteObject(_ context.Context, input *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, *input.Key)
	delete(m.modified, *input.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func TestManagerDisabledWithoutConfig(t *testing.T) {
	m := NewManager(Config{}, nil, slog.Default())
	if m.Enabled() {
		t.Error("manager should be disabled without S3 config")
	}

	// Start and Stop on a disabled manager must be no-ops
	m.Start(context.Background())
	m.Stop()

	if err := m.RunOnce(context.Background()); err == nil {
		t.Error("RunOnce should fail when backups are disabled")
	}
}

func TestManagerDisabledWithoutPassphrase(t *testing.T) {
	m := NewManager(Config{
		S3: S3Config{Bucket: "b", AccessKey: "k", SecretKey: "s"},
	}, nil, slog.Default())
	if m.Enabled() {
		t.Error("manager should be disabled without a passphrase")
	}
}

func TestManagerRunOnce(t *testing.T) {
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	m := NewManager(Config{
		S3:         S3Config{Bucket: "b", AccessKey: "k", SecretKey: "s"},
		Passphrase: "pass",
	}, db, slog.Default())
	mock := newMockS3()
	m.client = mock

	if err := m.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}

	mock.mu.Lock()
	defer mock.mu.Unlock()
	if len(mock.objects) != 1 {
		t.Fatalf("expected 1 uploaded object, got %d", len(mock.objects))
	}
	for key, data := range mock.objects {
		if !strings.HasPrefix(key, "tally/backup-") || !strings.HasSuffix(key, ".db.enc") {
			t.Errorf("key = %q, want tally/backup-*.db.enc", key)
		}
		// The upload decrypts back to a SQLite file
		plain, err := Decrypt(data, "pass")
		if err != nil {
			t.Fatalf("decrypt upload: %v", err)
		}
		if !strings.HasPrefix(string(plain[:16]), "SQLite format 3") {
			t.Errorf("decrypted snapshot is not a SQLite database")
		}
	}

	if m.LastBackup().IsZero() {
		t.Error("last backup time should be recorded")
	}
}

func TestManagerPrune(t *testing.T) {
	m := NewManager(Config{
		S3:            S3Config{Bucket: "b", AccessKey: "k", SecretKey: "s"},
		Passphrase:    "pass",
		RetentionDays: 7,
	}, nil, slog.Default())
	mock := newMockS3()
	m.client = mock

	mock.objects["tally/backup-old.db.enc"] = []byte("old")
	mock.modified["tally/backup-old.db.enc"] = time.Now().UTC().AddDate(0, 0, -10)
	mock.objects["tally/backup-new.db.enc"] = []byte("new")
	mock.modified["tally/backup-new.db.enc"] = time.Now().UTC()

	if err := m.prune(context.Background()); err != nil {
		t.Fatalf("prune: %v", err)
	}

	mock.mu.Lock()
	defer mock.mu.Unlock()
	if _, ok := mock.objects["tally/backup-old.db.enc"]; ok {
		t.Error("expired backup should have been deleted")
	}
	if _, ok := mock.objects["tally/backup-new.db.enc"]; !ok {
		t.Error("recent backup should have been kept")
	}
}
