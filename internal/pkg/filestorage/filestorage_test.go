package filestorage

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectKey(t *testing.T) {
	key := ObjectKey(42, "jamb-admission", "My Letter.PDF")
	assert.True(t, strings.HasPrefix(key, "students/42/jamb-admission/"), key)
	assert.True(t, strings.HasSuffix(key, ".pdf"), key)
	assert.NotEqual(t, key, ObjectKey(42, "jamb-admission", "My Letter.PDF"))

	key = ObjectKey(1, "../etc", `C:\scans\x.png`)
	assert.True(t, strings.HasPrefix(key, "students/1/___etc/"), key)
	assert.True(t, strings.HasSuffix(key, ".png"), key)
}

func TestCleanRef(t *testing.T) {
	ok := []string{"students/1/a/b.pdf", "/profiles/x.png"}
	for _, ref := range ok {
		_, err := cleanRef(ref)
		assert.NoError(t, err, ref)
	}
	bad := []string{"", "../secret", "students/../../etc/passwd", "a//b", "."}
	for _, ref := range bad {
		_, err := cleanRef(ref)
		assert.Error(t, err, ref)
	}
}

func TestLocalStorageRoundTrip(t *testing.T) {
	ctx := context.Background()
	ls, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	content := "%PDF-1.4 test"
	ref, err := ls.Put(ctx, "students/7/course-form/abc.pdf", strings.NewReader(content), int64(len(content)), "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "students/7/course-form/abc.pdf", ref)

	rc, err := ls.Open(ctx, ref)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, content, string(data))

	u, err := ls.URL(ctx, ref)
	require.NoError(t, err)
	assert.Empty(t, u)

	require.NoError(t, ls.Delete(ctx, ref))
	_, err = ls.Open(ctx, ref)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, ls.Delete(ctx, ref), "deleting twice is fine")
	assert.NoError(t, ls.Delete(ctx, ""))
}

func TestLocalStorageRejectsShortWriteAndTraversal(t *testing.T) {
	ctx := context.Background()
	ls, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = ls.Put(ctx, "students/1/x/short.pdf", strings.NewReader("abc"), 10, "application/pdf")
	assert.Error(t, err)
	_, err = ls.Open(ctx, "students/1/x/short.pdf")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = ls.Put(ctx, "../escape.pdf", strings.NewReader("abc"), 3, "application/pdf")
	assert.Error(t, err)
	assert.Error(t, ls.Delete(ctx, "../../etc/passwd"))
}

func TestMinioStoragePresignedURL(t *testing.T) {
	s, err := NewMinioStorage(MinioConfig{
		Endpoint:      "minio.example.com:9000",
		AccessKey:     "access",
		SecretKey:     "secret",
		Bucket:        "student-documents",
		Region:        "us-east-1",
		PresignExpiry: 10 * time.Minute,
	})
	require.NoError(t, err)

	u, err := s.URL(context.Background(), "students/7/course-form/abc.pdf")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(u, "http://minio.example.com:9000/student-documents/students/7/course-form/abc.pdf?"), u)
	assert.Contains(t, u, "X-Amz-Expires=600")
}

func TestMinioStorageRejectsBadKey(t *testing.T) {
	s, err := NewMinioStorage(MinioConfig{Endpoint: "localhost:9000", Bucket: "b", Region: "us-east-1"})
	require.NoError(t, err)

	_, err = s.Put(context.Background(), "../x", strings.NewReader("a"), 1, "application/pdf")
	assert.Error(t, err)
	assert.NoError(t, s.Delete(context.Background(), ""))
}
