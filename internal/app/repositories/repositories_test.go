package repositories

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oaustech/docportal/internal/app/models"
	"github.com/oaustech/docportal/internal/pkg/apperrors"
	"github.com/oaustech/docportal/internal/workflow"
)

// fakeRow copies values into Scan destinations
type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.values) {
		return errors.New("column count mismatch")
	}
	for i, d := range dest {
		if r.values[i] == nil {
			continue
		}
		reflect.ValueOf(d).Elem().Set(reflect.ValueOf(r.values[i]))
	}
	return nil
}

type fakeDB struct {
	sql  string
	args []any
	row  fakeRow
	tag  pgconn.CommandTag
	err  error
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.sql, f.args = sql, args
	return f.tag, f.err
}

func (f *fakeDB) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	f.sql, f.args = sql, args
	return nil, errors.New("not supported by fake")
}

func (f *fakeDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	f.sql, f.args = sql, args
	return f.row
}

func documentRow(status string) fakeRow {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	var reviewedAt *time.Time
	return fakeRow{values: []any{
		int64(9), int64(5), "jamb-admission", status, "students/5/jamb-admission/x.pdf", "jamb.pdf", "application/pdf",
		int64(2048), "", now, reviewedAt, "", now,
	}}
}

func TestDocumentUpsert(t *testing.T) {
	fdb := &fakeDB{row: documentRow("uploaded")}
	repo := NewDocumentRepository(fdb)

	rec, err := repo.Upsert(context.Background(), workflow.DocumentRecord{
		StudentID: 5, DocumentType: "jamb-admission", FileRef: "students/5/jamb-admission/x.pdf",
		FileName: "jamb.pdf", ContentType: "application/pdf", FileSize: 2048,
	})
	require.NoError(t, err)
	assert.Contains(t, fdb.sql, "ON CONFLICT (student_id, document_type) DO UPDATE")
	assert.Contains(t, fdb.sql, "RETURNING id, student_id")
	assert.Equal(t, workflow.StatusUploaded, rec.Status)
	assert.Equal(t, int64(9), rec.ID)
	require.NotNil(t, rec.UploadedAt)
	assert.Equal(t, "uploaded", fdb.args[2])
}

func TestDocumentUpsertUnknownStudent(t *testing.T) {
	fdb := &fakeDB{row: fakeRow{err: &pgconn.PgError{Code: "23503"}}}
	_, err := NewDocumentRepository(fdb).Upsert(context.Background(), workflow.DocumentRecord{StudentID: 77, DocumentType: "course-form"})
	assert.ErrorIs(t, err, apperrors.ErrStudentNotFound)
}

func TestDocumentUpdateReview(t *testing.T) {
	fdb := &fakeDB{row: documentRow("rejected")}
	rec, err := NewDocumentRepository(fdb).UpdateReview(context.Background(), 5, "jamb-admission", workflow.ReviewChange{
		Status: workflow.StatusRejected, Remarks: "blurry", ReviewedBy: "admin", ReviewedAt: time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusRejected, rec.Status)
	assert.Contains(t, fdb.sql, "UPDATE document_records SET status = $1")
	assert.Equal(t, "rejected", fdb.args[0])
	assert.Equal(t, "blurry", fdb.args[1])

	missing := &fakeDB{row: fakeRow{err: pgx.ErrNoRows}}
	_, err = NewDocumentRepository(missing).UpdateReview(context.Background(), 5, "jamb-admission", workflow.ReviewChange{Status: workflow.StatusApproved})
	assert.ErrorIs(t, err, apperrors.ErrDocumentRecordNotFound)
}

func TestDocumentScanRejectsUnknownStatus(t *testing.T) {
	fdb := &fakeDB{row: documentRow("lost")}
	_, err := NewDocumentRepository(fdb).Get(context.Background(), 5, "jamb-admission")
	assert.Error(t, err)
}

func TestCreateUserDuplicates(t *testing.T) {
	tests := []struct {
		constraint string
		want       error
	}{
		{"users_username_key", apperrors.ErrUsernameAlreadyExists},
		{"users_email_key", apperrors.ErrEmailAlreadyExists},
	}
	for _, tt := range tests {
		t.Run(tt.constraint, func(t *testing.T) {
			fdb := &fakeDB{row: fakeRow{err: &pgconn.PgError{Code: "23505", ConstraintName: tt.constraint}}}
			_, err := NewUserRepository(fdb).CreateUser(context.Background(), &models.User{
				Username: "ST2024001", Email: "a@b.co", Password: "hash", RoleType: models.RoleStudent,
			})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestGetUserNotFound(t *testing.T) {
	fdb := &fakeDB{row: fakeRow{err: pgx.ErrNoRows}}
	_, err := NewUserRepository(fdb).GetUserByUsername(context.Background(), "ghost")
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
	assert.Contains(t, fdb.sql, "WHERE username = $1")
}

func TestDeleteUser(t *testing.T) {
	fdb := &fakeDB{tag: pgconn.NewCommandTag("DELETE 0")}
	err := NewUserRepository(fdb).DeleteUser(context.Background(), 5)
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)

	fdb.tag = pgconn.NewCommandTag("DELETE 1")
	assert.NoError(t, NewUserRepository(fdb).DeleteUser(context.Background(), 5))
}

func TestStudentFilter(t *testing.T) {
	q := applyStudentFilter(psql.Select("*").From("students s").Join("users u ON u.id = s.user_id"),
		models.StudentFilter{Search: "50%_off", Department: "csc"})
	sql, args, err := q.ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "s.full_name ILIKE $1")
	assert.Contains(t, sql, "s.department = $5")
	assert.Equal(t, `%50\%\_off%`, args[0])
	assert.Equal(t, "CSC", args[4])
}
