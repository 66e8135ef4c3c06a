package services

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/oaustech/docportal/internal/app/models"
	"github.com/oaustech/docportal/internal/pkg/apperrors"
	"github.com/oaustech/docportal/internal/pkg/auth"
	"github.com/oaustech/docportal/internal/pkg/email"
	"github.com/oaustech/docportal/internal/pkg/filestorage"
	"github.com/oaustech/docportal/internal/workflow"
)

func init() {
	auth.BcryptCost = 4
}

var (
	pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n%%EOF\n")
	pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89")
)

type memDB struct {
	mu       sync.Mutex
	nextID   int64
	users    map[int64]*models.User
	students map[int64]*models.Student
	docs     map[string]workflow.DocumentRecord

	// deleteUserErr, when set, fails every DeleteUser
	deleteUserErr error
}

func newMemDB() *memDB {
	return &memDB{
		users:    map[int64]*models.User{},
		students: map[int64]*models.Student{},
		docs:     map[string]workflow.DocumentRecord{},
	}
}

func (m *memDB) repos() Repos {
	return Repos{Users: (*memUsers)(m), Students: (*memStudents)(m), Documents: (*memDocs)(m)}
}

// WithinTx implements TxManager without isolation; a failing fn restores the
// state it started from, like a rollback
func (m *memDB) WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repos) error) error {
	m.mu.Lock()
	users, students, docs := maps.Clone(m.users), maps.Clone(m.students), maps.Clone(m.docs)
	m.mu.Unlock()

	if err := fn(ctx, m.repos()); err != nil {
		m.mu.Lock()
		m.users, m.students, m.docs = users, students, docs
		m.mu.Unlock()
		return err
	}
	return nil
}

type memUsers memDB

func (m *memUsers) CreateUser(_ context.Context, user *models.User) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == user.Username {
			return 0, apperrors.ErrUsernameAlreadyExists
		}
		if user.Email != "" && strings.EqualFold(u.Email, user.Email) {
			return 0, apperrors.ErrEmailAlreadyExists
		}
	}
	m.nextID++
	user.ID = m.nextID
	user.CreatedAt = time.Now()
	cp := *user
	m.users[user.ID] = &cp
	return user.ID, nil
}

func (m *memUsers) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func (m *memUsers) UsernameExists(ctx context.Context, username string) (bool, error) {
	_, err := m.GetUserByUsername(ctx, username)
	return err == nil, nil
}

func (m *memUsers) EmailExists(_ context.Context, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memUsers) CountByRole(_ context.Context, role models.RoleType) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, u := range m.users {
		if u.RoleType == role {
			n++
		}
	}
	return n, nil
}

func (m *memUsers) UpdateLastLogin(_ context.Context, userID int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[userID]; ok {
		u.LastLoginAt = &at
	}
	return nil
}

func (m *memUsers) DeleteUser(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteUserErr != nil {
		return m.deleteUserErr
	}
	if _, ok := m.users[userID]; !ok {
		return apperrors.ErrUserNotFound
	}
	delete(m.users, userID)
	delete(m.students, userID)
	return nil
}

type memStudents memDB

func (m *memStudents) CreateStudent(_ context.Context, student *models.Student) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	student.CreatedAt = time.Now()
	cp := *student
	m.students[student.UserID] = &cp
	return nil
}

func (m *memStudents) get(id int64) (*models.Student, bool) {
	st, ok := m.students[id]
	if !ok {
		return nil, false
	}
	cp := *st
	if u, ok := m.users[id]; ok {
		uc := *u
		cp.User = &uc
	}
	return &cp, true
}

func (m *memStudents) GetStudentByUserID(_ context.Context, userID int64) (*models.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.get(userID)
	if !ok {
		return nil, apperrors.ErrStudentNotFound
	}
	return st, nil
}

func (m *memStudents) ListStudents(_ context.Context, filter models.StudentFilter) ([]*models.Student, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Student
	for id := range m.students {
		st, _ := m.get(id)
		if filter.Department != "" && st.Department != filter.Department {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(st.FullName), strings.ToLower(filter.Search)) {
			continue
		}
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, int64(len(out)), nil
}

type memDocs memDB

func docKey(studentID int64, docType string) string {
	return fmt.Sprintf("%d/%s", studentID, docType)
}

func (m *memDocs) Upsert(_ context.Context, rec workflow.DocumentRecord) (workflow.DocumentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.students[rec.StudentID]; !ok {
		return workflow.DocumentRecord{}, apperrors.ErrStudentNotFound
	}
	key := docKey(rec.StudentID, rec.DocumentType)
	existing, ok := m.docs[key]
	if ok {
		rec.ID = existing.ID
	} else {
		m.nextID++
		rec.ID = m.nextID
	}
	uploaded := rec.UpdatedAt
	rec.Status = workflow.StatusUploaded
	rec.UploadedAt = &uploaded
	rec.Remarks, rec.ReviewedBy, rec.ReviewedAt = "", "", nil
	m.docs[key] = rec
	return rec, nil
}

func (m *memDocs) Get(_ context.Context, studentID int64, documentType string) (workflow.DocumentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.docs[docKey(studentID, documentType)]
	if !ok {
		return workflow.DocumentRecord{}, apperrors.ErrDocumentRecordNotFound
	}
	return rec, nil
}

func (m *memDocs) ListByStudent(ctx context.Context, studentID int64) ([]workflow.DocumentRecord, error) {
	return m.ListByStudents(ctx, []int64{studentID})
}

func (m *memDocs) ListByStudents(_ context.Context, studentIDs []int64) ([]workflow.DocumentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	want := map[int64]bool{}
	for _, id := range studentIDs {
		want[id] = true
	}
	out := []workflow.DocumentRecord{}
	for _, rec := range m.docs {
		if want[rec.StudentID] {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *memDocs) UpdateReview(_ context.Context, studentID int64, documentType string, change workflow.ReviewChange) (workflow.DocumentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := docKey(studentID, documentType)
	rec, ok := m.docs[key]
	if !ok {
		return workflow.DocumentRecord{}, apperrors.ErrDocumentRecordNotFound
	}
	at := change.ReviewedAt
	rec.Status, rec.Remarks, rec.ReviewedBy, rec.ReviewedAt, rec.UpdatedAt = change.Status, change.Remarks, change.ReviewedBy, &at, at
	m.docs[key] = rec
	return rec, nil
}

func (m *memDocs) DeleteByStudent(_ context.Context, studentID int64) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var refs []string
	for key, rec := range m.docs {
		if rec.StudentID == studentID {
			refs = append(refs, rec.FileRef)
			delete(m.docs, key)
		}
	}
	return refs, nil
}

type sentMail struct {
	to     string
	name   string
	notice email.ReviewNotice
}

type fakeMailer struct {
	mu       sync.Mutex
	welcomes []string
	reviews  []sentMail
}

func (f *fakeMailer) SendWelcomeEmail(toEmail, _, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.welcomes = append(f.welcomes, toEmail)
	return nil
}

func (f *fakeMailer) SendDocumentReviewedEmail(toEmail, toName string, review email.ReviewNotice) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reviews = append(f.reviews, sentMail{to: toEmail, name: toName, notice: review})
	return nil
}

// harness wires every service over in-memory repositories and a temp-dir LocalStorage
type harness struct {
	db      *memDB
	storage *filestorage.LocalStorage
	mailer  *fakeMailer
	jwt     *auth.JWTService
	store   *DocumentStore
	wf      *workflow.Workflow
	docs    *DocumentService
	auth    *AuthService
	admin   *AdminService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	storage, err := filestorage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	h := &harness{
		db:      newMemDB(),
		storage: storage,
		mailer:  &fakeMailer{},
		jwt: auth.NewJWTService(auth.JWTConfig{
			SecretKey: "secret", AccessTokenExp: time.Hour, TokenIssuer: "test",
		}),
	}
	lgr := zerolog.Nop()
	urls := NewURLResolver(storage, "http://portal.test/", lgr)
	repos := h.db.repos()
	h.store = NewDocumentStore(repos.Documents, storage, urls, lgr)
	h.wf = workflow.New(h.store)
	h.docs = NewDocumentService(h.wf, h.store, repos.Students, h.mailer, lgr)
	h.auth = NewAuthService(repos, h.db, storage, urls, h.jwt, h.mailer, lgr)
	h.admin = NewAdminService(h.wf, repos, h.db, h.store, urls, lgr)
	return h
}

func (h *harness) addStudent(t *testing.T, username, name, dept string) workflow.Session {
	t.Helper()
	ctx := context.Background()
	u := &models.User{Username: username, Email: username + "@student.test", Password: "x", RoleType: models.RoleStudent}
	id, err := h.db.repos().Users.CreateUser(ctx, u)
	require.NoError(t, err)
	require.NoError(t, h.db.repos().Students.CreateStudent(ctx, &models.Student{
		UserID: id, FullName: name, Department: dept, Level: "100",
	}))
	return workflow.Session{UserID: id, Username: username, Role: workflow.RoleStudent, ExpiresAt: time.Now().Add(time.Hour)}
}

func adminSession() workflow.Session {
	return workflow.Session{UserID: 999, Username: "registrar", Role: workflow.RoleAdmin, ExpiresAt: time.Now().Add(time.Hour)}
}
