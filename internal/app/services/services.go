// Package services holds the portal's business logic between the HTTP
// controllers and the repositories.
//
// Services defined in this package:
//   - AuthService: student self-registration, login and admin accounts
//   - DocumentService: uploads, reviews and downloads through the review workflow
//   - AdminService: the admin dashboard, student listing and removal
//   - DocumentStore: the workflow's record store over PostgreSQL and file storage
package services

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/oaustech/docportal/internal/app/models"
	"github.com/oaustech/docportal/internal/app/repositories"
	"github.com/oaustech/docportal/internal/db"
	"github.com/oaustech/docportal/internal/workflow"
)

// UserRepository is the user storage the services depend on
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) (int64, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	CountByRole(ctx context.Context, role models.RoleType) (int64, error)
	UpdateLastLogin(ctx context.Context, userID int64, at time.Time) error
	DeleteUser(ctx context.Context, userID int64) error
}

// StudentRepository is the student profile storage the services depend on
type StudentRepository interface {
	CreateStudent(ctx context.Context, student *models.Student) error
	GetStudentByUserID(ctx context.Context, userID int64) (*models.Student, error)
	ListStudents(ctx context.Context, filter models.StudentFilter) ([]*models.Student, int64, error)
}

// DocumentRepository is the document record storage the services depend on
type DocumentRepository interface {
	Upsert(ctx context.Context, rec workflow.DocumentRecord) (workflow.DocumentRecord, error)
	Get(ctx context.Context, studentID int64, documentType string) (workflow.DocumentRecord, error)
	ListByStudent(ctx context.Context, studentID int64) ([]workflow.DocumentRecord, error)
	ListByStudents(ctx context.Context, studentIDs []int64) ([]workflow.DocumentRecord, error)
	UpdateReview(ctx context.Context, studentID int64, documentType string, change workflow.ReviewChange) (workflow.DocumentRecord, error)
	DeleteByStudent(ctx context.Context, studentID int64) ([]string, error)
}

// Repos groups the repositories bound to one connection or transaction
type Repos struct {
	Users     UserRepository
	Students  StudentRepository
	Documents DocumentRepository
}

// FromRepositories adapts the concrete repositories
func FromRepositories(r *repositories.Repositories) Repos {
	return Repos{
		Users:     r.UserRepository,
		Students:  r.StudentRepository,
		Documents: r.DocumentRepository,
	}
}

// TxManager runs fn with repositories bound to a single transaction
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repos) error) error
}

// PostgresTx is the TxManager over a PostgreSQL pool
type PostgresTx struct {
	db *db.PostgresDB
}

// NewPostgresTx creates a PostgresTx
func NewPostgresTx(database *db.PostgresDB) *PostgresTx {
	return &PostgresTx{db: database}
}

// WithinTx implements TxManager
func (p *PostgresTx) WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repos) error) error {
	return p.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		return fn(ctx, FromRepositories(repositories.NewRepositories(tx)))
	})
}
