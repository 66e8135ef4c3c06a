package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"

	"github.com/oaustech/docportal/internal/app/models"
	"github.com/oaustech/docportal/internal/db"
	"github.com/oaustech/docportal/internal/pkg/apperrors"
	"github.com/oaustech/docportal/internal/pkg/dberrors"
	"github.com/oaustech/docportal/internal/pkg/logger"
)

var studentColumns = []string{
	"s.user_id", "s.full_name", "s.department", "s.level", "s.profile_photo_ref", "s.created_at",
	"u.username", "COALESCE(u.email, '')", "u.role", "u.created_at", "u.updated_at", "u.last_login_at",
}

// StudentRepository handles student profile database operations
type StudentRepository struct {
	db db.DBTX
}

// NewStudentRepository creates a new StudentRepository
func NewStudentRepository(conn db.DBTX) *StudentRepository {
	return &StudentRepository{db: conn}
}

// CreateStudent inserts the profile of an existing student user
func (r *StudentRepository) CreateStudent(ctx context.Context, student *models.Student) error {
	sql, args, err := psql.Insert("students").
		Columns("user_id", "full_name", "department", "level", "profile_photo_ref").
		Values(student.UserID, student.FullName, student.Department, student.Level, student.ProfilePhotoRef).
		Suffix("RETURNING created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create student query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&student.CreatedAt); err != nil {
		if dberrors.IsDuplicateConstraintError(err, "students_pkey") {
			return apperrors.NewConflictError("Student profile already exists")
		}
		logger.Error().Err(err).Int64("userID", student.UserID).Msg("Error executing create student query")
		return fmt.Errorf("error creating student: %w", err)
	}

	logger.Info().Int64("userID", student.UserID).Str("department", student.Department).Msg("Student created successfully")
	return nil
}

func (r *StudentRepository) baseQuery() squirrel.SelectBuilder {
	return psql.Select(studentColumns...).
		From("students s").
		Join("users u ON u.id = s.user_id")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStudent(row rowScanner) (*models.Student, error) {
	var (
		s    models.Student
		u    models.User
		role string
	)
	err := row.Scan(
		&s.UserID, &s.FullName, &s.Department, &s.Level, &s.ProfilePhotoRef, &s.CreatedAt,
		&u.Username, &u.Email, &role, &u.CreatedAt, &u.UpdatedAt, &u.LastLoginAt)
	if err != nil {
		return nil, err
	}
	u.ID = s.UserID
	u.RoleType = models.RoleType(role)
	s.User = &u
	return &s, nil
}

// GetStudentByUserID retrieves a student with their account
func (r *StudentRepository) GetStudentByUserID(ctx context.Context, userID int64) (*models.Student, error) {
	sql, args, err := r.baseQuery().Where(squirrel.Eq{"s.user_id": userID}).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get student query: %w", err)
	}

	student, err := scanStudent(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if dberrors.IsNoRows(err) {
			return nil, apperrors.ErrStudentNotFound
		}
		logger.Error().Err(err).Int64("userID", userID).Msg("Error scanning student row")
		return nil, fmt.Errorf("error retrieving student: %w", err)
	}
	return student, nil
}

func applyStudentFilter(q squirrel.SelectBuilder, filter models.StudentFilter) squirrel.SelectBuilder {
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + escapeLike(search) + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"s.full_name": pattern},
			squirrel.ILike{"u.username": pattern},
			squirrel.ILike{"u.email": pattern},
			squirrel.ILike{"s.department": pattern},
		})
	}
	if dept := strings.TrimSpace(filter.Department); dept != "" {
		q = q.Where(squirrel.Eq{"s.department": strings.ToUpper(dept)})
	}
	return q
}

// ListStudents returns the students matching filter and the total match count.
// A zero Limit returns every match.
func (r *StudentRepository) ListStudents(ctx context.Context, filter models.StudentFilter) ([]*models.Student, int64, error) {
	countQ := applyStudentFilter(psql.Select("COUNT(*)").From("students s").Join("users u ON u.id = s.user_id"), filter)
	sql, args, err := countQ.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count students query: %w", err)
	}
	var total int64
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error counting students: %w", err)
	}

	q := applyStudentFilter(r.baseQuery(), filter).OrderBy("s.created_at DESC", "s.user_id DESC")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit)).Offset(filter.Offset)
	}
	sql, args, err = q.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list students query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("error listing students: %w", err)
	}
	defer rows.Close()

	students := make([]*models.Student, 0)
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("error scanning student row: %w", err)
		}
		students = append(students, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating students: %w", err)
	}
	return students, total, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
