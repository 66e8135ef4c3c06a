package repositories

import (
	"github.com/Masterminds/squirrel"

	"github.com/oaustech/docportal/internal/db"
)

// psql builds PostgreSQL statements with $n placeholders
var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// Repositories holds all the repository instances
type Repositories struct {
	UserRepository     *UserRepository
	StudentRepository  *StudentRepository
	DocumentRepository *DocumentRepository
}

// NewRepositories initializes all repositories on conn, which may be the pool or a transaction
func NewRepositories(conn db.DBTX) *Repositories {
	return &Repositories{
		UserRepository:     NewUserRepository(conn),
		StudentRepository:  NewStudentRepository(conn),
		DocumentRepository: NewDocumentRepository(conn),
	}
}
