// Package db wires the backend's repositories to a database and owns the
// schema migrations.
package db

import (
	"context"
	"database/sql"

	"github.com/versemark/versemark/internal/server/repositories/annotations"
	"github.com/versemark/versemark/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context) error
	Conn() *sql.DB
	Close() error
	Users() users.Repository
	Annotations() annotations.Repository
}
