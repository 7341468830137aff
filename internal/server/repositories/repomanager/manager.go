package repomanager

import (
	"context"

	"github.com/dmitrijs2005/taskkeeper/internal/dbx"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/tasks"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX: Conn() for
// standalone statements or the handle WithTx passes to fn.
type RepositoryManager interface {
	RunMigrations(ctx context.Context) error
	WithTx(ctx context.Context, fn dbx.TxFunc) error
	Conn() dbx.DBTX
	Close() error

	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Tasks(db dbx.DBTX) tasks.Repository
}
