// Package memory is an in-process implementation of the repository manager.
// It backs tests and the "memory" storage mode. Data is lost on exit.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/dbx"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/tasks"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/users"
)

// Store keeps every table behind its own mutex. WithTx serializes
// transactional callers but cannot roll back: writes made before fn fails
// stay applied.
type Store struct {
	txMu sync.Mutex

	users  *userTable
	tokens *tokenTable
	tasks  *taskTable

	now func() time.Time
}

func NewStore() *Store {
	s := &Store{now: time.Now}
	s.users = &userTable{byID: map[int64]*models.User{}, byEmail: map[string]int64{}, now: s.clock}
	s.tokens = &tokenTable{rows: map[string]*models.RefreshToken{}, now: s.clock}
	s.tasks = &taskTable{byUser: map[int64][]*models.Task{}, now: s.clock}
	return s
}

func (s *Store) clock() time.Time { return s.now() }

func (s *Store) RunMigrations(context.Context) error { return nil }
func (s *Store) Conn() dbx.DBTX                       { return nil }
func (s *Store) Close() error                         { return nil }

func (s *Store) WithTx(ctx context.Context, fn dbx.TxFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return fn(ctx, nil)
}

func (s *Store) Users(dbx.DBTX) users.Repository                 { return s.users }
func (s *Store) RefreshTokens(dbx.DBTX) refreshtokens.Repository { return s.tokens }
func (s *Store) Tasks(dbx.DBTX) tasks.Repository                 { return s.tasks }

type userTable struct {
	mu      sync.RWMutex
	seq     int64
	byID    map[int64]*models.User
	byEmail map[string]int64
	now     func() time.Time
}

func (t *userTable) Create(_ context.Context, u *models.User) (*models.User, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.byEmail[u.Email]; ok {
		return nil, common.ErrorAlreadyExists
	}
	t.seq++
	now := t.now().UTC()
	u.ID, u.CreatedAt, u.UpdatedAt = t.seq, now, now

	row := *u
	t.byID[u.ID] = &row
	t.byEmail[u.Email] = u.ID
	return u, nil
}

func (t *userTable) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	id, ok := t.byEmail[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	row := *t.byID[id]
	return &row, nil
}

func (t *userTable) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	u, ok := t.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	row := *u
	return &row, nil
}

type tokenTable struct {
	mu   sync.Mutex
	seq  int64
	rows map[string]*models.RefreshToken
	now  func() time.Time
}

func (t *tokenTable) Create(_ context.Context, rt *models.RefreshToken) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.rows[rt.Token]; ok {
		return common.ErrorAlreadyExists
	}
	t.seq++
	rt.ID, rt.CreatedAt = t.seq, t.now().UTC()

	row := *rt
	t.rows[rt.Token] = &row
	return nil
}

func (t *tokenTable) Find(_ context.Context, token string) (*models.RefreshToken, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rt, ok := t.rows[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	row := *rt
	return &row, nil
}

func (t *tokenTable) Consume(_ context.Context, token string) (*models.RefreshToken, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rt, ok := t.rows[token]
	if !ok || rt.Revoked {
		return nil, common.ErrorNotFound
	}
	delete(t.rows, token)
	return rt, nil
}

func (t *tokenTable) Delete(_ context.Context, token string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.rows, token)
	return nil
}

func (t *tokenTable) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var n int64
	for k, rt := range t.rows {
		if rt.Expired(now) {
			delete(t.rows, k)
			n++
		}
	}
	return n, nil
}

type taskTable struct {
	mu     sync.RWMutex
	seq    int64
	byUser map[int64][]*models.Task
	now    func() time.Time
}

func (t *taskTable) Create(_ context.Context, task *models.Task) (*models.Task, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.seq++
	now := t.now().UTC()
	task.ID, task.CreatedAt, task.UpdatedAt = t.seq, now, now

	row := *task
	t.byUser[task.UserID] = append(t.byUser[task.UserID], &row)
	return task, nil
}

func (t *taskTable) ListByUser(_ context.Context, userID int64) ([]*models.Task, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]*models.Task, 0, len(t.byUser[userID]))
	for _, task := range t.byUser[userID] {
		row := *task
		out = append(out, &row)
	}
	return out, nil
}
