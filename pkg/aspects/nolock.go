package aspects

import (
	"github.com/go-park/aspectchain/pkg/aspect"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	NoLockName  = "nolock"
	NoLockOrder = -997

	DefaultNoLockStatement = "PRAGMA read_uncommitted = 1"
	DefaultNoLockRestore   = "PRAGMA read_uncommitted = 0"
)

var _ aspect.Aspect = (*NoLock)(nil)

// NoLock pins a single connection, relaxes its read isolation and exposes it through
// the context for the rest of the chain. Nothing is committed or rolled back.
//
//@Aspect("nolock", custom="NoLock")
type NoLock struct {
	db        *gorm.DB
	statement string
	restore   string
	log       logrus.FieldLogger
}

func NewNoLock(db *gorm.DB, opts ...aspect.Option[NoLock]) *NoLock {
	a := &NoLock{
		db:        db,
		statement: DefaultNoLockStatement,
		restore:   DefaultNoLockRestore,
		log:       logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// WithStatements sets the statement run before the chain and the one restoring the
// session after it, e.g. "SET TRANSACTION ISOLATION LEVEL READ UNCOMMITTED".
// An empty restore statement skips restoring.
func WithStatements(statement, restore string) aspect.Option[NoLock] {
	return func(a *NoLock) {
		a.statement = statement
		a.restore = restore
	}
}

func WithNoLockLogger(l logrus.FieldLogger) aspect.Option[NoLock] {
	return func(a *NoLock) {
		a.log = l
	}
}

func (a *NoLock) Name() string { return NoLockName }
func (a *NoLock) Order() int   { return NoLockOrder }

func (a *NoLock) Around(pjp aspect.ProceedingJoinpoint) error {
	ctx := pjp.Context()
	if db, ok := boundDB(ctx); ok {
		// already pinned by an enclosing trans or nolock scope
		return a.relaxed(pjp, db)
	}
	return a.db.WithContext(ctx).Connection(func(conn *gorm.DB) error {
		// gorm's default transaction resets the pool of the statement it ran on,
		// so the chain only ever gets sessions of conn.
		pinned := conn.Session(&gorm.Session{Context: ctx})
		pjp.SetContext(WithDB(ctx, pinned))
		defer pjp.SetContext(ctx)
		return a.relaxed(pjp, pinned)
	})
}

// relaxed runs the chain between the statement and its restore, both on fresh
// sessions of db so the chain cannot move them to another connection.
func (a *NoLock) relaxed(pjp aspect.ProceedingJoinpoint, db *gorm.DB) error {
	if err := db.Session(&gorm.Session{}).Exec(a.statement).Error; err != nil {
		return err
	}
	if a.restore != "" {
		defer func() {
			if err := db.Session(&gorm.Session{}).Exec(a.restore).Error; err != nil {
				a.log.WithError(err).WithField("method", pjp.Name()).Warn("nolock restore failed")
			}
		}()
	}
	return pjp.Proceed()
}
