package aspects

import (
	"database/sql"

	"github.com/go-park/aspectchain/pkg/aspect"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	TransName  = "trans"
	TransOrder = -998
)

var _ aspect.Aspect = (*Trans)(nil)

// Trans runs the rest of the chain inside a gorm transaction. It commits when the chain
// succeeds and rolls back when it fails, returning the chain's error unchanged. A call
// already running inside a transaction joins it.
//
//@Aspect("trans", custom="Transactional")
type Trans struct {
	db        *gorm.DB
	txOptions *sql.TxOptions
	log       logrus.FieldLogger
}

func NewTrans(db *gorm.DB, opts ...aspect.Option[Trans]) *Trans {
	a := &Trans{db: db, log: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func WithTxOptions(o *sql.TxOptions) aspect.Option[Trans] {
	return func(a *Trans) {
		a.txOptions = o
	}
}

func WithTransLogger(l logrus.FieldLogger) aspect.Option[Trans] {
	return func(a *Trans) {
		a.log = l
	}
}

func (a *Trans) Name() string { return TransName }
func (a *Trans) Order() int   { return TransOrder }

func (a *Trans) Around(pjp aspect.ProceedingJoinpoint) error {
	ctx := pjp.Context()
	if _, ok := boundDB(ctx); ok {
		return pjp.Proceed()
	}
	var opts []*sql.TxOptions
	if a.txOptions != nil {
		opts = append(opts, a.txOptions)
	}
	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pjp.SetContext(WithDB(ctx, tx))
		return pjp.Proceed()
	}, opts...)
	pjp.SetContext(ctx)
	entry := a.log.WithFields(logrus.Fields{"method": pjp.Name(), "call": pjp.ID()})
	if err != nil {
		entry.WithError(err).Debug("transaction rolled back")
		return err
	}
	entry.Debug("transaction committed")
	return nil
}
