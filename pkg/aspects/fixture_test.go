package aspects

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/go-park/aspectchain/pkg/aspect"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var errBoom = errors.New("boom")

type account struct {
	ID      uint `gorm:"primaryKey"`
	Name    string
	Balance int
}

// accountService uses whatever handle a trans or nolock scope bound to ctx.
type accountService struct {
	db   *gorm.DB
	fail error
}

func (s *accountService) Open(ctx context.Context, name string, balance int) (*account, error) {
	a := &account{Name: name, Balance: balance}
	if err := DB(ctx, s.db).Create(a).Error; err != nil {
		return nil, err
	}
	if s.fail != nil {
		return nil, s.fail
	}
	return a, nil
}

// OpenAndRead writes through gorm's default transaction, then reads the session state.
func (s *accountService) OpenAndRead(ctx context.Context, name string) (int, error) {
	if err := DB(ctx, s.db).Create(&account{Name: name}).Error; err != nil {
		return 0, err
	}
	return s.ReadUncommitted(ctx)
}

func (s *accountService) ReadUncommitted(ctx context.Context) (int, error) {
	var v int
	err := DB(ctx, s.db).Raw("PRAGMA read_uncommitted").Scan(&v).Error
	return v, err
}

type accountProxy struct {
	svc *accountService
	d   *aspect.Dispatcher
}

func (p *accountProxy) Open(ctx context.Context, name string, balance int) (*account, error) {
	return aspect.CallResult[*account](ctx, p.d, aspect.Invocation{
		Target: p.svc,
		Method: "Open",
		Args:   []any{name, balance},
		Proceed: func(ctx context.Context, args []any) (any, error) {
			return p.svc.Open(ctx, aspect.Arg[string](args, 0), aspect.Arg[int](args, 1))
		},
	})
}

func (p *accountProxy) OpenAndRead(ctx context.Context, name string) (int, error) {
	return aspect.CallResult[int](ctx, p.d, aspect.Invocation{
		Target: p.svc,
		Method: "OpenAndRead",
		Args:   []any{name},
		Proceed: func(ctx context.Context, args []any) (any, error) {
			return p.svc.OpenAndRead(ctx, aspect.Arg[string](args, 0))
		},
	})
}

func (p *accountProxy) ReadUncommitted(ctx context.Context) (int, error) {
	return aspect.CallResult[int](ctx, p.d, aspect.Invocation{
		Target: p.svc,
		Method: "ReadUncommitted",
		Proceed: func(ctx context.Context, args []any) (any, error) {
			return p.svc.ReadUncommitted(ctx)
		},
	})
}

// openDB returns an in-memory database on a single connection so that every
// statement, pinned or not, sees the same data and session state.
func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&account{}))
	return db
}

// openPoolDB returns a file database behind a pool of conns connections, all kept idle.
func openPoolDB(t *testing.T, conns int) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "accounts.db")
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(conns)
	sqlDB.SetMaxIdleConns(conns)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&account{}))
	return db
}

func countAccounts(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&account{}).Count(&n).Error)
	return n
}

type quote struct {
	Symbol string
	Price  int
}

type lookupRequest struct {
	Symbol string
}

func (r *lookupRequest) Validate() error {
	if r.Symbol == "" {
		return errors.New("symbol is required")
	}
	return nil
}

type quoteService struct {
	mu    sync.Mutex
	calls int
	fail  error
	reply *Envelope[*quote]
}

func (s *quoteService) Quote(ctx context.Context, symbol string) (*quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.fail != nil {
		return nil, s.fail
	}
	return &quote{Symbol: symbol, Price: 100 + s.calls}, nil
}

func (s *quoteService) QuoteLater(ctx context.Context, symbol string) *aspect.Future[*quote] {
	return aspect.Go(ctx, func(ctx context.Context) (*quote, error) {
		return s.Quote(ctx, symbol)
	})
}

func (s *quoteService) Lookup(ctx context.Context, req *lookupRequest) (*Envelope[*quote], error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return s.reply, nil
}

func (s *quoteService) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type quoteProxy struct {
	svc *quoteService
	d   *aspect.Dispatcher
}

func (p *quoteProxy) Quote(ctx context.Context, symbol string) (*quote, error) {
	return aspect.CallResult[*quote](ctx, p.d, aspect.Invocation{
		Target: p.svc,
		Method: "Quote",
		Args:   []any{symbol},
		Proceed: func(ctx context.Context, args []any) (any, error) {
			return p.svc.Quote(ctx, aspect.Arg[string](args, 0))
		},
	})
}

func (p *quoteProxy) QuoteLater(ctx context.Context, symbol string) *aspect.Future[*quote] {
	return aspect.AsyncResult[*quote](ctx, p.d, aspect.Invocation{
		Target: p.svc,
		Method: "QuoteLater",
		Args:   []any{symbol},
		Proceed: func(ctx context.Context, args []any) (any, error) {
			return p.svc.QuoteLater(ctx, aspect.Arg[string](args, 0)), nil
		},
	})
}

func (p *quoteProxy) Lookup(ctx context.Context, req *lookupRequest) (*Envelope[*quote], error) {
	return aspect.CallResult[*Envelope[*quote]](ctx, p.d, aspect.Invocation{
		Target: p.svc,
		Method: "Lookup",
		Args:   []any{req},
		Proceed: func(ctx context.Context, args []any) (any, error) {
			return p.svc.Lookup(ctx, aspect.Arg[*lookupRequest](args, 0))
		},
	})
}
