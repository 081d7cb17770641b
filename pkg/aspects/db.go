package aspects

import (
	"context"

	"gorm.io/gorm"
)

type dbKey struct{}

// WithDB binds db to ctx. Repositories called inside a trans or nolock scope must use
// the handle returned by DB.
func WithDB(ctx context.Context, db *gorm.DB) context.Context {
	return context.WithValue(ctx, dbKey{}, db)
}

// DB returns a new session of the handle bound to ctx by a trans or nolock aspect, or
// of fallback. Sessions share the bound connection but never its statement.
func DB(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if db, ok := boundDB(ctx); ok {
		return db.WithContext(ctx)
	}
	return fallback.WithContext(ctx)
}

func boundDB(ctx context.Context) (*gorm.DB, bool) {
	db, ok := ctx.Value(dbKey{}).(*gorm.DB)
	return db, ok && db != nil
}
