package config

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/go-park/aspectchain/pkg/aspect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type greeter interface {
	Greet() string
}

type english struct{}

func (english) Greet() string { return "hello" }

func TestLoad(t *testing.T) {
	cfg, err := Load("testdata/aspects.yaml")
	require.NoError(t, err)

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, level)
	assert.False(t, cfg.Strict)

	cache, ok := cfg.Aspect("cache")
	assert.True(t, ok)
	assert.Equal(t, 30*time.Second, cache.TTL.Duration)
	assert.Equal(t, 128, cache.Size)

	_, ok = cfg.Aspect("audit")
	assert.False(t, ok, "disabled")
	_, ok = cfg.Aspect("missing")
	assert.False(t, ok)

	rl, _ := cfg.Aspect("ratelimit")
	require.NotNil(t, rl.Order)
	assert.Equal(t, -1000, *rl.Order)
	assert.Len(t, cfg.Pointcuts, 3)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("testdata/nope.yaml")
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvLogLevel, "warn")
	t.Setenv(EnvStrict, "true")
	t.Setenv(EnvRedisAddr, "localhost:6380")

	cfg, err := Parse([]byte("log_level: debug\n"))
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.True(t, cfg.Strict)
	cache, ok := cfg.Aspect("cache")
	assert.True(t, ok)
	assert.Equal(t, "localhost:6380", cache.Redis.Addr)

	t.Setenv(EnvStrict, "maybe")
	_, err = Parse(nil)
	assert.Error(t, err)
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad duration", "aspects:\n  cache: {ttl: soon}\n"},
		{"bad level", "log_level: loud\n"},
		{"no aspects", "pointcuts:\n  - {type: a.B}\n"},
		{"no target", "pointcuts:\n  - {aspects: [log]}\n"},
		{"type and interface", "pointcuts:\n  - {type: a.B, interface: a.I, method: M, aspects: [log]}\n"},
		{"interface without method", "pointcuts:\n  - {interface: a.I, aspects: [log]}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestBuildPointcuts(t *testing.T) {
	cfg, err := Load("testdata/aspects.yaml")
	require.NoError(t, err)

	_, err = cfg.BuildPointcuts()
	assert.Error(t, err, "interface must be known")

	pc, err := cfg.BuildPointcuts((*greeter)(nil))
	require.NoError(t, err)
	dm := aspect.NewResolver(pc, aspect.NewRegistry()).Resolve(reflect.TypeOf(english{}))
	greet, ok := dm.Lookup("Greet")
	require.True(t, ok)
	assert.Equal(t, []string{"cache", "log", "metrics", "trans"}, greet.Aspects)
}

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	return db
}

func TestRegistry(t *testing.T) {
	cfg, err := Load("testdata/aspects.yaml")
	require.NoError(t, err)

	reg, err := cfg.Registry(Deps{DB: openDB(t), Prometheus: prometheus.NewRegistry()})
	require.NoError(t, err)
	assert.Equal(t, []string{"ratelimit", "trans", "nolock", "response", "cache", "metrics", "log"}, reg.Names())

	pc, err := cfg.BuildPointcuts((*greeter)(nil))
	require.NoError(t, err)
	assert.NoError(t, reg.Validate(pc))

	_, err = cfg.Registry(Deps{Prometheus: prometheus.NewRegistry()})
	assert.Error(t, err, "trans needs a database")
}

func TestRegistryRejectsRateLimitWithoutRate(t *testing.T) {
	cfg, err := Parse([]byte("aspects:\n  ratelimit: {}\n"))
	require.NoError(t, err)
	_, err = cfg.Registry(Deps{})
	assert.Error(t, err)
}

func TestDispatcherOptions(t *testing.T) {
	cfg := &Config{Strict: true}
	pc := aspect.NewPointcuts().OnType(english{}, "ghost")
	d := aspect.NewDispatcher(pc, aspect.NewRegistry(), cfg.DispatcherOptions(logrus.StandardLogger())...)
	_, err := d.Dispatch(context.Background(), aspect.Invocation{
		Target: english{},
		Method: "Greet",
		Proceed: func(ctx context.Context, args []any) (any, error) {
			return english{}.Greet(), nil
		},
	})
	assert.ErrorIs(t, err, aspect.ErrUnregistered)
}

func TestCheck(t *testing.T) {
	cfg, err := Parse([]byte(`
aspects:
  log: {}
pointcuts:
  - type: example.com/shop.Orders
    aspects: [log, audit]
  - interface: example.com/shop.Repository
    method: Save
    aspects: [audit]
`))
	require.NoError(t, err)
	reg, err := cfg.Registry(Deps{})
	require.NoError(t, err)

	err = cfg.Check(reg)
	require.ErrorIs(t, err, aspect.ErrUnregistered)
	var ue *aspect.UnregisteredError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, map[string][]string{
		"audit": {"example.com/shop.Orders", "example.com/shop.Repository.Save"},
	}, ue.Missing)

	cfg.Pointcuts = cfg.Pointcuts[:0]
	assert.NoError(t, cfg.Check(reg))
}
