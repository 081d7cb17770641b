package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"time"

	"github.com/go-park/aspectchain/pkg/aspect"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	EnvLogLevel  = "ASPECT_LOG_LEVEL"
	EnvRedisAddr = "ASPECT_REDIS_ADDR"
	EnvStrict    = "ASPECT_STRICT"
)

type Config struct {
	LogLevel  string                  `yaml:"log_level"`
	Strict    bool                    `yaml:"strict"`
	Aspects   map[string]AspectConfig `yaml:"aspects"`
	Pointcuts []PointcutConfig        `yaml:"pointcuts"`
}

// AspectConfig carries the settings of one aspect. Fields not used by an aspect are ignored.
type AspectConfig struct {
	Enabled *bool `yaml:"enabled"`
	Order   *int  `yaml:"order"`

	// cache
	TTL   Duration    `yaml:"ttl"`
	Size  int         `yaml:"size"`
	Redis RedisConfig `yaml:"redis"`

	// nolock
	Statement string `yaml:"statement"`
	Restore   string `yaml:"restore"`

	// ratelimit
	Rate  float64 `yaml:"rate"`
	Burst int     `yaml:"burst"`

	// metrics
	Namespace string `yaml:"namespace"`

	// log
	Params bool `yaml:"params"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// PointcutConfig declares aspects on a type, on one of its methods (Method set), or on
// an interface method (Interface set, Type empty).
type PointcutConfig struct {
	Type      string   `yaml:"type"`
	Interface string   `yaml:"interface"`
	Method    string   `yaml:"method"`
	Aspects   []string `yaml:"aspects"`
}

type Duration struct{ time.Duration }

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	dd, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = dd
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return d.String(), nil
}

// Load reads a YAML file after loading .env, then applies environment overrides.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func Parse(b []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvStrict); v != "" {
		strict, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvStrict, err)
		}
		c.Strict = strict
	}
	if v := os.Getenv(EnvRedisAddr); v != "" {
		if c.Aspects == nil {
			c.Aspects = map[string]AspectConfig{}
		}
		ac := c.Aspects["cache"]
		ac.Redis.Addr = v
		c.Aspects["cache"] = ac
	}
	return nil
}

func (c *Config) validate() error {
	if _, err := c.Level(); err != nil {
		return err
	}
	for i, pc := range c.Pointcuts {
		switch {
		case len(pc.Aspects) == 0:
			return fmt.Errorf("pointcut %d: no aspects", i)
		case pc.Type == "" && pc.Interface == "":
			return fmt.Errorf("pointcut %d: type or interface is required", i)
		case pc.Type != "" && pc.Interface != "":
			return fmt.Errorf("pointcut %d: type and interface are exclusive", i)
		case pc.Interface != "" && pc.Method == "":
			return fmt.Errorf("pointcut %d: interface pointcuts need a method", i)
		}
	}
	return nil
}

// Level parses LogLevel, info when empty.
func (c *Config) Level() (logrus.Level, error) {
	if c.LogLevel == "" {
		return logrus.InfoLevel, nil
	}
	return logrus.ParseLevel(c.LogLevel)
}

// Aspect returns the settings of name and whether it is enabled. Aspects are enabled
// when listed, unless enabled is false.
func (c *Config) Aspect(name string) (AspectConfig, bool) {
	ac, ok := c.Aspects[name]
	if !ok {
		return ac, false
	}
	return ac, ac.Enabled == nil || *ac.Enabled
}

// BuildPointcuts converts the pointcut table. Interface pointcuts are resolved against
// ifaces, given as nil pointers to interfaces such as (*Repository)(nil).
func (c *Config) BuildPointcuts(ifaces ...any) (*aspect.Pointcuts, error) {
	known := map[string]any{}
	for _, v := range ifaces {
		known[aspect.TypeName(reflect.TypeOf(v))] = v
	}
	p := aspect.NewPointcuts()
	for _, pc := range c.Pointcuts {
		switch {
		case pc.Interface != "":
			iface, ok := known[pc.Interface]
			if !ok {
				return nil, fmt.Errorf("pointcut on unknown interface %s", pc.Interface)
			}
			it := reflect.TypeOf(iface)
			if it.Kind() != reflect.Pointer || it.Elem().Kind() != reflect.Interface {
				return nil, fmt.Errorf("%s is not an interface", pc.Interface)
			}
			if _, ok := it.Elem().MethodByName(pc.Method); !ok {
				return nil, fmt.Errorf("interface %s has no method %s", pc.Interface, pc.Method)
			}
			p.OnInterface(iface, pc.Method, pc.Aspects...)
		case pc.Method != "":
			for _, a := range pc.Aspects {
				p.Add(aspect.Pointcut{Selector: aspect.SelectMethod, Type: pc.Type, Method: pc.Method, Aspect: a})
			}
		default:
			for _, a := range pc.Aspects {
				p.Add(aspect.Pointcut{Selector: aspect.SelectType, Type: pc.Type, Aspect: a})
			}
		}
	}
	return p, nil
}

// Site names where the pointcut applies, such as pkg.Type or pkg.Iface.Method.
func (pc PointcutConfig) Site() string {
	site := pc.Type
	if pc.Interface != "" {
		site = pc.Interface
	}
	if pc.Method != "" {
		site += "." + pc.Method
	}
	return site
}

// Declared maps each aspect named by the pointcut table to its sites.
func (c *Config) Declared() map[string][]string {
	ret := map[string][]string{}
	for _, pc := range c.Pointcuts {
		for _, name := range pc.Aspects {
			ret[name] = append(ret[name], pc.Site())
		}
	}
	return ret
}

// Check reports the aspects named by the pointcut table that reg does not know. It
// needs no interface values, so it also runs outside the program.
func (c *Config) Check(reg *aspect.Registry) error {
	return reg.Validate(c)
}
