package gen

import "github.com/sirupsen/logrus"

type (
	options struct {
		dir       string
		patterns  []string
		tags      []string
		recursive bool
		deps      []string
		log       logrus.FieldLogger
	}
	Option     interface{ apply(*options) }
	optionFunc func(g *options)
)

func (f optionFunc) apply(o *options) {
	f(o)
}

func DefaultOptions() options {
	return options{
		patterns:  []string{"."},
		tags:      []string{},
		deps:      []string{},
		recursive: true,
		log:       logrus.StandardLogger(),
	}
}

func WithDir(dir string) Option {
	return optionFunc(
		func(o *options) {
			o.dir = dir
		})
}

func WithPatterns(patterns ...string) Option {
	return optionFunc(
		func(o *options) {
			patterns = filterEmptyStr(patterns...)
			if len(patterns) > 0 {
				o.patterns = patterns
			}
		})
}

func WithTags(tags ...string) Option {
	return optionFunc(
		func(o *options) {
			tags = filterEmptyStr(tags...)
			if len(tags) > 0 {
				o.tags = tags
			}
		})
}

func WithRecursive(recursive bool) Option {
	return optionFunc(
		func(o *options) {
			o.recursive = recursive
		})
}

// WithDeps adds import path prefixes of dependencies scanned for @Aspect custom annotations.
func WithDeps(deps ...string) Option {
	return optionFunc(
		func(o *options) {
			deps = filterEmptyStr(deps...)
			if len(deps) > 0 {
				o.deps = deps
			}
		})
}

func WithLogger(l logrus.FieldLogger) Option {
	return optionFunc(
		func(o *options) {
			if l != nil {
				o.log = l
			}
		})
}
