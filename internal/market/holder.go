package market

import (
	"sync/atomic"

	"dealscreener/server/config"
	"dealscreener/server/internal/dataset"
	"dealscreener/server/internal/estimator"

	"github.com/sirupsen/logrus"
)

// Holder publishes the Context currently serving requests. Swapping in a new Context
// never touches the previous one, so in-flight evaluations finish on the old state.
type Holder struct {
	current atomic.Pointer[Context]
}

func NewHolder(ctx *Context) *Holder {
	h := &Holder{}
	h.current.Store(ctx)
	return h
}

// Current returns the serving Context.
func (h *Holder) Current() *Context {
	return h.current.Load()
}

// Swap replaces the serving Context and returns the previous one.
func (h *Holder) Swap(ctx *Context) *Context {
	return h.current.Swap(ctx)
}

// Builder loads a dataset and fits a Context from it.
type Builder struct {
	Path    string
	Zones   *config.ZoneTable
	Trainer estimator.Trainer
	Options Options
	Logger  *logrus.Logger
}

// Build loads the dataset at b.Path and fits a new Context.
func (b *Builder) Build() (*Context, error) {
	ds, err := dataset.Load(b.Path)
	if err != nil {
		return nil, err
	}
	return NewContext(ds, b.Zones, b.Trainer, b.Options, b.Logger)
}

// Fingerprint returns the current version of the dataset source.
func (b *Builder) Fingerprint() (string, error) {
	return dataset.Fingerprint(b.Path)
}
