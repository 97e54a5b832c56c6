package content

import (
	"context"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"eoreview/internal/model"
)

const cacheSize = 4

// Loader opens packs from a Source and caches the decoded items per test.
type Loader struct {
	src   Source
	cache *lru.Cache[string, []model.Item]

	mu    sync.Mutex
	creds Credentials
}

func NewLoader(src Source, creds Credentials) *Loader {
	cache, err := lru.New[string, []model.Item](cacheSize)
	if err != nil {
		panic(err)
	}
	return &Loader{src: src, cache: cache, creds: creds}
}

func (l *Loader) Source() Source { return l.src }

func (l *Loader) Credentials() Credentials {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.creds
}

// SetCredentials replaces the credentials and drops cached items when they
// changed.
func (l *Loader) SetCredentials(c Credentials) {
	l.mu.Lock()
	changed := c != l.creds
	l.creds = c
	l.mu.Unlock()
	if changed {
		l.cache.Purge()
	}
}

// SetPassword sets the session password, keeping the registry keys.
func (l *Loader) SetPassword(password string) {
	c := l.Credentials()
	c.Password = password
	l.SetCredentials(c)
}

// Load returns the items of test. The returned slice is shared with the
// cache and must not be modified.
func (l *Loader) Load(ctx context.Context, test string) ([]model.Item, error) {
	if items, ok := l.cache.Get(test); ok {
		return items, nil
	}
	creds := l.Credentials()
	if err := creds.check(); err != nil {
		return nil, err
	}
	sealed, err := l.src.Read(ctx, test)
	if err != nil {
		return nil, err
	}
	items, err := Open(sealed, creds)
	if err != nil {
		return nil, err
	}
	l.cache.Add(test, items)
	return items, nil
}

// Forget drops test from the cache.
func (l *Loader) Forget(test string) { l.cache.Remove(test) }

// Cached reports whether test is in the cache.
func (l *Loader) Cached(test string) bool { return l.cache.Contains(test) }

// Result is the outcome of opening one pack.
type Result struct {
	Test  string
	Items int
	Err   error
}

// Verify opens every test in parallel. Per-test failures are reported in
// the results; only context cancellation is returned as an error.
func (l *Loader) Verify(ctx context.Context, tests []string) ([]Result, error) {
	results := make([]Result, len(tests))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(4)
	for i, test := range tests {
		eg.Go(func() error {
			items, err := l.Load(ctx, test)
			results[i] = Result{Test: test, Items: len(items), Err: err}
			return ctx.Err()
		})
	}
	if err := eg.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
