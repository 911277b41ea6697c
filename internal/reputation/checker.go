package reputation

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/MrSnakeDoc/urlinfo/internal/logger"
	"github.com/MrSnakeDoc/urlinfo/internal/metrics"
)

// Checker answers URL checks against every registered store.
//
// Stores are polled in registration order. The registry only grows, so a
// check iterating an earlier prefix of it is never disturbed by a
// concurrent Register.
type Checker struct {
	mu     sync.RWMutex
	stores []Store
	logger logger.Logger
}

// NewChecker creates a checker and registers the given stores in order.
func NewChecker(log logger.Logger, stores ...Store) (*Checker, error) {
	c := &Checker{logger: log}
	for i, s := range stores {
		if err := c.Register(s); err != nil {
			return nil, fmt.Errorf("store #%d: %w", i, err)
		}
	}
	return c, nil
}

// Register appends a store to the polling order. Registering the same store
// twice is allowed and makes it polled twice. A nil store is rejected and
// leaves the registry untouched.
func (c *Checker) Register(s Store) error {
	if isNilStore(s) {
		return fmt.Errorf("%w: nil store (%T)", ErrContractViolation, s)
	}

	c.mu.Lock()
	c.stores = append(c.stores, s)
	n := len(c.stores)
	c.mu.Unlock()

	c.logger.Debug("store registered",
		logger.String("type", fmt.Sprintf("%T", s)),
		logger.Int("position", n))
	return nil
}

// StoreCount returns the number of registrations, duplicates included.
func (c *Checker) StoreCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.stores)
}

// Check looks up a scheme-free "host[:port]/path?query" input.
//
// Key variants form the outer loop and stores the inner loop: the first
// unsafe verdict wins, even if a narrower variant would have matched a
// later store. Input carrying a scheme is rejected with ErrSchemeInLookup.
func (c *Checker) Check(ctx context.Context, input string) (Verdict, error) {
	start := time.Now()

	keys, err := LookupKeys(input)
	if err != nil {
		metrics.ObserveCheck("invalid", time.Since(start))
		return Verdict{}, err
	}

	for _, key := range keys {
		for i, s := range c.registered() {
			v := s.QueryOne(ctx, key)
			if !v.IsUnsafe() {
				continue
			}
			c.logger.Info("unsafe url",
				logger.String("input", input),
				logger.String("matched_key", key),
				logger.Int("store_position", i+1),
				logger.String("reason", v.Reason))
			metrics.ObserveCheck(string(StatusUnsafe), time.Since(start))
			return v, nil
		}
	}

	metrics.ObserveCheck(string(StatusSafe), time.Since(start))
	return Safe(), nil
}

// registered returns the current registry prefix. The backing array is
// never rewritten in place, so the slice stays valid without the lock.
func (c *Checker) registered() []Store {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stores[:len(c.stores):len(c.stores)]
}

func isNilStore(s Store) bool {
	if s == nil {
		return true
	}
	v := reflect.ValueOf(s)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		return v.IsNil()
	}
	return false
}
