package verify

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

var keyPrefix = []byte("verdict/")

// OpenCache opens the verdict database at dir. An empty dir keeps the
// database in memory.
func OpenCache(dir string) (*badger.DB, error) {
	var opts badger.Options
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create cache directory %s: %w", dir, err)
		}
		opts = badger.DefaultOptions(dir)
	}
	db, err := badger.Open(opts.WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("open verdict cache: %w", err)
	}
	return db, nil
}

// CachedVerifier remembers the verdicts of another verifier, keyed by the
// digest of the solver script. Failed verifications are not remembered.
type CachedVerifier struct {
	inner Verifier
	db    *badger.DB
	log   *zap.Logger

	Hits, Misses int
}

func NewCachedVerifier(inner Verifier, db *badger.DB, log *zap.Logger) *CachedVerifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &CachedVerifier{inner: inner, db: db, log: log.Named("cache")}
}

func (c *CachedVerifier) Verify(ctx context.Context, p Problem) (bool, error) {
	script, err := CVC4(p)
	if err != nil {
		return false, err
	}
	digest := sha256.Sum256([]byte(script))
	key := append(append([]byte{}, keyPrefix...), digest[:]...)

	var verdict []byte
	err = c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		verdict, err = item.ValueCopy(nil)
		return err
	})
	switch {
	case err == nil && len(verdict) == 1:
		c.Hits++
		return verdict[0] == 1, nil
	case err != nil && !errors.Is(err, badger.ErrKeyNotFound):
		c.log.Warn("reading verdict cache failed", zap.Error(err))
	}
	c.Misses++

	valid, err := c.inner.Verify(ctx, p)
	if err != nil {
		return false, err
	}

	value := []byte{0}
	if valid {
		value[0] = 1
	}
	if err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	}); err != nil {
		c.log.Warn("writing verdict cache failed", zap.Error(err))
	}
	return valid, nil
}
