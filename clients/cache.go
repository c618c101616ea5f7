package clients

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"
	"github.com/vmihailenco/msgpack/v5"
)

type CacheOptions struct {
	// Dir holds the badger files. Required unless InMemory is set.
	Dir      string
	InMemory bool
	// Logger receives badger's own messages. Nil silences debug and info.
	Logger badger.Logger
}

// Cache remembers transcription results per engine and clip content, so a
// rerun or an amend does not call the engines again for the same audio.
type Cache struct {
	db *badger.DB
}

type cacheEntry struct {
	Token    string    `msgpack:"token"`
	NoResult bool      `msgpack:"no_result"`
	At       time.Time `msgpack:"at"`
}

func OpenCache(opts CacheOptions) (*Cache, error) {
	if !opts.InMemory && opts.Dir == "" {
		return nil, errors.New("cache: Dir is required for on-disk mode")
	}
	dbOpts := badger.DefaultOptions(opts.Dir)
	if opts.InMemory {
		dbOpts = badger.DefaultOptions("").WithInMemory(true)
	}
	if opts.Logger != nil {
		dbOpts = dbOpts.WithLogger(opts.Logger)
	} else {
		dbOpts = dbOpts.WithLogger(quietLogger{})
	}
	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("cache open: %w", err)
	}
	return &Cache{db: db}, nil
}

func (c *Cache) Close() error { return c.db.Close() }

func (c *Cache) get(key []byte) (*cacheEntry, error) {
	var e cacheEntry
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return msgpack.Unmarshal(val, &e)
		})
	})
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (c *Cache) put(key []byte, e cacheEntry) error {
	val, err := msgpack.Marshal(&e)
	if err != nil {
		return err
	}
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, val)
	})
}

// Wrap returns a Transcriber that serves t's results from the cache.
// Transport errors are not cached.
func (c *Cache) Wrap(t Transcriber) Transcriber {
	return &cached{inner: t, cache: c}
}

type cached struct {
	inner Transcriber
	cache *Cache
}

func (t *cached) Name() string { return t.inner.Name() }

func (t *cached) Transcribe(ctx context.Context, clipPath string) (string, error) {
	sum, err := fileDigest(clipPath)
	if err != nil {
		return "", err
	}
	key := []byte(cacheKey(t.inner) + ":" + sum)

	e, err := t.cache.get(key)
	switch {
	case err == nil:
		if e.NoResult {
			return "", ErrNoResult
		}
		return e.Token, nil
	case !errors.Is(err, badger.ErrKeyNotFound):
		return "", fmt.Errorf("cache read: %w", err)
	}

	tok, err := t.inner.Transcribe(ctx, clipPath)
	if err != nil && !errors.Is(err, ErrNoResult) {
		return "", err
	}
	entry := cacheEntry{Token: tok, NoResult: err != nil, At: time.Now().UTC()}
	if perr := t.cache.put(key, entry); perr != nil {
		return "", fmt.Errorf("cache write: %w", perr)
	}
	return tok, err
}

func fileDigest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

type quietLogger struct{}

func (quietLogger) Errorf(f string, v ...interface{}) { logrus.Errorf("[badger] "+f, v...) }
func (quietLogger) Warningf(f string, v ...interface{}) {
	logrus.Warnf("[badger] "+f, v...)
}
func (quietLogger) Infof(string, ...interface{})  {}
func (quietLogger) Debugf(string, ...interface{}) {}
