package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samvad-hq/samvad-request/internal/domain"
	bolt "go.etcd.io/bbolt"
)

var (
	bucketExchanges = []byte("exchanges")
	bucketLatest    = []byte("latest")
)

// envelope is the value stored per exchange ID.
type envelope struct {
	ExpiresAt int64           `json:"expires_at"`
	Exchange  domain.Exchange `json:"exchange"`
}

func (e envelope) live(now time.Time) bool {
	return e.ExpiresAt > now.Unix()
}

// boltStore keeps exchanges keyed by ID plus a definition -> latest ID index.
// Expired entries are dropped lazily on read and in periodic sweeps.
type boltStore struct {
	db   *bolt.DB
	opts Options
	now  func() time.Time

	sweepMu   sync.Mutex
	lastSweep time.Time
}

func openBolt(path string, opts Options) (*boltStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketExchanges); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(bucketLatest)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init buckets: %w", err)
	}

	s := &boltStore{db: db, opts: opts, now: time.Now}
	s.lastSweep = s.now()
	return s, nil
}

func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

func (b *boltStore) Record(ex domain.Exchange) (string, error) {
	now := b.now()
	if err := b.sweep(now); err != nil {
		return "", err
	}
	if ex.ID == "" {
		ex.ID = uuid.NewString()
	}

	value, err := json.Marshal(envelope{ExpiresAt: now.Add(b.opts.RecordTTL).Unix(), Exchange: ex})
	if err != nil {
		return "", fmt.Errorf("encode exchange %s: %w", ex.ID, err)
	}

	err = b.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(bucketExchanges).Put([]byte(ex.ID), value); err != nil {
			return err
		}
		if ex.DefinitionID == "" {
			return nil
		}
		return tx.Bucket(bucketLatest).Put([]byte(ex.DefinitionID), []byte(ex.ID))
	})
	if err != nil {
		return "", fmt.Errorf("record exchange %s: %w", ex.ID, err)
	}
	return ex.ID, nil
}

// Latest follows the definition index. A dangling pointer is removed.
func (b *boltStore) Latest(definitionID string) (domain.Exchange, bool, error) {
	now := b.now()
	var (
		ex    domain.Exchange
		found bool
	)
	err := b.db.Update(func(tx *bolt.Tx) error {
		index := tx.Bucket(bucketLatest)
		id := index.Get([]byte(definitionID))
		if id == nil {
			return nil
		}
		var err error
		ex, found, err = load(tx.Bucket(bucketExchanges), id, now)
		if err != nil || found {
			return err
		}
		return index.Delete([]byte(definitionID))
	})
	return ex, found, err
}

// load decodes key from bucket. Expired or undecodable values are deleted
// and reported as missing.
func load(bucket *bolt.Bucket, key []byte, now time.Time) (domain.Exchange, bool, error) {
	raw := bucket.Get(key)
	if raw == nil {
		return domain.Exchange{}, false, nil
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil || !env.live(now) {
		return domain.Exchange{}, false, bucket.Delete(key)
	}
	return env.Exchange, true, nil
}

// sweep deletes expired exchanges at most once per CleanupInterval.
func (b *boltStore) sweep(now time.Time) error {
	b.sweepMu.Lock()
	defer b.sweepMu.Unlock()
	if now.Sub(b.lastSweep) < b.opts.CleanupInterval {
		return nil
	}

	err := b.db.Update(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketExchanges).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var env envelope
			if json.Unmarshal(v, &env) == nil && env.live(now) {
				continue
			}
			if err := c.Delete(); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("sweep expired exchanges: %w", err)
	}
	b.lastSweep = now
	return nil
}
