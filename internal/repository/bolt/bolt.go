// Package bolt is the BoltDB-backed device-state repository. A mobile
// client has no database server; a single-file embedded store covers the
// one record this subsystem persists.
package bolt

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/vantage-invest/pushkit/internal/model"
	"github.com/vantage-invest/pushkit/internal/repository"
)

var _ repository.DeviceStateRepository = (*Store)(nil)

var (
	bucketDeviceState = []byte("device_state")
	keyState          = []byte("state")
)

// Store is a BoltDB-backed DeviceStateRepository.
type Store struct {
	db *bolt.DB
}

// New initialises the Bolt store at path, creating parent directories as
// needed.
func New(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketDeviceState)
		return err
	}); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the underlying Bolt DB.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Get(ctx context.Context) (*model.DeviceState, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	var state *model.DeviceState
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketDeviceState).Get(keyState)
		if raw == nil {
			return nil
		}
		state = &model.DeviceState{}
		return json.Unmarshal(raw, state)
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

func (s *Store) Put(ctx context.Context, state *model.DeviceState) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	state.UpdatedAt = time.Now().UTC()
	payload, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketDeviceState).Put(keyState, payload)
	})
}

func (s *Store) ClearRegistration(ctx context.Context) error {
	state, err := s.Get(ctx)
	if err != nil {
		return err
	}
	if state == nil {
		return nil
	}
	state.LastToken = ""
	state.UserID = ""
	state.RegisteredAt = time.Time{}
	return s.Put(ctx, state)
}
