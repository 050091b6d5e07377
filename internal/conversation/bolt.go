package conversation

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

const sessionBucketName = "sessions"

// BoltStore keeps sessions in a BoltDB file so dialogues survive restarts
type BoltStore struct {
	db *bbolt.DB
}

// NewBoltStore opens or creates the session database at path
func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(sessionBucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// Get retrieves a user's session
func (b *BoltStore) Get(user string) (*Session, error) {
	var session *Session
	err := b.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(sessionBucketName)).Get([]byte(user))
		if data == nil {
			return ErrSessionNotFound
		}
		if err := json.Unmarshal(data, &session); err != nil {
			return fmt.Errorf("unmarshaling session: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// Put saves a user's session
func (b *BoltStore) Put(user string, session *Session) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(session)
		if err != nil {
			return fmt.Errorf("marshaling session: %w", err)
		}
		return tx.Bucket([]byte(sessionBucketName)).Put([]byte(user), data)
	})
}

// Delete removes a user's session
func (b *BoltStore) Delete(user string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(sessionBucketName)).Delete([]byte(user))
	})
}

// Close closes the database
func (b *BoltStore) Close() error {
	return b.db.Close()
}
