// Package mosssink adapts the teacher's store/moss/moss.go in-memory KV
// store into a logger.Sink: an in-memory sink used for the "sequence
// accumulation" scenario's downstream inspection and for tests, where
// durability across process restarts is not needed.
package mosssink

import (
	"github.com/couchbase/moss"

	"github.com/opticalp/instrumentall/logger"
)

var (
	wopts moss.WriteOptions
)

func init() {
	logger.Register("moss", New)
}

// Sink is an in-memory moss.Collection-backed logger.Sink.
type Sink struct {
	db moss.Collection
}

// New constructs a fresh in-memory sink, started and ready to accept
// writes.
func New() (logger.Sink, error) {
	db, err := moss.NewCollection(moss.DefaultCollectionOptions)
	if err != nil {
		return nil, err
	}
	if err := db.Start(); err != nil {
		return nil, err
	}
	return &Sink{db: db}, nil
}

// Set stores value under key, exactly as the teacher's DB.Set did via a
// single-operation batch.
func (s *Sink) Set(key, value []byte) error {
	batch, err := s.db.NewBatch(1, len(key)+len(value))
	if err != nil {
		return err
	}
	defer batch.Close()

	if err := batch.Set(key, value); err != nil {
		return err
	}
	return s.db.ExecuteBatch(batch, wopts)
}

// Close releases the collection's resources.
func (s *Sink) Close() error {
	err := s.db.Close()
	s.db = nil
	return err
}
