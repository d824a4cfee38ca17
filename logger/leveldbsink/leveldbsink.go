// Package leveldbsink adapts the teacher's store/leveldb/leveldb.go
// durable KV store into a logger.Sink, for the Data Logger's durable
// on-disk sink (spec.md §4.9).
package leveldbsink

import (
	ldb "github.com/syndtr/goleveldb/leveldb"
	ldbopt "github.com/syndtr/goleveldb/leveldb/opt"

	"github.com/opticalp/instrumentall/logger"
)

var wopt *ldbopt.WriteOptions

func init() {
	logger.Register("leveldb", func() (logger.Sink, error) {
		return New("instrumentall-logger")
	})
}

// Sink is a *leveldb.DB-backed logger.Sink rooted at path.
type Sink struct {
	db   *ldb.DB
	path string
}

// New opens (creating if absent) a leveldb database at path.
func New(path string) (logger.Sink, error) {
	db, err := ldb.OpenFile(path, nil)
	if err != nil {
		return nil, err
	}
	return &Sink{db: db, path: path}, nil
}

// Set stores value under key.
func (s *Sink) Set(key, value []byte) error {
	return s.db.Put(key, value, wopt)
}

// Close releases the database's resources.
func (s *Sink) Close() error {
	err := s.db.Close()
	s.db = nil
	return err
}
