package leveldbsink

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/opticalp/instrumentall/logger"
)

func TestNewOpensDatabaseAtPath(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "db")

	s, err := New(dir)
	assert.NoError(t, err)
	assert.NotNil(t, s)
	assert.NoError(t, s.Close())
}

func TestSetPersistsValue(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "db")

	sink, err := New(dir)
	assert.NoError(t, err)
	defer sink.Close()

	assert.NoError(t, sink.Set([]byte("k1"), []byte("v1")))
}

func TestRegisteredUnderLeveldbClassOpensDefaultPath(t *testing.T) {
	s, err := logger.New("leveldb")
	assert.NoError(t, err)
	assert.NotNil(t, s)
	assert.NoError(t, s.Close())

	// The registered factory roots its database at a fixed relative path;
	// clean it up so repeated test runs don't accumulate state.
	defer os.RemoveAll("instrumentall-logger")
}
