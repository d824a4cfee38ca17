package mosssink

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/opticalp/instrumentall/logger"
)

func TestNewStartsAnEmptyCollection(t *testing.T) {
	s, err := New()
	assert.NoError(t, err)
	assert.NotNil(t, s)
	assert.NoError(t, s.Close())
}

func TestSetThenCloseRoundTrips(t *testing.T) {
	s, err := New()
	assert.NoError(t, err)
	defer s.Close()

	assert.NoError(t, s.Set([]byte("k1"), []byte("v1")))
	assert.NoError(t, s.Set([]byte("k2"), []byte("v2")))
}

func TestRegisteredUnderMossClass(t *testing.T) {
	s, err := logger.New("moss")
	assert.NoError(t, err)
	assert.NotNil(t, s)
	assert.NoError(t, s.Close())
}
