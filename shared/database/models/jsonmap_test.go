package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONMapValue(t *testing.T) {
	value, err := JSONMap{"ip": "10.0.0.1", "count": 3}.Value()
	require.NoError(t, err)
	assert.JSONEq(t, `{"ip":"10.0.0.1","count":3}`, string(value.([]byte)))

	value, err = JSONMap(nil).Value()
	require.NoError(t, err)
	assert.Nil(t, value, "nil maps store as SQL NULL")
}

func TestJSONMapScan(t *testing.T) {
	var m JSONMap
	require.NoError(t, m.Scan([]byte(`{"ip":"10.0.0.1"}`)))
	assert.Equal(t, JSONMap{"ip": "10.0.0.1"}, m)

	require.NoError(t, m.Scan(`{"nested":{"a":1}}`))
	assert.Contains(t, m, "nested")

	require.NoError(t, m.Scan(nil))
	assert.Nil(t, m)

	assert.Error(t, m.Scan(42))
}
