package json

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshal(t *testing.T) {
	type snapshot struct {
		Rows     int64   `json:"rows"`
		Nulls    int64   `json:"nulls"`
		Mean     float64 `json:"mean"`
		Distinct int     `json:"distinct"`
	}

	in := snapshot{Rows: 100, Nulls: 3, Mean: 41.5, Distinct: 7}

	data, err := Marshal(in)
	require.NoError(t, err)

	var out snapshot
	require.NoError(t, Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

func TestMarshalToWriter(t *testing.T) {
	var buf bytes.Buffer
	err := MarshalToWriter(&buf, map[string]string{"type": "int64"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"int64"}`, buf.String())
}

func TestMarshalToBuffer(t *testing.T) {
	buf, err := MarshalToBuffer([]int{1, 2, 3})
	require.NoError(t, err)
	defer PutBuffer(buf)

	assert.JSONEq(t, `[1,2,3]`, buf.String())
}

func TestBufferPoolReuse(t *testing.T) {
	buf := GetBuffer()
	buf.WriteString("scratch")
	PutBuffer(buf)

	buf2 := GetBuffer()
	defer PutBuffer(buf2)
	assert.Zero(t, buf2.Len())
}
