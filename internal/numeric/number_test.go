package numeric

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNumberAcceptsNumbersAndStrings(t *testing.T) {
	var in struct {
		A Number `json:"a"`
		B Number `json:"b"`
		C Number `json:"c"`
		D Number `json:"d"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":5.5,"b":"5.5","c":null,"d":" 20000 "}`), &in))

	a, err := in.A.Float()
	require.NoError(t, err)
	require.Equal(t, 5.5, a)

	b, err := in.B.Float()
	require.NoError(t, err)
	require.Equal(t, 5.5, b)

	require.False(t, in.C.Valid)
	_, err = in.C.Float()
	require.Error(t, err)

	d, err := in.D.Float()
	require.NoError(t, err)
	require.Equal(t, 20000.0, d)
}

func TestNumberRejectsGarbage(t *testing.T) {
	var in struct {
		A Number `json:"a"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"five"}`), &in))
	_, err := in.A.Float()
	require.Error(t, err)

	_, err = Parse("  ")
	require.Error(t, err)
}

func TestNumberMarshalsAsNumber(t *testing.T) {
	out, err := json.Marshal(map[string]Number{"rate": Of(7.25), "none": {}})
	require.NoError(t, err)
	require.JSONEq(t, `{"rate":7.25,"none":null}`, string(out))
}

func TestParseRejectsOutOfRange(t *testing.T) {
	for _, raw := range []string{"1e400", "-1e400", "1E+309"} {
		_, err := Parse(raw)
		require.Error(t, err, raw)
	}

	var in struct {
		A Number `json:"a"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":1e400}`), &in))
	_, err := in.A.Float()
	require.Error(t, err)

	f, err := Parse("1e300")
	require.NoError(t, err)
	require.Equal(t, 1e300, f)
}
