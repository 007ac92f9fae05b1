package types

import (
	"encoding/json"
	"testing"

	"github.com/steelsid0609/training-rcf/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexUint64(t *testing.T) {
	var body struct {
		A FlexUint64  `json:"a"`
		B FlexUint64  `json:"b"`
		C *FlexUint64 `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 3, "b": " 7 "}`), &body))
	assert.Equal(t, uint64(3), body.A.Uint64())
	assert.Equal(t, uint64(7), body.B.Uint64())
	assert.Nil(t, body.C.Ptr())

	require.NoError(t, json.Unmarshal([]byte(`{"c": "0"}`), &body))
	require.NotNil(t, body.C.Ptr())
	assert.Equal(t, uint64(0), *body.C.Ptr())

	assert.Error(t, json.Unmarshal([]byte(`{"a": "three"}`), &body))
	assert.Error(t, json.Unmarshal([]byte(`{"a": true}`), &body))
}

func TestParseVersion(t *testing.T) {
	tests := []struct {
		in   string
		want *uint64
		err  bool
	}{
		{"", nil, false},
		{"4", u(4), false},
		{`"4"`, u(4), false},
		{`W/"12"`, u(12), false},
		{"abc", nil, true},
	}
	for _, tt := range tests {
		got, err := ParseVersion(tt.in)
		if tt.err {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestFlexList(t *testing.T) {
	var one FlexList[models.Faculty]
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Mechanical","emails":["m@x.edu"]}`), &one))
	require.Len(t, one, 1)
	assert.Equal(t, "Mechanical", one[0].Name)

	var many FlexList[models.Faculty]
	require.NoError(t, json.Unmarshal([]byte(`[{"name":"Civil"},{"name":"Electrical"}]`), &many))
	assert.Len(t, many.Slice(), 2)

	var none FlexList[models.Faculty]
	require.NoError(t, json.Unmarshal([]byte(`null`), &none))
	assert.Nil(t, none.Slice())
}

func TestFlexListFormValues(t *testing.T) {
	var body struct {
		Faculties FlexList[models.Faculty] `json:"faculties"`
	}

	// multipart forms send the list as an encoded string
	require.NoError(t, json.Unmarshal([]byte(`{"faculties":"[{\"name\":\"Civil\"},null,{\"name\":\"Chemical\"}]"}`), &body))
	require.Len(t, body.Faculties, 2)
	assert.Equal(t, "Chemical", body.Faculties[1].Name)

	require.NoError(t, json.Unmarshal([]byte(`{"faculties":""}`), &body))
	assert.Empty(t, body.Faculties)

	require.NoError(t, json.Unmarshal([]byte(`{"faculties":"{\"name\":\"Mining\",\"emails\":[\"mn@x.edu\"]}"}`), &body))
	require.Len(t, body.Faculties, 1)
	assert.Equal(t, []string{"mn@x.edu"}, body.Faculties[0].Emails)

	assert.Error(t, json.Unmarshal([]byte(`{"faculties":"not json"}`), &body))
	assert.Error(t, json.Unmarshal([]byte(`{"faculties":[{"name":7}]}`), &body))
}

func u(v uint64) *uint64 { return &v }
