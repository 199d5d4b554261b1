package util

import (
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/kentakayama/two-step-auth/internal/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderCBOR(t *testing.T) {
	detail, err := cbor.Marshal(model.AttemptDetail{From: "pending", To: "expired", Submitted: true})
	require.Nil(t, err)

	tagged, err := cbor.Marshal(cbor.Tag{Number: 42, Content: []byte{0xde, 0xad}})
	require.Nil(t, err)

	keyed, err := cbor.Marshal(map[int]any{2: "b", 1: []byte{0x01}})
	require.Nil(t, err)

	testCases := []struct {
		name string
		raw  []byte
		want string
	}{
		{name: "attempt detail", raw: detail, want: `["pending","expired",true]`},
		{name: "tag", raw: tagged, want: `{"_cborTag":42,"content":"h'dead'"}`},
		{name: "int keys", raw: keyed, want: `{"1":"h'01'","2":"b"}`},
		{name: "empty", raw: nil, want: "null"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := RenderCBOR(tc.raw)
			require.Nil(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestRenderCBOR_Malformed(t *testing.T) {
	_, err := RenderCBOR([]byte{0x83, 0x01})
	assert.NotNil(t, err)
}
