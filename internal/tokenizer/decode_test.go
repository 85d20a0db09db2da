package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDecodeMode(t *testing.T) {
	tests := []struct {
		in      string
		want    DecodeMode
		wantErr bool
	}{
		{in: "", want: Strict},
		{in: "strict", want: Strict},
		{in: "replace", want: Replace},
		{in: "lossy", want: Replace},
		{in: "ignore", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDecodeMode(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeMode_String(t *testing.T) {
	assert.Equal(t, "strict", Strict.String())
	assert.Equal(t, "replace", Replace.String())
	assert.Equal(t, "DecodeMode(7)", DecodeMode(7).String())
}

func TestInvalidOffset(t *testing.T) {
	assert.Equal(t, 0, invalidOffset([]byte{0xff}))
	assert.Equal(t, 3, invalidOffset([]byte("abc\x80")))
	assert.Equal(t, 3, invalidOffset([]byte("中\xe4\xb8")))
	assert.Equal(t, 3, invalidOffset([]byte("abc")))
}

func TestFinishDecode_UnknownMode(t *testing.T) {
	_, err := finishDecode([]byte{0xff}, DecodeMode(9))
	assert.Error(t, err)

	s, err := finishDecode([]byte("ok"), DecodeMode(9))
	require.NoError(t, err)
	assert.Equal(t, "ok", s)
}
