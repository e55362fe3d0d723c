package handler

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minhvd/bgremover-be/internal/api/storage"
)

func TestImageCursorRoundTrip(t *testing.T) {
	created := time.Date(2025, 6, 12, 9, 30, 0, 123456789, time.UTC)
	cursor := &storage.ImageCursor{
		CreatedAt: created,
		ImageID:   "0c6d63bc-9e9f-4a4e-9a3f-1f2d3c4b5a69",
	}

	encoded := EncodeImageCursor(cursor)
	require.NotEmpty(t, encoded)

	decoded, err := DecodeImageCursor(encoded)
	require.NoError(t, err)
	require.NotNil(t, decoded)

	assert.Equal(t, cursor.ImageID, decoded.ImageID)
	assert.True(t, cursor.CreatedAt.Equal(decoded.CreatedAt))
}

func TestDecodeImageCursor(t *testing.T) {
	tests := []struct {
		name    string
		cursor  string
		wantNil bool
		wantErr bool
	}{
		{
			name:    "empty cursor means first page",
			cursor:  "",
			wantNil: true,
		},
		{
			name:    "invalid base64",
			cursor:  "%%%not-base64%%%",
			wantErr: true,
		},
		{
			name:    "missing separator",
			cursor:  base64.StdEncoding.EncodeToString([]byte("1718183400000000000")),
			wantErr: true,
		},
		{
			name:    "non-numeric timestamp",
			cursor:  base64.StdEncoding.EncodeToString([]byte("abc|some-id")),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoded, err := DecodeImageCursor(tt.cursor)

			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, decoded)
			}
		})
	}
}
