package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateUpload(t *testing.T) {
	data := []byte{0xff, 0xd8}

	tests := []struct {
		name      string
		path      string
		thumbPath string
		primary   []byte
		thumbnail []byte
		field     string
	}{
		{name: "empty storage path", path: "", thumbPath: "t/thumb.jpg", primary: data, thumbnail: data, field: "StoragePath"},
		{name: "empty thumbnail path", path: "a.jpg", thumbPath: "", primary: data, thumbnail: data, field: "ThumbnailPath"},
		{name: "same paths", path: "a.jpg", thumbPath: "a.jpg", primary: data, thumbnail: data, field: "ThumbnailPath"},
		{name: "nil primary", path: "a.jpg", thumbPath: "t.jpg", primary: nil, thumbnail: data, field: "Primary"},
		{name: "empty thumbnail", path: "a.jpg", thumbPath: "t.jpg", primary: data, thumbnail: []byte{}, field: "Thumbnail"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUpload("Firebase", tt.path, tt.thumbPath, tt.primary, tt.thumbnail)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.Contains(t, err.Error(), "Failed to upload to Firebase Storage")
			assert.Contains(t, err.Error(), tt.field)
		})
	}

	assert.NoError(t, ValidateUpload("Firebase", "a.jpg", "thumbnails/thumb_a.jpg", data, data))
}

func TestValidateDelete(t *testing.T) {
	err := ValidateDelete("Supabase", "  ")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "Failed to delete from Supabase Storage")

	assert.NoError(t, ValidateDelete("Supabase", "a.jpg"))
}
