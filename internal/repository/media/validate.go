package media

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type uploadInput struct {
	StoragePath   string `validate:"required"`
	ThumbnailPath string `validate:"required,nefield=StoragePath"`
	Primary       []byte `validate:"required,min=1"`
	Thumbnail     []byte `validate:"required,min=1"`
}

// ValidateUpload checks the structural preconditions of UploadFile. Metadata
// content is not inspected.
func ValidateUpload(backend, storagePath, thumbnailPath string, primary, thumbnail []byte) error {
	err := validate.Struct(uploadInput{
		StoragePath:   storagePath,
		ThumbnailPath: thumbnailPath,
		Primary:       primary,
		Thumbnail:     thumbnail,
	})
	if err != nil {
		return InvalidInputError(backend, OpUpload, summarize(err))
	}
	return nil
}

// ValidateDelete checks the precondition of DeleteFile.
func ValidateDelete(backend, storagePath string) error {
	if strings.TrimSpace(storagePath) == "" {
		return InvalidInputError(backend, OpDelete, errors.New("storagePath is required"))
	}
	return nil
}

func summarize(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return errors.New(strings.Join(parts, ", "))
}
