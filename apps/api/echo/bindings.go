package echoapi

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/ongoza/cyberhub/core"
	"github.com/ongoza/cyberhub/core/onboarding"
)

const uploadField = "file"

type AnswerRequest struct {
	Value string `json:"value"`
}

// bindFile reads the multipart "file" field. Reading stops one byte past maxSize,
// so oversized files are still rejected by the session with the right message.
func bindFile(ctx echo.Context, kind onboarding.DocumentKind, maxSize int64) (onboarding.File, error) {
	fh, err := ctx.FormFile(uploadField)
	if err != nil {
		if errors.Cause(err) == http.ErrMissingFile {
			return onboarding.File{}, core.NewValidationError(nil, core.FieldError{Field: uploadField, Error: "this field is required"})
		}
		return onboarding.File{}, core.NewUploadError(string(kind), errors.Wrap(err, "reading upload"), false)
	}
	src, err := fh.Open()
	if err != nil {
		return onboarding.File{}, errors.Wrap(err, "opening upload")
	}
	defer func() { _ = src.Close() }()

	data, err := io.ReadAll(io.LimitReader(src, maxSize+1))
	if err != nil {
		return onboarding.File{}, errors.Wrap(err, "reading upload")
	}
	return onboarding.File{
		Name:        fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Data:        data,
	}, nil
}
