package validators

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gabriel-vasile/mimetype"
)

var (
	ErrFileTooLarge        = errors.New("file too large")
	ErrFileTypeUnsupported = errors.New("unsupported file type, use png, jpeg, gif or webp")
	ErrNoFile              = errors.New("no file provided")
)

var avatarTypes = []string{"image/png", "image/jpeg", "image/gif", "image/webp"}

// Avatar is an opened upload that passed AvatarValidator
type Avatar struct {
	File        multipart.File
	Size        int64
	ContentType string
	Extension   string
}

// AvatarValidator checks the declared size first, then sniffs the real
// content since the client supplied Content-Type is trivial to spoof. On
// success the returned file is rewound and must be closed by the caller.
func AvatarValidator(fh *multipart.FileHeader, maxSize int64) (int, *Avatar, error) {
	if fh == nil {
		return http.StatusBadRequest, nil, ErrNoFile
	}

	if fh.Size > maxSize {
		return http.StatusRequestEntityTooLarge, nil, ErrFileTooLarge
	}

	f, err := fh.Open()
	if err != nil {
		return http.StatusInternalServerError, nil, fmt.Errorf("failed to open upload, %w", err)
	}

	mime, err := mimetype.DetectReader(f)
	if err != nil {
		f.Close()
		return http.StatusInternalServerError, nil, fmt.Errorf("failed to detect file type, %w", err)
	}

	if !mimetype.EqualsAny(mime.String(), avatarTypes...) {
		f.Close()
		return http.StatusUnsupportedMediaType, nil, ErrFileTypeUnsupported
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return http.StatusInternalServerError, nil, fmt.Errorf("failed to rewind upload, %w", err)
	}

	return 0, &Avatar{
		File:        f,
		Size:        fh.Size,
		ContentType: mime.String(),
		Extension:   mime.Extension(),
	}, nil
}
