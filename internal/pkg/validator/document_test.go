package validator

import (
	"errors"
	"mime/multipart"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/futig/docqa-backend/internal/config"
	"github.com/futig/docqa-backend/internal/entity"
)

func newTestValidator() *Validator {
	return NewFileValidator(config.FileUploadConfig{
		MaxFileSize:   1 << 20,
		MaxUploadSize: 10 << 20,
		UploadDir:     "uploads",
	})
}

func header(filename string, size int64) *multipart.FileHeader {
	return &multipart.FileHeader{Filename: filename, Size: size}
}

func TestValidateUpload(t *testing.T) {
	v := newTestValidator()

	tests := []struct {
		name    string
		file    *multipart.FileHeader
		wantErr error
	}{
		{name: "txt ok", file: header("notes.txt", 100)},
		{name: "pdf ok", file: header("report.PDF", 100)},
		{name: "docx ok", file: header("paper.docx", 100)},
		{name: "markdown ok", file: header("readme.md", 100)},
		{name: "missing file", file: nil, wantErr: entity.ErrMissingField},
		{name: "bad extension", file: header("image.png", 100), wantErr: entity.ErrInvalidExtension},
		{name: "no extension", file: header("noext", 100), wantErr: entity.ErrInvalidExtension},
		{name: "empty file", file: header("empty.txt", 0), wantErr: entity.ErrEmptyFile},
		{name: "too large", file: header("big.txt", 2<<20), wantErr: entity.ErrFileTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateUpload(tt.file)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr))
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "my_report_final.pdf", SanitizeFilename("my report (final).pdf"))
	assert.Equal(t, "notes.txt", SanitizeFilename("../../etc/notes.txt"))
}

func TestFileType(t *testing.T) {
	assert.Equal(t, "pdf", FileType("report.PDF"))
	assert.Equal(t, "txt", FileType("notes.txt"))
	assert.Equal(t, "", FileType("noext"))
}
