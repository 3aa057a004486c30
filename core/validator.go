package core

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/oclaw/polybuild/common"
)

var (
	ErrEmptySourcePath = errors.New("source path is empty")
	ErrIsDirectory     = errors.New("is a directory")
)

// FileError is returned when the source path cannot be used as build input.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("source file '%s': %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

type fsValidator struct{}

var _ Validator = (*fsValidator)(nil)

func NewFsValidator() *fsValidator {
	return &fsValidator{}
}

// Validate reads the whole source file. The contents are handed back as is,
// nothing here looks inside them.
func (v *fsValidator) Validate(ctx context.Context, sourcePath string) (string, error) {
	if len(sourcePath) == 0 {
		return "", &FileError{Path: sourcePath, Err: ErrEmptySourcePath}
	}

	common.Logger(ctx).Debug("validating source file", "path", sourcePath)

	info, err := os.Stat(sourcePath)
	if err != nil {
		return "", &FileError{Path: sourcePath, Err: err}
	}
	if info.IsDir() {
		return "", &FileError{Path: sourcePath, Err: ErrIsDirectory}
	}

	contents, err := os.ReadFile(sourcePath)
	if err != nil {
		return "", &FileError{Path: sourcePath, Err: err}
	}

	return string(contents), nil
}
