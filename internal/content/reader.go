package content

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"unicode/utf8"

	"github.com/temirov/roleaudit/internal/filesystem"
)

const (
	readErrorTemplateConstant = "unable to read %s: %v"
)

var utf8ByteOrderMark = []byte{0xEF, 0xBB, 0xBF}

// ErrInvalidEncoding indicates the file content is not valid UTF-8 text.
var ErrInvalidEncoding = errors.New("content is not valid UTF-8")

// ReadError describes why a file could not be turned into text.
type ReadError struct {
	Path  string
	Cause error
}

// Error describes the failed read.
func (readError ReadError) Error() string {
	return fmt.Sprintf(readErrorTemplateConstant, readError.Path, readError.Cause)
}

// Unwrap exposes the underlying cause.
func (readError ReadError) Unwrap() error {
	return readError.Cause
}

// ReadResult is the outcome of reading a single file.
type ReadResult struct {
	Path    string
	Text    string
	Failure error
}

// Succeeded reports whether the file was read and decoded.
func (result ReadResult) Succeeded() bool {
	return result.Failure == nil
}

// NotFound reports whether the failure was caused by a missing file.
func (result ReadResult) NotFound() bool {
	return result.Failure != nil && errors.Is(result.Failure, fs.ErrNotExist)
}

// Blank reports whether a successfully read file is empty or whitespace-only.
func (result ReadResult) Blank() bool {
	return result.Succeeded() && len(strings.TrimSpace(result.Text)) == 0
}

// Reader reads files as UTF-8 text.
type Reader struct {
	fileSystem filesystem.FileSystem
}

// NewReader constructs a Reader backed by the provided filesystem.
func NewReader(fileSystem filesystem.FileSystem) *Reader {
	if fileSystem == nil {
		fileSystem = filesystem.NewOSFileSystem()
	}
	return &Reader{fileSystem: fileSystem}
}

// Read loads the file at path. A leading byte order mark is dropped.
func (reader *Reader) Read(path string) ReadResult {
	data, readFileError := reader.fileSystem.ReadFile(path)
	if readFileError != nil {
		return ReadResult{Path: path, Failure: ReadError{Path: path, Cause: readFileError}}
	}

	data = bytes.TrimPrefix(data, utf8ByteOrderMark)
	if !utf8.Valid(data) {
		return ReadResult{Path: path, Failure: ReadError{Path: path, Cause: ErrInvalidEncoding}}
	}

	return ReadResult{Path: path, Text: string(data)}
}
