package epub

import (
	"errors"
	"fmt"
)

// Sentinel errors. Every error returned by this package wraps exactly one of
// them, so callers can branch with errors.Is.
var (
	ErrUnknown            = errors.New("epub: unknown error")
	ErrInvalidArgument    = errors.New("epub: invalid argument")
	ErrInvalidMimetype    = errors.New("epub: invalid mimetype, must be 'application/epub+zip'")
	ErrFileNotFound       = errors.New("epub: file not found in archive")
	ErrFileRead           = errors.New("epub: failed to read file from archive")
	ErrArchiveUnavailable = errors.New("epub: archive unavailable")
	ErrXMLRead            = errors.New("epub: cannot read XML from buffer")
	ErrXMLParse           = errors.New("epub: XML parse error")
	ErrElementNotFound    = errors.New("epub: required XML element not found")
	ErrDocumentInvalid    = errors.New("epub: XML document invalid")
)

// ErrorCode is the numeric form of the error taxonomy, stable across
// releases and used by the CLI for diagnostics.
type ErrorCode int

const (
	CodeSuccess            ErrorCode = 0
	CodeUnknown            ErrorCode = 1001
	CodeInvalidArgument    ErrorCode = 1002
	CodeInvalidMimetype    ErrorCode = 1003
	CodeFileNotFound       ErrorCode = 1004
	CodeFileRead           ErrorCode = 1005
	CodeArchiveUnavailable ErrorCode = 1006
	CodeXMLRead            ErrorCode = 1007
	CodeXMLParse           ErrorCode = 1008
	CodeElementNotFound    ErrorCode = 1009
	CodeDocumentInvalid    ErrorCode = 1010
)

var codes = []struct {
	err  error
	code ErrorCode
}{
	{ErrInvalidArgument, CodeInvalidArgument},
	{ErrInvalidMimetype, CodeInvalidMimetype},
	{ErrFileNotFound, CodeFileNotFound},
	{ErrFileRead, CodeFileRead},
	{ErrArchiveUnavailable, CodeArchiveUnavailable},
	{ErrXMLRead, CodeXMLRead},
	{ErrXMLParse, CodeXMLParse},
	{ErrElementNotFound, CodeElementNotFound},
	{ErrDocumentInvalid, CodeDocumentInvalid},
	{ErrUnknown, CodeUnknown},
}

// Code maps err onto the taxonomy. Errors that wrap none of the sentinels
// report CodeUnknown; a nil error reports CodeSuccess.
func Code(err error) ErrorCode {
	if err == nil {
		return CodeSuccess
	}
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return CodeUnknown
}

func (c ErrorCode) String() string {
	switch c {
	case CodeSuccess:
		return "success"
	case CodeUnknown:
		return "unknown"
	case CodeInvalidArgument:
		return "invalid-argument"
	case CodeInvalidMimetype:
		return "invalid-mimetype"
	case CodeFileNotFound:
		return "file-not-found-in-archive"
	case CodeFileRead:
		return "file-read-from-archive"
	case CodeArchiveUnavailable:
		return "archive-unavailable"
	case CodeXMLRead:
		return "xml-read-from-buffer"
	case CodeXMLParse:
		return "xml-parse"
	case CodeElementNotFound:
		return "element-not-found"
	case CodeDocumentInvalid:
		return "document-invalid"
	default:
		return fmt.Sprintf("ErrorCode(%d)", int(c))
	}
}
