package ingestion

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
)

const (
	// BinarySampleSize is the number of bytes to sample for binary detection
	BinarySampleSize = 1000
	// BinaryThreshold is the proportion of non-printable characters that indicates binary data
	BinaryThreshold = 0.3
)

// ErrUnsupportedFormat is returned for files that are not xlsx or csv
var ErrUnsupportedFormat = errors.New("unsupported spreadsheet format")

// Format is a tabular file format
type Format string

const (
	FormatXLSX    Format = "xlsx"
	FormatXLS     Format = "xls"
	FormatCSV     Format = "csv"
	FormatUnknown Format = "unknown"
)

var (
	zipMagic = []byte("PK\x03\x04")
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

// Supported reports whether the format can be read
func (f Format) Supported() bool {
	return f == FormatXLSX || f == FormatCSV
}

// DetectFormat sniffs the content of a file
func DetectFormat(data []byte) Format {
	switch {
	case bytes.HasPrefix(data, zipMagic):
		return FormatXLSX
	case bytes.HasPrefix(data, oleMagic):
		return FormatXLS
	case bytes.HasPrefix(data, []byte("%PDF-")):
		return FormatUnknown
	case isBinary(data):
		return FormatUnknown
	default:
		return FormatCSV
	}
}

// FormatFromName maps a file extension to a format
func FormatFromName(name string) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX
	case ".xls":
		return FormatXLS
	case ".csv":
		return FormatCSV
	default:
		return FormatUnknown
	}
}

// IsSpreadsheetName reports whether a file name looks like a readable spreadsheet
func IsSpreadsheetName(name string) bool {
	return FormatFromName(name).Supported()
}

// isBinary checks for a high proportion of control characters
func isBinary(data []byte) bool {
	if len(data) == 0 {
		return false
	}

	sampleSize := min(BinarySampleSize, len(data))
	nonPrintable := 0
	for _, ch := range data[:sampleSize] {
		if ch < 32 && ch != '\n' && ch != '\r' && ch != '\t' {
			nonPrintable++
		}
	}

	return float64(nonPrintable)/float64(sampleSize) > BinaryThreshold
}
