package config

import (
	"fmt"
	"strings"
)

// Image preview encoding.
// ENUM(jpeg, png)
type PreviewFormat int

const (
	PreviewFormatJpeg PreviewFormat = iota
	PreviewFormatPng
)

var previewFormatNames = []string{"jpeg", "png"}

func (x PreviewFormat) String() string {
	if int(x) >= 0 && int(x) < len(previewFormatNames) {
		return previewFormatNames[x]
	}
	return fmt.Sprintf("PreviewFormat(%d)", int(x))
}

// MIME returns media type of the produced preview.
func (x PreviewFormat) MIME() string {
	if x == PreviewFormatPng {
		return "image/png"
	}
	return "image/jpeg"
}

func ParsePreviewFormat(name string) (PreviewFormat, error) {
	for i, n := range previewFormatNames {
		if strings.EqualFold(n, name) {
			return PreviewFormat(i), nil
		}
	}
	return PreviewFormat(0), fmt.Errorf("%s is not a valid PreviewFormat, try [%s]", name, strings.Join(previewFormatNames, ", "))
}

func (x PreviewFormat) MarshalText() ([]byte, error) {
	return []byte(x.String()), nil
}

func (x *PreviewFormat) UnmarshalText(text []byte) error {
	v, err := ParsePreviewFormat(string(text))
	if err != nil {
		return err
	}
	*x = v
	return nil
}
