package constants

import "strings"

const (
	MimePDF  = "application/pdf"
	MimePNG  = "image/png"
	MimeJPEG = "image/jpeg"
	MimeTIFF = "image/tiff"
)

// AllowedExtensions maps accepted document extensions to their MIME type.
var AllowedExtensions = map[string]string{
	"pdf":  MimePDF,
	"png":  MimePNG,
	"jpg":  MimeJPEG,
	"jpeg": MimeJPEG,
	"tif":  MimeTIFF,
	"tiff": MimeTIFF,
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MimeForExt classifies purely by extension; unknown extensions are treated as PDF.
func MimeForExt(ext string) string {
	if mt, ok := AllowedExtensions[NormalizeExt(ext)]; ok {
		return mt
	}
	return MimePDF
}

func IsImageMime(mt string) bool {
	return strings.HasPrefix(mt, "image/")
}
