package llm

import (
	"encoding/base64"
	"path/filepath"
	"strings"

	"github.com/kattabharath12/tax-1040/constants"
)

// MimeTypeFor classifies a document by its declared file extension only.
func MimeTypeFor(fileName string) string {
	return constants.MimeForExt(filepath.Ext(fileName))
}

// DataURL encodes raw bytes as a base64 data URL.
func DataURL(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// TrimFences strips a surrounding markdown code fence some models add around JSON.
func TrimFences(content string) string {
	s := strings.TrimSpace(content)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
