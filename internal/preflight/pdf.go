package preflight

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/kattabharath12/tax-1040/constants"
)

var disableConfigDir sync.Once

// Info describes a document that passed preflight.
type Info struct {
	MimeType string
	Pages    int
}

// Inspector checks document bytes before they are sent for extraction.
type Inspector struct {
	maxPages int
	logger   *slog.Logger
}

func NewInspector(maxPages int, logger *slog.Logger) *Inspector {
	disableConfigDir.Do(api.DisableConfigDir)
	if logger == nil {
		logger = slog.Default()
	}
	return &Inspector{maxPages: maxPages, logger: logger}
}

// Inspect page-counts PDFs with relaxed validation and enforces the page limit.
// Images pass through untouched.
func (i *Inspector) Inspect(_ context.Context, mimeType string, data []byte) (Info, error) {
	if mimeType != constants.MimePDF {
		return Info{MimeType: mimeType, Pages: 1}, nil
	}
	if len(data) == 0 {
		return Info{}, fmt.Errorf("pdf is empty")
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	pages, err := api.PageCount(bytes.NewReader(data), conf)
	if err != nil {
		i.logger.Warn("preflight.pdf.unreadable", "bytes", len(data), "error", err)
		return Info{}, fmt.Errorf("pdf unreadable: %w", err)
	}
	if i.maxPages > 0 && pages > i.maxPages {
		return Info{}, fmt.Errorf("pdf has %d pages, limit is %d", pages, i.maxPages)
	}
	i.logger.Debug("preflight.pdf.ok", "pages", pages)
	return Info{MimeType: mimeType, Pages: pages}, nil
}
