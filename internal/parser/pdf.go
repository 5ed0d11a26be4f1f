package parser

import (
	"fmt"

	"github.com/ledongthuc/pdf"

	"docqa/internal/domain"
)

// parsePDF extracts one document per page, carrying the page number in the
// metadata so answers can cite it.
func parsePDF(path string) ([]domain.Document, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer f.Close()

	var docs []domain.Document
	total := reader.NumPage()
	for pageNum := 1; pageNum <= total; pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("extract page %d of %s: %w", pageNum, path, err)
		}
		text = cleanText(text)
		if text == "" {
			continue
		}
		md := fileMetadata(path)
		md["page_number"] = pageNum
		md["total_pages"] = total
		docs = append(docs, domain.Document{Text: text, Metadata: md})
	}
	return docs, nil
}
