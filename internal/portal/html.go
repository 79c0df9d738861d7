package portal

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
)

// Labels on the dataset page. Matching ignores case and accents.
const (
	labelSource  = "Fuente"
	labelAuthor  = "Autor"
	labelUpdated = "Fecha de actualización"
	labelCreated = "Fecha de creación"
	labelLicense = "Licencia de uso"
)

// htmlFields is what the dataset page yields
type htmlFields struct {
	Source       string
	Author       string
	ContactEmail string
	UpdatedAt    *string
	CreatedAt    *string
	LicenseName  string
	LicenseURL   string
}

// parseDatasetPage extracts metadata from a dataset page. Labels and values
// are sibling paragraphs: <p>Fuente</p><p>value</p>.
func parseDatasetPage(body []byte, contentType string) (*htmlFields, error) {
	reader, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		reader = bytes.NewReader(body)
	}
	utf8Body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to decode page: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(utf8Body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	f := &htmlFields{
		Source: valueAfterLabel(doc, labelSource).Text(),
		Author: valueAfterLabel(doc, labelAuthor).Text(),
	}
	f.Source = collapse(f.Source)
	f.Author = collapse(f.Author)

	if a := doc.Find(`a[href^="mailto:"]`).First(); a.Length() > 0 {
		f.ContactEmail = strings.TrimSpace(a.Text())
	}

	if d, ok := ParseSpanishDate(valueAfterLabel(doc, labelUpdated).Text()); ok {
		f.UpdatedAt = &d
	}
	if d, ok := ParseSpanishDate(valueAfterLabel(doc, labelCreated).Text()); ok {
		f.CreatedAt = &d
	}

	if block := valueAfterLabel(doc, labelLicense); block.Length() > 0 {
		link := block.Find(`a[rel="dc:rights"]`).First()
		if link.Length() == 0 {
			link = block.Find("a").First()
		}
		if link.Length() > 0 {
			f.LicenseName = strings.TrimSpace(link.Text())
			f.LicenseURL, _ = link.Attr("href")
		}
	}

	return f, nil
}

// valueAfterLabel returns the paragraph following the first paragraph whose
// text equals label, or an empty selection.
func valueAfterLabel(doc *goquery.Document, label string) *goquery.Selection {
	want := foldText(label)
	var value *goquery.Selection
	doc.Find("p").EachWithBreak(func(_ int, p *goquery.Selection) bool {
		if foldText(p.Text()) != want {
			return true
		}
		next := p.NextAllFiltered("p").First()
		if next.Length() == 0 {
			return true
		}
		value = next
		return false
	})
	if value == nil {
		return doc.Selection.Slice(0, 0)
	}
	return value
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
