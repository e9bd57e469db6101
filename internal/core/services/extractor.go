package services

import (
	"context"
	"errors"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"github.com/custodia-labs/gapfinder-cli/internal/core/domain"
	"github.com/custodia-labs/gapfinder-cli/internal/core/ports/driven"
	"github.com/custodia-labs/gapfinder-cli/internal/logger"
)

// maxTitleLength bounds a first-page line accepted as a title.
const maxTitleLength = 200

var (
	doiPattern       = regexp.MustCompile(`(?i)10\.\d{4,9}/[-._;()/:A-Z0-9]+`)
	lineHyphenation  = regexp.MustCompile(`(\p{L})-\n[ \t]*(\p{Ll})`)
	horizontalSpaces = regexp.MustCompile(`[ \t\x{00A0}]+`)
	trailingSpaces   = regexp.MustCompile(` +\n`)
	blankLines       = regexp.MustCompile(`\n{3,}`)
	keywordsLine     = regexp.MustCompile(`(?i)^(keywords|key words|palavras-chave|palabras clave)\s*[:.\-–]\s*(.+)$`)
	junkTitle        = regexp.MustCompile(`(?i)^(untitled|microsoft word|document\d*$)|\.(docx?|pdf|tex|dvi)$`)
)

// Extractor turns PDF bytes into a normalised, page-ordered document.
type Extractor struct {
	reader driven.PDFReader
}

// NewExtractor creates an extractor backed by the given PDF reader.
func NewExtractor(reader driven.PDFReader) *Extractor {
	return &Extractor{reader: reader}
}

// Extract parses a PDF. Encrypted, corrupted or image-only files fail with
// *domain.ExtractionError. Metadata is best-effort and never causes failure.
func (e *Extractor) Extract(ctx context.Context, filename string, data []byte) (*domain.Document, error) {
	logger.Debug("extract %s (%d bytes) with %s", filename, len(data), e.reader.Name())

	raw, err := e.reader.ReadPDF(ctx, data)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, &domain.ExtractionError{File: filename, Err: err}
	}

	pages := make([]domain.PageText, len(raw.Pages))
	for i, p := range raw.Pages {
		pages[i] = domain.PageText{Number: i + 1, Text: normaliseText(p)}
	}
	joinPageContinuations(pages)

	hasText := false
	for _, p := range pages {
		if p.Text != "" {
			hasText = true
			break
		}
	}
	if !hasText {
		return nil, &domain.ExtractionError{File: filename, Err: domain.ErrNoTextLayer}
	}

	meta := extractMetadata(raw.Info, pages)
	if meta.Title == "" {
		meta.Title = fallbackTitle(filename)
	}
	meta.PageCount = len(pages)

	doc := domain.NewDocument(uuid.New().String(), filename, pages, meta)
	logger.Debug("extracted %s: %d pages, title=%q doi=%q", filename, len(pages), meta.Title, meta.DOI)
	return doc, nil
}

// normaliseText applies compatibility normalisation (ligatures, full-width
// forms), joins words hyphenated at line breaks and collapses whitespace
// while keeping paragraph breaks.
func normaliseText(s string) string {
	s = norm.NFKC.String(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.ReplaceAll(s, "\u00ad", "")
	s = strings.ReplaceAll(s, "\f", "\n")
	s = strings.Map(func(r rune) rune {
		if r != '\n' && r != '\t' && unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	s = horizontalSpaces.ReplaceAllString(s, " ")
	s = trailingSpaces.ReplaceAllString(s, "\n")
	s = lineHyphenation.ReplaceAllString(s, "$1$2")
	s = blankLines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// joinPageContinuations re-joins a word hyphenated across a page break by
// moving its tail from the start of the next page to the end of the
// previous one.
func joinPageContinuations(pages []domain.PageText) {
	for i := 0; i+1 < len(pages); i++ {
		prev, next := pages[i].Text, pages[i+1].Text
		joined, rest, ok := joinHyphenated(prev, next)
		if !ok {
			continue
		}
		pages[i].Text = joined
		pages[i+1].Text = rest
	}
}

// joinHyphenated reports whether prev ends with a hyphenated word fragment
// continued by a lowercase fragment at the start of next.
func joinHyphenated(prev, next string) (joined, rest string, ok bool) {
	if !strings.HasSuffix(prev, "-") || len(prev) < 2 {
		return prev, next, false
	}
	before, _ := utf8.DecodeLastRuneInString(prev[:len(prev)-1])
	first, _ := utf8.DecodeRuneInString(next)
	if !unicode.IsLetter(before) || !unicode.IsLower(first) {
		return prev, next, false
	}

	end := strings.IndexFunc(next, func(r rune) bool {
		return unicode.IsSpace(r)
	})
	if end < 0 {
		end = len(next)
	}
	// Keep trailing punctuation with the word
	return prev[:len(prev)-1] + next[:end], strings.TrimLeft(next[end:], " \n"), true
}

func extractMetadata(info map[string]string, pages []domain.PageText) domain.Metadata {
	var meta domain.Metadata
	firstPage := ""
	if len(pages) > 0 {
		firstPage = pages[0].Text
	}
	lines := nonEmptyLines(firstPage, 40)

	meta.DOI = findDOI(info, firstPage)

	titleLine := -1
	if t := cleanInfo(info["Title"]); t != "" && !junkTitle.MatchString(t) {
		meta.Title = t
	} else {
		meta.Title, titleLine = titleFromLines(lines)
	}

	if a := cleanInfo(info["Author"]); a != "" {
		meta.Author = a
	} else if titleLine >= 0 {
		meta.Author = authorFromLines(lines, titleLine)
	}

	if k := cleanInfo(info["Keywords"]); k != "" {
		meta.Keywords = k
	} else {
		meta.Keywords = keywordsFromLines(lines)
	}

	return meta
}

func findDOI(info map[string]string, firstPage string) string {
	for _, key := range []string{"DOI", "Subject", "Keywords", "Title"} {
		if m := doiPattern.FindString(info[key]); m != "" {
			return trimDOI(m)
		}
	}
	if m := doiPattern.FindString(firstPage); m != "" {
		return trimDOI(m)
	}
	return ""
}

func trimDOI(doi string) string {
	doi = strings.TrimRight(doi, ".,;:")
	// Drop an unbalanced closing parenthesis picked up from surrounding text
	for strings.HasSuffix(doi, ")") && strings.Count(doi, "(") < strings.Count(doi, ")") {
		doi = strings.TrimSuffix(doi, ")")
	}
	return doi
}

func cleanInfo(v string) string {
	return strings.TrimSpace(horizontalSpaces.ReplaceAllString(norm.NFKC.String(v), " "))
}

func nonEmptyLines(text string, limit int) []string {
	var lines []string
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
			if len(lines) == limit {
				break
			}
		}
	}
	return lines
}

// titleFromLines picks the first line that looks like a title and returns
// it with its index, or "" and -1.
func titleFromLines(lines []string) (string, int) {
	for i, l := range lines {
		if len(l) > maxTitleLength || utf8.RuneCountInString(l) < 8 {
			continue
		}
		lower := strings.ToLower(l)
		if strings.HasPrefix(lower, "doi") || strings.Contains(lower, "http") ||
			strings.Contains(lower, "journal") || strings.Contains(lower, "vol.") ||
			strings.Contains(lower, "issn") || strings.Contains(lower, "©") {
			continue
		}
		if letterRatio(l) < 0.6 {
			continue
		}
		return l, i
	}
	return "", -1
}

// authorFromLines looks right below the title for a line of capitalised names.
func authorFromLines(lines []string, titleLine int) string {
	for i := titleLine + 1; i < len(lines) && i <= titleLine+3; i++ {
		l := lines[i]
		if len(l) > maxTitleLength || strings.ContainsAny(l, "0123456789@:") {
			continue
		}
		words := strings.FieldsFunc(l, func(r rune) bool {
			return r == ',' || r == ';' || unicode.IsSpace(r)
		})
		if len(words) < 2 {
			continue
		}
		capitalised := 0
		for _, w := range words {
			r, _ := utf8.DecodeRuneInString(w)
			if unicode.IsUpper(r) || w == "and" || w == "e" || w == "y" || w == "&" {
				capitalised++
			}
		}
		if float64(capitalised)/float64(len(words)) >= 0.8 {
			return l
		}
	}
	return ""
}

func keywordsFromLines(lines []string) string {
	for _, l := range lines {
		if m := keywordsLine.FindStringSubmatch(l); m != nil {
			return strings.TrimSpace(m[2])
		}
	}
	return ""
}

func letterRatio(s string) float64 {
	letters, total := 0, 0
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if unicode.IsLetter(r) {
			letters++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(letters) / float64(total)
}

// fallbackTitle derives a display title from a filename.
func fallbackTitle(filename string) string {
	base := filepath.Base(filename)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return strings.TrimSpace(strings.ReplaceAll(base, "_", " "))
}

// describeDocument is used in logs and prompts.
func describeDocument(doc *domain.Document) string {
	if doc.Metadata.Title != "" {
		return doc.Metadata.Title
	}
	return fallbackTitle(doc.SourceFilename)
}
