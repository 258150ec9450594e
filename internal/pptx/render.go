package pptx

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/beevik/etree"
)

var (
	// ErrMalformedTemplate means the payload is not a valid zip/XML
	// document container. Surfaced to the uploader; never retried.
	ErrMalformedTemplate = errors.New("pptx: malformed template archive")
	// ErrTooLarge means the payload exceeds MaxArchiveSize.
	ErrTooLarge = errors.New("pptx: template exceeds size limit")
)

// MaxArchiveSize caps template input so a hostile upload cannot force an
// unbounded in-memory decode.
const MaxArchiveSize = 20 << 20

// isSlidePart reports whether a zip entry is a text-bearing slide part.
// Relationship files and media under ppt/slides/_rels are copied untouched.
func isSlidePart(name string) bool {
	return strings.HasPrefix(name, "ppt/slides/") &&
		strings.HasSuffix(name, ".xml") &&
		!strings.Contains(name, "_rels")
}

// Render substitutes placeholder tokens throughout the deck's slide parts and
// returns the repackaged document. The input is never mutated; tokens without
// a value are left verbatim. The result is computed fully in memory and only
// returned once every part has been rewritten, so a failure yields no output.
func Render(doc []byte, values Values) ([]byte, error) {
	if len(doc) > MaxArchiveSize {
		return nil, ErrTooLarge
	}
	zr, err := zip.NewReader(bytes.NewReader(doc), int64(len(doc)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedTemplate, err)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range zr.File {
		if !isSlidePart(f.Name) {
			if err := copyRaw(zw, f); err != nil {
				return nil, err
			}
			continue
		}
		part, err := readPart(f)
		if err != nil {
			return nil, err
		}
		rewritten, err := substitutePart(part, values)
		if err != nil {
			return nil, err
		}
		hdr := f.FileHeader
		w, err := zw.CreateHeader(&hdr)
		if err != nil {
			return nil, fmt.Errorf("pptx: repackage %s: %w", f.Name, err)
		}
		if _, err := w.Write(rewritten); err != nil {
			return nil, fmt.Errorf("pptx: repackage %s: %w", f.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("pptx: finalize archive: %w", err)
	}
	return buf.Bytes(), nil
}

// copyRaw transfers a zip entry without recompression, preserving the
// original compression settings and bytes.
func copyRaw(zw *zip.Writer, f *zip.File) error {
	hdr := f.FileHeader
	w, err := zw.CreateRaw(&hdr)
	if err != nil {
		return fmt.Errorf("pptx: copy %s: %w", f.Name, err)
	}
	r, err := f.OpenRaw()
	if err != nil {
		return fmt.Errorf("pptx: copy %s: %w", f.Name, err)
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("pptx: copy %s: %w", f.Name, err)
	}
	return nil
}

func readPart(f *zip.File) ([]byte, error) {
	r, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("pptx: read %s: %w", f.Name, err)
	}
	defer r.Close()
	data, err := io.ReadAll(io.LimitReader(r, MaxArchiveSize+1))
	if err != nil {
		return nil, fmt.Errorf("pptx: read %s: %w", f.Name, err)
	}
	if len(data) > MaxArchiveSize {
		return nil, ErrTooLarge
	}
	return data, nil
}

// substitutePart rewrites one slide XML part. Placeholder tokens may be split
// across adjacent runs by the authoring tool, so each paragraph's runs are
// first reconstituted into a single logical string; after substitution the
// whole string is written back into the paragraph's first text run and the
// remaining runs' text is cleared. Run styling, ordering and every non-text
// node stay in place.
func substitutePart(data []byte, values Values) ([]byte, error) {
	tree := etree.NewDocument()
	if err := tree.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedTemplate, err)
	}
	for _, para := range findParagraphs(&tree.Element) {
		rewriteParagraph(para, values)
	}
	out, err := tree.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("pptx: serialize part: %w", err)
	}
	return out, nil
}

// findParagraphs walks the tree for DrawingML paragraph elements (local name
// "p" containing at least one run). Matching is by local name so the engine
// does not depend on a particular namespace prefix binding.
func findParagraphs(el *etree.Element) []*etree.Element {
	var out []*etree.Element
	var walk func(e *etree.Element)
	walk = func(e *etree.Element) {
		if e.Tag == "p" && len(e.SelectElements("r")) > 0 {
			out = append(out, e)
			return
		}
		for _, child := range e.ChildElements() {
			walk(child)
		}
	}
	for _, child := range el.ChildElements() {
		walk(child)
	}
	return out
}

// rewriteParagraph performs the two-pass substitution: collect the text nodes
// of every run in order, substitute against the joined string, then splice
// the result back.
func rewriteParagraph(para *etree.Element, values Values) {
	var texts []*etree.Element
	for _, run := range para.SelectElements("r") {
		if t := run.SelectElement("t"); t != nil {
			texts = append(texts, t)
		}
	}
	if len(texts) == 0 {
		return
	}
	var sb strings.Builder
	for _, t := range texts {
		sb.WriteString(t.Text())
	}
	logical := sb.String()
	replaced := substitute(logical, values)
	if replaced == logical {
		return
	}
	texts[0].SetText(replaced)
	preserveSpace(texts[0], replaced)
	for _, t := range texts[1:] {
		t.SetText("")
	}
}

// substitute replaces every occurrence of each supplied token. Tokens present
// in the text but absent from values stay verbatim by policy.
func substitute(text string, values Values) string {
	for tok, val := range values {
		text = strings.ReplaceAll(text, string(tok), val)
	}
	return text
}

// preserveSpace pins significant leading/trailing whitespace so viewers do
// not collapse it.
func preserveSpace(t *etree.Element, text string) {
	if text != strings.TrimSpace(text) {
		t.CreateAttr("xml:space", "preserve")
	}
}

// ExtractText returns the visible text of every slide part, one logical
// paragraph per line, slides in archive order.
func ExtractText(doc []byte) (string, error) {
	if len(doc) > MaxArchiveSize {
		return "", ErrTooLarge
	}
	zr, err := zip.NewReader(bytes.NewReader(doc), int64(len(doc)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedTemplate, err)
	}
	var lines []string
	for _, f := range zr.File {
		if !isSlidePart(f.Name) {
			continue
		}
		data, err := readPart(f)
		if err != nil {
			return "", err
		}
		tree := etree.NewDocument()
		if err := tree.ReadFromBytes(data); err != nil {
			return "", fmt.Errorf("%w: %v", ErrMalformedTemplate, err)
		}
		for _, para := range findParagraphs(&tree.Element) {
			var sb strings.Builder
			for _, run := range para.SelectElements("r") {
				if t := run.SelectElement("t"); t != nil {
					sb.WriteString(t.Text())
				}
			}
			if sb.Len() > 0 {
				lines = append(lines, sb.String())
			}
		}
	}
	return strings.Join(lines, "\n"), nil
}

// ScanPlaceholders inventories the placeholder tokens present in the deck's
// text, sorted and deduplicated. Used to populate a template's declared
// placeholder list at upload time; it is informational, not enforced.
func ScanPlaceholders(doc []byte) ([]string, error) {
	text, err := ExtractText(doc)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	var toks []string
	for _, m := range scanRe.FindAllString(text, -1) {
		if !seen[m] {
			seen[m] = true
			toks = append(toks, m)
		}
	}
	sort.Strings(toks)
	return toks, nil
}
