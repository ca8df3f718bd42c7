// Package docx reads paragraph text out of Word documents.
package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrInvalidDocument is returned for data that is not a readable .docx package.
var ErrInvalidDocument = errors.New("invalid docx document")

const documentPart = "word/document.xml"

// Paragraphs returns the text of every top-level body paragraph in document
// order. Table cells and text boxes are not part of the body paragraph list.
func Paragraphs(data []byte) ([]string, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrInvalidDocument)
	}
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	var part *zip.File
	for _, f := range r.File {
		if strings.EqualFold(f.Name, documentPart) {
			part = f
			break
		}
	}
	if part == nil {
		return nil, fmt.Errorf("%w: missing %s", ErrInvalidDocument, documentPart)
	}

	rc, err := part.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	defer rc.Close()

	paras, err := readParagraphs(rc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return paras, nil
}

// FullText joins paragraphs with newlines.
func FullText(paragraphs []string) string {
	return strings.Join(paragraphs, "\n")
}

func readParagraphs(r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)

	var (
		stack   []string
		paras   []string
		buf     strings.Builder
		inPara  bool
		skipBox int
	)

	parent := func() string {
		if len(stack) == 0 {
			return ""
		}
		return stack[len(stack)-1]
	}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			name := t.Name.Local
			switch {
			case name == "p" && parent() == "body":
				inPara = true
				buf.Reset()
			case name == "txbxContent":
				skipBox++
			case inPara && skipBox == 0 && parent() == "r":
				switch name {
				case "t":
					var text string
					if err := dec.DecodeElement(&text, &t); err != nil {
						return nil, err
					}
					buf.WriteString(text)
					continue
				case "tab":
					buf.WriteByte('\t')
				case "br":
					if isLineBreak(t) {
						buf.WriteByte('\n')
					}
				case "cr":
					buf.WriteByte('\n')
				}
			}
			stack = append(stack, name)

		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
			switch t.Name.Local {
			case "txbxContent":
				skipBox--
			case "p":
				if inPara && parent() == "body" {
					paras = append(paras, buf.String())
					inPara = false
				}
			}
		}
	}

	return paras, nil
}

// isLineBreak reports whether a w:br is a text-wrapping break. Page and
// column breaks carry no text.
func isLineBreak(el xml.StartElement) bool {
	for _, a := range el.Attr {
		if a.Name.Local == "type" {
			return a.Value == "" || a.Value == "textWrapping"
		}
	}
	return true
}
