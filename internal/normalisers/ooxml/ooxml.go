// Package ooxml reads text out of Office Open XML packages (docx, pptx).
package ooxml

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// maxPart bounds the uncompressed size of one package part.
const maxPart = 64 << 20

// ErrMissingPart is returned when a required part is absent.
var ErrMissingPart = errors.New("missing package part")

// Package is an opened OOXML zip archive.
type Package struct {
	zr *zip.Reader
}

// Open parses content as a zip archive.
func Open(content []byte) (*Package, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("not an OOXML package: %w", err)
	}
	return &Package{zr: zr}, nil
}

// Names returns the part names in archive order.
func (p *Package) Names() []string {
	names := make([]string, len(p.zr.File))
	for i, f := range p.zr.File {
		names[i] = f.Name
	}
	return names
}

// Read returns the bytes of the named part.
func (p *Package) Read(name string) ([]byte, error) {
	for _, f := range p.zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", name, err)
		}
		defer rc.Close()

		data, err := io.ReadAll(io.LimitReader(rc, maxPart))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrMissingPart, name)
}

// Title returns dc:title from docProps/core.xml, or "".
func (p *Package) Title() string {
	data, err := p.Read("docProps/core.xml")
	if err != nil {
		return ""
	}
	var core struct {
		Title string `xml:"title"`
	}
	if err := xml.Unmarshal(data, &core); err != nil {
		return ""
	}
	return strings.TrimSpace(core.Title)
}

// Text walks a WordprocessingML or DrawingML part and returns its text with
// one line per paragraph. Empty paragraphs are dropped.
func Text(data []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))

	var (
		lines  []string
		line   strings.Builder
		inText bool
	)
	flush := func() {
		if s := strings.TrimSpace(line.String()); s != "" {
			lines = append(lines, s)
		}
		line.Reset()
	}

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parsing xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				line.WriteByte('\t')
			case "br", "cr":
				line.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				flush()
			}
		case xml.CharData:
			if inText {
				line.Write(t)
			}
		}
	}
	flush()
	return strings.Join(lines, "\n"), nil
}
