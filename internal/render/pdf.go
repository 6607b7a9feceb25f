// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package render turns generated topics and notes into a PDF document.
//
// Layout:
//  1. A centred "Video Notes" title, the video title, the generation time
//     and a teal divider.
//  2. "Important Topics": one paragraph per non-blank topic line.
//  3. "Detailed Notes": each non-blank line is classified:
//     - a line starting with "##" is a bold heading, markers removed,
//     - a line starting with "*", "-" or "•" is a bullet indented two spaces,
//     - anything else is a plain paragraph.
//  4. A grey divider and the footer line.
//
// The file is written to the output directory as
// <safe title>_<YYYYMMDD_HHMMSS>.pdf, where the safe title keeps letters,
// digits, spaces, "-" and "_", is trimmed and is cut to 50 characters.
package render

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/go-pdf/fpdf"

	"github.com/jaycherian/gcp-go-vidsynth/internal/core/model"
)

const (
	DocumentTitle = "Video Notes"
	TopicsHeading = "Important Topics"
	NotesHeading  = "Detailed Notes"
	Footer        = "Generated by VidSynth AI - YouTube Content Synthesizer"

	maxTitleRunes = 50
	fontFamily    = "Helvetica"
)

// Renderer writes a notes document and returns its path.
type Renderer interface {
	Render(title, topics, notes string) (string, error)
}

// LineKind is how a notes line is laid out.
type LineKind int

const (
	LineBlank LineKind = iota
	LineHeading
	LineBullet
	LineParagraph
)

// ClassifyLine trims line and decides its layout. The returned text is what
// gets printed: heading markers are removed, bullets are indented.
func ClassifyLine(line string) (LineKind, string) {
	cleaned := strings.TrimSpace(line)
	switch {
	case cleaned == "":
		return LineBlank, ""
	case strings.HasPrefix(cleaned, "##"):
		return LineHeading, strings.TrimSpace(strings.TrimLeft(cleaned, "#"))
	case strings.HasPrefix(cleaned, "*"), strings.HasPrefix(cleaned, "-"), strings.HasPrefix(cleaned, "•"):
		return LineBullet, "  " + cleaned
	}
	return LineParagraph, cleaned
}

// SafeFileName builds the document file name for title at t.
func SafeFileName(title string, t time.Time) string {
	var sb strings.Builder
	for _, r := range title {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' || r == '_' {
			sb.WriteRune(r)
		}
	}
	safe := []rune(strings.TrimSpace(sb.String()))
	if len(safe) > maxTitleRunes {
		safe = safe[:maxTitleRunes]
	}
	name := string(safe)
	if name == "" {
		name = "notes"
	}
	return fmt.Sprintf("%s_%s.pdf", name, t.Format("20060102_150405"))
}

// PDFRenderer lays out notes with fpdf.
type PDFRenderer struct {
	OutputDir string
	Now       func() time.Time
}

// NewPDFRenderer writes into dir, "notes" when dir is empty.
func NewPDFRenderer(dir string) *PDFRenderer {
	if dir == "" {
		dir = "notes"
	}
	return &PDFRenderer{OutputDir: dir, Now: time.Now}
}

// Render writes the document and returns its path. Every failure is a
// RenderFailure.
//
// Inputs:
//   - title: The video title shown in the header and used for the file name.
//   - topics: The topics text, one topic per line.
//   - notes: The notes text, in the heading/bullet convention of the notes prompt.
//
// Outputs:
//   - string: The path of the written PDF.
//   - error: A *model.Error of kind RenderFailure.
func (r *PDFRenderer) Render(title, topics, notes string) (string, error) {
	const op = "render-pdf"
	now := r.Now()

	if err := os.MkdirAll(r.OutputDir, 0o755); err != nil {
		return "", model.NewError(model.KindRenderFailure, op, err)
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(title, true)
	pdf.SetCreator("VidSynth", true)
	pdf.AddPage()

	pdf.SetFont(fontFamily, "B", 20)
	pdf.CellFormat(0, 15, DocumentTitle, "", 1, "C", false, 0, "")
	pdf.Ln(5)

	pdf.SetFont(fontFamily, "I", 12)
	pdf.MultiCell(0, 8, tr("Video: "+title), "", "L", false)
	pdf.Ln(3)

	pdf.SetFont(fontFamily, "", 10)
	pdf.CellFormat(0, 6, "Generated on: "+now.Format("January 02, 2006 at 03:04 PM"), "", 1, "L", false, 0, "")
	pdf.Ln(8)

	pdf.SetDrawColor(33, 128, 141)
	pdf.SetLineWidth(0.5)
	pdf.Line(10, pdf.GetY(), 200, pdf.GetY())
	pdf.Ln(10)

	section(pdf, TopicsHeading)
	for _, line := range strings.Split(topics, "\n") {
		if cleaned := strings.TrimSpace(line); cleaned != "" {
			pdf.MultiCell(0, 6, tr(cleaned), "", "L", false)
			pdf.Ln(2)
		}
	}
	pdf.Ln(8)

	section(pdf, NotesHeading)
	for _, line := range strings.Split(notes, "\n") {
		kind, text := ClassifyLine(line)
		switch kind {
		case LineBlank:
			continue
		case LineHeading:
			pdf.Ln(4)
			pdf.SetFont(fontFamily, "B", 13)
			pdf.MultiCell(0, 7, tr(text), "", "L", false)
			pdf.SetFont(fontFamily, "", 11)
			pdf.Ln(2)
		default:
			pdf.MultiCell(0, 6, tr(text), "", "L", false)
		}
		pdf.Ln(1)
	}

	pdf.Ln(10)
	pdf.SetDrawColor(200, 200, 200)
	pdf.SetLineWidth(0.3)
	pdf.Line(10, pdf.GetY(), 200, pdf.GetY())
	pdf.Ln(3)
	pdf.SetFont(fontFamily, "I", 9)
	pdf.SetTextColor(150, 150, 150)
	pdf.CellFormat(0, 6, Footer, "", 1, "C", false, 0, "")

	path := filepath.Join(r.OutputDir, SafeFileName(title, now))
	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", model.NewError(model.KindRenderFailure, op, fmt.Errorf("writing %s: %w", path, err))
	}
	return path, nil
}

func section(pdf *fpdf.Fpdf, heading string) {
	pdf.SetFont(fontFamily, "B", 16)
	pdf.SetTextColor(33, 128, 141)
	pdf.CellFormat(0, 10, heading, "", 1, "L", false, 0, "")
	pdf.Ln(3)
	pdf.SetFont(fontFamily, "", 11)
	pdf.SetTextColor(0, 0, 0)
}
