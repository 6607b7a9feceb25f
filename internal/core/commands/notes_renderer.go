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

// This file defines the export steps of the notes workflow.
//
// Logic Flow:
//  1. NotesRenderer hands the title, topics and notes of the model.Notes under
//     ParamNotes to the document renderer.
//  2. The written file is sniffed by its magic bytes. Anything that is not a
//     PDF is rejected so a broken renderer never produces a download link.
//  3. NotesUploader copies the PDF to Cloud Storage and stores a signed URL
//     on the notes. In the headless workflow the local copy is registered as
//     a temporary file and removed when the context closes.
package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/h2non/filetype"

	"github.com/jaycherian/gcp-go-vidsynth/internal/core/cor"
	"github.com/jaycherian/gcp-go-vidsynth/internal/core/model"
	"github.com/jaycherian/gcp-go-vidsynth/internal/render"
)

const pdfMIMEType = "application/pdf"

// NotesRenderer writes the notes document to disk.
type NotesRenderer struct {
	cor.BaseCommand
	renderer render.Renderer
}

// NewNotesRenderer is the constructor for the NotesRenderer command.
//
// Inputs:
//   - name: A string name for this command instance.
//   - renderer: The document renderer.
//
// Outputs:
//   - *NotesRenderer: A pointer to the newly instantiated command.
func NewNotesRenderer(name string, renderer render.Renderer) *NotesRenderer {
	return &NotesRenderer{BaseCommand: *cor.NewBaseCommand(name), renderer: renderer}
}

func (c *NotesRenderer) IsExecutable(context cor.Context) bool {
	return context != nil && context.Get(ParamNotes) != nil
}

// Execute renders the notes and sets Notes.PDFPath. Failures are RenderFailure.
func (c *NotesRenderer) Execute(context cor.Context) {
	const op = "render-notes"
	notes := context.Get(ParamNotes).(*model.Notes)

	path, err := c.renderer.Render(notes.Title, notes.Topics, notes.Notes)
	if err != nil {
		c.Fail(context, model.AsKind(model.KindRenderFailure, op, err))
		return
	}

	kind, err := filetype.MatchFile(path)
	if err != nil {
		c.Fail(context, model.NewError(model.KindRenderFailure, op, fmt.Errorf("reading %s: %w", path, err)))
		return
	}
	if kind.MIME.Value != pdfMIMEType {
		c.Fail(context, model.Errorf(model.KindRenderFailure, op, "%s is not a PDF (detected %q)", path, kind.MIME.Value))
		return
	}
	slog.InfoContext(context.GetContext(), "notes rendered", "video_id", notes.VideoID, "path", path)

	notes.PDFPath = path
	c.Succeed(context)
	context.Add(c.GetOutputParam(), path)
}

// Exporter publishes a local file and returns a link to it.
type Exporter interface {
	Export(ctx context.Context, localPath string) (string, error)
}

// NotesUploader publishes the rendered PDF.
type NotesUploader struct {
	cor.BaseCommand
	exporter    Exporter
	removeLocal bool
}

// NewNotesUploader returns the upload step. With removeLocal the local PDF
// is deleted when the workflow context is closed.
func NewNotesUploader(name string, exporter Exporter, removeLocal bool) *NotesUploader {
	return &NotesUploader{BaseCommand: *cor.NewBaseCommand(name), exporter: exporter, removeLocal: removeLocal}
}

// IsExecutable requires rendered notes.
func (c *NotesUploader) IsExecutable(context cor.Context) bool {
	if context == nil {
		return false
	}
	notes, ok := context.Get(ParamNotes).(*model.Notes)
	return ok && notes.PDFPath != ""
}

func (c *NotesUploader) Execute(context cor.Context) {
	notes := context.Get(ParamNotes).(*model.Notes)

	url, err := c.exporter.Export(context.GetContext(), notes.PDFPath)
	if err != nil {
		c.Fail(context, model.AsKind(model.KindRenderFailure, "upload-notes", err))
		return
	}
	if c.removeLocal {
		context.AddTempFile(notes.PDFPath)
	}

	notes.PDFURL = url
	c.Succeed(context)
	context.Add(c.GetOutputParam(), url)
}
