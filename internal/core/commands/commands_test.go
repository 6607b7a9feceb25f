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

package commands_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaycherian/gcp-go-vidsynth/internal/core/chunker"
	"github.com/jaycherian/gcp-go-vidsynth/internal/core/commands"
	"github.com/jaycherian/gcp-go-vidsynth/internal/core/cor"
	"github.com/jaycherian/gcp-go-vidsynth/internal/core/index"
	"github.com/jaycherian/gcp-go-vidsynth/internal/core/model"
	"github.com/jaycherian/gcp-go-vidsynth/internal/core/services"
	"github.com/jaycherian/gcp-go-vidsynth/internal/testutil"
)

const videoID = "dQw4w9WgXcQ"

type countingThrottle struct {
	calls int
	err   error
}

func (t *countingThrottle) Wait(context.Context) error {
	t.calls++
	return t.err
}

type textRenderer struct{ dir string }

func (r textRenderer) Render(title, _, _ string) (string, error) {
	path := filepath.Join(r.dir, title+".txt")
	return path, os.WriteFile(path, []byte("plain text, not a document"), 0o600)
}

type fakeExporter struct {
	url   string
	err   error
	paths []string
}

func (e *fakeExporter) Export(_ context.Context, path string) (string, error) {
	e.paths = append(e.paths, path)
	return e.url, e.err
}

type fakeArchive struct {
	err   error
	saved []*model.Notes
}

func (a *fakeArchive) Save(_ context.Context, notes *model.Notes) error {
	if a.err != nil {
		return a.err
	}
	a.saved = append(a.saved, notes)
	return nil
}

func run(t *testing.T, cmd cor.Command, chCtx cor.Context) {
	t.Helper()
	require.True(t, cmd.IsExecutable(chCtx), cmd.GetName())
	cmd.Execute(chCtx)
}

func submissionContext(language string) cor.Context {
	sub := &model.Submission{URL: "https://www.youtube.com/watch?v=" + videoID, Language: language, Mode: model.ModeNotes, Title: "Rick"}
	return cor.NewBaseContextWith(context.Background()).
		Add(commands.ParamSubmission, sub).
		Add(commands.ParamVideoID, videoID).
		Add(commands.ParamTitle, "Rick")
}

func transcriptContext(language, text string) cor.Context {
	return submissionContext(language).
		Add(commands.ParamTranscript, &model.Transcript{VideoID: videoID, Language: language, Text: text})
}

func TestSubmissionReader(t *testing.T) {
	cmd := commands.NewSubmissionReader("read-submission")

	chCtx := cor.NewBaseContextWith(context.Background())
	chCtx.Add(cor.CtxIn, `{"url":"https://www.youtube.com/watch?v=dQw4w9WgXcQ","language":"hi"}`)
	run(t, cmd, chCtx)

	require.False(t, chCtx.HasErrors())
	assert.Equal(t, videoID, chCtx.Get(commands.ParamVideoID))
	assert.Equal(t, videoID, chCtx.Get(commands.ParamTitle))
	sub := chCtx.Get(commands.ParamSubmission).(*model.Submission)
	assert.Equal(t, model.ModeNotes, sub.Mode)
	assert.Equal(t, "hi", sub.Language)

	for _, in := range []string{`{not json`, `{"url":"not-a-url","language":"en"}`, `{"url":"https://www.youtube.com/watch?v=dQw4w9WgXcQ"}`} {
		chCtx := cor.NewBaseContextWith(context.Background())
		chCtx.Add(cor.CtxIn, in)
		run(t, cmd, chCtx)
		assert.ErrorIs(t, chCtx.FirstError(), model.ErrInvalidInput, in)
		assert.Nil(t, chCtx.Get(commands.ParamSubmission))
	}
}

func TestTranscriptFetcher(t *testing.T) {
	source := testutil.NewFakeTranscriptSource()
	source.Put(videoID, "hi", "namaste duniya")
	throttle := &countingThrottle{}
	cmd := commands.NewTranscriptFetcher("fetch", source, throttle)

	chCtx := submissionContext("hi")
	run(t, cmd, chCtx)
	require.False(t, chCtx.HasErrors())
	assert.Equal(t, &model.Transcript{VideoID: videoID, Language: "hi", Text: "namaste duniya"}, chCtx.Get(commands.ParamTranscript))
	assert.Equal(t, 1, throttle.calls)

	missing := submissionContext("fr")
	run(t, cmd, missing)
	assert.ErrorIs(t, missing.FirstError(), model.ErrFetchFailure)
	assert.ErrorIs(t, missing.FirstError(), services.ErrTranscriptNotFound)
	assert.Nil(t, missing.Get(commands.ParamTranscript))
	assert.Equal(t, 1, throttle.calls)

	throttle.err = context.Canceled
	interrupted := submissionContext("hi")
	run(t, cmd, interrupted)
	assert.ErrorIs(t, interrupted.FirstError(), model.ErrFetchFailure)
	assert.Nil(t, interrupted.Get(commands.ParamTranscript))
}

func TestTranscriptFetcherRejectsBlankTranscript(t *testing.T) {
	source := testutil.NewFakeTranscriptSource()
	source.Put(videoID, "en", "   ")
	chCtx := submissionContext("en")
	run(t, commands.NewTranscriptFetcher("fetch", source, nil), chCtx)
	assert.ErrorIs(t, chCtx.FirstError(), model.ErrFetchFailure)
}

func TestTranscriptTranslator(t *testing.T) {
	gen := testutil.NewFakeGenerator()
	cmd := commands.NewTranscriptTranslator("translate", gen)

	english := transcriptContext("en", "hello")
	run(t, cmd, english)
	require.False(t, english.HasErrors())
	assert.Equal(t, "hello", english.Get(commands.ParamTranscript).(*model.Transcript).Text)
	assert.Equal(t, 0, gen.Count("translate"))

	hindi := transcriptContext("hi", "namaste")
	run(t, cmd, hindi)
	require.False(t, hindi.HasErrors())
	translated := hindi.Get(commands.ParamTranscript).(*model.Transcript)
	assert.Equal(t, "[en] namaste", translated.Text)
	assert.Equal(t, model.EnglishLanguage, translated.Language)

	boom := errors.New("quota exceeded")
	gen.FailOn("translate", boom)
	failed := transcriptContext("hi", "namaste")
	run(t, cmd, failed)
	assert.ErrorIs(t, failed.FirstError(), model.ErrTranslationFailure)
	assert.ErrorIs(t, failed.FirstError(), boom)
	assert.Equal(t, "namaste", failed.Get(commands.ParamTranscript).(*model.Transcript).Text)
}

func TestTopicsAndNotes(t *testing.T) {
	gen := testutil.NewFakeGenerator()
	chCtx := transcriptContext("hi", "[en] namaste")

	run(t, commands.NewTopicExtractor("topics", gen), chCtx)
	run(t, commands.NewNotesGenerator("notes", gen), chCtx)
	require.False(t, chCtx.HasErrors())

	notes := chCtx.Get(commands.ParamNotes).(*model.Notes)
	assert.Equal(t, videoID, notes.VideoID)
	assert.Equal(t, "Rick", notes.Title)
	assert.Equal(t, "hi", notes.Language)
	assert.Contains(t, notes.Topics, "5. Fifth topic")
	assert.Contains(t, notes.Notes, "## Overview")
	assert.False(t, notes.CreatedAt.IsZero())
}

func TestTopicsFailureStopsNotes(t *testing.T) {
	gen := testutil.NewFakeGenerator()
	gen.FailOn("topics", errors.New("blocked"))

	chain := cor.NewBaseChain("notes").
		AddCommand(commands.NewTopicExtractor("topics", gen)).
		AddCommand(commands.NewNotesGenerator("notes", gen))
	chCtx := transcriptContext("en", "hello")
	chain.Execute(chCtx)

	assert.ErrorIs(t, chCtx.FirstError(), model.ErrGenerationFailure)
	assert.Nil(t, chCtx.Get(commands.ParamNotes))
	assert.Equal(t, 0, gen.Count("notes"))
}

func TestChunkAndIndex(t *testing.T) {
	c, err := chunker.New(chunker.Config{MaxSize: 20, Overlap: 5})
	require.NoError(t, err)

	chCtx := transcriptContext("en", "The sky is blue. Grass is green. Water is wet.")
	run(t, commands.NewTranscriptChunker("chunk", c), chCtx)
	run(t, commands.NewIndexBuilder("index", services.NewHashEmbedder(services.DefaultHashDimension)), chCtx)
	require.False(t, chCtx.HasErrors())

	chunks := chCtx.Get(commands.ParamChunks).([]model.Chunk)
	idx := chCtx.Get(commands.ParamIndex).(*index.Index)
	assert.GreaterOrEqual(t, len(chunks), 2)
	assert.Equal(t, len(chunks), idx.Len())
}

func TestChunkAndIndexFailures(t *testing.T) {
	c, err := chunker.New(chunker.DefaultConfig())
	require.NoError(t, err)

	blank := transcriptContext("en", " \n ")
	run(t, commands.NewTranscriptChunker("chunk", c), blank)
	assert.ErrorIs(t, blank.FirstError(), model.ErrIndexBuildFailure)
	assert.ErrorIs(t, blank.FirstError(), chunker.ErrEmptyText)

	boom := errors.New("embedding service down")
	chCtx := transcriptContext("en", "hello").
		Add(commands.ParamChunks, []model.Chunk{{ID: "a", Text: "one"}, {ID: "b", Index: 1, Text: "two"}})
	run(t, commands.NewIndexBuilder("index", testutil.NewFailingEmbedder(2, boom)), chCtx)
	assert.ErrorIs(t, chCtx.FirstError(), model.ErrIndexBuildFailure)
	assert.ErrorIs(t, chCtx.FirstError(), boom)
	assert.Nil(t, chCtx.Get(commands.ParamIndex))
}

func notesContext() cor.Context {
	return cor.NewBaseContextWith(context.Background()).Add(commands.ParamNotes, &model.Notes{
		VideoID: videoID,
		Title:   "Rick",
		Topics:  "1. One",
		Notes:   "## One\n* point",
	})
}

func TestNotesRendererAndUploader(t *testing.T) {
	dir := t.TempDir()
	chCtx := notesContext()

	renderer := &testutil.FakeRenderer{Dir: dir}
	run(t, commands.NewNotesRenderer("render", renderer), chCtx)
	require.False(t, chCtx.HasErrors())
	notes := chCtx.Get(commands.ParamNotes).(*model.Notes)
	require.NotEmpty(t, notes.PDFPath)
	assert.FileExists(t, notes.PDFPath)

	exporter := &fakeExporter{url: "https://storage.example/notes.pdf?sig=1"}
	run(t, commands.NewNotesUploader("upload", exporter, true), chCtx)
	require.False(t, chCtx.HasErrors())
	assert.Equal(t, "https://storage.example/notes.pdf?sig=1", notes.PDFURL)
	assert.Equal(t, []string{notes.PDFPath}, exporter.paths)

	chCtx.Close()
	assert.NoFileExists(t, notes.PDFPath)
}

func TestNotesRendererFailures(t *testing.T) {
	chCtx := notesContext()
	run(t, commands.NewNotesRenderer("render", textRenderer{dir: t.TempDir()}), chCtx)
	assert.ErrorIs(t, chCtx.FirstError(), model.ErrRenderFailure)
	assert.Empty(t, chCtx.Get(commands.ParamNotes).(*model.Notes).PDFPath)

	broken := notesContext()
	run(t, commands.NewNotesRenderer("render", &testutil.FakeRenderer{Err: errors.New("disk full")}), broken)
	assert.ErrorIs(t, broken.FirstError(), model.ErrRenderFailure)

	unrendered := notesContext()
	assert.False(t, commands.NewNotesUploader("upload", &fakeExporter{}, false).IsExecutable(unrendered))
}

func TestNotesUploaderFailureKeepsLocalFile(t *testing.T) {
	chCtx := notesContext()
	run(t, commands.NewNotesRenderer("render", &testutil.FakeRenderer{Dir: t.TempDir()}), chCtx)

	run(t, commands.NewNotesUploader("upload", &fakeExporter{err: errors.New("permission denied")}, true), chCtx)
	assert.ErrorIs(t, chCtx.FirstError(), model.ErrRenderFailure)

	notes := chCtx.Get(commands.ParamNotes).(*model.Notes)
	chCtx.Close()
	assert.FileExists(t, notes.PDFPath)
	assert.Empty(t, notes.PDFURL)
}

func TestNotesPersistToBigQuery(t *testing.T) {
	archive := &fakeArchive{}
	chCtx := notesContext()
	run(t, commands.NewNotesPersistToBigQuery("archive", archive, true), chCtx)
	require.False(t, chCtx.HasErrors())
	require.Len(t, archive.saved, 1)
	assert.Equal(t, videoID, archive.saved[0].VideoID)

	archive.err = errors.New("table not found")
	optional := notesContext()
	run(t, commands.NewNotesPersistToBigQuery("archive", archive, false), optional)
	assert.False(t, optional.HasErrors())

	required := notesContext()
	run(t, commands.NewNotesPersistToBigQuery("archive", archive, true), required)
	assert.ErrorIs(t, required.FirstError(), archive.err)
}
