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

package workflow_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaycherian/gcp-go-vidsynth/internal/core/chunker"
	"github.com/jaycherian/gcp-go-vidsynth/internal/core/commands"
	"github.com/jaycherian/gcp-go-vidsynth/internal/core/cor"
	"github.com/jaycherian/gcp-go-vidsynth/internal/core/index"
	"github.com/jaycherian/gcp-go-vidsynth/internal/core/model"
	"github.com/jaycherian/gcp-go-vidsynth/internal/core/services"
	"github.com/jaycherian/gcp-go-vidsynth/internal/core/workflow"
	"github.com/jaycherian/gcp-go-vidsynth/internal/testutil"
)

const (
	videoID    = "dQw4w9WgXcQ"
	submission = `{"url":"https://www.youtube.com/watch?v=dQw4w9WgXcQ","language":"hi","title":"Never Gonna"}`
)

type fakeExporter struct {
	err   error
	paths []string
}

func (e *fakeExporter) Export(_ context.Context, path string) (string, error) {
	e.paths = append(e.paths, path)
	if e.err != nil {
		return "", e.err
	}
	return "https://storage.example/" + videoID + ".pdf", nil
}

type fakeArchive struct {
	err   error
	saved []model.Notes
}

func (a *fakeArchive) Save(_ context.Context, notes *model.Notes) error {
	if a.err != nil {
		return a.err
	}
	a.saved = append(a.saved, *notes)
	return nil
}

func newDeps(t *testing.T, gen services.Generator) workflow.Dependencies {
	t.Helper()
	source := testutil.NewFakeTranscriptSource()
	source.Put(videoID, "hi", "ek do teen.\n\nchaar paanch chhe.\n\nsaat aath nau das.")

	c, err := chunker.New(chunker.Config{MaxSize: 24, Overlap: 6})
	require.NoError(t, err)

	return workflow.Dependencies{
		Source:    source,
		Throttle:  services.NoThrottle{},
		Generator: gen,
		Chunker:   c,
		Embedder:  services.NewHashEmbedder(services.DefaultHashDimension),
		Renderer:  &testutil.FakeRenderer{Dir: t.TempDir()},
	}
}

func TestSubmissionWorkflow(t *testing.T) {
	deps := newDeps(t, testutil.NewFakeGenerator())
	exporter := &fakeExporter{}
	archive := &fakeArchive{}
	deps.Exporter = exporter
	deps.Archive = archive

	chCtx := cor.NewBaseContextWith(context.Background())
	chCtx.Add(cor.CtxIn, submission)
	workflow.NewSubmissionWorkflow(deps).Execute(chCtx)
	require.NoError(t, chCtx.FirstError())

	require.Len(t, archive.saved, 1)
	saved := archive.saved[0]
	assert.Equal(t, videoID, saved.VideoID)
	assert.Equal(t, "Never Gonna", saved.Title)
	assert.Equal(t, "hi", saved.Language)
	assert.Equal(t, "https://storage.example/"+videoID+".pdf", saved.PDFURL)
	require.Len(t, exporter.paths, 1)
	assert.FileExists(t, saved.PDFPath)

	chCtx.Close()
	assert.NoFileExists(t, saved.PDFPath)
}

func TestSubmissionWorkflowStopsOnTranslationFailure(t *testing.T) {
	gen := testutil.NewFakeGenerator()
	gen.FailOn("translate", errors.New("language not supported"))
	deps := newDeps(t, gen)
	archive := &fakeArchive{}
	deps.Archive = archive

	chCtx := cor.NewBaseContextWith(context.Background())
	chCtx.Add(cor.CtxIn, submission)
	workflow.NewSubmissionWorkflow(deps).Execute(chCtx)

	assert.ErrorIs(t, chCtx.FirstError(), model.ErrTranslationFailure)
	assert.Equal(t, 0, gen.Count("topics"))
	assert.Empty(t, archive.saved)
}

func TestSubmissionWorkflowRequiresArchive(t *testing.T) {
	deps := newDeps(t, testutil.NewFakeGenerator())
	deps.Archive = &fakeArchive{err: errors.New("dataset not found")}

	chCtx := cor.NewBaseContextWith(context.Background())
	defer chCtx.Close()
	chCtx.Add(cor.CtxIn, submission)
	workflow.NewSubmissionWorkflow(deps).Execute(chCtx)

	assert.Error(t, chCtx.FirstError())
	// Without an exporter the local PDF is the only copy and is kept.
	notes := chCtx.Get(commands.ParamNotes).(*model.Notes)
	assert.FileExists(t, notes.PDFPath)
}

func TestNotesWorkflowArchiveIsOptional(t *testing.T) {
	deps := newDeps(t, testutil.NewFakeGenerator())
	deps.Archive = &fakeArchive{err: errors.New("dataset not found")}

	chCtx := cor.NewBaseContextWith(context.Background())
	chCtx.Add(commands.ParamTranscript, &model.Transcript{VideoID: videoID, Language: "en", Text: "hello"})
	workflow.NewNotesWorkflow(deps).Execute(chCtx)

	require.NoError(t, chCtx.FirstError())
	notes := chCtx.Get(commands.ParamNotes).(*model.Notes)
	assert.Equal(t, videoID, notes.Title)
}

func TestChatIndexWorkflow(t *testing.T) {
	deps := newDeps(t, testutil.NewFakeGenerator())
	text := "ek do teen.\n\nchaar paanch chhe.\n\nsaat aath nau das."

	chCtx := cor.NewBaseContextWith(context.Background())
	chCtx.Add(commands.ParamTranscript, &model.Transcript{VideoID: videoID, Language: "en", Text: text})
	workflow.NewChatIndexWorkflow(deps).Execute(chCtx)
	require.NoError(t, chCtx.FirstError())

	chunks := chCtx.Get(commands.ParamChunks).([]model.Chunk)
	idx := chCtx.Get(commands.ParamIndex).(*index.Index)
	assert.Greater(t, len(chunks), 1)
	assert.Equal(t, len(chunks), idx.Len())
	for _, c := range chunks {
		assert.LessOrEqual(t, len([]rune(c.Text)), 24)
	}
}

func TestChatIndexWorkflowBuildFailure(t *testing.T) {
	deps := newDeps(t, testutil.NewFakeGenerator())
	deps.Embedder = testutil.NewFailingEmbedder(0, errors.New("quota"))

	chCtx := cor.NewBaseContextWith(context.Background())
	chCtx.Add(commands.ParamTranscript, &model.Transcript{VideoID: videoID, Language: "en", Text: "some text"})
	workflow.NewChatIndexWorkflow(deps).Execute(chCtx)

	assert.ErrorIs(t, chCtx.FirstError(), model.ErrIndexBuildFailure)
	assert.Nil(t, chCtx.Get(commands.ParamIndex))
}
