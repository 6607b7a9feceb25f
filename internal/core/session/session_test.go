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

package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaycherian/gcp-go-vidsynth/internal/core/chunker"
	"github.com/jaycherian/gcp-go-vidsynth/internal/core/model"
	"github.com/jaycherian/gcp-go-vidsynth/internal/core/services"
	"github.com/jaycherian/gcp-go-vidsynth/internal/core/session"
	"github.com/jaycherian/gcp-go-vidsynth/internal/core/workflow"
	"github.com/jaycherian/gcp-go-vidsynth/internal/testutil"
)

const (
	videoA = "dQw4w9WgXcQ"
	videoB = "9bZkp7q19f0"

	animals = "The cat sat on the warm mat.\nThe dog ran through the park.\nThe bird flew over the river."
)

// toggleEmbedder fails while fail is set.
type toggleEmbedder struct {
	mu    sync.Mutex
	fail  bool
	inner *services.HashEmbedder
}

func (e *toggleEmbedder) setFail(fail bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fail = fail
}

func (e *toggleEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	fail := e.fail
	e.mu.Unlock()
	if fail {
		return nil, errors.New("embedding service unavailable")
	}
	return e.inner.Embed(ctx, text)
}

type fixture struct {
	source   *testutil.FakeTranscriptSource
	gen      *testutil.FakeGenerator
	embedder *toggleEmbedder
	renderer *testutil.FakeRenderer
	orch     *session.Orchestrator
	store    *session.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	c, err := chunker.New(chunker.DefaultConfig())
	require.NoError(t, err)

	f := &fixture{
		source:   testutil.NewFakeTranscriptSource(),
		gen:      testutil.NewFakeGenerator(),
		embedder: &toggleEmbedder{inner: services.NewHashEmbedder(services.DefaultHashDimension)},
		renderer: &testutil.FakeRenderer{Dir: t.TempDir()},
		store:    session.NewStore(),
	}
	f.source.Put(videoA, "en", animals)
	f.source.Put(videoB, "en", "Rivers flow into the ocean.\nMountains rise above the clouds.")
	f.source.Put(videoB, "hi", "nadiyan samudra mein behti hain")

	f.orch = session.NewOrchestrator(workflow.Dependencies{
		Source:    f.source,
		Throttle:  services.NoThrottle{},
		Generator: f.gen,
		Chunker:   c,
		Embedder:  f.embedder,
		Renderer:  f.renderer,
	}, 0)
	return f
}

func submission(id, language string, mode model.Mode) model.Submission {
	return model.Submission{URL: "https://www.youtube.com/watch?v=" + id, Language: language, Mode: mode}
}

func TestChatSubmissionThenAsk(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.store.Create()
	assert.Equal(t, session.StateEmpty, s.Snapshot().State)

	require.NoError(t, f.orch.Submit(ctx, s, submission(videoA, "en", model.ModeChat)))
	snap := s.Snapshot()
	assert.Equal(t, session.StateChatReady, snap.State)
	assert.Equal(t, videoA, snap.VideoID)
	assert.Equal(t, videoA, snap.Title)
	assert.Equal(t, 1, snap.IndexEntries)
	assert.Equal(t, videoA, snap.IndexVideoID)

	msg, err := f.orch.Ask(ctx, s, "  Where did the bird fly?  ")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAssistant, msg.Role)
	assert.Equal(t, "The bird flew over the river.", msg.Content)

	msg, err = f.orch.Ask(ctx, s, "Who won the election?")
	require.NoError(t, err)
	assert.Equal(t, services.FallbackAnswer, msg.Content)

	history := s.Messages()
	require.Len(t, history, 4)
	assert.Equal(t, model.ChatMessage{Role: model.RoleUser, Content: "Where did the bird fly?", Seq: 0}, history[0])
	assert.Equal(t, 3, history[3].Seq)
	assert.Equal(t, 2, f.gen.Count("chat"))
}

func TestNotesSubmissionAndExport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.store.Create()

	sub := submission(videoB, "hi", model.ModeNotes)
	sub.Title = "Rivers"
	require.NoError(t, f.orch.Submit(ctx, s, sub))

	snap := s.Snapshot()
	assert.Equal(t, session.StateNotesReady, snap.State)
	assert.Equal(t, model.EnglishLanguage, snap.Language)
	assert.True(t, snap.HasNotes)
	assert.Equal(t, 1, f.gen.Count("translate"))

	notes := s.CurrentNotes()
	require.NotNil(t, notes)
	assert.Equal(t, "Rivers", notes.Title)
	assert.Equal(t, "hi", notes.Language)
	assert.Contains(t, notes.Topics, "1. First topic")
	assert.Empty(t, notes.PDFPath)

	exported, err := f.orch.ExportPDF(ctx, s)
	require.NoError(t, err)
	assert.FileExists(t, exported.PDFPath)
	assert.Equal(t, exported.PDFPath, s.Snapshot().PDFPath)
	assert.Equal(t, 1, f.renderer.Calls)
}

func TestResubmissionClearsNotesAndHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.store.Create()

	// Chat index for video A, then notes for video A, then a chat turn:
	// the session now holds notes, a PDF and history at the same time.
	require.NoError(t, f.orch.Submit(ctx, s, submission(videoA, "en", model.ModeChat)))
	require.NoError(t, f.orch.Submit(ctx, s, submission(videoA, "en", model.ModeNotes)))
	_, err := f.orch.ExportPDF(ctx, s)
	require.NoError(t, err)
	_, err = f.orch.Ask(ctx, s, "Where did the bird fly?")
	require.NoError(t, err)

	before := s.Snapshot()
	require.True(t, before.HasNotes)
	require.NotEmpty(t, before.PDFPath)
	require.Equal(t, 2, before.HistoryLen)

	// A new video whose transcript cannot be fetched: the old notes, PDF and
	// history are gone even though the new pipeline failed, while the old
	// index is still there.
	err = f.orch.Submit(ctx, s, submission(videoB, "fr", model.ModeChat))
	require.ErrorIs(t, err, model.ErrFetchFailure)

	after := s.Snapshot()
	assert.False(t, after.HasNotes)
	assert.Empty(t, after.PDFPath)
	assert.Equal(t, 0, after.HistoryLen)
	assert.Equal(t, session.StateTranscriptReady, after.State)
	assert.Equal(t, videoA, after.VideoID)
	assert.Contains(t, after.LastError, "FetchFailure")
	assert.True(t, s.ChatReady())

	require.NoError(t, f.orch.Submit(ctx, s, submission(videoB, "en", model.ModeChat)))
	final := s.Snapshot()
	assert.Equal(t, session.StateChatReady, final.State)
	assert.Equal(t, videoB, final.VideoID)
	assert.Equal(t, 0, final.HistoryLen)
	assert.Empty(t, final.LastError)
}

func TestNotesSubmissionReportsIndexedVideo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.store.Create()

	require.NoError(t, f.orch.Submit(ctx, s, submission(videoA, "en", model.ModeChat)))
	require.NoError(t, f.orch.Submit(ctx, s, submission(videoB, "en", model.ModeNotes)))

	snap := s.Snapshot()
	assert.Equal(t, session.StateNotesReady, snap.State)
	assert.Equal(t, videoB, snap.VideoID)
	assert.Equal(t, videoA, snap.IndexVideoID)
	assert.True(t, s.ChatReady())

	msg, err := f.orch.Ask(ctx, s, "Where did the bird fly?")
	require.NoError(t, err)
	assert.Equal(t, "The bird flew over the river.", msg.Content)

	require.NoError(t, f.orch.Submit(ctx, s, submission(videoB, "en", model.ModeChat)))
	assert.Equal(t, videoB, s.Snapshot().IndexVideoID)
}

func TestIndexBuildFailureKeepsPreviousIndex(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.store.Create()

	require.NoError(t, f.orch.Submit(ctx, s, submission(videoA, "en", model.ModeChat)))
	previous := s.Index

	f.embedder.setFail(true)
	err := f.orch.Submit(ctx, s, submission(videoB, "en", model.ModeChat))
	require.ErrorIs(t, err, model.ErrIndexBuildFailure)
	assert.Same(t, previous, s.Index)
	assert.Equal(t, videoA, s.Snapshot().IndexVideoID)
	assert.Equal(t, session.StateTranscriptReady, s.Snapshot().State)

	f.embedder.setFail(false)
	msg, err := f.orch.Ask(ctx, s, "Where did the bird fly?")
	require.NoError(t, err)
	assert.Equal(t, "The bird flew over the river.", msg.Content)
}

func TestTranslationFailureStopsBeforeNotes(t *testing.T) {
	f := newFixture(t)
	f.gen.FailOn("translate", errors.New("unsupported language"))
	s := f.store.Create()

	err := f.orch.Submit(context.Background(), s, submission(videoB, "hi", model.ModeNotes))
	require.ErrorIs(t, err, model.ErrTranslationFailure)
	assert.Equal(t, 0, f.gen.Count("topics"))
	assert.Equal(t, 0, f.gen.Count("notes"))

	snap := s.Snapshot()
	assert.Equal(t, session.StateEmpty, snap.State)
	assert.Empty(t, snap.VideoID)
	assert.False(t, snap.HasNotes)
}

func TestNotesGenerationFailure(t *testing.T) {
	f := newFixture(t)
	f.gen.FailOn("notes", errors.New("safety block"))
	s := f.store.Create()

	err := f.orch.Submit(context.Background(), s, submission(videoA, "en", model.ModeNotes))
	require.ErrorIs(t, err, model.ErrGenerationFailure)
	snap := s.Snapshot()
	assert.Equal(t, session.StateTranscriptReady, snap.State)
	assert.False(t, snap.HasNotes)
}

func TestInvalidSubmissionChangesNothing(t *testing.T) {
	f := newFixture(t)
	s := f.store.Create()

	err := f.orch.Submit(context.Background(), s, model.Submission{URL: "not-a-url", Language: "en", Mode: model.ModeChat})
	require.ErrorIs(t, err, model.ErrInvalidInput)
	assert.Equal(t, 0, f.source.Calls)
	assert.Equal(t, session.StateEmpty, s.Snapshot().State)
}

func TestAskFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.store.Create()

	_, err := f.orch.Ask(ctx, s, "anything?")
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	require.NoError(t, f.orch.Submit(ctx, s, submission(videoA, "en", model.ModeChat)))
	_, err = f.orch.Ask(ctx, s, "   ")
	assert.ErrorIs(t, err, model.ErrInvalidInput)
	assert.Empty(t, s.Messages())

	f.gen.FailOn("chat", errors.New("model overloaded"))
	_, err = f.orch.Ask(ctx, s, "Where did the bird fly?")
	assert.ErrorIs(t, err, model.ErrGenerationFailure)
	history := s.Messages()
	require.Len(t, history, 1)
	assert.Equal(t, model.RoleUser, history[0].Role)

	f.embedder.setFail(true)
	_, err = f.orch.Ask(ctx, s, "Where did the dog run?")
	assert.ErrorIs(t, err, model.ErrRetrievalFailure)
	assert.Len(t, s.Messages(), 2)
	assert.True(t, s.ChatReady())
}

func TestExportWithoutNotes(t *testing.T) {
	f := newFixture(t)
	s := f.store.Create()
	_, err := f.orch.ExportPDF(context.Background(), s)
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestExportRenderFailureKeepsNotes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.store.Create()
	require.NoError(t, f.orch.Submit(ctx, s, submission(videoA, "en", model.ModeNotes)))

	f.renderer.Err = errors.New("disk full")
	_, err := f.orch.ExportPDF(ctx, s)
	assert.ErrorIs(t, err, model.ErrRenderFailure)
	assert.True(t, s.Snapshot().HasNotes)
	assert.Empty(t, s.Snapshot().PDFPath)
}

func TestStore(t *testing.T) {
	store := session.NewStore()
	a := store.Create()
	b := store.Create()
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, 2, store.Len())
	assert.ElementsMatch(t, []string{a.ID, b.ID}, store.IDs())

	got, err := store.Get(a.ID)
	require.NoError(t, err)
	assert.Same(t, a, got)

	require.NoError(t, store.Delete(a.ID))
	_, err = store.Get(a.ID)
	assert.ErrorIs(t, err, session.ErrNotFound)
	assert.ErrorIs(t, store.Delete(a.ID), session.ErrNotFound)
	assert.Equal(t, 1, store.Len())
}
