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

package session

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/jaycherian/gcp-go-vidsynth/internal/core/commands"
	"github.com/jaycherian/gcp-go-vidsynth/internal/core/cor"
	"github.com/jaycherian/gcp-go-vidsynth/internal/core/index"
	"github.com/jaycherian/gcp-go-vidsynth/internal/core/model"
	"github.com/jaycherian/gcp-go-vidsynth/internal/core/services"
	"github.com/jaycherian/gcp-go-vidsynth/internal/core/workflow"
)

// Orchestrator drives sessions through their states. It holds no session
// data itself and can serve any number of sessions.
type Orchestrator struct {
	transcript cor.Command
	notes      cor.Command
	chatIndex  cor.Command
	export     cor.Command
	retriever  *services.Retriever
	composer   *services.AnswerComposer
	now        func() time.Time
}

// NewOrchestrator builds the workflows from deps. topK is the number of
// chunks retrieved per question; zero means services.DefaultTopK.
func NewOrchestrator(deps workflow.Dependencies, topK int) *Orchestrator {
	return &Orchestrator{
		transcript: workflow.NewTranscriptWorkflow(deps),
		notes:      workflow.NewNotesWorkflow(deps),
		chatIndex:  workflow.NewChatIndexWorkflow(deps),
		export:     workflow.NewNotesExportWorkflow(deps, false),
		retriever:  services.NewRetriever(deps.Embedder, topK),
		composer:   services.NewAnswerComposer(deps.Generator),
		now:        time.Now,
	}
}

// Submit processes a new video for s.
//
// Logic Flow:
//  1. The submission is validated; an invalid one changes nothing.
//  2. Notes, PDF and chat history from the previous submission are cleared.
//  3. The transcript is fetched and translated. Success moves s to
//     TRANSCRIPT_READY.
//  4. Notes mode generates topics and notes and moves s to NOTES_READY.
//     Chat mode chunks the transcript, builds a new index, installs it and
//     moves s to CHAT_READY.
//
// A failure stops the flow where it happened. The session keeps the last
// stage it reached, and an index from an earlier submission stays usable
// until a new one is built.
//
// Outputs:
//   - error: A *model.Error describing the failed step, or nil.
func (o *Orchestrator) Submit(ctx context.Context, s *Session, sub model.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer o.touch(s)

	videoID, err := sub.Validate()
	if err != nil {
		s.LastError = err
		return err
	}
	s.resetDownstream()

	chCtx := cor.NewBaseContextWith(ctx)
	defer chCtx.Close()
	title := sub.DisplayTitle(videoID)
	chCtx.Add(commands.ParamSubmission, &sub).
		Add(commands.ParamVideoID, videoID).
		Add(commands.ParamTitle, title)

	o.transcript.Execute(chCtx)
	transcript, _ := chCtx.Get(commands.ParamTranscript).(*model.Transcript)
	if err := firstError(chCtx, model.KindFetchFailure, "transcript-workflow"); err != nil {
		return o.fail(ctx, s, err)
	}
	if transcript == nil || transcript.NeedsTranslation() {
		return o.fail(ctx, s, model.Errorf(model.KindTranslationFailure, "transcript-workflow", "no English transcript for %s", videoID))
	}
	s.VideoID = videoID
	s.Title = title
	s.Mode = sub.Mode
	s.Transcript = transcript
	s.State = StateTranscriptReady
	slog.InfoContext(ctx, "transcript ready", "session", s.ID, "video_id", videoID)

	switch sub.Mode {
	case model.ModeNotes:
		o.notes.Execute(chCtx)
		if err := firstError(chCtx, model.KindGenerationFailure, "notes-workflow"); err != nil {
			return o.fail(ctx, s, err)
		}
		notes, ok := chCtx.Get(commands.ParamNotes).(*model.Notes)
		if !ok {
			return o.fail(ctx, s, model.Errorf(model.KindGenerationFailure, "notes-workflow", "no notes generated"))
		}
		s.Notes = notes
		s.State = StateNotesReady
	case model.ModeChat:
		o.chatIndex.Execute(chCtx)
		if err := firstError(chCtx, model.KindIndexBuildFailure, "chat-index-workflow"); err != nil {
			return o.fail(ctx, s, err)
		}
		idx, ok := chCtx.Get(commands.ParamIndex).(*index.Index)
		if !ok {
			return o.fail(ctx, s, model.Errorf(model.KindIndexBuildFailure, "chat-index-workflow", "no index built"))
		}
		s.Index = idx
		s.IndexVideoID = videoID
		s.History = nil
		s.State = StateChatReady
	}
	slog.InfoContext(ctx, "submission processed", "session", s.ID, "video_id", videoID, "state", s.State)
	return nil
}

// Ask answers one question against the session's index.
//
// The question is appended to the history first. When retrieval or
// generation fails the question stays in the history without an answer and
// the index is left untouched.
//
// Outputs:
//   - model.ChatMessage: The assistant's reply.
//   - error: InvalidInput, RetrievalFailure or GenerationFailure.
func (o *Orchestrator) Ask(ctx context.Context, s *Session, question string) (model.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer o.touch(s)

	question = strings.TrimSpace(question)
	if question == "" {
		return model.ChatMessage{}, model.Errorf(model.KindInvalidInput, "ask", "question is empty")
	}
	if s.Index == nil {
		return model.ChatMessage{}, model.Errorf(model.KindInvalidInput, "ask", "no video is ready for chat")
	}

	s.appendMessage(model.RoleUser, question)

	retrieved, err := o.retriever.Retrieve(ctx, question, s.Index)
	if err != nil {
		return model.ChatMessage{}, o.fail(ctx, s, err)
	}
	answer, err := o.composer.Answer(ctx, question, retrieved)
	if err != nil {
		return model.ChatMessage{}, o.fail(ctx, s, err)
	}
	s.LastError = nil
	return s.appendMessage(model.RoleAssistant, answer), nil
}

// ExportPDF renders the session's notes and, when an exporter is
// configured, uploads them.
//
// Outputs:
//   - *model.Notes: A copy of the notes with PDFPath (and PDFURL) set.
//   - error: InvalidInput without notes, otherwise RenderFailure.
func (o *Orchestrator) ExportPDF(ctx context.Context, s *Session) (*model.Notes, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer o.touch(s)

	if s.Notes == nil {
		return nil, model.Errorf(model.KindInvalidInput, "export-pdf", "no notes to export")
	}

	working := *s.Notes
	working.PDFPath, working.PDFURL = "", ""

	chCtx := cor.NewBaseContextWith(ctx)
	defer chCtx.Close()
	chCtx.Add(commands.ParamNotes, &working)

	o.export.Execute(chCtx)
	if err := firstError(chCtx, model.KindRenderFailure, "notes-export-workflow"); err != nil {
		return nil, o.fail(ctx, s, err)
	}
	if working.PDFPath == "" {
		return nil, o.fail(ctx, s, model.Errorf(model.KindRenderFailure, "notes-export-workflow", "no document written"))
	}

	s.Notes = &working
	s.LastError = nil
	out := working
	return &out, nil
}

func (o *Orchestrator) fail(ctx context.Context, s *Session, err error) error {
	s.LastError = err
	slog.WarnContext(ctx, "session action failed", "session", s.ID, "state", s.State, "kind", model.KindOf(err), "error", err)
	return err
}

func (o *Orchestrator) touch(s *Session) {
	s.UpdatedAt = o.now()
}

// firstError returns the first error recorded on chCtx, classified as kind
// when the command did not classify it.
func firstError(chCtx cor.Context, kind model.Kind, op string) error {
	return model.AsKind(kind, op, chCtx.FirstError())
}
