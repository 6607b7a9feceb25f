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

// Package session owns the lifecycle of one user's work on a video: the
// loaded transcript, the chat index, the chat history and the latest notes.
//
// States:
//
//	EMPTY ──submit──▶ TRANSCRIPT_READY ──notes──▶ NOTES_READY
//	                                  └──index──▶ CHAT_READY
//
// A Session is only mutated by the Orchestrator while its lock is held, so
// one session processes one action at a time.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/jaycherian/gcp-go-vidsynth/internal/core/index"
	"github.com/jaycherian/gcp-go-vidsynth/internal/core/model"
)

// State is the stage a session has reached.
type State int

const (
	StateEmpty State = iota
	StateTranscriptReady
	StateNotesReady
	StateChatReady
)

var stateNames = map[State]string{
	StateEmpty:           "EMPTY",
	StateTranscriptReady: "TRANSCRIPT_READY",
	StateNotesReady:      "NOTES_READY",
	StateChatReady:       "CHAT_READY",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// MarshalText writes the state name, so JSON shows "CHAT_READY" rather than 3.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Session holds everything derived from the current submission. Each field is
// independently nil and is overwritten by the next submission. The chat index
// survives notes submissions, so IndexVideoID can differ from VideoID.
type Session struct {
	mu sync.Mutex

	ID           string
	State        State
	VideoID      string
	Title        string
	Mode         model.Mode
	Transcript   *model.Transcript
	Index        *index.Index
	IndexVideoID string // video the chat index was built from
	History      []model.ChatMessage
	Notes        *model.Notes
	LastError    error
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Snapshot is a read-only copy of a session's public state.
type Snapshot struct {
	ID           string     `json:"id"`
	State        State      `json:"state"`
	VideoID      string     `json:"video_id,omitempty"`
	Title        string     `json:"title,omitempty"`
	Mode         model.Mode `json:"mode,omitempty"`
	Language     string     `json:"language,omitempty"`
	IndexEntries int        `json:"index_entries"`
	IndexVideoID string     `json:"index_video_id,omitempty"`
	HistoryLen   int        `json:"history_length"`
	HasNotes     bool       `json:"has_notes"`
	PDFPath      string     `json:"pdf_path,omitempty"`
	PDFURL       string     `json:"pdf_url,omitempty"`
	LastError    string     `json:"last_error,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func newSession(id string, now time.Time) *Session {
	return &Session{ID: id, State: StateEmpty, CreatedAt: now, UpdatedAt: now}
}

// Snapshot copies the session under its lock.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := Snapshot{
		ID:         s.ID,
		State:      s.State,
		VideoID:    s.VideoID,
		Title:      s.Title,
		Mode:       s.Mode,
		HistoryLen: len(s.History),
		HasNotes:   s.Notes != nil,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
	}
	if s.Transcript != nil {
		out.Language = s.Transcript.Language
	}
	if s.Index != nil {
		out.IndexEntries = s.Index.Len()
		out.IndexVideoID = s.IndexVideoID
	}
	if s.Notes != nil {
		out.PDFPath = s.Notes.PDFPath
		out.PDFURL = s.Notes.PDFURL
	}
	if s.LastError != nil {
		out.LastError = s.LastError.Error()
	}
	return out
}

// Messages returns a copy of the chat history.
func (s *Session) Messages() []model.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.ChatMessage(nil), s.History...)
}

// CurrentNotes returns a copy of the notes, or nil.
func (s *Session) CurrentNotes() *model.Notes {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Notes == nil {
		return nil
	}
	n := *s.Notes
	return &n
}

// ChatReady reports whether questions can be asked.
func (s *Session) ChatReady() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Index != nil
}

// resetDownstream drops everything derived from the previous submission
// except the transcript and the index, which are only replaced once their
// successors exist.
func (s *Session) resetDownstream() {
	s.Notes = nil
	s.History = nil
	s.LastError = nil
	if s.State == StateNotesReady {
		s.State = StateTranscriptReady
	}
}

func (s *Session) appendMessage(role model.Role, content string) model.ChatMessage {
	msg := model.ChatMessage{Role: role, Content: content, Seq: len(s.History)}
	s.History = append(s.History, msg)
	return msg
}
