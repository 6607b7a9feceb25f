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

// Package model holds the data types shared by every layer of the video
// synthesizer. This file defines the in-memory types that flow through the
// pipelines: transcripts, chunks, chat messages, notes and submissions.
package model

import (
	"strings"
	"time"
)

// EnglishLanguage is the language code the pipelines work in. A transcript in
// any other language is translated before topics, notes or chunking.
const EnglishLanguage = "en"

// Transcript is the plain text of a video's captions in one language.
// It is replaced wholesale on translation, never edited.
type Transcript struct {
	VideoID  string `json:"video_id"`
	Language string `json:"language"`
	Text     string `json:"text"`
}

// NeedsTranslation reports whether the transcript is not already English.
// The check ignores case and surrounding whitespace.
func (t *Transcript) NeedsTranslation() bool {
	return NeedsTranslation(t.Language)
}

// NeedsTranslation reports whether a language code is anything other than English.
func NeedsTranslation(language string) bool {
	return strings.ToLower(strings.TrimSpace(language)) != EnglishLanguage
}

// Chunk is one bounded segment of a transcript. Start and End are rune
// offsets into the source text; Overlap is the number of leading runes that
// repeat the tail of the previous chunk.
type Chunk struct {
	ID      string `json:"id"`
	Index   int    `json:"index"`
	Text    string `json:"text"`
	Start   int    `json:"start"`
	End     int    `json:"end"`
	Overlap int    `json:"overlap"`
}

// Role is the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is one entry in a session's chat history.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
	Seq     int    `json:"seq"`
}

// Notes are the artifacts of the notes pipeline for one video.
type Notes struct {
	VideoID   string    `json:"video_id" bigquery:"video_id"`
	Title     string    `json:"title" bigquery:"title"`
	Language  string    `json:"language" bigquery:"language"`
	Topics    string    `json:"topics" bigquery:"topics"`
	Notes     string    `json:"notes" bigquery:"notes"`
	PDFPath   string    `json:"pdf_path,omitempty" bigquery:"pdf_path"`
	PDFURL    string    `json:"pdf_url,omitempty" bigquery:"pdf_url"`
	CreatedAt time.Time `json:"created_at" bigquery:"created_at"`
}

// Mode selects which pipeline runs after the transcript is ready.
type Mode string

const (
	ModeNotes Mode = "notes"
	ModeChat  Mode = "chat"
)

// Valid reports whether m is one of the known modes.
func (m Mode) Valid() bool {
	return m == ModeNotes || m == ModeChat
}

// Submission is a request to process one video.
type Submission struct {
	URL      string `json:"url"`
	Language string `json:"language"`
	Mode     Mode   `json:"mode"`
	Title    string `json:"title,omitempty"`
}

// Validate checks the submission and returns the video id it refers to.
// Every field except the title is required.
func (s *Submission) Validate() (videoID string, err error) {
	if strings.TrimSpace(s.URL) == "" {
		return "", Errorf(KindInvalidInput, "validate-submission", "url is required")
	}
	if strings.TrimSpace(s.Language) == "" {
		return "", Errorf(KindInvalidInput, "validate-submission", "language is required")
	}
	if !s.Mode.Valid() {
		return "", Errorf(KindInvalidInput, "validate-submission", "unknown mode %q", s.Mode)
	}
	return ExtractVideoID(s.URL)
}

// DisplayTitle returns the submission title, falling back to the video id.
func (s *Submission) DisplayTitle(videoID string) string {
	if t := strings.TrimSpace(s.Title); t != "" {
		return t
	}
	return videoID
}
