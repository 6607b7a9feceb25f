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

package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/jaycherian/gcp-go-vidsynth/internal/core/services"
)

// FakeTranscriptSource serves transcripts from memory, keyed by "<videoID>.<language>".
type FakeTranscriptSource struct {
	mu          sync.Mutex
	Transcripts map[string]string
	Err         error
	Calls       int
}

// NewFakeTranscriptSource returns a source with no transcripts.
func NewFakeTranscriptSource() *FakeTranscriptSource {
	return &FakeTranscriptSource{Transcripts: make(map[string]string)}
}

// Put registers a transcript.
func (f *FakeTranscriptSource) Put(videoID, language, text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Transcripts[videoID+"."+language] = text
}

func (f *FakeTranscriptSource) Fetch(_ context.Context, videoID string, language string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls++
	if f.Err != nil {
		return "", f.Err
	}
	text, ok := f.Transcripts[videoID+"."+language]
	if !ok {
		return "", fmt.Errorf("video %s: %w", videoID, services.ErrTranscriptNotFound)
	}
	return text, nil
}

// FakeGenerator answers each task deterministically:
//   - translate prefixes the transcript with "[en] ",
//   - topics returns five numbered lines,
//   - notes returns a heading and two bullets,
//   - chat returns the first context line sharing a word of four or more
//     letters with the question, or services.FallbackAnswer.
//
// Errs makes a task fail; Requests records every call in order.
type FakeGenerator struct {
	mu       sync.Mutex
	Errs     map[string]error
	Requests []services.Request
}

// NewFakeGenerator returns a generator that never fails.
func NewFakeGenerator() *FakeGenerator {
	return &FakeGenerator{Errs: make(map[string]error)}
}

// FailOn makes every request for task return err.
func (f *FakeGenerator) FailOn(task string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Errs[task] = err
}

// Count returns how many requests for task were made.
func (f *FakeGenerator) Count(task string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.Requests {
		if r.Task() == task {
			n++
		}
	}
	return n
}

func (f *FakeGenerator) Generate(ctx context.Context, req services.Request) (string, error) {
	f.mu.Lock()
	f.Requests = append(f.Requests, req)
	err := f.Errs[req.Task()]
	f.mu.Unlock()
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	switch r := req.(type) {
	case services.TranslateRequest:
		return "[en] " + r.Transcript, nil
	case services.TopicsRequest:
		return "1. First topic\n2. Second topic\n3. Third topic\n4. Fourth topic\n5. Fifth topic", nil
	case services.NotesRequest:
		return "## Overview\n* The video covers one idea.\n- It repeats it twice.\nClosing remark.", nil
	case services.ChatRequest:
		return GroundedAnswer(r.Question, r.Context), nil
	}
	return "", fmt.Errorf("unexpected request %T", req)
}

// GroundedAnswer picks the first context line that shares a word of at least
// four letters with the question. Without one it returns the fallback.
func GroundedAnswer(question, context string) string {
	words := make(map[string]bool)
	for _, w := range services.Tokenize(question) {
		if len(w) >= 4 {
			words[w] = true
		}
	}
	for _, line := range strings.Split(context, "\n") {
		for _, w := range services.Tokenize(line) {
			if words[w] {
				return strings.TrimSpace(line)
			}
		}
	}
	return services.FallbackAnswer
}

// FailingEmbedder fails on the call numbered FailAt (1-based), or on every
// call when FailAt is zero. Other calls use the hash embedder.
type FailingEmbedder struct {
	mu     sync.Mutex
	FailAt int
	Err    error
	Calls  int
	inner  *services.HashEmbedder
}

// NewFailingEmbedder returns an embedder failing on call failAt with err.
func NewFailingEmbedder(failAt int, err error) *FailingEmbedder {
	return &FailingEmbedder{FailAt: failAt, Err: err, inner: services.NewHashEmbedder(services.DefaultHashDimension)}
}

func (f *FailingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	f.Calls++
	n := f.Calls
	f.mu.Unlock()
	if f.FailAt == 0 || n == f.FailAt {
		return nil, f.Err
	}
	return f.inner.Embed(ctx, text)
}

// FakeRenderer writes a small placeholder file instead of a PDF.
type FakeRenderer struct {
	Dir   string
	Err   error
	Calls int
}

func (f *FakeRenderer) Render(title, topics, notes string) (string, error) {
	f.Calls++
	if f.Err != nil {
		return "", f.Err
	}
	path := filepath.Join(f.Dir, fmt.Sprintf("%s_%d.pdf", strings.ReplaceAll(title, " ", "_"), f.Calls))
	body := fmt.Sprintf("%%PDF-1.4\n%s\n%s\n%s\n", title, topics, notes)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		return "", err
	}
	return path, nil
}
