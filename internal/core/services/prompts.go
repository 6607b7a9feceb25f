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

// Package services contains the business logic for talking to models and
// data sources. This file holds the prompt templates, one per generation
// task. Each template is a text/template executed against its request value,
// so a translate template reads {{.Transcript}} and the chat template reads
// {{.Context}}, {{.Question}} and {{.Fallback}}.
package services

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/jaycherian/gcp-go-vidsynth/internal/cloud"
)

// FallbackAnswer is the exact reply the chat prompt asks for when the
// retrieved context does not contain the answer.
const FallbackAnswer = "I couldn't find that information in the database. Could you please rephrase or ask something else?"

const DefaultTranslatePrompt = `You are an expert translator with deep cultural and linguistic knowledge.
I will provide you with a transcript. Your task is to translate it into English with absolute accuracy, preserving:
- Full meaning and context (no omissions, no additions).
- Tone and style (formal/informal, emotional/neutral as in original).
- Nuances, idioms, and cultural expressions (adapt appropriately while keeping intent).
- Speaker's voice (same perspective, no rewriting into third-person).
Do not summarize or simplify. The translation should read naturally in English but stay as close as possible to the original intent.

Transcript:
{{.Transcript}}`

const DefaultTopicsPrompt = `You are an assistant that extracts the 5 most important topics discussed in a video transcript or summary.

Rules:
- Summarize into exactly 5 major points.
- Each point should represent a key topic or concept, not small details.
- Keep wording concise and focused on the technical content.
- Do not phrase them as questions or opinions.
- Output should be a numbered list.
- Show only points that are discussed in the transcript.

Here is the transcript:
{{.Transcript}}`

const DefaultNotesPrompt = `You are an AI note-taker. Your task is to read the following YouTube video transcript
and produce well-structured, concise notes.

Requirements:
- Present the output as bulleted points, grouped into clear sections.
- Highlight key takeaways, important facts, and examples.
- Use short, clear sentences (no long paragraphs).
- If the transcript includes multiple themes, organize them under "## " subheadings.
- Do not add information that is not present in the transcript.

Here is the transcript:
{{.Transcript}}`

const DefaultChatPrompt = `You are a kind, polite, and precise assistant.
- Begin with a warm and respectful greeting (avoid repeating greetings every turn).
- Understand the user's intent even with typos or grammatical mistakes.
- Answer ONLY using the retrieved context.
- If the answer is not in the context, say exactly:
  "{{.Fallback}}"
- Keep answers clear, concise, and friendly.

Context:
{{.Context}}

User Question:
{{.Question}}

Answer:`

// Prompts holds the parsed template for every task.
type Prompts struct {
	translate *template.Template
	topics    *template.Template
	notes     *template.Template
	chat      *template.Template
}

// NewPrompts parses the configured templates. An empty template is replaced
// by the built-in default for its task.
func NewPrompts(config cloud.PromptTemplates) (*Prompts, error) {
	var err error
	p := &Prompts{}
	if p.translate, err = parsePrompt("translate", config.TranslatePrompt, DefaultTranslatePrompt); err != nil {
		return nil, err
	}
	if p.topics, err = parsePrompt("topics", config.TopicsPrompt, DefaultTopicsPrompt); err != nil {
		return nil, err
	}
	if p.notes, err = parsePrompt("notes", config.NotesPrompt, DefaultNotesPrompt); err != nil {
		return nil, err
	}
	if p.chat, err = parsePrompt("chat", config.ChatPrompt, DefaultChatPrompt); err != nil {
		return nil, err
	}
	return p, nil
}

// DefaultPrompts returns the built-in templates.
func DefaultPrompts() *Prompts {
	p, err := NewPrompts(cloud.PromptTemplates{})
	if err != nil {
		panic(fmt.Sprintf("built-in prompt templates do not parse: %v", err))
	}
	return p
}

func parsePrompt(name, text, fallback string) (*template.Template, error) {
	if strings.TrimSpace(text) == "" {
		text = fallback
	}
	t, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parsing %s prompt template: %w", name, err)
	}
	return t, nil
}

// Render executes the template that belongs to req.
//
// Inputs:
//   - req: One of TranslateRequest, TopicsRequest, NotesRequest or ChatRequest.
//
// Outputs:
//   - string: The prompt text.
//   - error: An unknown request type or a template execution failure.
func (p *Prompts) Render(req Request) (string, error) {
	var t *template.Template
	switch req.(type) {
	case TranslateRequest, *TranslateRequest:
		t = p.translate
	case TopicsRequest, *TopicsRequest:
		t = p.topics
	case NotesRequest, *NotesRequest:
		t = p.notes
	case ChatRequest, *ChatRequest:
		t = p.chat
	default:
		return "", fmt.Errorf("no prompt template for request %T", req)
	}
	var sb strings.Builder
	if err := t.Execute(&sb, req); err != nil {
		return "", fmt.Errorf("rendering %s prompt: %w", req.Task(), err)
	}
	return sb.String(), nil
}
