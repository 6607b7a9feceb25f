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

// Package commands holds the concrete cor.Command steps VidSynth workflows
// are built from. Each step reads well-known keys from the cor.Context,
// performs one external call and writes its result back under another key.
//
// Context keys and the value types stored under them:
//
//	ParamSubmission  *model.Submission
//	ParamVideoID     string
//	ParamTitle       string
//	ParamTranscript  *model.Transcript
//	ParamTopics      string
//	ParamNotes       *model.Notes
//	ParamChunks      []model.Chunk
//	ParamIndex       *index.Index
//
// Every failure is recorded on the context as a *model.Error so callers can
// map it to a kind without inspecting the command that produced it.
package commands

const (
	ParamSubmission = "__submission__"
	ParamVideoID    = "__video_id__"
	ParamTitle      = "__title__"
	ParamTranscript = "__transcript__"
	ParamTopics     = "__topics__"
	ParamNotes      = "__notes__"
	ParamChunks     = "__chunks__"
	ParamIndex      = "__index__"
)
