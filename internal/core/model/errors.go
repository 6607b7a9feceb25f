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
// synthesizer. This file defines the failure taxonomy.
//
// Every failure that leaves an operation boundary is an *Error carrying one
// Kind. Callers branch on the kind with errors.Is against the exported
// sentinels (ErrFetchFailure, ...) or with KindOf, never on message text.
package model

import (
	"errors"
	"fmt"
)

// Kind classifies a failure by the stage of the pipeline that produced it.
type Kind int

const (
	KindUnknown Kind = iota
	// KindInvalidInput is a malformed URL, an empty field or a bad config value.
	KindInvalidInput
	// KindFetchFailure means the transcript could not be obtained.
	KindFetchFailure
	// KindTranslationFailure means the transcript could not be translated.
	KindTranslationFailure
	// KindGenerationFailure covers topics, notes and chat answers.
	KindGenerationFailure
	// KindIndexBuildFailure covers chunking and chunk embedding.
	KindIndexBuildFailure
	// KindRetrievalFailure covers query embedding and index search.
	KindRetrievalFailure
	// KindRenderFailure covers document export.
	KindRenderFailure
)

var kindNames = map[Kind]string{
	KindUnknown:            "Unknown",
	KindInvalidInput:       "InvalidInput",
	KindFetchFailure:       "FetchFailure",
	KindTranslationFailure: "TranslationFailure",
	KindGenerationFailure:  "GenerationFailure",
	KindIndexBuildFailure:  "IndexBuildFailure",
	KindRetrievalFailure:   "RetrievalFailure",
	KindRenderFailure:      "RenderFailure",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Sentinels for errors.Is. An *Error matches the sentinel of its kind.
var (
	ErrInvalidInput       = &Error{Kind: KindInvalidInput}
	ErrFetchFailure       = &Error{Kind: KindFetchFailure}
	ErrTranslationFailure = &Error{Kind: KindTranslationFailure}
	ErrGenerationFailure  = &Error{Kind: KindGenerationFailure}
	ErrIndexBuildFailure  = &Error{Kind: KindIndexBuildFailure}
	ErrRetrievalFailure   = &Error{Kind: KindRetrievalFailure}
	ErrRenderFailure      = &Error{Kind: KindRenderFailure}
)

// Error is a classified failure.
type Error struct {
	Kind Kind   // The failure class.
	Op   string // The operation that failed, e.g. "fetch-transcript".
	Err  error  // The underlying cause, may be nil.
}

// NewError wraps err with a kind and the failing operation name.
func NewError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf builds a classified error from a format string. %w is honoured.
func Errorf(kind Kind, op string, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Op)
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports a match when target is an *Error of the same kind. This is what
// lets errors.Is(err, ErrFetchFailure) work across wrapping.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// AsKind returns err unchanged when it is already classified, otherwise it
// wraps it with the given kind.
func AsKind(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	if KindOf(err) != KindUnknown {
		return err
	}
	return NewError(kind, op, err)
}
