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

// Package cor (Chain of Responsibility) is the small pipeline framework every
// VidSynth workflow is built from. A workflow is a Chain of Commands that
// share one Context: commands read their input from the Context, do one unit
// of work (fetch a transcript, call the generation service, build an index)
// and write their output back for the next command.
//
// This file holds the interfaces only. BaseContext, BaseCommand and
// BaseChain are the default implementations.
package cor

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// CtxIn and CtxOut are the keys a BaseChain uses to pipe data between
// commands. After each command runs, the value under CtxOut is moved to CtxIn.
const (
	CtxIn  = "__IN__"
	CtxOut = "__OUT__"
)

// Context is the shared state of one workflow run.
type Context interface {
	// SetContext replaces the Go context. Chains use it to scope each command
	// to its own span.
	SetContext(context context.Context)

	// GetContext returns the current Go context.
	GetContext() context.Context

	// Add stores a value under key and returns the Context for chaining.
	Add(key string, value interface{}) Context

	// AddError records a failure against the name of the command that hit it.
	AddError(key string, err error)

	// GetErrors returns all recorded failures keyed by command name.
	GetErrors() map[string]error

	// FirstError returns the earliest recorded failure, or nil.
	FirstError() error

	// Get returns the value under key, or nil.
	Get(key string) interface{}

	// Remove deletes key.
	Remove(key string)

	// HasErrors reports whether any failure was recorded.
	HasErrors() bool

	// AddTempFile registers a file to delete on Close.
	AddTempFile(file string)

	// GetTempFiles lists the registered temporary files.
	GetTempFiles() []string

	// Close removes the temporary files. Defer it right after creating the Context.
	Close()
}

// Executable is anything with a unit of work.
type Executable interface {
	Execute(context Context)
}

// Command is one step of a workflow.
type Command interface {
	Executable

	// GetName names the command in spans, metrics and error keys.
	GetName() string

	// GetInputParam is the Context key the command reads its main input from.
	GetInputParam() string

	// GetOutputParam is the Context key the command writes its main output to.
	GetOutputParam() string

	// IsExecutable is the precondition checked before Execute.
	IsExecutable(context Context) bool

	GetTracer() trace.Tracer
	GetMeter() metric.Meter
	GetSuccessCounter() metric.Int64Counter
	GetErrorCounter() metric.Int64Counter
}

// Chain is an ordered list of commands. A Chain is itself a Command, so
// chains nest.
type Chain interface {
	Command

	// ContinueOnFailure makes the chain keep going after a command records an error.
	ContinueOnFailure(bool) Chain

	// AddCommand appends a command.
	AddCommand(command Command) Chain
}
