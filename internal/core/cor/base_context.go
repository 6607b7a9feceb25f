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
// VidSynth workflow is built from. This file defines BaseContext, the
// default Context.
//
// A BaseContext carries:
//   - a property bag of values written and read by commands,
//   - the failures recorded by commands, kept in the order they happened so
//     the caller can report the step that failed first,
//   - temporary files to remove when the run is closed (rendered PDFs that
//     were uploaded elsewhere, for example),
//   - the Go context used for cancellation and tracing.
package cor

import (
	"context"
	"log/slog"
	"os"
)

type namedError struct {
	name string
	err  error
}

// BaseContext is the default Context implementation. It is not safe for
// concurrent use; one workflow run owns it.
type BaseContext struct {
	data      map[string]interface{}
	errors    []namedError
	tempFiles []string
	context   context.Context
}

// NewBaseContext returns an empty Context with a background Go context.
func NewBaseContext() Context {
	return &BaseContext{
		data:      make(map[string]interface{}),
		errors:    make([]namedError, 0),
		tempFiles: make([]string, 0),
		context:   context.Background(),
	}
}

// NewBaseContextWith returns an empty Context bound to ctx.
func NewBaseContextWith(ctx context.Context) Context {
	c := NewBaseContext()
	c.SetContext(ctx)
	return c
}

func (c *BaseContext) SetContext(context context.Context) {
	c.context = context
}

func (c *BaseContext) GetContext() context.Context {
	return c.context
}

// Close removes every registered temporary file. Failures are logged, not returned.
func (c *BaseContext) Close() {
	for _, file := range c.GetTempFiles() {
		if err := os.Remove(file); err != nil && !os.IsNotExist(err) {
			slog.Warn("failed to remove temporary file", "file", file, "error", err)
		}
	}
	c.tempFiles = c.tempFiles[:0]
}

func (c *BaseContext) Add(key string, value interface{}) Context {
	c.data[key] = value
	return c
}

func (c *BaseContext) AddTempFile(file string) {
	c.tempFiles = append(c.tempFiles, file)
}

func (c *BaseContext) GetTempFiles() []string {
	return c.tempFiles
}

// AddError records err against key. A second error for the same key
// replaces the first but keeps its position.
func (c *BaseContext) AddError(key string, err error) {
	for i := range c.errors {
		if c.errors[i].name == key {
			c.errors[i].err = err
			return
		}
	}
	c.errors = append(c.errors, namedError{name: key, err: err})
}

func (c *BaseContext) GetErrors() map[string]error {
	out := make(map[string]error, len(c.errors))
	for _, e := range c.errors {
		out[e.name] = e.err
	}
	return out
}

func (c *BaseContext) FirstError() error {
	if len(c.errors) == 0 {
		return nil
	}
	return c.errors[0].err
}

func (c *BaseContext) Get(key string) interface{} {
	return c.data[key]
}

func (c *BaseContext) Remove(key string) {
	delete(c.data, key)
}

func (c *BaseContext) HasErrors() bool {
	return len(c.errors) > 0
}
