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

package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jaycherian/gcp-go-vidsynth/internal/core/model"
	"github.com/jaycherian/gcp-go-vidsynth/internal/core/session"
)

// StatusFor maps an error to the HTTP status returned for it.
func StatusFor(err error) int {
	if errors.Is(err, session.ErrNotFound) {
		return http.StatusNotFound
	}
	switch model.KindOf(err) {
	case model.KindInvalidInput:
		return http.StatusBadRequest
	case model.KindFetchFailure, model.KindTranslationFailure, model.KindGenerationFailure, model.KindRetrievalFailure:
		return http.StatusBadGateway
	case model.KindIndexBuildFailure, model.KindRenderFailure:
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func abortWithError(c *gin.Context, err error) {
	status := StatusFor(err)
	resp := errorResponse{Error: err.Error()}
	if kind := model.KindOf(err); kind != model.KindUnknown {
		resp.Kind = kind.String()
	}
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(c.Request.Context(), "request failed", "path", c.FullPath(), "status", status, "error", err)
	}
	c.AbortWithStatusJSON(status, resp)
}
