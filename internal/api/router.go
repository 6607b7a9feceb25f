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

// Package api exposes VidSynth sessions over HTTP with gin.
//
// Routes (under /api/v1):
//   - POST   /sessions                      create a session
//   - GET    /sessions                      list session ids
//   - GET    /sessions/:id                  session snapshot
//   - DELETE /sessions/:id                  drop a session
//   - POST   /sessions/:id/submissions      process a video (notes or chat)
//   - POST   /sessions/:id/messages         ask a question
//   - GET    /sessions/:id/messages         chat history
//   - GET    /sessions/:id/notes            topics and notes
//   - POST   /sessions/:id/notes/pdf        render (and upload) the notes
//   - GET    /archive                       most recent archived notes, when BigQuery is configured
//   - GET    /archive/:video_id             archived notes of one video
//   - GET    /stats                         session counts by state
//
// GET /healthz sits outside the versioned group.
package api

import (
	"context"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/jaycherian/gcp-go-vidsynth/internal/core/model"
	"github.com/jaycherian/gcp-go-vidsynth/internal/core/session"
)

// NotesFinder looks up archived notes.
type NotesFinder interface {
	FindByVideo(ctx context.Context, videoID string, limit int) ([]*model.Notes, error)
}

// Server carries the dependencies of the handlers. Archive may be nil.
type Server struct {
	Store        *session.Store
	Orchestrator *session.Orchestrator
	Archive      NotesFinder
}

// NewRouter builds the gin engine with tracing, CORS and every route.
//
// Inputs:
//   - server: The handler dependencies.
//   - serviceName: The service name reported by the otelgin middleware.
//
// Outputs:
//   - *gin.Engine: Ready to hand to an http.Server.
func NewRouter(server *Server, serviceName string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(serviceName))
	r.Use(cors.Default())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiV1 := r.Group("/api/v1")
	{
		server.SessionRouter(apiV1)
		server.ArchiveRouter(apiV1)
		server.Dashboard(apiV1)
	}
	return r
}
