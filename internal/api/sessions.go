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
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jaycherian/gcp-go-vidsynth/internal/core/model"
	"github.com/jaycherian/gcp-go-vidsynth/internal/core/services"
	"github.com/jaycherian/gcp-go-vidsynth/internal/core/session"
)

type submissionRequest struct {
	URL      string     `json:"url"`
	Language string     `json:"language"`
	Mode     model.Mode `json:"mode"`
	Title    string     `json:"title"`
}

type questionRequest struct {
	Question string `json:"question"`
}

type pdfResponse struct {
	Path string `json:"path"`
	URL  string `json:"url,omitempty"`
}

// SessionRouter registers the session routes.
func (s *Server) SessionRouter(r *gin.RouterGroup) {
	sessions := r.Group("/sessions")
	{
		sessions.POST("", func(c *gin.Context) {
			sess := s.Store.Create()
			c.JSON(http.StatusCreated, sess.Snapshot())
		})

		sessions.GET("", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"ids": s.Store.IDs()})
		})

		sessions.GET("/:id", s.withSession(func(c *gin.Context, sess *session.Session) {
			c.JSON(http.StatusOK, sess.Snapshot())
		}))

		sessions.DELETE("/:id", func(c *gin.Context) {
			if err := s.Store.Delete(c.Param("id")); err != nil {
				abortWithError(c, err)
				return
			}
			c.Status(http.StatusNoContent)
		})

		sessions.POST("/:id/submissions", s.withSession(func(c *gin.Context, sess *session.Session) {
			var req submissionRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				abortWithError(c, model.NewError(model.KindInvalidInput, "bind-submission", err))
				return
			}
			sub := model.Submission{URL: req.URL, Language: req.Language, Mode: req.Mode, Title: req.Title}
			if err := s.Orchestrator.Submit(c.Request.Context(), sess, sub); err != nil {
				abortWithError(c, err)
				return
			}
			c.JSON(http.StatusOK, sess.Snapshot())
		}))

		sessions.POST("/:id/messages", s.withSession(func(c *gin.Context, sess *session.Session) {
			var req questionRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				abortWithError(c, model.NewError(model.KindInvalidInput, "bind-question", err))
				return
			}
			msg, err := s.Orchestrator.Ask(c.Request.Context(), sess, req.Question)
			if err != nil {
				abortWithError(c, err)
				return
			}
			c.JSON(http.StatusOK, msg)
		}))

		sessions.GET("/:id/messages", s.withSession(func(c *gin.Context, sess *session.Session) {
			c.JSON(http.StatusOK, sess.Messages())
		}))

		sessions.GET("/:id/notes", s.withSession(func(c *gin.Context, sess *session.Session) {
			notes := sess.CurrentNotes()
			if notes == nil {
				c.JSON(http.StatusNotFound, errorResponse{Error: "no notes for this session"})
				return
			}
			c.JSON(http.StatusOK, notes)
		}))

		sessions.POST("/:id/notes/pdf", s.withSession(func(c *gin.Context, sess *session.Session) {
			notes, err := s.Orchestrator.ExportPDF(c.Request.Context(), sess)
			if err != nil {
				abortWithError(c, err)
				return
			}
			c.JSON(http.StatusOK, pdfResponse{Path: notes.PDFPath, URL: notes.PDFURL})
		}))
	}
}

// ArchiveRouter registers the archive lookups when an archive is configured.
// Without a video id the most recent notes of any video are listed.
func (s *Server) ArchiveRouter(r *gin.RouterGroup) {
	if s.Archive == nil {
		return
	}
	find := func(c *gin.Context) {
		limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(services.DefaultArchiveLimit)))
		if err != nil || limit <= 0 {
			limit = services.DefaultArchiveLimit
		}
		out, err := s.Archive.FindByVideo(c.Request.Context(), c.Param("video_id"), limit)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
	r.GET("/archive", find)
	r.GET("/archive/:video_id", find)
}

func (s *Server) withSession(handler func(*gin.Context, *session.Session)) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := s.Store.Get(c.Param("id"))
		if err != nil {
			abortWithError(c, err)
			return
		}
		handler(c, sess)
	}
}
