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

	"github.com/gin-gonic/gin"
)

// Stats summarises the sessions held by the server.
type Stats struct {
	Sessions int            `json:"sessions"`
	States   map[string]int `json:"states"`
	Messages int            `json:"messages"`
}

// Dashboard sets up the statistics routes.
func (s *Server) Dashboard(r *gin.RouterGroup) {
	stats := r.Group("/stats")
	{
		stats.GET("", func(c *gin.Context) {
			out := Stats{States: make(map[string]int)}
			for _, id := range s.Store.IDs() {
				sess, err := s.Store.Get(id)
				if err != nil {
					// Deleted between listing and lookup.
					continue
				}
				snap := sess.Snapshot()
				out.Sessions++
				out.States[snap.State.String()]++
				out.Messages += snap.HistoryLen
			}
			c.JSON(http.StatusOK, out)
		})
	}
}
