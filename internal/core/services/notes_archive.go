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
// data sources. This file defines the NotesArchive, which appends generated
// notes to a BigQuery table and reads them back by video.
package services

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/jaycherian/gcp-go-vidsynth/internal/core/model"
)

// DefaultArchiveLimit caps the rows returned by a lookup.
const DefaultArchiveLimit = 20

// NotesArchive stores notes in BigQuery.
type NotesArchive struct {
	BigqueryClient *bigquery.Client // Client for interacting with Google BigQuery.
	DatasetName    string           // The name of the BigQuery dataset.
	NotesTable     string           // The name of the table notes are appended to.
}

// GetFQN returns the notes table as `project.dataset.table`.
func (a *NotesArchive) GetFQN() string {
	fqn := a.BigqueryClient.Dataset(a.DatasetName).Table(a.NotesTable).FullyQualifiedName()
	return strings.Replace(fqn, ":", ".", -1)
}

// Save appends one notes row.
//
// Inputs:
//   - ctx: The context for the request, used for cancellation and tracing.
//   - notes: The notes to store; the struct's bigquery tags define the columns.
//
// Outputs:
//   - error: The insert failure, if any.
func (a *NotesArchive) Save(ctx context.Context, notes *model.Notes) error {
	inserter := a.BigqueryClient.Dataset(a.DatasetName).Table(a.NotesTable).Inserter()
	if err := inserter.Put(ctx, notes); err != nil {
		return fmt.Errorf("archiving notes for %s: %w", notes.VideoID, err)
	}
	return nil
}

// FindByVideo returns up to limit archived notes for videoID, newest first.
// An empty videoID lists the most recent notes across all videos.
func (a *NotesArchive) FindByVideo(ctx context.Context, videoID string, limit int) ([]*model.Notes, error) {
	if limit <= 0 {
		limit = DefaultArchiveLimit
	}

	var q *bigquery.Query
	if videoID == "" {
		q = a.BigqueryClient.Query(fmt.Sprintf(QryRecentNotes, a.GetFQN(), limit))
	} else {
		q = a.BigqueryClient.Query(fmt.Sprintf(QryNotesByVideo, a.GetFQN(), limit))
		q.Parameters = []bigquery.QueryParameter{{Name: "video_id", Value: videoID}}
	}

	itr, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read from BigQuery: %w", err)
	}
	out := make([]*model.Notes, 0)
	for {
		n := &model.Notes{}
		err := itr.Next(n)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return out, fmt.Errorf("failed to iterate results: %w", err)
		}
		out = append(out, n)
	}
	return out, nil
}
