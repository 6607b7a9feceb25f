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
// data sources. This file, `queries.go`, centralizes the BigQuery SQL used by
// the notes archive. Table names are injected with fmt.Sprintf; values are
// always bound as named query parameters.
package services

const (
	// QryNotesByVideo lists the archived notes of one video, newest first.
	//
	// Placeholders:
	// - `%s`: The fully qualified name of the notes table.
	// - `%d`: The maximum number of rows.
	//
	// Parameters:
	// - `@video_id`: The YouTube video id.
	QryNotesByVideo = "SELECT video_id, title, language, topics, notes, pdf_path, pdf_url, created_at FROM `%s` WHERE video_id = @video_id ORDER BY created_at DESC LIMIT %d"

	// QryRecentNotes lists the most recently archived notes across all videos.
	//
	// Placeholders:
	// - `%s`: The fully qualified name of the notes table.
	// - `%d`: The maximum number of rows.
	QryRecentNotes = "SELECT video_id, title, language, topics, notes, pdf_path, pdf_url, created_at FROM `%s` ORDER BY created_at DESC LIMIT %d"
)
