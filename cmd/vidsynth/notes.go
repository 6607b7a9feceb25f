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

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jaycherian/gcp-go-vidsynth/internal/core/model"
	"github.com/jaycherian/gcp-go-vidsynth/internal/core/session"
)

func newNotesCommand(c *cli) *cobra.Command {
	var (
		language string
		title    string
		pdf      bool
	)
	cmd := &cobra.Command{
		Use:   "notes <youtube-url>",
		Short: "Print the topics and notes of a video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			orch, release, err := c.newState(ctx, c.config)
			if err != nil {
				return err
			}
			defer release()

			sess := session.NewStore().Create()
			sub := model.Submission{URL: args[0], Language: language, Mode: model.ModeNotes, Title: title}
			if err := orch.Submit(ctx, sess, sub); err != nil {
				return err
			}

			notes := sess.CurrentNotes()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n\nTopics:\n%s\n\n%s\n", notes.Title, notes.Topics, notes.Notes)
			if !pdf {
				return nil
			}
			exported, err := orch.ExportPDF(ctx, sess)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "\nPDF: %s\n", exported.PDFPath)
			if exported.PDFURL != "" {
				fmt.Fprintf(out, "URL: %s\n", exported.PDFURL)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&language, "lang", "l", "en", "transcript language code")
	cmd.Flags().StringVarP(&title, "title", "t", "", "title used for the notes and the PDF; defaults to the video id")
	cmd.Flags().BoolVar(&pdf, "pdf", false, "render the notes to a PDF")
	return cmd
}
