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
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jaycherian/gcp-go-vidsynth/internal/core/model"
	"github.com/jaycherian/gcp-go-vidsynth/internal/core/session"
)

func newChatCommand(c *cli) *cobra.Command {
	var language string
	cmd := &cobra.Command{
		Use:   "chat <youtube-url>",
		Short: "Index a video and answer questions about it from stdin",
		Long:  "Builds a searchable index of the transcript, then reads one question per line until end of input or \"exit\".",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			orch, release, err := c.newState(ctx, c.config)
			if err != nil {
				return err
			}
			defer release()

			sess := session.NewStore().Create()
			sub := model.Submission{URL: args[0], Language: language, Mode: model.ModeChat}
			if err := orch.Submit(ctx, sess, sub); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			snap := sess.Snapshot()
			fmt.Fprintf(out, "Indexed %s (%d chunks). Ask a question, or type exit.\n", snap.VideoID, snap.IndexEntries)

			scanner := bufio.NewScanner(cmd.InOrStdin())
			scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
			for {
				fmt.Fprint(out, "> ")
				if !scanner.Scan() {
					fmt.Fprintln(out)
					return scanner.Err()
				}
				question := strings.TrimSpace(scanner.Text())
				switch {
				case question == "":
					continue
				case strings.EqualFold(question, "exit"):
					return nil
				}
				answer, err := orch.Ask(ctx, sess, question)
				if err != nil {
					// Only this turn is lost.
					fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", err)
					continue
				}
				fmt.Fprintln(out, answer.Content)
			}
		},
	}
	cmd.Flags().StringVarP(&language, "lang", "l", "en", "transcript language code")
	return cmd
}
