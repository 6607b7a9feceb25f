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
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jaycherian/gcp-go-vidsynth/internal/cloud"
	"github.com/jaycherian/gcp-go-vidsynth/internal/core/session"
	"github.com/jaycherian/gcp-go-vidsynth/internal/telemetry"
)

// stateFactory builds the orchestrator for a loaded configuration. The
// returned func releases whatever the orchestrator holds.
type stateFactory func(ctx context.Context, config *cloud.Config) (*session.Orchestrator, func(), error)

type cli struct {
	newState  stateFactory
	envFile   string
	configDir string
	runtime   string
	verbose   bool

	config *cloud.Config
}

func newRootCommand(factory stateFactory) *cobra.Command {
	c := &cli{newState: factory}

	root := &cobra.Command{
		Use:          "vidsynth",
		Short:        "Notes and question answering over YouTube transcripts",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup(cmd)
		},
	}
	root.PersistentFlags().StringVar(&c.envFile, "env-file", ".env", "dotenv file loaded before the configuration")
	root.PersistentFlags().StringVar(&c.configDir, "config-dir", "configs", "directory holding .env.toml and its runtime overrides")
	root.PersistentFlags().StringVar(&c.runtime, "runtime", "local", "configuration runtime, selects .env.<runtime>.toml")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "log at info level")

	root.AddCommand(newNotesCommand(c), newChatCommand(c))
	return root
}

// setup loads the dotenv file, then the layered TOML configuration. An
// environment variable already set wins over both the dotenv file and the
// directory and runtime flag defaults.
func (c *cli) setup(cmd *cobra.Command) error {
	if err := godotenv.Load(c.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("config-dir") || os.Getenv(cloud.EnvConfigFilePrefix) == "" {
		if err := os.Setenv(cloud.EnvConfigFilePrefix, c.configDir); err != nil {
			return err
		}
	}
	if flags.Changed("runtime") || os.Getenv(cloud.EnvConfigRuntime) == "" {
		if err := os.Setenv(cloud.EnvConfigRuntime, c.runtime); err != nil {
			return err
		}
	}

	level := slog.LevelWarn
	if c.verbose {
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(telemetry.NewHandler(cmd.ErrOrStderr(), level, "vidsynth-cli")))

	c.config = cloud.NewConfig()
	return cloud.LoadConfig(c.config)
}
