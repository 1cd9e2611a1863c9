// Package main provides the blog command line tool for inspecting, auditing
// and exporting a markdown post directory.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	blog "github.com/goliatone/go-blog"
	"github.com/goliatone/go-blog/internal/di"
	"github.com/goliatone/go-blog/internal/logging"
)

const (
	Version = "0.1.0"
	appName = "blog"
)

var moduleBuilder = blog.New

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd(os.Stdout).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type globalFlags struct {
	configPath string
	contentDir string
	logLevel   string
	logFormat  string
	safeMode   bool
}

// session is the state shared by a single sub-command invocation.
type session struct {
	module *blog.Module
	ctx    context.Context
	out    io.Writer
}

func rootCmd(out io.Writer, opts ...di.Option) *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Inspect and export a markdown blog",
		Long: `blog reads markdown posts with YAML frontmatter from a content
directory and exposes the listings used by page generation: slugs, posts,
categories and featured posts. It can also audit the directory and export
the static paths to render.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(out)

	pf := cmd.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "Config file path (YAML)")
	pf.StringVar(&flags.contentDir, "content-dir", "", "Directory holding <slug>.md post files")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	pf.StringVar(&flags.logFormat, "log-format", "", "Log format for the gologger provider (json, console, pretty)")
	pf.BoolVar(&flags.safeMode, "safe-mode", false, "Drop raw HTML found in post bodies")

	open := func(cmd *cobra.Command, mutate func(*blog.Config)) (*session, error) {
		cfg, err := flags.config(cmd)
		if err != nil {
			return nil, err
		}
		if mutate != nil {
			mutate(&cfg)
		}
		module, err := moduleBuilder(cfg, opts...)
		if err != nil {
			return nil, fmt.Errorf("bootstrap module: %w", err)
		}

		ctx := logging.ContextWithFields(cmd.Context(), map[string]any{
			"run_id": uuid.NewString(),
		})
		module.Container().Logger().WithContext(ctx).Debug("blog.cli.command",
			"command", cmd.CommandPath(),
		)
		return &session{module: module, ctx: ctx, out: cmd.OutOrStdout()}, nil
	}

	cmd.AddCommand(
		slugsCmd(open),
		postCmd(open),
		postsCmd(open),
		categoriesCmd(open),
		categoryCmd(open),
		featuredCmd(open),
		exportCmd(open),
		auditCmd(open),
		watchCmd(open),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, Version)
			},
		},
	)
	return cmd
}

// config loads the configuration file, when given, and applies the flags
// set on the command line over it.
func (f *globalFlags) config(cmd *cobra.Command) (blog.Config, error) {
	cfg := blog.DefaultConfig()
	if f.configPath != "" {
		loaded, err := blog.LoadConfig(f.configPath)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	changed := cmd.Flags().Changed
	if changed("content-dir") {
		cfg.ContentDir = f.contentDir
	}
	if changed("log-level") {
		cfg.Logging.Level = f.logLevel
	}
	if changed("log-format") {
		cfg.Logging.Format = f.logFormat
	}
	if changed("safe-mode") {
		cfg.Markdown.SafeMode = f.safeMode
	}
	return cfg, nil
}
