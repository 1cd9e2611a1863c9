package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	blog "github.com/goliatone/go-blog"
	postscmd "github.com/goliatone/go-blog/internal/commands/posts"
)

type opener func(cmd *cobra.Command, mutate func(*blog.Config)) (*session, error)

func slugsCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "slugs",
		Short: "List the slug of every post file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := open(cmd, nil)
			if err != nil {
				return err
			}
			for _, slug := range s.module.Posts().ListAllSlugs(s.ctx) {
				fmt.Fprintln(s.out, slug)
			}
			return nil
		},
	}
}

func postCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "post <slug>",
		Short: "Print a single rendered post as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := open(cmd, nil)
			if err != nil {
				return err
			}
			post, ok := s.module.Posts().LoadPost(s.ctx, args[0])
			if !ok {
				return fmt.Errorf("post %q: %w", args[0], blog.ErrPostNotFound)
			}
			return writeJSON(s, post)
		},
	}
}

func postsCmd(open opener) *cobra.Command {
	var category, sortBy string
	cmd := &cobra.Command{
		Use:   "posts",
		Short: "List posts, most recent first unless --sort says otherwise",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			option, err := blog.ParseSortOption(sortBy)
			if err != nil {
				return err
			}
			s, err := open(cmd, nil)
			if err != nil {
				return err
			}
			var list []*blog.Post
			if category != "" {
				list, err = s.module.Posts().ListPostsByCategory(s.ctx, category)
			} else {
				list, err = s.module.Posts().ListAllPosts(s.ctx)
			}
			if err != nil {
				return err
			}
			return writePostTable(s, blog.SortPosts(list, option))
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "Only list posts in this category (case-insensitive)")
	addSortFlag(cmd, &sortBy)
	return cmd
}

func categoriesCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List categories with their slugs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := open(cmd, nil)
			if err != nil {
				return err
			}
			categories, err := s.module.Posts().ListAllCategories(s.ctx)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
			for _, name := range categories {
				fmt.Fprintf(tw, "%s\t%s\n", blog.CategoryToSlug(name), name)
			}
			return tw.Flush()
		},
	}
}

func categoryCmd(open opener) *cobra.Command {
	var sortBy string
	cmd := &cobra.Command{
		Use:   "category <slug>",
		Short: "List the posts of a category slug",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			option, err := blog.ParseSortOption(sortBy)
			if err != nil {
				return err
			}
			s, err := open(cmd, nil)
			if err != nil {
				return err
			}
			name, ok := s.module.Posts().ResolveCategory(s.ctx, args[0])
			if !ok {
				return fmt.Errorf("category %q: %w", args[0], errCategoryNotFound)
			}
			list, err := s.module.Posts().ListPostsByCategorySlug(s.ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(s.out, "# %s\n", name)
			return writePostTable(s, blog.SortPosts(list, option))
		},
	}
	addSortFlag(cmd, &sortBy)
	return cmd
}

func featuredCmd(open opener) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "featured",
		Short: "List the most recent posts with a short description",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := open(cmd, nil)
			if err != nil {
				return err
			}
			list, err := s.module.Posts().FeaturedPosts(s.ctx, limit)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
			for _, post := range list {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", post.Slug, post.Title, blog.Excerpt(post, 0))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of posts (defaults to listing.featured_limit)")
	return cmd
}

func exportCmd(open opener) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the post and category slugs static generation must render",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := open(cmd, nil)
			if err != nil {
				return err
			}
			handlers, err := registerHandlers(s)
			if err != nil {
				return err
			}
			return handlers.Export.Execute(s.ctx, postscmd.ExportPathsCommand{OutputPath: output})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", postscmd.StdoutPath, `Output file, "-" for stdout`)
	return cmd
}

func auditCmd(open opener) *cobra.Command {
	var (
		strict bool
		format string
	)
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Check post files for naming and frontmatter defects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := open(cmd, nil)
			if err != nil {
				return err
			}
			handlers, err := registerHandlers(s)
			if err != nil {
				return err
			}
			return handlers.Audit.Execute(s.ctx, postscmd.AuditCommand{Strict: strict, Format: format})
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "Exit with an error when findings are reported")
	cmd.Flags().StringVar(&format, "format", postscmd.FormatText, "Report format (text, json)")
	return cmd
}

func watchCmd(open opener) *cobra.Command {
	var (
		debounce    time.Duration
		metricsAddr string
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the content directory and keep listings fresh until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := open(cmd, func(cfg *blog.Config) {
				cfg.Cache.Enabled = true
				cfg.Watch.Enabled = true
				if debounce > 0 {
					cfg.Watch.Debounce = debounce
				}
				if metricsAddr != "" {
					cfg.Metrics.Enabled = true
				}
			})
			if err != nil {
				return err
			}
			gatherer := s.module.Container().MetricsGatherer()
			if metricsAddr != "" && gatherer == nil {
				return errMetricsUnavailable
			}
			if err := s.module.Start(s.ctx); err != nil {
				return err
			}
			defer s.module.Close()

			logger := s.module.Container().Logger().WithContext(s.ctx)
			if metricsAddr != "" {
				server := &http.Server{
					Addr:              metricsAddr,
					Handler:           promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}),
					ReadHeaderTimeout: 5 * time.Second,
				}
				go func() {
					if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						logger.Error("blog.metrics.serve_failed", "error", err)
					}
				}()
				defer server.Close()
				logger.Info("blog.metrics.listening", "addr", metricsAddr)
			}

			slugs := s.module.Posts().ListAllSlugs(s.ctx)
			logger.Info("blog.watch.ready", "posts", len(slugs))
			<-s.ctx.Done()
			return nil
		},
	}
	cmd.Flags().DurationVar(&debounce, "debounce", 0, "Quiet period before a change is applied (defaults to watch.debounce)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	return cmd
}

func addSortFlag(cmd *cobra.Command, target *string) {
	names := make([]string, len(blog.SortOptions))
	for i, option := range blog.SortOptions {
		names[i] = string(option)
	}
	cmd.Flags().StringVar(target, "sort", string(blog.SortDateDesc), "Listing order ("+strings.Join(names, ", ")+")")
}

var (
	errCategoryNotFound   = errors.New("category not found")
	errMetricsUnavailable = errors.New("metrics registry cannot be gathered")
)

func registerHandlers(s *session) (*postscmd.HandlerSet, error) {
	container := s.module.Container()
	return postscmd.RegisterPostCommands(nil, s.module.Posts(), container.Auditor(), container.LoggerProvider(),
		postscmd.WithOutput(s.out),
	)
}

func writePostTable(s *session, list []*blog.Post) error {
	tw := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	for _, post := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", post.Date, post.Slug, post.Title, post.Category)
	}
	return tw.Flush()
}

func writeJSON(s *session, value any) error {
	encoder := json.NewEncoder(s.out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}
