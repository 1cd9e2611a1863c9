package logging

import (
	"context"
	"strings"

	"github.com/goliatone/go-blog/pkg/interfaces"
)

const (
	rootModule     = "blog"
	postsModule    = "blog.posts"
	markdownModule = "blog.markdown"
	watchModule    = "blog.watch"
	commandsModule = "blog.commands"
	auditModule    = "blog.audit"
)

const (
	fieldPostSlug     = "slug"
	fieldCategory     = "category"
	fieldContentRoot  = "content_dir"
	fieldModuleMarker = "module"
)

// ModuleLogger returns a module-scoped logger, defaulting to a no-op
// implementation when no provider is supplied. The module identifier is
// attached as the "module" field.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if module == "" {
		module = rootModule
	}

	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}

	return WithFields(logger, map[string]any{
		fieldModuleMarker: module,
	})
}

// PostsLogger returns the logger namespace reserved for the post repository.
func PostsLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, postsModule)
}

// MarkdownLogger returns the logger namespace reserved for markdown rendering.
func MarkdownLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, markdownModule)
}

// WatchLogger returns the logger namespace reserved for the content watcher.
func WatchLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, watchModule)
}

// CommandsLogger returns the logger namespace reserved for command handlers.
func CommandsLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, commandsModule)
}

// AuditLogger returns the logger namespace reserved for content audits.
func AuditLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, auditModule)
}

// WithPostContext enriches logger with the post slug and category. Empty
// values are ignored.
func WithPostContext(logger interfaces.Logger, slug, category string) interfaces.Logger {
	fields := map[string]any{}
	if trimmed := strings.TrimSpace(slug); trimmed != "" {
		fields[fieldPostSlug] = trimmed
	}
	if trimmed := strings.TrimSpace(category); trimmed != "" {
		fields[fieldCategory] = trimmed
	}
	return WithFields(logger, fields)
}

// WithContentRoot annotates logger with the content directory being served.
func WithContentRoot(logger interfaces.Logger, dir string) interfaces.Logger {
	if strings.TrimSpace(dir) == "" {
		return logger
	}
	return WithFields(logger, map[string]any{fieldContentRoot: dir})
}

// NoOp returns a logger that drops every log entry.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var _ interfaces.Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger {
	return n
}

func (n noopLogger) WithContext(context.Context) interfaces.Logger {
	return n
}
