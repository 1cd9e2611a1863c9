package postscmd

import (
	"errors"
	"io"

	"github.com/goliatone/go-blog/internal/commands"
	"github.com/goliatone/go-blog/internal/logging"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

// CommandRegistry is the minimal registration contract expected when wiring command handlers.
type CommandRegistry interface {
	RegisterCommand(handler any) error
}

// HandlerSet groups the handlers built by RegisterPostCommands.
type HandlerSet struct {
	Export *ExportPathsHandler
	Audit  *AuditHandler
}

// Option customises handler wiring during registration.
type Option func(*options)

type options struct {
	out        io.Writer
	exportOpts []commands.HandlerOption[ExportPathsCommand]
	auditOpts  []commands.HandlerOption[AuditCommand]
}

// WithOutput sets the writer used for stdout exports and audit reports.
func WithOutput(out io.Writer) Option {
	return func(cfg *options) {
		cfg.out = out
	}
}

// WithExportHandlerOptions forwards options to the ExportPathsHandler constructor.
func WithExportHandlerOptions(opts ...commands.HandlerOption[ExportPathsCommand]) Option {
	return func(cfg *options) {
		cfg.exportOpts = append(cfg.exportOpts, opts...)
	}
}

// WithAuditHandlerOptions forwards options to the AuditHandler constructor.
func WithAuditHandlerOptions(opts ...commands.HandlerOption[AuditCommand]) Option {
	return func(cfg *options) {
		cfg.auditOpts = append(cfg.auditOpts, opts...)
	}
}

// RegisterPostCommands builds the post command handlers and registers them
// with reg when it is not nil.
func RegisterPostCommands(reg CommandRegistry, repo interfaces.PostRepository, runner AuditRunner, provider interfaces.LoggerProvider, opts ...Option) (*HandlerSet, error) {
	if repo == nil {
		return nil, errors.New("post command registration: repository is nil")
	}
	if runner == nil {
		return nil, errors.New("post command registration: audit runner is nil")
	}

	cfg := options{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	logger := logging.CommandsLogger(provider)
	set := &HandlerSet{
		Export: NewExportPathsHandler(repo, logger, cfg.out, cfg.exportOpts...),
		Audit:  NewAuditHandler(runner, logger, cfg.out, cfg.auditOpts...),
	}

	if reg != nil {
		if err := reg.RegisterCommand(set.Export); err != nil {
			return nil, err
		}
		if err := reg.RegisterCommand(set.Audit); err != nil {
			return nil, err
		}
	}
	return set, nil
}
