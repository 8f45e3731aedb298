package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/okian/padflow/internal/adapters/loader"
	"github.com/okian/padflow/internal/config"
	"github.com/okian/padflow/internal/domain/model"
	"github.com/okian/padflow/internal/domain/solver"
	"github.com/okian/padflow/pkg/logger"
)

// inputFlags are shared by commands that solve a take.
type inputFlags struct {
	Sections  string
	Overrides string
	Request   string
}

func (in *inputFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&in.Sections, "sections", "s", "", "section map file (JSON or YAML)")
	cmd.Flags().StringVarP(&in.Overrides, "overrides", "o", "", "manual assignments keyed by event index (JSON or YAML)")
	cmd.Flags().StringVarP(&in.Request, "request", "r", "", "complete solve request file; replaces the other inputs")
}

// load assembles a request from a request file, or from a performance
// argument plus the sections and overrides flags.
func (in *inputFlags) load(args []string) (model.SolveRequest, error) {
	if in.Request != "" {
		if len(args) > 0 {
			return model.SolveRequest{}, NewExitError(ExitCommandError, "--request cannot be combined with a performance file")
		}
		req, err := loader.LoadRequest(in.Request)
		if err != nil {
			return req, WrapExitError(ExitCommandError, "load request", err)
		}
		return req, nil
	}

	if len(args) != 1 {
		return model.SolveRequest{}, NewExitError(ExitCommandError, "expected one performance file")
	}
	if in.Sections == "" {
		return model.SolveRequest{}, NewExitError(ExitCommandError, "--sections is required with a performance file")
	}

	var (
		req model.SolveRequest
		err error
	)
	if req.Performance, err = loader.LoadPerformance(args[0]); err != nil {
		return req, WrapExitError(ExitCommandError, "load performance", err)
	}
	if req.Sections, err = loader.LoadSections(in.Sections); err != nil {
		return req, WrapExitError(ExitCommandError, "load sections", err)
	}
	if in.Overrides != "" {
		if req.Overrides, err = loader.LoadOverrides(in.Overrides); err != nil {
			return req, WrapExitError(ExitCommandError, "load overrides", err)
		}
	}
	return req, nil
}

// solve runs req with the engine tuning from the configuration.
func solve(ctx context.Context, opts *RootOptions, req model.SolveRequest) (model.EngineResult, error) {
	cfg, err := config.Load(ctx, opts.Config)
	if err != nil {
		return model.EngineResult{}, WrapExitError(ExitCommandError, "load config", err)
	}
	constants, err := cfg.Engine.Constants()
	if err != nil {
		return model.EngineResult{}, WrapExitError(ExitCommandError, "engine config", err)
	}
	s, err := solver.New(req.Sections,
		solver.WithConstants(constants),
		solver.WithLogger(logger.Named("solver")),
	)
	if err != nil {
		return model.EngineResult{}, WrapExitError(ExitCommandError, "invalid sections", err)
	}
	res, err := s.Solve(ctx, req.Performance, req.Overrides)
	if err != nil {
		return model.EngineResult{}, WrapExitError(ExitCommandError, "invalid performance", err)
	}
	return res, nil
}
