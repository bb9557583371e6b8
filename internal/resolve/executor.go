package resolve

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"fnpool/internal/errors"
	"fnpool/internal/logging"
)

// Executor evaluates assembled programs in an embedded interpreter with
// the standard library available. Each Run gets a fresh interpreter, so
// concurrent or repeated runs never share state.
type Executor struct {
	logger *slog.Logger
}

// NewExecutor creates an executor.
func NewExecutor(logger *slog.Logger) *Executor {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Executor{logger: logger}
}

// Run evaluates prog in order: imports, declarations, body bindings,
// then the call when one is set. The result is the call's value
// formatted with %v, or "" for a callless program. Any interpreter
// failure surfaces with its cause chain; nothing is caught silently.
func (e *Executor) Run(ctx context.Context, prog *Program) (out string, err error) {
	// The interpreter reports most interpreted panics as errors, but a
	// panic can still escape through reflect.
	defer func() {
		if r := recover(); r != nil {
			err = errors.Newf(errors.ExecutionError, "interpreter panic: %v", r)
		}
	}()

	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return "", errors.New(errors.ExecutionError, "loading interpreter stdlib", err)
	}

	for _, im := range prog.Imports {
		spec := strconv.Quote(im.Path)
		if im.Name != "" {
			spec = im.Name + " " + spec
		}
		if _, err := i.EvalWithContext(ctx, "import "+spec); err != nil {
			return "", errors.New(errors.ExecutionError, "importing "+im.Path, err)
		}
	}
	for _, decl := range prog.Declares {
		if _, err := i.EvalWithContext(ctx, decl); err != nil {
			return "", errors.New(errors.ExecutionError, "declaring the binding environment", err)
		}
	}
	for _, assign := range prog.Assigns {
		if _, err := i.EvalWithContext(ctx, assign); err != nil {
			return "", errors.New(errors.ExecutionError, "binding a function body", err)
		}
	}

	if prog.Call == "" {
		return "", nil
	}
	e.logger.Debug("evaluating call", "expr", prog.Call)
	v, err := i.EvalWithContext(ctx, prog.Call)
	if err != nil {
		return "", errors.New(errors.ExecutionError, "running "+prog.Call, err)
	}
	if !v.IsValid() {
		return "", nil
	}
	return fmt.Sprintf("%v", v), nil
}
