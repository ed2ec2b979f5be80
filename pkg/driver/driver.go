// Package driver sequences the CPS and C calling-convention transforms into
// the single pipeline described by spec.md §4.4: typecheck the input,
// convert every Source-convention function to continuation-passing style,
// bridge the Target-convention callers left referencing it, typecheck the
// intermediate module, apply the C calling-convention rewrite, and
// typecheck the result.
package driver

import (
	"fmt"

	"github.com/raymyers/ralph-cc/pkg/cconv"
	"github.com/raymyers/ralph-cc/pkg/cps"
	"github.com/raymyers/ralph-cc/pkg/ir"
	"github.com/raymyers/ralph-cc/pkg/typecheck"
)

// Stage names a point in the pipeline, attached to errors so callers can
// tell which transform rejected a module.
type Stage string

const (
	StageInputCheck  Stage = "input-typecheck"
	StageCPS         Stage = "cps.Transform"
	StageBridge      Stage = "cps.BridgeTargetCallers"
	StageBridgeCheck Stage = "bridge-typecheck"
	StageCConv       Stage = "cconv.Transform"
)

// Error reports which pipeline stage failed and wraps its underlying error.
type Error struct {
	Stage Stage
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Stage, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Run applies the full pipeline to module, producing a module with no
// Source-convention functions remaining and no memory-returning
// Target-convention signatures. finalResultType is the result type every
// synthesized continuation ultimately returns (spec.md §4.2); wordBytes is
// the target machine word size in bytes (4 or 8).
func Run(module *ir.Module, finalResultType ir.Type, wordBytes int) (*ir.Module, *Error) {
	if err := typecheck.Check(module); err != nil {
		return nil, &Error{Stage: StageInputCheck, Err: err}
	}

	afterCPS, err := cps.Transform(module, finalResultType)
	if err != nil {
		return nil, &Error{Stage: StageCPS, Err: err}
	}

	afterBridge, err := cps.BridgeTargetCallers(afterCPS, finalResultType)
	if err != nil {
		return nil, &Error{Stage: StageBridge, Err: err}
	}

	if tcErr := typecheck.Check(afterBridge); tcErr != nil {
		return nil, &Error{Stage: StageBridgeCheck, Err: tcErr}
	}

	result, ccErr := cconv.Transform(afterBridge, wordBytes)
	if ccErr != nil {
		return nil, &Error{Stage: StageCConv, Err: ccErr}
	}

	return result, nil
}
