package gemfile

import "fmt"

// GemfileSyntaxError reports a lexing or evaluation failure against a
// specific file/line (spec.md §7), with the chain of files being
// eval_gemfile'd when the error occurred (SPEC_FULL.md §5.2).
type GemfileSyntaxError struct {
	File      string
	Line      int
	Column    int
	Message   string
	EvalChain []string
}

func (e GemfileSyntaxError) Error() string {
	if len(e.EvalChain) == 0 {
		return fmt.Sprintf("gemfile: %s:%d:%d: %s", e.File, e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("gemfile: %s:%d:%d: %s (via %v)", e.File, e.Line, e.Column, e.Message, e.EvalChain)
}

// EvalDepthError is returned when eval_gemfile nests past the bound
// SPEC_FULL.md §5.2 sets (32).
type EvalDepthError struct {
	Max       int
	EvalChain []string
}

func (e EvalDepthError) Error() string {
	return fmt.Sprintf("gemfile: eval_gemfile nesting exceeds %d: %v", e.Max, e.EvalChain)
}
