package matching

// Result is the outcome of comparing one facet of an expectation. A result
// without reasons is a match.
type Result struct {
	Reasons []string
}

// Match is the result carrying no differences.
var Match = Result{}

func Mismatch(reasons ...string) Result {
	return Result{Reasons: reasons}
}

func (r Result) Matched() bool {
	return len(r.Reasons) == 0
}
