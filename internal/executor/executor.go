// Package executor runs generated query bundles against a store. The
// translation pipeline never opens connections; everything behind this
// interface is optional at startup.
package executor

import (
	"context"
	"fmt"

	"github.com/crmlens/crmlens/internal/sqlgen"
)

// Result is the rowset from one executed query.
type Result struct {
	Columns []string
	Rows    []map[string]any
}

// Executor is implemented by stores that can run a SQLQuery bundle.
type Executor interface {
	Execute(ctx context.Context, query *sqlgen.SQLQuery) (*Result, error)
	TestConnection(ctx context.Context) error
	Close()
}

// orderedArgs flattens the positional parameter map into driver arguments.
// The generator binds $1..$n contiguously; any gap means a malformed
// bundle and is refused.
func orderedArgs(params map[string]any) ([]any, error) {
	args := make([]any, len(params))
	for i := range args {
		placeholder := fmt.Sprintf("$%d", i+1)
		v, ok := params[placeholder]
		if !ok {
			return nil, fmt.Errorf("parameter map missing %s", placeholder)
		}
		args[i] = v
	}
	return args, nil
}
