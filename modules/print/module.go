// Package print writes the threaded input of a step to an output stream.
package print

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/specialistvlad/chainrunner/internal/ctxlog"
	"github.com/specialistvlad/chainrunner/internal/ctyconv"
	"github.com/specialistvlad/chainrunner/internal/module"
	"github.com/specialistvlad/chainrunner/internal/registry"
)

// Name is the identifier the module is registered under.
const Name = "print"

// Module implements the registry.Module interface for this package.
type Module struct {
	// Out receives the printed lines. Nil means os.Stdout.
	Out io.Writer
}

// Printer prints its input and returns it unchanged, so it can sit in the
// middle of a chain without breaking the data flow.
type Printer struct {
	out      io.Writer
	prefix   string
	settings module.Settings
}

// Run prints the input. Maps are printed one sorted key per line.
func (p *Printer) Run(ctx context.Context) (module.Result, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Printing input", "function", p.settings.Function)

	input := ctyconv.ForLogs(p.settings.Input)
	if p.prefix != "" {
		fmt.Fprintln(p.out, p.prefix)
	}

	switch v := input.(type) {
	case nil:
		fmt.Fprintln(p.out, "      (null)")
	case map[string]any:
		printMap(p.out, v)
	case map[string]string:
		m := make(map[string]any, len(v))
		for k, s := range v {
			m[k] = s
		}
		printMap(p.out, m)
	default:
		fmt.Fprintf(p.out, "      %v\n", v)
	}

	return p.settings.Input, nil
}

func printMap(w io.Writer, m map[string]any) {
	if len(m) == 0 {
		fmt.Fprintln(w, "      (empty)")
		return
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "      %s = %q\n", k, fmt.Sprint(m[k]))
	}
}

func (m *Module) factory(_ string, args module.Arguments) (any, error) {
	prefix, err := args.Settings.StringArg("prefix", "")
	if err != nil {
		return nil, err
	}
	out := m.Out
	if out == nil {
		out = os.Stdout
	}
	return &Printer{out: out, prefix: prefix, settings: args.Settings}, nil
}

// Register registers the module with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.Register(Name, m.factory)
}
