package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"payego/internal/app"
	"payego/internal/core/apierror"
	"payego/internal/core/forms"
	"payego/internal/shell"
)

var (
	ErrLoginRequired   = errors.New("please log in first: payego login")
	ErrAlreadyLoggedIn = errors.New("already logged in: run 'payego logout' first")
	ErrCancelled       = errors.New("cancelled")
)

// Command represents a CLI command with common functionality
type Command struct {
	Name        string
	Description string
	Usage       string
	Examples    []string
	// Route is the view the command opens. The router's guard decides
	// whether the command may run at all.
	Route string
	Run   func(e *Env, args []string) error
}

// NewFlagSet creates a standardized flag set for a command
func (c *Command) NewFlagSet(e *Env) *flag.FlagSet {
	fs := flag.NewFlagSet(c.Name, flag.ContinueOnError)
	fs.SetOutput(e.Err)
	fs.Usage = func() { c.PrintUsage(e.Err) }
	return fs
}

// PrintUsage prints standardized usage information
func (c *Command) PrintUsage(w io.Writer) {
	fmt.Fprintf(w, "%s\n\n", c.Description)
	fmt.Fprintf(w, "USAGE:\n    %s\n\n", c.Usage)
	if len(c.Examples) > 0 {
		fmt.Fprintf(w, "EXAMPLES:\n")
		for _, example := range c.Examples {
			fmt.Fprintf(w, "    %s\n", example)
		}
	}
}

// Env is what a running command sees.
type Env struct {
	Ctx context.Context
	App *app.App
	Out io.Writer
	Err io.Writer
	in  *bufio.Reader
	cmd *Command
}

// Flags returns a fresh flag set for the running command.
func (e *Env) Flags() *flag.FlagSet {
	return e.cmd.NewFlagSet(e)
}

func (e *Env) Printf(format string, args ...interface{}) {
	fmt.Fprintf(e.Out, format, args...)
}

// Prompt reads one line from stdin.
func (e *Env) Prompt(label string) (string, error) {
	fmt.Fprint(e.Err, label)
	line, err := e.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Confirm asks before a mutation unless yes is set.
func (e *Env) Confirm(yes bool, question string) error {
	if yes {
		return nil
	}
	answer, err := e.Prompt(question + " [y/N]: ")
	if err != nil {
		return ErrCancelled
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return nil
	}
	return ErrCancelled
}

// Open navigates to path and reports where the guard sent us instead.
func (e *Env) Open(path string) error {
	if path == "" {
		return nil
	}
	e.App.Router.Navigate(path)
	switch landed := e.App.Router.Location(); landed {
	case path:
		return nil
	case shell.LoginPath:
		return ErrLoginRequired
	case shell.DashboardPath:
		return ErrAlreadyLoggedIn
	default:
		return fmt.Errorf("cannot open %s", path)
	}
}

// CommandRegistry manages all CLI commands
type CommandRegistry struct {
	commands map[string]*Command
	order    []string
	version  VersionInfo

	// open builds and starts the App for one command run.
	open func(ctx context.Context) (*app.App, error)
	in   io.Reader
	out  io.Writer
	err  io.Writer
}

// VersionInfo holds build-time version information
type VersionInfo struct {
	Version string
	Commit  string
	Date    string
}

// NewCommandRegistry creates a new command registry
func NewCommandRegistry(v VersionInfo, open func(ctx context.Context) (*app.App, error), in io.Reader, out, errOut io.Writer) *CommandRegistry {
	return &CommandRegistry{
		commands: make(map[string]*Command),
		version:  v,
		open:     open,
		in:       in,
		out:      out,
		err:      errOut,
	}
}

// Register adds a command to the registry
func (r *CommandRegistry) Register(cmd *Command) {
	if _, ok := r.commands[cmd.Name]; !ok {
		r.order = append(r.order, cmd.Name)
	}
	r.commands[cmd.Name] = cmd
}

// Execute runs the appropriate command based on args
func (r *CommandRegistry) Execute(ctx context.Context, args []string) error {
	if len(args) < 1 {
		r.PrintHelp(r.out)
		return fmt.Errorf("no command specified")
	}

	cmdName := args[0]

	// Handle special commands
	switch cmdName {
	case "help", "-h", "--help":
		if len(args) > 1 {
			if cmd, ok := r.commands[args[1]]; ok {
				cmd.PrintUsage(r.out)
				return nil
			}
		}
		r.PrintHelp(r.out)
		return nil
	case "version", "--version":
		fmt.Fprintf(r.out, "payego %s (commit %s, built %s)\n", r.version.Version, r.version.Commit, r.version.Date)
		return nil
	}

	cmd, ok := r.commands[cmdName]
	if !ok {
		r.PrintHelp(r.err)
		return fmt.Errorf("unknown command: %s", cmdName)
	}

	a, err := r.open(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	e := &Env{Ctx: ctx, App: a, Out: r.out, Err: r.err, in: bufio.NewReader(r.in), cmd: cmd}
	err = shell.Recover(func() error {
		if err := e.Open(cmd.Route); err != nil {
			return err
		}
		return cmd.Run(e, args[1:])
	})
	if errors.Is(err, flag.ErrHelp) {
		return nil
	}
	return err
}

// PrintHelp prints overall CLI help
func (r *CommandRegistry) PrintHelp(w io.Writer) {
	fmt.Fprintln(w, "payego - wallet client for the Payego API")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "USAGE:")
	fmt.Fprintln(w, "    payego <command> [arguments]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "COMMANDS:")
	for _, name := range r.order {
		cmd := r.commands[name]
		fmt.Fprintf(w, "    %-20s %s\n", cmd.Name, cmd.Description)
	}
	fmt.Fprintf(w, "    %-20s %s\n", "version", "Print version information")
	fmt.Fprintf(w, "    %-20s %s\n", "help", "Show this help or a command's usage")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'payego help <command>' for more information on a command.")
}

// describe renders err for the terminal.
func describe(err error) string {
	var fe forms.FieldErrors
	if errors.As(err, &fe) {
		return fe.Error()
	}
	return apierror.Classify(err)
}

// TableWriter provides simple table formatting
type TableWriter struct {
	headers []string
	rows    [][]string
	widths  []int
}

// NewTableWriter creates a new table writer
func NewTableWriter(headers ...string) *TableWriter {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	return &TableWriter{
		headers: headers,
		widths:  widths,
	}
}

// AddRow adds a row to the table
func (t *TableWriter) AddRow(row ...string) {
	t.rows = append(t.rows, row)
	for i, cell := range row {
		if i < len(t.widths) && len(cell) > t.widths[i] {
			t.widths[i] = len(cell)
		}
	}
}

// Print prints the table with borders
func (t *TableWriter) Print(w io.Writer) {
	t.printSeparator(w, "┌", "┬", "┐")
	t.printRow(w, t.headers)
	t.printSeparator(w, "├", "┼", "┤")
	for _, row := range t.rows {
		t.printRow(w, row)
	}
	t.printSeparator(w, "└", "┴", "┘")
}

func (t *TableWriter) printSeparator(w io.Writer, left, mid, right string) {
	fmt.Fprint(w, left)
	for i, width := range t.widths {
		fmt.Fprint(w, strings.Repeat("─", width+2))
		if i < len(t.widths)-1 {
			fmt.Fprint(w, mid)
		}
	}
	fmt.Fprintln(w, right)
}

func (t *TableWriter) printRow(w io.Writer, row []string) {
	fmt.Fprint(w, "│")
	for i, cell := range row {
		if i < len(t.widths) {
			fmt.Fprintf(w, " %-*s │", t.widths[i], cell)
		}
	}
	fmt.Fprintln(w)
}
