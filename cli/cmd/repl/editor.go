package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
)

const defaultEditor = "vi"

// editCommand implements [tea.ExecCommand]. It writes the root scope in IPML
// syntax to a temporary file, opens $EDITOR on it and reloads the session
// from the result. On error the user may edit again; declining ends the
// program.
type editCommand struct {
	session   *session
	ctxFunc   func() context.Context
	cancelled bool   // the user emptied the file
	output    string // print output of the reloaded source
	stdin     io.Reader
	stdout    io.Writer
	stderr    io.Writer
}

func (c *editCommand) SetStdin(r io.Reader)  { c.stdin = r }
func (c *editCommand) SetStdout(w io.Writer) { c.stdout = w }
func (c *editCommand) SetStderr(w io.Writer) { c.stderr = w }

// Run executes the edit-reload-retry loop.
func (c *editCommand) Run() error {
	ctx := c.ctxFunc()

	content, err := c.session.source(ctx)
	if err != nil {
		return fmt.Errorf("format scope: %w", err)
	}

	f, err := os.CreateTemp("", "ipml-repl-*.ipml")
	if err != nil {
		return err
	}

	path := f.Name()

	defer os.Remove(path)

	if err := f.Close(); err != nil {
		return err
	}

	for {
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			return err
		}

		if err := runEditor(ctx, c.stdin, c.stdout, c.stderr, path); err != nil {
			return err
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		if strings.TrimSpace(string(data)) == "" {
			c.cancelled = true

			return nil
		}

		out, loadErr := c.session.load(ctx, string(data))

		c.session.cfg.Logger.TraceContext(ctx, "editor reload",
			slog.Int("content_length", len(data)),
			slog.Bool("success", loadErr == nil),
		)

		if loadErr == nil {
			c.output = out

			return nil
		}

		fmt.Fprintf(c.stderr, "\nError: %s\n", loadErr)
		fmt.Fprint(c.stdout, "Re-edit? [Y/n] ")

		scanner := bufio.NewScanner(c.stdin)
		if !scanner.Scan() {
			return ErrEditDeclined
		}

		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "n", "no":
			return ErrEditDeclined
		}

		content = string(data)
	}
}

// runEditor runs $EDITOR, or vi, on path attached to the given streams.
func runEditor(
	ctx context.Context,
	stdin io.Reader,
	stdout, stderr io.Writer,
	path string,
) error {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = defaultEditor
	}

	cmd := exec.CommandContext(ctx, editor, path)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	return cmd.Run()
}
