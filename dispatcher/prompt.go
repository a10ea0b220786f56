package dispatcher

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// Prompter asks the operator for one line of input. It returns io.EOF once input is
// exhausted.
type Prompter interface {
	Prompt(ctx context.Context, label string) (string, error)
}

// LinePrompter writes the label to W and reads one newline-terminated line from R.
// Reads run in a background goroutine so a cancelled context unblocks Prompt at once;
// a line that arrives afterwards is handed to the next Prompt.
type LinePrompter struct {
	r       *bufio.Reader
	w       io.Writer
	pending chan lineResult // non-nil while a read is outstanding
}

type lineResult struct {
	line string
	err  error
}

func NewLinePrompter(r io.Reader, w io.Writer) *LinePrompter {
	return &LinePrompter{r: bufio.NewReader(r), w: w}
}

func (p *LinePrompter) Prompt(ctx context.Context, label string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if label != "" {
		fmt.Fprint(p.w, label)
	}

	if p.pending == nil {
		ch := make(chan lineResult, 1)
		p.pending = ch
		go func() {
			line, err := p.readLine()
			ch <- lineResult{line: line, err: err}
		}()
	}

	select {
	case res := <-p.pending:
		p.pending = nil
		if err := ctx.Err(); err != nil {
			return "", err
		}
		return res.line, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (p *LinePrompter) readLine() (string, error) {
	line, err := p.r.ReadString('\n')
	if err != nil {
		// a final line without a trailing newline still counts
		if err == io.EOF && line != "" {
			return strings.TrimRight(line, "\r"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// PromptUntilValid asks for label until parse accepts the answer, printing retry to out
// after every rejected attempt. Only a Prompter failure ends the loop early.
func PromptUntilValid[T any](ctx context.Context, p Prompter, out io.Writer, label string, parse func(string) (T, error), retry string) (T, error) {
	for {
		line, err := p.Prompt(ctx, label)
		if err != nil {
			var zero T
			return zero, err
		}
		v, err := parse(line)
		if err == nil {
			return v, nil
		}
		fmt.Fprintln(out, retry)
	}
}
