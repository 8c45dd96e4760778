package resolve

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// ErrNoAnswer is returned when input ends before a question is answered.
var ErrNoAnswer = errors.New("no answer: input closed")

// Prompter asks the operator questions. Calls block until answered.
type Prompter interface {
	// Ask shows question and returns the trimmed answer.
	Ask(question string) (string, error)
	// Choose lists options and returns the index picked, or -1 when the
	// operator declines all of them.
	Choose(question string, options []string) (int, error)
}

// TerminalPrompter reads answers line by line.
type TerminalPrompter struct {
	in  *bufio.Reader
	out io.Writer
	fd  int
}

// NewTerminalPrompter prompts on out and reads answers from in.
func NewTerminalPrompter(in io.Reader, out io.Writer) *TerminalPrompter {
	p := &TerminalPrompter{in: bufio.NewReader(in), out: out, fd: -1}
	if f, ok := in.(*os.File); ok {
		p.fd = int(f.Fd())
	}

	return p
}

// Interactive reports whether f is a terminal an operator can answer on.
func Interactive(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Ask implements Prompter.
func (p *TerminalPrompter) Ask(question string) (string, error) {
	fmt.Fprint(p.out, question)

	line, err := p.in.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		if errors.Is(err, io.EOF) {
			return "", ErrNoAnswer
		}

		return "", fmt.Errorf("read answer: %w", err)
	}

	return strings.TrimSpace(line), nil
}

// Choose implements Prompter. Options are numbered from 1; "n" or an empty
// answer declines. Anything else is asked again.
func (p *TerminalPrompter) Choose(question string, options []string) (int, error) {
	var b strings.Builder

	b.WriteString(question)
	b.WriteString("\n")

	for i, o := range options {
		fmt.Fprintf(&b, "  %d) %s\n", i+1, o)
	}

	fmt.Fprintf(&b, "Pick 1-%d, or n for none: ", len(options))

	for {
		answer, err := p.Ask(b.String())
		if err != nil {
			return -1, err
		}

		if answer == "" || strings.EqualFold(answer, "n") {
			return -1, nil
		}

		n, err := strconv.Atoi(answer)
		if err == nil && n >= 1 && n <= len(options) {
			return n - 1, nil
		}

		fmt.Fprintf(p.out, "Invalid choice %q\n", answer)
	}
}

// Secret asks for a value without echoing it when the input is a terminal.
func (p *TerminalPrompter) Secret(question string) (string, error) {
	if p.fd < 0 || !term.IsTerminal(p.fd) {
		return p.Ask(question)
	}

	fmt.Fprint(p.out, question)

	b, err := term.ReadPassword(p.fd)
	fmt.Fprintln(p.out)

	if err != nil {
		return "", fmt.Errorf("read secret: %w", err)
	}

	return strings.TrimSpace(string(b)), nil
}
