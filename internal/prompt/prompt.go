// Package prompt reads answers to console questions.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
)

// Prompter wraps an input scanner and output writer for interactive prompts.
// Inject a custom reader/writer for tests.
type Prompter struct {
	scanner *bufio.Scanner
	out     io.Writer
}

// New creates a Prompter using stdin/stdout.
func New() *Prompter {
	return NewFromReader(os.Stdin, os.Stdout)
}

// NewFromReader creates a Prompter with custom reader/writer.
func NewFromReader(r io.Reader, w io.Writer) *Prompter {
	return &Prompter{
		scanner: bufio.NewScanner(r),
		out:     w,
	}
}

// Out is the writer prompts are printed to.
func (p *Prompter) Out() io.Writer { return p.out }

// Ask prints prompt and returns the trimmed answer. It returns io.EOF once
// the input is exhausted.
func (p *Prompter) Ask(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	if !p.scanner.Scan() {
		if err := p.scanner.Err(); err != nil {
			return "", fmt.Errorf("read answer: %w", err)
		}
		return "", io.EOF
	}
	return strings.TrimSpace(p.scanner.Text()), nil
}

// Choice is a question whose answer must be one of Allowed.
type Choice struct {
	Prompt  string
	Invalid string
	Retry   string
	Allowed []string
}

// Choose asks c.Prompt and keeps asking c.Retry, after printing c.Invalid,
// until the answer is one of c.Allowed. There is no attempt limit.
func (p *Prompter) Choose(c Choice) (string, error) {
	answer, err := p.Ask(c.Prompt)
	for err == nil && !slices.Contains(c.Allowed, answer) {
		fmt.Fprintln(p.out, c.Invalid)
		answer, err = p.Ask(c.Retry)
	}
	return answer, err
}
