package repairer

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// ConfirmQuestion is shown before the cleaned file is written.
const ConfirmQuestion = "Would you like to save the cleaned file? (y/n): "

type consolePrompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewConsolePrompter reads answers from in and writes questions to out.
func NewConsolePrompter(in io.Reader, out io.Writer) Prompter {
	return &consolePrompter{in: bufio.NewReader(in), out: out}
}

// Confirm accepts only "y" (any case, surrounding spaces ignored).
func (p *consolePrompter) Confirm(ctx context.Context, question string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if _, err := fmt.Fprint(p.out, question); err != nil {
		return false, err
	}
	line, err := p.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("read answer: %w", err)
	}
	return IsYes(line), nil
}

// IsYes reports whether answer is an affirmative "y".
func IsYes(answer string) bool {
	return strings.ToLower(strings.TrimSpace(answer)) == "y"
}
