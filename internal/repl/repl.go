// Package repl is a simple read-eval-print loop. It calls the Consumer to
// do all the eval work.
package repl

import (
	"io"

	"github.com/peterh/liner"
)

type Consumer interface {
	Consume(line string) bool
	Prompt() string
}

// Run executes the REPL until the consumer asks to stop or input ends.
func Run(c Consumer) error {
	l := liner.NewLiner()
	defer l.Close()
	l.SetMultiLineMode(true)
	for {
		line, err := l.Prompt(c.Prompt())
		if err != nil {
			if err == io.EOF || err == liner.ErrPromptAborted {
				return nil
			}
			return err
		}
		if c.Consume(line) {
			return nil
		}
		l.AppendHistory(line)
	}
}
