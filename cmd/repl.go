package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sorinm/empirical-lang/backend"
	"github.com/sorinm/empirical-lang/internal/log"
	"github.com/sorinm/empirical-lang/internal/repl"
	"github.com/sorinm/empirical-lang/parser"
	"github.com/sorinm/empirical-lang/sema"
	"github.com/sorinm/empirical-lang/vvm/csvinfer"
)

var ReplCmd = &cobra.Command{
	Use:          "repl",
	Short:        "Start an interactive session",
	RunE:         runRepl,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
}

func runRepl(cmd *cobra.Command, args []string) error {
	log.SetLevel(slog.LevelError)
	session := backend.NewSession()
	analyzer := sema.NewAnalyzer(sema.Config{
		Interactive: true,
		Eval:        session.Eval,
		InferTable:  csvinfer.InferTableFromFile,
	})
	return repl.Run(&consumer{analyzer: analyzer, session: session})
}

// consumer wires one REPL line through parse, sema, and the backend. The
// analyzer and interpreter session persist so definitions accumulate.
type consumer struct {
	analyzer *sema.Analyzer
	session  *backend.Session
}

func (c *consumer) Prompt() string {
	return ">>> "
}

func (c *consumer) Consume(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "exit" || trimmed == "quit" {
		return true
	}
	if trimmed == "" {
		return false
	}
	mod, err := parser.Parse(line, true, false)
	if err != nil {
		fmt.Println(err)
		return false
	}
	hirMod, err := c.analyzer.Analyze(mod)
	if err != nil {
		fmt.Println(err)
		return false
	}
	out, err := c.session.Eval(hirMod)
	if err == nil && out != "" {
		fmt.Println(out)
	}
	return false
}
