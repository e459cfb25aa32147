package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/sorinm/empirical-lang/backend"
	"github.com/sorinm/empirical-lang/hir"
	"github.com/sorinm/empirical-lang/internal/log"
	"github.com/sorinm/empirical-lang/parser"
	"github.com/sorinm/empirical-lang/sema"
	"github.com/sorinm/empirical-lang/vvm/csvinfer"
)

var RunCmd = &cobra.Command{
	Use:          "run [file.emp]",
	Short:        "Compile an Empirical source file and run its scalar statements",
	RunE:         runRun,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
}

var (
	dumpAST bool
	dumpHIR bool
	verbose bool
)

func init() {
	RunCmd.Flags().BoolVar(&dumpAST, "dump-ast", false, "print the syntax tree")
	RunCmd.Flags().BoolVar(&dumpHIR, "dump-hir", false, "print the typed IR")
	RunCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func runRun(cmd *cobra.Command, args []string) error {
	if verbose {
		log.SetLevel(slog.LevelDebug)
	} else {
		log.SetLevel(slog.LevelError)
	}

	src, err := os.ReadFile(args[0])
	if err != nil {
		return errors.Wrapf(err, "read %s", args[0])
	}
	mod, err := parser.Parse(string(src), false, dumpAST)
	if err != nil {
		return err
	}

	session := backend.NewSession()
	hirMod, err := sema.Analyze(mod, sema.Config{
		DumpHIR:    dumpHIR,
		Eval:       session.Eval,
		InferTable: csvinfer.InferTableFromFile,
	})
	if err != nil {
		return err
	}

	// execute what the backend can; everything else was still type-checked
	for _, s := range hirMod.Body {
		prog, err := backend.Codegen(&hir.Module{Body: []hir.Stmt{s}}, false, false)
		if err != nil {
			continue
		}
		out, err := session.Interpret(prog)
		if err != nil {
			continue
		}
		if out != "" {
			fmt.Println(out)
		}
	}
	return nil
}
