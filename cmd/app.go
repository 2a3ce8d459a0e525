// Package cmd implements the CLI application to compute crypto taxes.
package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/etnz/cryptotax"
	"github.com/google/subcommands"
)

// Commands lists the subcommands.
// A main package registers them all and executes the user-selected one.
var Commands = []subcommands.Command{
	&enrichCmd{},
	&taxCmd{},
	&positionsCmd{},
	&rewardsCmd{},
	&spendingCmd{},
}

// DecodeLedger loads and parses the ledger file given on the command line.
func DecodeLedger(path string) (*cryptotax.Ledger, error) {
	if path == "" {
		return nil, fmt.Errorf("missing ledger file, use -l <file.csv>")
	}
	return cryptotax.DecodeLedger(path)
}

// printMarkdown renders markdown for the terminal, falling back to the raw
// text when the terminal renderer is not available.
func printMarkdown(md string) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(120),
	)
	if err != nil {
		fmt.Print(md)
		return
	}
	out, err := r.Render(md)
	if err != nil {
		fmt.Print(md)
		return
	}
	fmt.Print(out)
}

// render prints markdown, raw or glamourized.
func render(md string, raw bool) {
	if raw {
		fmt.Print(md)
		return
	}
	printMarkdown(md)
}

func fail(format string, args ...interface{}) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	return subcommands.ExitFailure
}
