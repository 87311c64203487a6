package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	flag "github.com/spf13/pflag"
)

// Command is one ccount subcommand.
type Command struct {
	// Flags holds the command's own flags. Its name is ignored; the
	// command is named by the first word of Usage.
	Flags *flag.FlagSet

	// Usage follows "ccount" in help, e.g. "my <worker>".
	Usage string

	// Short is the line shown in the command list.
	Short string

	// Long replaces Short in the command's own help.
	Long string

	// Examples are full invocations shown at the end of the command's help.
	Examples []string

	// Exec runs with the arguments left after flag parsing.
	Exec func(ctx context.Context, o *IO, args []string) error
}

// Name returns the first word of Usage.
func (c *Command) Name() string {
	name, _, _ := strings.Cut(c.Usage, " ")

	return name
}

// HelpLine is the command's row in the global help.
func (c *Command) HelpLine() string {
	return fmt.Sprintf("  %-44s %s", c.Usage, c.Short)
}

// PrintHelp prints usage, description, flags and examples to stdout.
func (c *Command) PrintHelp(o *IO) {
	o.Println("Usage: ccount", c.Usage)
	o.Println()

	if c.Long != "" {
		o.Println(c.Long)
	} else {
		o.Println(c.Short)
	}

	if c.Flags.HasFlags() {
		o.Println()
		o.Println("Flags:")
		o.Printf("%s", c.Flags.FlagUsages())
	}

	if len(c.Examples) > 0 {
		o.Println()
		o.Println("Examples:")

		for _, ex := range c.Examples {
			o.Println("  ccount", ex)
		}
	}
}

// Run parses args and executes the command, returning the exit code.
// Errors are printed here so that they always precede the help text.
func (c *Command) Run(ctx context.Context, o *IO, args []string) int {
	c.Flags.SetOutput(&strings.Builder{})

	err := c.Flags.Parse(args)
	switch {
	case errors.Is(err, flag.ErrHelp):
		c.PrintHelp(o)

		return 0
	case err != nil:
		o.Error(err)
		o.ErrPrintln()
		c.PrintHelp(o)

		return 1
	}

	err = c.Exec(ctx, o, c.Flags.Args())
	if err != nil {
		o.Error(err)

		return 1
	}

	return 0
}
