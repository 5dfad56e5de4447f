package commands

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/jakechorley/mesctl/pkg/clients/mesclient"
)

// InteractiveCmd creates the interactive command
func InteractiveCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "interactive",
		Short: "Start an interactive session (load config once, run multiple commands)",
		Long: `Start an interactive session where you can run multiple commands against the
same backend and session store. The session keeps running until you type 'exit' or 'quit'.

Type 'help' to see available commands.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := app.out()
			fmt.Fprintln(w, "\nStarting interactive session...")
			fmt.Fprintln(w, "Type 'help' for available commands, 'exit' or 'quit' to leave")

			root := cmd.Root()
			commands := replCommands(root)
			in := app.input()

			for {
				fmt.Fprint(w, "mesctl> ")

				line, err := in.ReadString('\n')
				if err != nil && line == "" {
					if errors.Is(err, io.EOF) {
						fmt.Fprintln(w)
						return nil
					}
					return fmt.Errorf("error reading input: %w", err)
				}

				line = strings.TrimSpace(line)
				if line == "" {
					continue
				}

				parts, err := parseCommandLine(line)
				if err != nil {
					fmt.Fprintf(w, "Error parsing command: %v\n\n", err)
					continue
				}
				if len(parts) == 0 {
					continue
				}

				switch parts[0] {
				case "exit", "quit":
					fmt.Fprintln(w, "Goodbye!")
					return nil
				case "help":
					printInteractiveHelp(w, commands)
					continue
				}

				if _, ok := commands[parts[0]]; !ok {
					fmt.Fprintf(w, "Unknown command: %s (type 'help' for available commands)\n\n", parts[0])
					continue
				}

				if err := runInteractive(root, parts); err != nil {
					fmt.Fprintf(w, "%s%s%s\n\n", colorRed, ErrorBanner(err), colorReset)
				}
			}
		},
	}
}

// replCommands returns the top-level commands reachable from the prompt
func replCommands(root *cobra.Command) map[string]*cobra.Command {
	commands := make(map[string]*cobra.Command)
	for _, sub := range root.Commands() {
		switch sub.Name() {
		case "interactive", "completion", "help":
			continue
		}
		commands[sub.Name()] = sub
	}
	return commands
}

// runInteractive resolves a (possibly nested) command and runs its RunE directly,
// so PersistentPreRunE does not set the application up a second time
func runInteractive(root *cobra.Command, parts []string) error {
	target, rest, err := root.Find(parts)
	if err != nil {
		return err
	}

	// Flags keep their values between runs; root flags such as --env stay as set at startup
	target.Flags().VisitAll(func(flag *pflag.Flag) {
		if root.PersistentFlags().Lookup(flag.Name) != nil {
			return
		}
		flag.Changed = false
		if sv, ok := flag.Value.(pflag.SliceValue); ok {
			sv.Replace(nil)
			return
		}
		flag.Value.Set(flag.DefValue)
	})

	if err := target.ParseFlags(rest); err != nil {
		return fmt.Errorf("error parsing flags: %w", err)
	}
	args := target.Flags().Args()

	if target.Args != nil {
		if err := target.Args(target, args); err != nil {
			return err
		}
	}
	if err := target.ValidateRequiredFlags(); err != nil {
		return err
	}

	switch {
	case target.RunE != nil:
		return target.RunE(target, args)
	case target.Run != nil:
		target.Run(target, args)
		return nil
	default:
		return target.Help()
	}
}

// ErrorBanner shows backend failures as their banner message and everything else verbatim
func ErrorBanner(err error) string {
	var apiErr *mesclient.APIError
	if errors.Is(err, mesclient.ErrNetwork) || errors.As(err, &apiErr) {
		return mesclient.UserMessage(err)
	}
	return "Error: " + err.Error()
}

func printInteractiveHelp(w io.Writer, commands map[string]*cobra.Command) {
	fmt.Fprintln(w, "\nAvailable commands:")

	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		cmd := commands[name]
		fmt.Fprintf(w, "  %-30s %s\n", cmd.Use, cmd.Short)
		for _, sub := range cmd.Commands() {
			fmt.Fprintf(w, "    %-28s %s\n", sub.Use, sub.Short)
		}
	}

	fmt.Fprintln(w, "\n  help                           Show this help message")
	fmt.Fprintln(w, "  exit, quit                     Exit the interactive session")
	fmt.Fprintln(w)
}

// parseCommandLine splits a command line into arguments, respecting single and double quotes
func parseCommandLine(line string) ([]string, error) {
	var args []string
	var current strings.Builder
	var inQuote rune
	quoted := false

	for _, r := range line {
		switch {
		case inQuote != 0:
			if r == inQuote {
				inQuote = 0
			} else {
				current.WriteRune(r)
			}
		case r == '"' || r == '\'':
			inQuote = r
			quoted = true
		case unicode.IsSpace(r):
			if current.Len() > 0 || quoted {
				args = append(args, current.String())
				current.Reset()
				quoted = false
			}
		default:
			current.WriteRune(r)
		}
	}

	if inQuote != 0 {
		return nil, fmt.Errorf("unclosed quote: %c", inQuote)
	}
	if current.Len() > 0 || quoted {
		args = append(args, current.String())
	}
	return args, nil
}
