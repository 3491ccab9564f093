package cmd

import (
	"fmt"
	"io"

	"github.com/quantmind-br/tytm/internal/ui"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var completionGenerators = map[string]func(root *cobra.Command, w io.Writer) error{
	"bash": func(root *cobra.Command, w io.Writer) error { return root.GenBashCompletionV2(w, true) },
	"zsh":  func(root *cobra.Command, w io.Writer) error { return root.GenZshCompletion(w) },
	"fish": func(root *cobra.Command, w io.Writer) error { return root.GenFishCompletion(w, true) },
	"powershell": func(root *cobra.Command, w io.Writer) error {
		return root.GenPowerShellCompletionWithDesc(w)
	},
}

// NewCompletionCmd creates the completion command
func NewCompletionCmd(log *zerolog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate a shell completion script for tytm. Theme ids are completed
from the manifest store and the installed themes.

Bash:
  $ source <(tytm completion bash)

Zsh:
  $ tytm completion zsh > "${fpath[1]}/_tytm"

Fish:
  $ tytm completion fish > ~/.config/fish/completions/tytm.fish

PowerShell:
  PS> tytm completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			shell := args[0]
			if err := completionGenerators[shell](cmd.Root(), cmd.OutOrStdout()); err != nil {
				ui.PrintError("failed to generate %s completion: %v", shell, err)
				return fmt.Errorf("generate %s completion: %w", shell, err)
			}

			log.Debug().Str("shell", shell).Msg("generated shell completion")
			return nil
		},
	}

	return cmd
}
