package main

import (
	"github.com/spf13/cobra"

	"repomap/internal/hooks"
)

var hooksNotify bool

var hooksCmd = &cobra.Command{
	Use:   "hooks",
	Short: "Manage the git hooks that keep the map fresh",
}

var hooksInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Install post-merge and post-checkout hooks",
	Long: `Adds a marked section to the repository's post-merge and
post-checkout hooks that reruns 'repomap generate' when the update
touched C# files. Existing hook scripts are preserved.`,
	RunE: runHooksInstall,
}

var hooksUninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove the installed hooks",
	RunE:  runHooksUninstall,
}

func init() {
	hooksInstallCmd.Flags().BoolVar(&hooksNotify, "notify", true, "Post a desktop notification when a hook regenerates the map")
	hooksCmd.AddCommand(hooksInstallCmd)
	hooksCmd.AddCommand(hooksUninstallCmd)
	rootCmd.AddCommand(hooksCmd)
}

// HooksResult reports which hooks an action touched.
type HooksResult struct {
	Action string   `json:"action"`
	Hooks  []string `json:"hooks"`
}

func runHooksInstall(cmd *cobra.Command, args []string) error {
	root, err := projectRoot()
	if err != nil {
		return err
	}
	if err := hooks.Install(root, hooksNotify, newLogger()); err != nil {
		return err
	}
	return printResult(&HooksResult{Action: "install", Hooks: hooks.Names()})
}

func runHooksUninstall(cmd *cobra.Command, args []string) error {
	root, err := projectRoot()
	if err != nil {
		return err
	}
	if err := hooks.Uninstall(root, newLogger()); err != nil {
		return err
	}
	return printResult(&HooksResult{Action: "uninstall", Hooks: hooks.Names()})
}
