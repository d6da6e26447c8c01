package root

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"habitquest/internal/ui"
)

const Version = "0.1.0"

var configPath string

var rootCmd = &cobra.Command{
	Use:           "hq",
	Short:         "habitquest — habit tracker with RPG progression",
	Long:          "habitquest is a local-first CLI/TUI habit tracker. Completing tasks earns XP, levels, streaks and badges; progress syncs to a remote store when one is configured.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("{{.Name}} v{{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.habitquest/config.toml)")

	rootCmd.AddCommand(
		newLoginCmd(),
		newLogoutCmd(),
		newStatusCmd(),
		newBadgesCmd(),
		newTaskCmd(),
		newDoCmd(),
		newFailCmd(),
		newCategoryCmd(),
		newItemCmd(),
		newBattleCmd(),
		newMissionCmd(),
		newAllianceCmd(),
		newCalendarCmd(),
		newSyncCmd(),
		newAccountCmd(),
		newEnvCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.Bad.Render(ui.IconError+" "+err.Error()))
		os.Exit(1)
	}
}
