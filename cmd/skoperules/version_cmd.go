package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

const (
	// VersionMajor is the major number in skoperules' version
	VersionMajor = 0
	// VersionMinor is the minor number in skoperules' version
	VersionMinor = 1
	// VersionPatch is the patch number in skoperules' version
	VersionPatch = 0
)

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of skoperules",
		Long:  `All software has versions. This is skoperules'`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "skoperules v%d.%d.%d\n", VersionMajor, VersionMinor, VersionPatch)
		},
	}
}
