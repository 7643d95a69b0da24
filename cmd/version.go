package cmd

import (
	"encoding/json"
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/cosmos/ics20-harness/internal/harnessdebug"
)

var (
	// Version defines the application version (defined at compile time)
	Version = ""
	Commit  = ""
)

type versionInfo struct {
	Version string `json:"version" yaml:"version"`
	Commit  string `json:"commit" yaml:"commit"`
	IBCGo   string `json:"ibc-go" yaml:"ibc-go"`
	Go      string `json:"go" yaml:"go"`
}

func versionCmd(a *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "version",
		Aliases: []string{"v"},
		Short:   "Print the harness version info",
		Args:    withUsage(cobra.NoArgs),
		Example: strings.TrimSpace(fmt.Sprintf(`
$ %s version --json
$ %s v`,
			appName, appName,
		)),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsn, err := cmd.Flags().GetBool(flagJSON)
			if err != nil {
				return err
			}

			commit := Commit
			if commit == "" {
				commit = harnessdebug.BuildCommit()
			}
			ibcGo := harnessdebug.DependencyVersion("github.com/cosmos/ibc-go/v3")
			if ibcGo == "" {
				ibcGo = "(unable to determine)"
			}

			verInfo := versionInfo{
				Version: Version,
				Commit:  commit,
				IBCGo:   ibcGo,
				Go:      fmt.Sprintf("%s %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH),
			}

			var bz []byte
			if jsn {
				bz, err = json.Marshal(verInfo)
			} else {
				bz, err = yaml.Marshal(&verInfo)
			}

			fmt.Fprintln(cmd.OutOrStdout(), string(bz))
			return err
		},
	}

	return jsonFlag(a, cmd)
}
