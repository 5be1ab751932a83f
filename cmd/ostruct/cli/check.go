package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	ostruct "github.com/yaniv-golan/ostruct-go"
)

var checkResolve bool

var checkCmd = &cobra.Command{
	Use:   "check <path>...",
	Short: "Check paths against the trust boundary",
	Long: `Check validates each path without attaching it and reports the outcome.

The exit status is nonzero when any path is rejected, so check works as a
pre-flight gate in scripts.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().BoolVar(&checkResolve, "resolve", false, "Print the fully resolved path instead of the validated one")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	sec := client.Security()

	ok := color.New(color.FgGreen).SprintFunc()
	bad := color.New(color.FgRed).SprintFunc()

	failed := 0
	for _, path := range args {
		var resolved string
		var checkErr error
		if checkResolve {
			resolved, checkErr = sec.ResolvePath(path)
		} else {
			resolved, checkErr = sec.ValidatePath(path)
		}
		if checkErr != nil {
			failed++
			reason := ostruct.ReasonOf(checkErr)
			if reason == "" {
				reason = "ERROR"
			}
			fmt.Fprintf(os.Stderr, "%s %s: %s\n", bad("deny"), path, reason)
			continue
		}
		fmt.Printf("%s %s -> %s\n", ok("allow"), path, resolved)
	}

	if failed > 0 {
		cmd.SilenceUsage = true
		return fmt.Errorf("%d of %d path(s) rejected", failed, len(args))
	}
	return nil
}
