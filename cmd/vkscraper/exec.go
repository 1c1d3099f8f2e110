package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var execFile string

// execCmd represents the exec command
var execCmd = &cobra.Command{
	Use:   "exec [code]",
	Short: "Run a VKScript fragment via the execute method",
	Long: `Run a VKScript code fragment on the VK side via the execute method and
print the raw response payload.

The execute method batches up to 25 API calls in one request; batch
failures arrive as an execute_errors list and go through the same
break/retry/skip classification as ordinary errors.`,
	Example: `  # Inline code
  vkscraper exec 'return API.users.get({"user_ids": "durov"});'

  # Code from a file
  vkscraper exec --file batch.vkscript`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExec,
}

func init() {
	rootCmd.AddCommand(execCmd)

	execCmd.Flags().StringVarP(&execFile, "file", "f", "", "read the VKScript code from a file")
}

func runExec(cmd *cobra.Command, args []string) error {
	var code string
	switch {
	case execFile != "":
		data, err := os.ReadFile(execFile)
		if err != nil {
			return fmt.Errorf("failed to read code file: %w", err)
		}
		code = string(data)
	case len(args) == 1:
		code = args[0]
	default:
		return fmt.Errorf("provide the code as an argument or via --file")
	}

	client, log, err := setup()
	if err != nil {
		return err
	}

	raw, err := client.Execute(context.Background(), code)
	exitOnFatal(log, err)
	if err != nil {
		return err
	}
	if raw == nil {
		log.Warn("execute call skipped")
		return nil
	}

	fmt.Println(string(raw))
	return nil
}
