package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var friendsFields string

// friendsCmd represents the friends command
var friendsCmd = &cobra.Command{
	Use:   "friends <screen-name>...",
	Short: "Fetch the friend lists of VK users",
	Long: `Resolve one or more screen names to numeric user ids, then fetch each
user's friend list.

Users whose errors the table classifies as skip (deleted pages, private
profiles) are silently omitted from the output.`,
	Example: `  # Friends of a single user
  vkscraper friends durov

  # Several users at once
  vkscraper friends durov some_other_user`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFriends,
}

func init() {
	rootCmd.AddCommand(friendsCmd)

	friendsCmd.Flags().StringVar(&friendsFields, "fields", "", "extra comma-separated profile fields to request")
}

func runFriends(cmd *cobra.Command, args []string) error {
	client, log, err := setup()
	if err != nil {
		return err
	}

	ctx := context.Background()

	var extra map[string]string
	if friendsFields != "" {
		extra = map[string]string{"fields": friendsFields}
	}

	ids, err := client.ResolveUserIDs(ctx, args, nil)
	exitOnFatal(log, err)
	if err != nil {
		return err
	}
	if ids == nil {
		log.WarnWithFields("screen names skipped", map[string]interface{}{
			"screen_names": strings.Join(args, ","),
		})
		return nil
	}

	for _, id := range ids {
		friends, err := client.GetFriends(ctx, id, extra)
		exitOnFatal(log, err)
		if err != nil {
			return err
		}
		if friends == nil {
			continue
		}

		parts := make([]string, len(friends))
		for i, friend := range friends {
			parts[i] = fmt.Sprintf("%d", friend)
		}
		fmt.Printf("%d: %s\n", id, strings.Join(parts, ","))
	}

	return nil
}
