// Package vkapi provides a retrying client for the VK HTTP API.
//
// VK reports most logical errors inside HTTP-200 JSON bodies, either as an
// execute_errors list for batch calls or as a single top-level error object.
// The client runs two classification passes over every response, deriving an
// effective HTTP status from the error table, and feeds that status to a
// retry loop that either returns, skips, retries with exponential backoff,
// or gives up with a typed fatal error.
//
//	table, err := errtable.Load("api_errors.yaml")
//	client, err := vkapi.New(cfg, table, log)
//
//	ids, err := client.ResolveUserIDs(ctx, []string{"durov"}, nil)
//	if err != nil {
//		if vkapi.IsFatal(err) {
//			log.FatalWithFields("unrecoverable", map[string]interface{}{"error": err.Error()})
//		}
//		return err
//	}
//	if ids == nil {
//		// skip-classified outcome: no result, not an error
//	}
package vkapi
