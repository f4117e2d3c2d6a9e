// Package budgetsdk is a client for the Budgetwise REST API.
//
// Every request carries the bearer token currently held by the credential
// source, if any. The API is the authority on whether that token is still
// good: a 401 from any endpoint clears the credential source, asks the
// Navigator to send the user to the login page, and only then returns an
// error matching ErrUnauthorized to the caller.
//
// Basic usage:
//
//	client, err := budgetsdk.NewClient(budgetsdk.Config{
//		BaseURL:     "http://localhost:5000/api",
//		Credentials: creds,
//		Navigator:   budgetsdk.NavigatorFunc(func(ctx context.Context, path string) { ... }),
//	})
//
//	expenses, err := client.ListExpenses(ctx)
//	switch {
//	case errors.Is(err, budgetsdk.ErrUnauthorized):
//		// already cleared and redirected
//	case errors.Is(err, budgetsdk.ErrRequestFailed):
//		// show the page without data
//	}
//
// Response payloads are decoded into the types in this package and checked
// for the fields the pages rely on; a payload that does not fit is reported
// as ErrRequestFailed.
package budgetsdk
