// Command stockdesk is a terminal console for a warehouse inventory backend.
package main

import "github.com/devbush/stockdesk/internal/adapters/cli"

func main() {
	cli.Execute()
}
