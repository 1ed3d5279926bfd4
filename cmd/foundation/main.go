// Foundation tracks school grades and turns them into reward credits.
package main

import "github.com/foundation-app/foundation/internal/cli"

func main() {
	cli.Execute()
}
