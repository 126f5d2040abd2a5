// evotctl is the operator CLI: bootstrap the first ADMIN, hash passwords,
// run migrations and drain the email dead-letter queue.
package main

import "evot/cmd/evotctl/cmd"

func main() {
	cmd.Execute()
}
