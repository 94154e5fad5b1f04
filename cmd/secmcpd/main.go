// Command secmcpd runs the security-tool orchestration server.
package main

import "secmcp/internal/cli"

func main() {
	cli.Execute()
}
