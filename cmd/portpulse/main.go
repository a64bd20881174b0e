package main

import (
	"os"

	"github.com/MimoJanra/PortPulse/internal/cli"
)

// @title           PortPulse API
// @version         1.0
// @description     TCP port probing with scheduled watches and result history.

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @BasePath  /
// @schemes   http
func main() {
	os.Exit(cli.Execute(os.Args[1:]))
}
