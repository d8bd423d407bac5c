// loopdep writes integer linear programs describing which memory
// accesses in the loops of Go packages may touch the same address.
package main // import "github.com/Prince781/loopdep/cmd/loopdep"

import (
	"log"
	"os"

	"github.com/Prince781/loopdep/depcmd"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("loopdep: ")
	cmd := depcmd.NewCommand("loopdep")
	cmd.ParseFlags(os.Args[1:])
	cmd.Run()
}
