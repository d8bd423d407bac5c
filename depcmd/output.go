package depcmd

import (
	"bufio"
	"fmt"
	"io"

	"github.com/Prince781/loopdep/depcheck"
)

// writeModels writes the model of every loop in results to w, each
// preceded by a comment naming the function and loop, and returns the
// number of models written.
func writeModels(w io.Writer, results []*depcheck.FuncResult) (int, error) {
	bw := bufio.NewWriter(w)
	n := 0
	for _, fr := range results {
		for _, lr := range fr.Models() {
			if n > 0 {
				fmt.Fprintln(bw)
			}
			fmt.Fprintf(bw, "# %s %s\n", fr.Function, lr.Loop)
			if _, err := lr.Model.WriteTo(bw); err != nil {
				return n, err
			}
			n++
		}
	}
	return n, bw.Flush()
}
