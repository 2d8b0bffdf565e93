// mkvrjpg turns a stereo image, a pair of eye images or a mono image into a
// VR panorama JPEG.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"k8s.io/klog/v2"

	"github.com/archviz-vr-tools/mkvrjpg/pkg/vrjpg"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command line in args and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	defer klog.Flush()

	cmd := newRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.Execute()
	if err == nil {
		return 0
	}

	var ue usageError
	code := 1
	switch {
	case errors.As(err, &ue):
		code = 2
	case errors.Is(err, vrjpg.ErrConflict), errors.Is(err, vrjpg.ErrArgCount):
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return code
	}
	fmt.Fprintf(stderr, "Error: %v\n%s", err, cmd.UsageString())
	return code
}
