// vrinfo prints the VR panorama metadata of JPEG files and directories of them
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"k8s.io/klog/v2"

	"github.com/archviz-vr-tools/mkvrjpg/pkg/vrjpg"
)

var extract = flag.String("extract", "", "write the embedded eye image of the given file to this path")

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	if flag.NArg() == 0 {
		klog.Exitf("usage: vrinfo [-extract out.jpg] file.vr.jpg ...")
	}

	if *extract != "" {
		if flag.NArg() != 1 {
			klog.Exitf("-extract takes exactly one input file")
		}
		n, err := extractEye(flag.Arg(0), *extract)
		if err != nil {
			klog.Exitf("extract failed: %v", err)
		}
		fmt.Printf("%s: wrote %s (%s)\n", flag.Arg(0), *extract, humanize.Bytes(uint64(n)))
		return
	}

	paths, err := expand(flag.Args())
	if err != nil {
		klog.Exitf("find failed: %v", err)
	}

	in, err := vrjpg.NewInspector()
	if err != nil {
		klog.Exitf("%v", err)
	}
	defer in.Close()

	failed := false
	var infos []*vrjpg.Info
	for _, path := range paths {
		i, err := in.Inspect(path)
		if err != nil {
			klog.Errorf("%s: %v", path, err)
			failed = true
			continue
		}
		infos = append(infos, i)
	}
	if len(infos) > 0 {
		fmt.Println(renderInfo(infos))
	}
	if failed {
		in.Close()
		os.Exit(1)
	}
}

// expand replaces directory arguments with the JPEG files below them.
func expand(args []string) ([]string, error) {
	var paths []string
	for _, a := range args {
		st, err := os.Stat(a)
		if err != nil || !st.IsDir() {
			paths = append(paths, a)
			continue
		}
		found, err := vrjpg.Find(a)
		if err != nil {
			return nil, err
		}
		paths = append(paths, found...)
	}
	return paths, nil
}

// renderInfo formats infos as a table, one row per file.
func renderInfo(infos []*vrjpg.Info) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"File", "Cropped area", "Full panorama", "Heading", "Make/Model", "Embedded"})
	for _, i := range infos {
		p := i.Panorama
		tw.AppendRow(table.Row{
			i.Path,
			fmt.Sprintf("%dx%d+%d+%d", p.CroppedWidth, p.CroppedHeight, p.CroppedLeft, p.CroppedTop),
			fmt.Sprintf("%dx%d", p.FullWidth, p.FullHeight),
			fmt.Sprintf("%g", p.InitialHeading),
			strings.TrimSpace(i.Make + " " + i.Model),
			i.EmbeddedMime,
		})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight},
	})
	return tw.Render()
}

// extractEye writes the embedded eye image of path to out, which must not
// exist yet, and returns its size.
func extractEye(path, out string) (int, error) {
	bs, err := vrjpg.EmbeddedImage(path)
	if err != nil {
		return 0, err
	}
	f, err := os.OpenFile(out, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return 0, fmt.Errorf("create: %w", err)
	}
	if _, err := f.Write(bs); err != nil {
		f.Close()
		return 0, fmt.Errorf("write: %w", err)
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("close: %w", err)
	}
	klog.V(1).Infof("extracted %s from %s", out, path)
	return len(bs), nil
}
