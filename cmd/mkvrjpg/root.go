package main

import (
	goflag "flag"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"k8s.io/klog/v2"

	"github.com/archviz-vr-tools/mkvrjpg/pkg/vrjpg"
)

// usageError is a command line that could not be parsed.
type usageError struct {
	err error
}

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func newRootCommand() *cobra.Command {
	var opts vrjpg.Options
	var outFlag string
	var configFlag string
	var verifyFlag bool

	rootCmd := &cobra.Command{
		Use:   "mkvrjpg [OPTIONS] [stereo_img || left_img right_img]",
		Short: "Make VR panorama JPEGs for cardboard-style viewers",
		Long: `Make VR panorama JPEGs for cardboard-style viewers.

A single argument is a combined stereo image (top-bottom if square,
side-by-side if four times as wide as high). Two arguments are the left
and right eye images. The output is the left eye tagged with panorama
metadata, with the right eye embedded.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Args = args
			src, err := opts.Resolve()
			if err != nil {
				return err
			}

			c, err := vrjpg.LoadConfig(configFlag)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("verify") {
				c.Verify = verifyFlag
			}

			out, err := vrjpg.Make(c, src, outFlag)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}

	f := rootCmd.Flags()
	f.StringVarP(&opts.Left, "left", "l", "", "left eye image")
	f.StringVarP(&opts.Right, "right", "r", "", "right eye image")
	f.StringVarP(&opts.Stereo, "stereo", "s", "", "combined stereo image (top-bottom or side-by-side)")
	f.StringVarP(&opts.Mono, "mono", "m", "", "mono image, tagged without an embedded eye")
	f.StringVarP(&outFlag, "out", "o", "", "output file (must not exist); default is a new file in the working directory")
	f.StringVar(&configFlag, "config", "", "TOML configuration file")
	f.BoolVar(&verifyFlag, "verify", false, "read the output back with exiftool and compare")

	addKlogFlags(f)

	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err: err}
	})

	return rootCmd
}

// addKlogFlags exposes klog's flags (-v, --logtostderr, ...) on fs.
func addKlogFlags(fs *pflag.FlagSet) {
	gfs := goflag.NewFlagSet("klog", goflag.ContinueOnError)
	klog.InitFlags(gfs)
	fs.AddGoFlagSet(gfs)
}
