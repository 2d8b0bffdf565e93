package vrjpg

import (
	"errors"
	"fmt"
)

var (
	// ErrConflict is returned for mutually exclusive mode options.
	ErrConflict = errors.New("conflicting options")
	// ErrArgCount is returned for an unusable number of positional arguments.
	ErrArgCount = errors.New("invalid number of arguments")
)

// Source is the input of a run: exactly one of Mono, Stereo or Pair.
type Source interface {
	// Paths returns the input files in the order they are validated.
	Paths() []string
	isSource()
}

// Mono is a single non-stereo image tagged with panorama metadata only.
type Mono struct {
	Path string
}

// Stereo is one combined image holding both eyes.
type Stereo struct {
	Path string
}

// Pair is a pre-split pair of eye images.
type Pair struct {
	Left  string
	Right string
}

func (m Mono) Paths() []string   { return []string{m.Path} }
func (s Stereo) Paths() []string { return []string{s.Path} }
func (p Pair) Paths() []string   { return []string{p.Left, p.Right} }

func (Mono) isSource()   {}
func (Stereo) isSource() {}
func (Pair) isSource()   {}

// Options are the mode options of a run, as given on the command line.
type Options struct {
	Left   string
	Right  string
	Stereo string
	Mono   string
	Args   []string
}

// Resolve picks the Source described by o. It does not touch the filesystem.
func (o Options) Resolve() (Source, error) {
	switch {
	case o.Stereo != "" && (o.Mono != "" || o.Left != "" || o.Right != ""):
		return nil, fmt.Errorf("%w: --stereo excludes --mono, --left and --right", ErrConflict)
	case o.Mono != "" && (o.Left != "" || o.Right != ""):
		return nil, fmt.Errorf("%w: --mono excludes --left and --right", ErrConflict)
	}

	flagged := o.Stereo != "" || o.Mono != "" || o.Left != "" || o.Right != ""
	if flagged && len(o.Args) > 0 {
		return nil, fmt.Errorf("%w: unexpected arguments %q", ErrConflict, o.Args)
	}

	switch {
	case o.Stereo != "":
		return Stereo{Path: o.Stereo}, nil
	case o.Mono != "":
		return Mono{Path: o.Mono}, nil
	case o.Left != "" && o.Right != "":
		return Pair{Left: o.Left, Right: o.Right}, nil
	case o.Left != "" || o.Right != "":
		return nil, fmt.Errorf("%w: --left and --right must be given together", ErrArgCount)
	}

	switch len(o.Args) {
	case 1:
		return Stereo{Path: o.Args[0]}, nil
	case 2:
		return Pair{Left: o.Args[0], Right: o.Args[1]}, nil
	}
	return nil, fmt.Errorf("%w: %d", ErrArgCount, len(o.Args))
}
