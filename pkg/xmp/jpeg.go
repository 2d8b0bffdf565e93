package xmp

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	jseg "github.com/garyhouston/jpegsegs"
	"k8s.io/klog/v2"
)

// extendedChunk is one APP1 slice of an extended packet.
type extendedChunk struct {
	guid   string
	total  uint32
	offset uint32
	data   []byte
}

func isStandard(seg []byte) bool {
	return bytes.HasPrefix(seg, standardSig)
}

func isExtended(seg []byte) bool {
	return bytes.HasPrefix(seg, extendedSig) && len(seg) >= len(extendedSig)+guidLen+8
}

func parseChunk(seg []byte) extendedChunk {
	b := seg[len(extendedSig):]
	return extendedChunk{
		guid:   string(b[:guidLen]),
		total:  binary.BigEndian.Uint32(b[guidLen:]),
		offset: binary.BigEndian.Uint32(b[guidLen+4:]),
		data:   b[guidLen+8:],
	}
}

// Read parses the XMP metadata of the JPEG stream r. A JPEG without XMP
// yields an empty packet.
func Read(r io.Reader) (*Packet, error) {
	scanner, err := jseg.NewScanner(bufio.NewReader(r))
	if err != nil {
		return nil, fmt.Errorf("scan jpeg: %w", err)
	}

	var (
		standard []byte
		chunks   []extendedChunk
	)
	for {
		marker, buf, err := scanner.Scan()
		if err != nil {
			return nil, fmt.Errorf("scan jpeg: %w", err)
		}
		if marker == jseg.SOS || marker == jseg.EOI {
			break
		}
		if marker != jseg.APP1 {
			continue
		}
		switch {
		case isStandard(buf) && standard == nil:
			standard = append([]byte(nil), buf[len(standardSig):]...)
		case isExtended(buf):
			c := parseChunk(buf)
			c.data = append([]byte(nil), c.data...)
			chunks = append(chunks, c)
		}
	}

	p := NewPacket()
	if standard == nil {
		return p, nil
	}
	if err := p.decode(standard); err != nil {
		return nil, err
	}

	guid, ok := p.Get(NSXMPNote, "HasExtendedXMP")
	if !ok {
		return p, nil
	}
	p.Delete(NSXMPNote, "HasExtendedXMP")

	ext, err := assemble(guid, chunks)
	if err != nil {
		klog.Warningf("ignoring extended xmp: %v", err)
		return p, nil
	}
	if err := p.decode(ext); err != nil {
		return nil, fmt.Errorf("extended: %w", err)
	}
	return p, nil
}

// assemble joins the chunks belonging to guid.
func assemble(guid string, chunks []extendedChunk) ([]byte, error) {
	var out []byte
	filled := 0
	for _, c := range chunks {
		if c.guid != guid {
			continue
		}
		if out == nil {
			out = make([]byte, c.total)
		}
		if uint32(len(out)) != c.total || uint64(c.offset)+uint64(len(c.data)) > uint64(c.total) {
			return nil, fmt.Errorf("chunk at %d does not fit %d bytes", c.offset, len(out))
		}
		filled += copy(out[c.offset:], c.data)
	}
	if out == nil {
		return nil, fmt.Errorf("no chunks for %s", guid)
	}
	if filled != len(out) {
		return nil, fmt.Errorf("got %d of %d bytes", filled, len(out))
	}
	return out, nil
}

// rewrite copies the JPEG stream in to w, dropping existing XMP segments and
// inserting segs after the leading APP0/APP1 segments.
func rewrite(w io.Writer, in io.Reader, segs [][]byte) error {
	scanner, err := jseg.NewScanner(in)
	if err != nil {
		return fmt.Errorf("scan jpeg: %w", err)
	}
	dumper, err := jseg.NewDumper(w)
	if err != nil {
		return fmt.Errorf("dump jpeg: %w", err)
	}

	inserted := false
	for {
		marker, buf, err := scanner.Scan()
		if err != nil {
			return fmt.Errorf("scan jpeg: %w", err)
		}
		if marker == jseg.APP1 && (isStandard(buf) || isExtended(buf)) {
			continue
		}
		if !inserted && marker != jseg.APP0 && marker != jseg.APP1 {
			for _, seg := range segs {
				if err := dumper.Dump(jseg.APP1, seg); err != nil {
					return fmt.Errorf("dump xmp: %w", err)
				}
			}
			inserted = true
		}
		if err := dumper.Dump(marker, buf); err != nil {
			return fmt.Errorf("dump jpeg: %w", err)
		}
		if marker == jseg.EOI {
			break
		}
	}

	// Anything after EOI (e.g. MPF images) is copied as-is.
	if err := dumper.Copy(scanner); err != nil {
		return fmt.Errorf("copy trailer: %w", err)
	}
	return nil
}

// File is a JPEG file opened for XMP update.
type File struct {
	path   string
	packet *Packet
}

// Open reads the existing XMP of the JPEG at path.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	p, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	klog.V(1).Infof("%s: %d existing xmp properties", path, p.Len())
	return &File{path: path, packet: p}, nil
}

// Packet returns the packet read from the file. Changes to it are written by Put.
func (f *File) Packet() *Packet {
	return f.packet
}

// CanPut reports whether p can be written to the file.
func (f *File) CanPut(p *Packet) error {
	_, err := p.encode()
	return err
}

// Put replaces the XMP metadata of the file with p. The file is rewritten
// through a temporary sibling and renamed into place, so on error the
// original is left untouched.
func (f *File) Put(p *Packet) error {
	enc, err := p.encode()
	if err != nil {
		return err
	}
	segs := enc.segments()
	klog.V(1).Infof("%s: writing %d byte xmp packet, %d extended bytes in %d segments",
		f.path, len(enc.standard), len(enc.extended), len(segs)-1)

	in, err := os.Open(f.path)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer in.Close()

	st, err := in.Stat()
	if err != nil {
		return fmt.Errorf("stat: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), "."+filepath.Base(f.path)+".*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	bw := bufio.NewWriter(tmp)
	if err := rewrite(bw, bufio.NewReader(in), segs); err != nil {
		tmp.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush: %w", err)
	}
	if err := tmp.Chmod(st.Mode().Perm()); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}

	f.packet = p
	return nil
}
