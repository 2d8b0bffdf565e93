package xmp

import (
	"bytes"
	"crypto/md5"
	"encoding/binary"
	"encoding/hex"
	"encoding/xml"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

const (
	// maxStandardSize is the largest standard packet that fits one APP1 segment.
	maxStandardSize = 0xFFFF - 2 - 29
	// maxChunkSize is the extended XMP payload carried per APP1 segment.
	maxChunkSize = 65400
	guidLen      = 32

	packetID = "W5M0MpCehiHzreSzNTczkc9d"
)

var (
	standardSig = []byte("http://ns.adobe.com/xap/1.0/\x00")
	extendedSig = []byte("http://ns.adobe.com/xmp/extension/\x00")
)

// ErrCannotPut is returned when a packet cannot be written to a file.
var ErrCannotPut = errors.New("cannot put xmp")

// encoded is a packet serialized for a JPEG file.
type encoded struct {
	standard []byte
	extended []byte
	guid     string
}

func (p *Packet) check() error {
	for _, pr := range p.props {
		if pr.Namespace == nsRDF || pr.Namespace == nsMeta {
			return fmt.Errorf("%w: reserved namespace %s", ErrCannotPut, pr.Namespace)
		}
		if _, ok := p.prefixes[pr.Namespace]; !ok {
			return fmt.Errorf("%w: namespace %s not registered", ErrCannotPut, pr.Namespace)
		}
		if !validName(pr.Name) {
			return fmt.Errorf("%w: invalid property name %q", ErrCannotPut, pr.Name)
		}
	}
	return nil
}

// encode serializes p, moving the largest properties to an extended packet
// until the standard packet fits in one segment.
func (p *Packet) encode() (*encoded, error) {
	if err := p.check(); err != nil {
		return nil, err
	}

	var props []Property
	for _, pr := range p.props {
		if pr.Namespace == NSXMPNote && pr.Name == "HasExtendedXMP" {
			continue
		}
		props = append(props, pr)
	}

	std := p.marshal(props, true)
	if len(std) <= maxStandardSize {
		return &encoded{standard: std}, nil
	}

	order := make([]int, len(props))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return len(props[order[a]].Value) > len(props[order[b]].Value)
	})

	moved := make([]bool, len(props))
	split := func(guid string) (kept, ext []Property) {
		for i, pr := range props {
			if moved[i] {
				ext = append(ext, pr)
			} else {
				kept = append(kept, pr)
			}
		}
		kept = append(kept, Property{Namespace: NSXMPNote, Name: "HasExtendedXMP", Value: guid})
		return kept, ext
	}

	placeholder := strings.Repeat("0", guidLen)
	fits := false
	for _, i := range order {
		moved[i] = true
		kept, _ := split(placeholder)
		if len(p.marshal(kept, true)) <= maxStandardSize {
			fits = true
			break
		}
	}
	if !fits {
		return nil, fmt.Errorf("%w: standard packet exceeds %d bytes", ErrCannotPut, maxStandardSize)
	}

	_, ext := split(placeholder)
	extended := p.marshal(ext, false)
	if uint64(len(extended)) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: extended packet is %d bytes", ErrCannotPut, len(extended))
	}
	sum := md5.Sum(extended)
	guid := strings.ToUpper(hex.EncodeToString(sum[:]))
	kept, _ := split(guid)

	return &encoded{
		standard: p.marshal(kept, true),
		extended: extended,
		guid:     guid,
	}, nil
}

// marshal writes props as attributes of a single rdf:Description.
func (p *Packet) marshal(props []Property, wrap bool) []byte {
	var b bytes.Buffer
	if wrap {
		b.WriteString("<?xpacket begin=\"\uFEFF\" id=\"" + packetID + "\"?>\n")
	}
	b.WriteString("<x:xmpmeta xmlns:x=\"" + nsMeta + "\">\n")
	b.WriteString(" <rdf:RDF xmlns:rdf=\"" + nsRDF + "\">\n")
	b.WriteString("  <rdf:Description rdf:about=\"\"")

	declared := map[string]bool{}
	for _, pr := range props {
		if declared[pr.Namespace] {
			continue
		}
		declared[pr.Namespace] = true
		fmt.Fprintf(&b, "\n    xmlns:%s=\"%s\"", p.prefixes[pr.Namespace], escape(pr.Namespace))
	}
	for _, pr := range props {
		fmt.Fprintf(&b, "\n   %s:%s=\"%s\"", p.prefixes[pr.Namespace], pr.Name, escape(pr.Value))
	}

	b.WriteString("/>\n")
	b.WriteString(" </rdf:RDF>\n")
	b.WriteString("</x:xmpmeta>")
	if wrap {
		b.WriteString("\n<?xpacket end=\"w\"?>")
	}
	return b.Bytes()
}

func escape(s string) string {
	var b strings.Builder
	// EscapeText only fails when the writer does.
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

// segments returns the APP1 payloads for e: the standard packet followed by
// the extended packet chunks.
func (e *encoded) segments() [][]byte {
	segs := [][]byte{append(append([]byte(nil), standardSig...), e.standard...)}
	total := uint32(len(e.extended))
	for off := 0; off < len(e.extended); off += maxChunkSize {
		end := min(off+maxChunkSize, len(e.extended))
		seg := make([]byte, 0, len(extendedSig)+guidLen+8+end-off)
		seg = append(seg, extendedSig...)
		seg = append(seg, e.guid...)
		seg = binary.BigEndian.AppendUint32(seg, total)
		seg = binary.BigEndian.AppendUint32(seg, uint32(off))
		seg = append(seg, e.extended[off:end]...)
		segs = append(segs, seg)
	}
	return segs
}
