// Package xmp reads, edits and writes XMP metadata embedded in JPEG files,
// including Extended XMP for values too large for a single APP1 segment.
package xmp

import (
	"fmt"
	"strconv"
	"unicode"
)

// Well-known namespaces.
const (
	NSGPano   = "http://ns.google.com/photos/1.0/panorama/"
	NSGImage  = "http://ns.google.com/photos/1.0/image/"
	NSGAudio  = "http://ns.google.com/photos/1.0/audio/"
	NSTIFF    = "http://ns.adobe.com/tiff/1.0/"
	NSXMPNote = "http://ns.adobe.com/xmp/note/"

	nsRDF  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	nsMeta = "adobe:ns:meta/"
	nsXML  = "http://www.w3.org/XML/1998/namespace"
)

// Property is a single simple-valued XMP property.
type Property struct {
	Namespace string
	Name      string
	Value     string
}

type propKey struct {
	ns   string
	name string
}

// Packet is an ordered set of namespaced properties.
type Packet struct {
	prefixes map[string]string // uri -> prefix
	props    []Property
	index    map[propKey]int
}

// NewPacket returns an empty packet with the rdf and xmpNote namespaces registered.
func NewPacket() *Packet {
	p := &Packet{
		prefixes: map[string]string{},
		index:    map[propKey]int{},
	}
	p.prefixes[nsRDF] = "rdf"
	p.prefixes[nsMeta] = "x"
	p.prefixes[NSXMPNote] = "xmpNote"
	return p
}

// RegisterNamespace binds prefix to uri. Registering the same pair twice is a no-op.
func (p *Packet) RegisterNamespace(uri, prefix string) error {
	if uri == "" || !validName(prefix) {
		return fmt.Errorf("invalid namespace %q=%q", prefix, uri)
	}
	if old, ok := p.prefixes[uri]; ok {
		if old == prefix {
			return nil
		}
		return fmt.Errorf("namespace %s already registered as %q", uri, old)
	}
	for u, pre := range p.prefixes {
		if pre == prefix {
			return fmt.Errorf("prefix %q already bound to %s", prefix, u)
		}
	}
	p.prefixes[uri] = prefix
	return nil
}

// Prefix returns the prefix registered for uri.
func (p *Packet) Prefix(uri string) (string, bool) {
	pre, ok := p.prefixes[uri]
	return pre, ok
}

// SetString sets ns:name to v, replacing any previous value.
func (p *Packet) SetString(ns, name, v string) {
	k := propKey{ns: ns, name: name}
	if i, ok := p.index[k]; ok {
		p.props[i].Value = v
		return
	}
	p.index[k] = len(p.props)
	p.props = append(p.props, Property{Namespace: ns, Name: name, Value: v})
}

// SetInt sets ns:name to the decimal form of v.
func (p *Packet) SetInt(ns, name string, v int) {
	p.SetString(ns, name, strconv.Itoa(v))
}

// SetFloat sets ns:name to the shortest decimal form of v.
func (p *Packet) SetFloat(ns, name string, v float64) {
	p.SetString(ns, name, strconv.FormatFloat(v, 'f', -1, 64))
}

// Get returns the value of ns:name.
func (p *Packet) Get(ns, name string) (string, bool) {
	i, ok := p.index[propKey{ns: ns, name: name}]
	if !ok {
		return "", false
	}
	return p.props[i].Value, true
}

// GetInt returns the value of ns:name parsed as an integer.
func (p *Packet) GetInt(ns, name string) (int, error) {
	v, ok := p.Get(ns, name)
	if !ok {
		return 0, fmt.Errorf("%s%s not set", ns, name)
	}
	return strconv.Atoi(v)
}

// Delete removes ns:name if present.
func (p *Packet) Delete(ns, name string) {
	k := propKey{ns: ns, name: name}
	i, ok := p.index[k]
	if !ok {
		return
	}
	p.props = append(p.props[:i], p.props[i+1:]...)
	delete(p.index, k)
	for j := i; j < len(p.props); j++ {
		p.index[propKey{ns: p.props[j].Namespace, name: p.props[j].Name}] = j
	}
}

// Properties returns a copy of the properties in insertion order.
func (p *Packet) Properties() []Property {
	return append([]Property(nil), p.props...)
}

// Len returns the number of properties.
func (p *Packet) Len() int {
	return len(p.props)
}

// validName reports whether s is usable as an XML NCName.
func validName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || unicode.IsLetter(r):
		case i > 0 && (r == '-' || r == '.' || r == '\u00B7' || unicode.IsDigit(r) ||
			unicode.In(r, unicode.Mn, unicode.Mc, unicode.Nl)):
		default:
			return false
		}
	}
	return true
}
