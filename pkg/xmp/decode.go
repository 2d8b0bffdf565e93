package xmp

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"k8s.io/klog/v2"
)

// decode merges the simple properties of an XMP packet into p. Structured
// values (arrays, nested resources) are skipped.
func (p *Packet) decode(data []byte) error {
	dec := xml.NewDecoder(bytes.NewReader(data))

	var (
		depth    int
		descAt   int
		cur      *Property
		curAt    int
		skip     bool
		text     strings.Builder
		declared = map[string]string{}
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("parse xmp: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			for _, a := range t.Attr {
				if a.Name.Space == "xmlns" {
					declared[a.Value] = a.Name.Local
				}
			}

			if cur != nil {
				skip = true
				continue
			}

			if t.Name.Space == nsRDF && t.Name.Local == "Description" {
				descAt = depth
				for _, a := range t.Attr {
					if !propertyAttr(a.Name) {
						continue
					}
					if p.learn(a.Name.Space, declared) {
						p.SetString(a.Name.Space, a.Name.Local, a.Value)
					}
				}
				continue
			}

			if descAt > 0 && depth == descAt+1 {
				cur = &Property{Namespace: t.Name.Space, Name: t.Name.Local}
				curAt = depth
				skip = false
				text.Reset()
				for _, a := range t.Attr {
					if a.Name.Space == nsRDF {
						skip = true
					}
				}
			}

		case xml.CharData:
			if cur != nil && !skip {
				text.Write(t)
			}

		case xml.EndElement:
			if cur != nil && depth == curAt {
				switch {
				case skip:
					klog.V(2).Infof("skipping structured xmp property %s%s", cur.Namespace, cur.Name)
				case p.learn(cur.Namespace, declared):
					p.SetString(cur.Namespace, cur.Name, text.String())
				}
				cur = nil
			}
			if depth == descAt {
				descAt = 0
			}
			depth--
		}
	}
}

// learn makes sure uri has a prefix in p, reusing the one declared in the
// document when it is free. It reports false for names without a namespace.
func (p *Packet) learn(uri string, declared map[string]string) bool {
	if _, ok := p.prefixes[uri]; ok {
		return true
	}
	prefix, ok := declared[uri]
	if !ok {
		return false
	}
	if !validName(prefix) {
		prefix = "ns"
	}
	if p.RegisterNamespace(uri, prefix) == nil {
		return true
	}
	for i := 1; ; i++ {
		if p.RegisterNamespace(uri, fmt.Sprintf("%s%d", prefix, i)) == nil {
			return true
		}
	}
}

func propertyAttr(n xml.Name) bool {
	switch {
	case n.Space == "" || n.Space == "xmlns":
		return false
	case n.Space == nsRDF || n.Space == nsXML:
		return false
	}
	return true
}
