package xmp

import (
	"bytes"
	"crypto/md5"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"strings"
	"testing"
)

func panoPacket(t *testing.T) *Packet {
	t.Helper()
	p := NewPacket()
	if err := p.RegisterNamespace(NSGPano, "GPano"); err != nil {
		t.Fatal(err)
	}
	if err := p.RegisterNamespace(NSGImage, "GImage"); err != nil {
		t.Fatal(err)
	}
	p.SetInt(NSGPano, "FullPanoWidthPixels", 4000)
	p.SetInt(NSGPano, "FullPanoHeightPixels", 2000)
	return p
}

func TestEncodeStandardOnly(t *testing.T) {
	p := panoPacket(t)
	enc, err := p.encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(enc.extended) != 0 || enc.guid != "" {
		t.Errorf("unexpected extended packet (%d bytes, guid %q)", len(enc.extended), enc.guid)
	}

	s := string(enc.standard)
	for _, want := range []string{
		`<?xpacket begin="` + "\uFEFF" + `"`,
		`xmlns:GPano="http://ns.google.com/photos/1.0/panorama/"`,
		`GPano:FullPanoWidthPixels="4000"`,
		`GPano:FullPanoHeightPixels="2000"`,
		`<?xpacket end="w"?>`,
	} {
		if !strings.Contains(s, want) {
			t.Errorf("packet missing %q:\n%s", want, s)
		}
	}
	if strings.Contains(s, "xmlns:GImage") {
		t.Errorf("unused namespace declared:\n%s", s)
	}

	segs := enc.segments()
	if len(segs) != 1 || !bytes.HasPrefix(segs[0], standardSig) {
		t.Errorf("got %d segments, want one standard segment", len(segs))
	}
}

func TestEncodeExtended(t *testing.T) {
	p := panoPacket(t)
	big := strings.Repeat("QUJD", 50000)
	p.SetString(NSGImage, "Mime", "image/jpeg")
	p.SetString(NSGImage, "Data", big)

	enc, err := p.encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(enc.standard) > maxStandardSize {
		t.Errorf("standard packet is %d bytes", len(enc.standard))
	}
	sum := md5.Sum(enc.extended)
	if want := strings.ToUpper(hex.EncodeToString(sum[:])); enc.guid != want {
		t.Errorf("guid = %s, want %s", enc.guid, want)
	}

	std := string(enc.standard)
	if !strings.Contains(std, `xmpNote:HasExtendedXMP="`+enc.guid+`"`) {
		t.Errorf("standard packet lacks HasExtendedXMP:\n%s", std)
	}
	if !strings.Contains(std, `GImage:Mime="image/jpeg"`) {
		t.Errorf("small GImage property should stay in the standard packet")
	}
	if strings.Contains(std, big) {
		t.Errorf("GImage:Data should be in the extended packet")
	}
	if strings.HasPrefix(string(enc.extended), "<?xpacket") {
		t.Errorf("extended packet must not be wrapped")
	}

	segs := enc.segments()
	wantChunks := (len(enc.extended) + maxChunkSize - 1) / maxChunkSize
	if len(segs) != wantChunks+1 {
		t.Fatalf("got %d segments, want %d", len(segs), wantChunks+1)
	}
	var joined []byte
	for i, seg := range segs[1:] {
		if len(seg)+2 > 0xFFFF {
			t.Errorf("segment %d is %d bytes", i, len(seg))
		}
		c := parseChunk(seg)
		if c.guid != enc.guid {
			t.Errorf("chunk %d guid = %s", i, c.guid)
		}
		if int(c.total) != len(enc.extended) {
			t.Errorf("chunk %d total = %d, want %d", i, c.total, len(enc.extended))
		}
		if int(c.offset) != len(joined) {
			t.Errorf("chunk %d offset = %d, want %d", i, c.offset, len(joined))
		}
		joined = append(joined, c.data...)
	}
	if !bytes.Equal(joined, enc.extended) {
		t.Errorf("chunks do not reassemble to the extended packet")
	}
	if got := binary.BigEndian.Uint32(segs[1][len(extendedSig)+guidLen:]); int(got) != len(enc.extended) {
		t.Errorf("first chunk total = %d", got)
	}
}

func TestEncodeRejects(t *testing.T) {
	tests := []struct {
		name string
		set  func(p *Packet)
	}{
		{"unregistered namespace", func(p *Packet) { p.SetInt("http://example.com/ns/", "X", 1) }},
		{"invalid name", func(p *Packet) { p.SetInt(NSGPano, "bad name", 1) }},
		{"reserved namespace", func(p *Packet) { p.SetString(nsRDF, "about", "") }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := panoPacket(t)
			tc.set(p)
			if _, err := p.encode(); !errors.Is(err, ErrCannotPut) {
				t.Errorf("encode error = %v, want ErrCannotPut", err)
			}
		})
	}
}

func TestDecodeForms(t *testing.T) {
	doc := `<?xpacket begin="` + "\uFEFF" + `" id="W5M0MpCehiHzreSzNTczkc9d"?>
<x:xmpmeta xmlns:x="adobe:ns:meta/">
 <rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#">
  <rdf:Description rdf:about=""
    xmlns:tiff="http://ns.adobe.com/tiff/1.0/"
    xmlns:dc="http://purl.org/dc/elements/1.1/"
    tiff:Make="Canon &amp; Co">
   <tiff:Model>EOS &lt;R&gt;</tiff:Model>
   <dc:subject>
    <rdf:Bag><rdf:li>vr</rdf:li></rdf:Bag>
   </dc:subject>
  </rdf:Description>
 </rdf:RDF>
</x:xmpmeta>
<?xpacket end="w"?>`

	p := NewPacket()
	if err := p.decode([]byte(doc)); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got, _ := p.Get(NSTIFF, "Make"); got != "Canon & Co" {
		t.Errorf("Make = %q", got)
	}
	if got, _ := p.Get(NSTIFF, "Model"); got != "EOS <R>" {
		t.Errorf("Model = %q", got)
	}
	if _, ok := p.Get("http://purl.org/dc/elements/1.1/", "subject"); ok {
		t.Errorf("structured dc:subject should be skipped")
	}
	if pre, _ := p.Prefix(NSTIFF); pre != "tiff" {
		t.Errorf("tiff prefix = %q", pre)
	}
}

func TestEncodeDecodeEscaping(t *testing.T) {
	p := panoPacket(t)
	if err := p.RegisterNamespace(NSTIFF, "tiff"); err != nil {
		t.Fatal(err)
	}
	p.SetString(NSTIFF, "Make", `a "quoted" <tag> & 'apostrophe'`)
	enc, err := p.encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	q := NewPacket()
	if err := q.decode(enc.standard); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got, _ := q.Get(NSTIFF, "Make"); got != `a "quoted" <tag> & 'apostrophe'` {
		t.Errorf("Make = %q", got)
	}
	if got, _ := q.Get(NSGPano, "FullPanoHeightPixels"); got != "2000" {
		t.Errorf("FullPanoHeightPixels = %q", got)
	}
}

func TestDecodePrefixClash(t *testing.T) {
	doc := `<x:xmpmeta xmlns:x="adobe:ns:meta/"><rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#">
<rdf:Description rdf:about="" xmlns:GPano="http://example.com/other/" GPano:Foo="1"/></rdf:RDF></x:xmpmeta>`

	p := panoPacket(t)
	if err := p.decode([]byte(doc)); err != nil {
		t.Fatalf("decode: %v", err)
	}
	pre, ok := p.Prefix("http://example.com/other/")
	if !ok || pre == "GPano" {
		t.Errorf("other namespace prefix = %q, %v", pre, ok)
	}
	if _, err := p.encode(); err != nil {
		t.Errorf("encode after clash: %v", err)
	}
}
