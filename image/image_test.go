package image

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/pierrec/lz4/v4"

	. "gopkg.in/check.v1"
)

func Test(t *testing.T) { TestingT(t) }

type TestSuite struct {
	dir string
}

var _ = Suite(&TestSuite{})

func (s *TestSuite) SetUpTest(c *C) {
	s.dir = c.MkDir()
}

func compress(c *C, data []byte) []byte {
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	_, err := w.Write(data)
	c.Assert(err, IsNil)
	c.Assert(w.Close(), IsNil)
	return buf.Bytes()
}

func mcubootImage(body []byte) []byte {
	hdr := make([]byte, McubootHeaderSize)
	binary.LittleEndian.PutUint32(hdr[0:], McubootMagic)
	binary.LittleEndian.PutUint32(hdr[4:], 0x8000)
	binary.LittleEndian.PutUint16(hdr[8:], McubootHeaderSize)
	binary.LittleEndian.PutUint32(hdr[12:], uint32(len(body)))
	hdr[20] = 1
	hdr[21] = 2
	binary.LittleEndian.PutUint16(hdr[22:], 3)
	binary.LittleEndian.PutUint32(hdr[24:], 42)
	return append(hdr, body...)
}

func (s *TestSuite) TestNew(c *C) {
	img, err := New("three.bin", []byte{0x01, 0x02, 0x03})
	c.Assert(err, IsNil)
	c.Assert(img.Size(), Equals, 3)
	c.Assert(img.Hash, Equals, sha256.Sum256([]byte{0x01, 0x02, 0x03}))
	c.Assert(img.HashString(), Equals, "039058c6f2c0cb492c533b0a4d14ef77cc0f78abccced5287d84a1a2011cfb81")
	c.Assert(img.Header, IsNil)
	c.Assert(img.HumanSize(), Equals, "3B")
}

func (s *TestSuite) TestNewEmpty(c *C) {
	img, err := New("empty.bin", nil)
	c.Assert(err, ErrorMatches, ".*empty.*")
	c.Assert(img, IsNil)
}

func (s *TestSuite) TestHashComputedOnce(c *C) {
	data := []byte{0xAA, 0xBB}
	img, err := New("a.bin", data)
	c.Assert(err, IsNil)

	want := img.Hash
	data[0] = 0x00
	c.Assert(img.Hash, Equals, want)
}

func (s *TestSuite) TestLoad(c *C) {
	path := filepath.Join(s.dir, "app.bin")
	c.Assert(os.WriteFile(path, []byte("firmware"), 0644), IsNil)

	img, err := Load(path)
	c.Assert(err, IsNil)
	c.Assert(img.Name, Equals, "app.bin")
	c.Assert(string(img.Data), Equals, "firmware")

	_, err = Load(filepath.Join(s.dir, "missing.bin"))
	c.Assert(err, NotNil)
}

func (s *TestSuite) TestLoadCompressed(c *C) {
	raw := bytes.Repeat([]byte("compressible "), 1000)
	path := filepath.Join(s.dir, "app.bin.lz4")
	c.Assert(os.WriteFile(path, compress(c, raw), 0644), IsNil)

	img, err := Load(path)
	c.Assert(err, IsNil)
	c.Assert(img.Name, Equals, "app.bin")
	c.Assert(img.Data, DeepEquals, raw)
	c.Assert(img.Hash, Equals, sha256.Sum256(raw))
}

func (s *TestSuite) TestLoadReaderDetectsMagic(c *C) {
	raw := []byte("no suffix but still compressed")

	img, err := LoadReader("stream", bytes.NewReader(compress(c, raw)))
	c.Assert(err, IsNil)
	c.Assert(img.Data, DeepEquals, raw)
}

func (s *TestSuite) TestLoadReaderCorruptCompressed(c *C) {
	_, err := LoadReader("bad.lz4", bytes.NewReader([]byte{0x04, 0x22, 0x4D, 0x18, 0xFF}))
	c.Assert(err, NotNil)
}

func (s *TestSuite) TestMcubootHeader(c *C) {
	img, err := New("signed.bin", mcubootImage([]byte{0xDE, 0xAD, 0xBE, 0xEF}))
	c.Assert(err, IsNil)
	c.Assert(img.Header, NotNil)
	c.Assert(img.Header.LoadAddr, Equals, uint32(0x8000))
	c.Assert(img.Header.HeaderSize, Equals, uint16(McubootHeaderSize))
	c.Assert(img.Header.ImageSize, Equals, uint32(4))
	c.Assert(img.Header.Version.String(), Equals, "1.2.3+42")
}

func (s *TestSuite) TestMcubootHeaderInvalid(c *C) {
	truncated := mcubootImage(nil)[:16]
	_, err := ParseMcubootHeader(truncated)
	c.Assert(err, ErrorMatches, "truncated MCUboot header.*")

	oversized := mcubootImage([]byte{0x01})
	binary.LittleEndian.PutUint32(oversized[12:], 100)
	_, err = ParseMcubootHeader(oversized)
	c.Assert(err, ErrorMatches, "MCUboot header declares.*")

	hdr, err := ParseMcubootHeader([]byte{0x01, 0x02, 0x03, 0x04, 0x05})
	c.Assert(err, IsNil)
	c.Assert(hdr, IsNil)
}
