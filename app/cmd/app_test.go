package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"

	. "gopkg.in/check.v1"

	"github.com/moffa90/go-mcumgr/internal/simdevice"
	"github.com/moffa90/go-mcumgr/protocol"
)

type AppSuite struct {
	dev *simdevice.Device
	env *Env
	out *bytes.Buffer
}

var _ = Suite(&AppSuite{})

func (s *AppSuite) SetUpTest(c *C) {
	s.dev = simdevice.New()
	s.env = &Env{
		Sequencer: protocol.NewSequencer(0),
		Open:      s.dev.Open,
	}
	s.out = new(bytes.Buffer)
}

func (s *AppSuite) run(c *C, args ...string) {
	a := NewApp(s.env)
	a.Writer = s.out
	global := []string{"mcumgr", "--device", "/dev/sim", "--lock-dir", c.MkDir()}
	c.Assert(a.Run(append(global, args...)), IsNil)
}

func (s *AppSuite) TestList(c *C) {
	s.run(c, "list")

	output := s.out.String()
	c.Assert(output, Matches, "(?s)IMAGE +SLOT +VERSION +FLAGS +HASH\n.*")
	c.Assert(output, Matches, "(?s).*1\\.0\\.0 +active,confirmed,bootable .*")
}

func (s *AppSuite) TestListJSON(c *C) {
	s.run(c, "ls", "--json")

	var state protocol.ImageStateResponse
	c.Assert(json.Unmarshal(s.out.Bytes(), &state), IsNil)
	c.Assert(state.Images, HasLen, 1)
	c.Assert(state.Images[0].Version, Equals, "1.0.0")
}

func (s *AppSuite) TestUpload(c *C) {
	data := bytes.Repeat([]byte{0x5A, 0xA5, 0x00}, 400)
	path := filepath.Join(c.MkDir(), "app.bin")
	c.Assert(os.WriteFile(path, data, 0644), IsNil)

	s.run(c, "--mtu", "256", "--slot", "1", "upload", path)

	c.Assert(s.dev.Flash(), DeepEquals, data)
	requests := s.dev.Requests()
	c.Assert(len(requests) > 1, Equals, true)
	for _, r := range requests {
		c.Assert(r.WireLen <= 256, Equals, true)
	}

	var first protocol.ImageUploadRequest
	c.Assert(protocol.DecodePayload(requests[0].Payload, &first), IsNil)
	c.Assert(first.Image, Equals, 1)

	state := s.dev.State()
	c.Assert(state.Images, HasLen, 2)
	c.Assert(state.Images[1].Slot, Equals, 1)
}
