package sftp

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/OpenListTeam/sftpd-openlist/binp"
	"github.com/OpenListTeam/sftpd-openlist/bytechain"
)

// inPacket is one fully framed, parsed SFTP response: the wire type, the
// request ID (0 for INIT/VERSION, which carry none), and a cursor over
// the type-specific body.
type inPacket struct {
	Type byte
	ID   uint32
	r    *binp.Reader
}

// frameReader reassembles length-prefixed SSH_FXP_* frames
// ([u32 length][u8 type]...) out of an arbitrarily-chunked byte
// stream — the channel payloads the SSH layer hands up. It mirrors
// bpp.Engine's suspend/resume discipline: each poll either returns a
// complete frame or keeps what it has consumed so far (at most the
// length prefix) in its own state for the next poll.
type frameReader struct {
	haveLen bool
	length  uint32
	lenBuf  [4]byte
}

func (f *frameReader) poll(chain *bytechain.Chain) ([]byte, bool) {
	if !f.haveLen {
		if !chain.TryFetchConsume(f.lenBuf[:]) {
			return nil, false
		}
		f.length = binary.BigEndian.Uint32(f.lenBuf[:])
		f.haveLen = true
	}
	body := make([]byte, f.length)
	if !chain.TryFetchConsume(body) {
		return nil, false
	}
	f.haveLen = false
	return body, true
}

// Client holds one SFTP session's state, including the most recent
// STATUS the remote reported (LastStatus records OK and EOF as well as
// failures). Each independent session owns its own, so
// multiple clients can run in the same process without treading on
// each other's error state.
type Client struct {
	registry   *Registry
	reader     frameReader
	queue      []*inPacket
	opts       Options
	Version    uint32
	LastStatus *StatusError
}

// NewClient returns a Client ready to send INIT. The zero Options
// selects the defaults documented on Options itself.
func NewClient(opts Options) *Client {
	return &Client{registry: NewRegistry(), opts: opts}
}

func newOutPacket(typ byte, withID bool, id uint32) *binp.Printer {
	p := binp.Out()
	p.Skip(4)
	p.Byte(typ)
	if withID {
		p.B32(id)
	}
	return p
}

func finishOutPacket(p *binp.Printer) []byte {
	data := p.Out()
	binary.BigEndian.PutUint32(data[0:4], uint32(len(data)-4))
	return data
}

// Pump drains every complete frame currently queued on in, parses it,
// and appends it to the internal response queue for Dequeue to hand
// out. It never blocks: a partial frame is picked up again on the next
// call, like bpp.Engine.Pump.
func (c *Client) Pump(in *bytechain.Chain) error {
	for {
		body, ok := c.reader.poll(in)
		if !ok {
			return nil
		}
		r := binp.NewReader(body)
		var typ byte
		r.Byte(&typ)
		pkt := &inPacket{Type: typ, r: r}
		if typ != FxpVersion {
			r.B32(&pkt.ID)
		}
		if r.Err() {
			return errors.New("sftp: truncated packet header")
		}
		c.queue = append(c.queue, pkt)
	}
}

// Dequeue returns and removes the next queued response, if any.
func (c *Client) Dequeue() (*inPacket, bool) {
	if len(c.queue) == 0 {
		return nil, false
	}
	pkt := c.queue[0]
	c.queue = c.queue[1:]
	return pkt, true
}

// retire matches a response against the request it claims to answer
// and removes that request from the in-flight registry. A response
// whose ID is unknown, already retired, or bound to a different
// request is an internal error: the packet is discarded and the
// registry left untouched, so a confused peer can't desynchronize the
// remaining in-flight requests.
func (c *Client) retire(pkt *inPacket, req *Request) error {
	found, ok := c.registry.Find(pkt.ID)
	if !ok || found != req {
		return protoErrf("recv", "response carries unknown request id %d", pkt.ID)
	}
	c.registry.Remove(pkt.ID)
	return nil
}

func (c *Client) recordStatus(r *binp.Reader) (ok bool, eof bool, err error) {
	var code uint32
	r.B32(&code)
	var msg string
	r.B32String(&msg)
	var lang string
	r.B32String(&lang)
	if r.End() != nil {
		return false, false, protoErrf("status", "truncated STATUS body")
	}
	if msg == "" {
		msg = statusMessage(code)
	}
	c.LastStatus = &StatusError{Code: code, Message: msg}
	switch code {
	case FxOK:
		return true, false, nil
	case FxEOF:
		return false, true, nil
	default:
		return false, false, c.LastStatus
	}
}

// --- INIT ---

// Init builds and returns the INIT frame; INIT/VERSION carry no
// request ID.
func (c *Client) Init() []byte {
	p := newOutPacket(FxpInit, false, 0)
	p.B32(c.opts.protoVersion())
	return finishOutPacket(p)
}

// InitRecv validates the VERSION response. Any remote version greater
// than ours is a hard failure.
func (c *Client) InitRecv(pkt *inPacket) error {
	if pkt.Type != FxpVersion {
		return protoErrf("init", "expected VERSION, got type %d", pkt.Type)
	}
	var version uint32
	pkt.r.B32(&version)
	if pkt.r.Err() {
		return protoErrf("init", "truncated VERSION body")
	}
	if version > c.opts.protoVersion() {
		return errors.Errorf("sftp: remote protocol is more advanced than we support (version %d)", version)
	}
	c.Version = version
	return nil
}

// --- REALPATH ---

func (c *Client) Realpath(path string) (*Request, []byte) {
	req := c.registry.Alloc(nil)
	p := newOutPacket(FxpRealpath, true, req.ID)
	p.B32String(path)
	return req, finishOutPacket(p)
}

func (c *Client) RealpathRecv(pkt *inPacket, req *Request) (string, error) {
	if err := c.retire(pkt, req); err != nil {
		return "", err
	}
	if pkt.Type == FxpStatus {
		if _, _, err := c.recordStatus(pkt.r); err != nil {
			return "", err
		}
		return "", errors.New("sftp: REALPATH returned STATUS without a name")
	}
	if pkt.Type != FxpName {
		return "", protoErrf("realpath", "unexpected response type %d", pkt.Type)
	}
	var count uint32
	pkt.r.B32(&count)
	if count != 1 {
		return "", errors.New("sftp: REALPATH did not return name count of 1")
	}
	var filename, longname string
	pkt.r.B32String(&filename).B32String(&longname)
	_ = decodeAttrs(pkt.r)
	if pkt.r.Err() {
		return "", protoErrf("realpath", "truncated NAME body")
	}
	return filename, nil
}

// --- OPEN / OPENDIR ---

func (c *Client) Open(path string, pflags uint32, attrs Attr) (*Request, []byte) {
	req := c.registry.Alloc(nil)
	p := newOutPacket(FxpOpen, true, req.ID)
	p.B32String(path).B32(pflags)
	encodeAttrs(p, attrs)
	return req, finishOutPacket(p)
}

func (c *Client) Opendir(path string) (*Request, []byte) {
	req := c.registry.Alloc(nil)
	p := newOutPacket(FxpOpendir, true, req.ID)
	p.B32String(path)
	return req, finishOutPacket(p)
}

// HandleRecv parses a HANDLE or STATUS response shared by OPEN and
// OPENDIR.
func (c *Client) HandleRecv(pkt *inPacket, req *Request) ([]byte, error) {
	if err := c.retire(pkt, req); err != nil {
		return nil, err
	}
	if pkt.Type == FxpStatus {
		if _, _, err := c.recordStatus(pkt.r); err != nil {
			return nil, err
		}
		return nil, errors.New("sftp: open returned STATUS OK without a handle")
	}
	if pkt.Type != FxpHandle {
		return nil, protoErrf("open", "unexpected response type %d", pkt.Type)
	}
	var handle []byte
	pkt.r.B32Bytes(&handle)
	if pkt.r.Err() {
		return nil, protoErrf("open", "truncated HANDLE body")
	}
	return handle, nil
}

// --- CLOSE / MKDIR / RMDIR / REMOVE / RENAME / SETSTAT / FSETSTAT ---

func (c *Client) Close(handle []byte) (*Request, []byte) {
	req := c.registry.Alloc(nil)
	p := newOutPacket(FxpClose, true, req.ID)
	p.B32Bytes(handle)
	return req, finishOutPacket(p)
}

func (c *Client) Mkdir(path string, attrs Attr) (*Request, []byte) {
	req := c.registry.Alloc(nil)
	p := newOutPacket(FxpMkdir, true, req.ID)
	p.B32String(path)
	encodeAttrs(p, attrs)
	return req, finishOutPacket(p)
}

func (c *Client) Rmdir(path string) (*Request, []byte) {
	req := c.registry.Alloc(nil)
	p := newOutPacket(FxpRmdir, true, req.ID)
	p.B32String(path)
	return req, finishOutPacket(p)
}

func (c *Client) Remove(path string) (*Request, []byte) {
	req := c.registry.Alloc(nil)
	p := newOutPacket(FxpRemove, true, req.ID)
	p.B32String(path)
	return req, finishOutPacket(p)
}

func (c *Client) Rename(oldpath, newpath string) (*Request, []byte) {
	req := c.registry.Alloc(nil)
	p := newOutPacket(FxpRename, true, req.ID)
	p.B32String(oldpath).B32String(newpath)
	return req, finishOutPacket(p)
}

func (c *Client) Setstat(path string, attrs Attr) (*Request, []byte) {
	req := c.registry.Alloc(nil)
	p := newOutPacket(FxpSetstat, true, req.ID)
	p.B32String(path)
	encodeAttrs(p, attrs)
	return req, finishOutPacket(p)
}

func (c *Client) Fsetstat(handle []byte, attrs Attr) (*Request, []byte) {
	req := c.registry.Alloc(nil)
	p := newOutPacket(FxpFsetstat, true, req.ID)
	p.B32Bytes(handle)
	encodeAttrs(p, attrs)
	return req, finishOutPacket(p)
}

// StatusRecv parses the STATUS response shared by CLOSE, MKDIR, RMDIR,
// REMOVE, RENAME, SETSTAT and FSETSTAT, booleanizing the status code.
func (c *Client) StatusRecv(pkt *inPacket, req *Request) (bool, error) {
	if err := c.retire(pkt, req); err != nil {
		return false, err
	}
	if pkt.Type != FxpStatus {
		return false, protoErrf("status", "unexpected response type %d", pkt.Type)
	}
	ok, _, err := c.recordStatus(pkt.r)
	if err != nil {
		return false, err
	}
	return ok, nil
}

// --- STAT / FSTAT ---

func (c *Client) Stat(path string) (*Request, []byte) {
	req := c.registry.Alloc(nil)
	p := newOutPacket(FxpStat, true, req.ID)
	p.B32String(path)
	return req, finishOutPacket(p)
}

func (c *Client) Fstat(handle []byte) (*Request, []byte) {
	req := c.registry.Alloc(nil)
	p := newOutPacket(FxpFstat, true, req.ID)
	p.B32Bytes(handle)
	return req, finishOutPacket(p)
}

// AttrsRecv parses the ATTRS response shared by STAT and FSTAT.
func (c *Client) AttrsRecv(pkt *inPacket, req *Request) (Attr, error) {
	if err := c.retire(pkt, req); err != nil {
		return Attr{}, err
	}
	if pkt.Type == FxpStatus {
		if _, _, err := c.recordStatus(pkt.r); err != nil {
			return Attr{}, err
		}
		return Attr{}, errors.New("sftp: stat returned STATUS OK without attrs")
	}
	if pkt.Type != FxpAttrs {
		return Attr{}, protoErrf("stat", "unexpected response type %d", pkt.Type)
	}
	a := decodeAttrs(pkt.r)
	if pkt.r.Err() {
		return Attr{}, protoErrf("stat", "truncated ATTRS body")
	}
	return a, nil
}

// --- READ / WRITE ---

func (c *Client) Read(handle []byte, offset uint64, length uint32) (*Request, []byte) {
	req := c.registry.Alloc(nil)
	p := newOutPacket(FxpRead, true, req.ID)
	p.B32Bytes(handle).B64(offset).B32(length)
	return req, finishOutPacket(p)
}

// ReadRecv returns (data, eof, error). End-of-file arrives from
// servers either as an empty DATA or as a STATUS(EOF); both are
// reported as eof with no data and no error.
func (c *Client) ReadRecv(pkt *inPacket, req *Request) ([]byte, bool, error) {
	if err := c.retire(pkt, req); err != nil {
		return nil, false, err
	}
	if pkt.Type == FxpStatus {
		_, eof, err := c.recordStatus(pkt.r)
		if eof {
			return nil, true, nil
		}
		return nil, false, err
	}
	if pkt.Type != FxpData {
		return nil, false, protoErrf("read", "unexpected response type %d", pkt.Type)
	}
	var data []byte
	pkt.r.B32Bytes(&data)
	if pkt.r.Err() {
		return nil, false, protoErrf("read", "truncated DATA body")
	}
	if len(data) == 0 {
		return nil, true, nil
	}
	return data, false, nil
}

func (c *Client) Write(handle []byte, offset uint64, data []byte) (*Request, []byte) {
	req := c.registry.Alloc(nil)
	p := newOutPacket(FxpWrite, true, req.ID)
	p.B32Bytes(handle).B64(offset).B32Bytes(data)
	return req, finishOutPacket(p)
}

func (c *Client) WriteRecv(pkt *inPacket, req *Request) (bool, error) {
	return c.StatusRecv(pkt, req)
}

// --- READDIR ---

func (c *Client) Readdir(handle []byte) (*Request, []byte) {
	req := c.registry.Alloc(nil)
	p := newOutPacket(FxpReaddir, true, req.ID)
	p.B32Bytes(handle)
	return req, finishOutPacket(p)
}

// minNameEncodedSize is a conservative floor for one encoded NAME
// entry (4-byte filename length + 4-byte longname length + 4-byte
// empty attrs flags, the smallest a Name can encode to), used to
// reject implausible name counts before allocating for them.
const minNameEncodedSize = 12

// ReaddirRecv parses a NAME response into a list of entries, or reports
// eof=true with no names and no error when the server signals
// end-of-directory via STATUS(EOF). On a parse error mid-list, any names parsed so far
// are discarded rather than returned as a half-built slice.
func (c *Client) ReaddirRecv(pkt *inPacket, req *Request) ([]Name, bool, error) {
	if err := c.retire(pkt, req); err != nil {
		return nil, false, err
	}
	if pkt.Type == FxpStatus {
		_, eof, err := c.recordStatus(pkt.r)
		if eof {
			return nil, true, nil
		}
		return nil, false, err
	}
	if pkt.Type != FxpName {
		return nil, false, protoErrf("readdir", "unexpected response type %d", pkt.Type)
	}
	var count uint32
	pkt.r.B32(&count)
	if pkt.r.Err() {
		return nil, false, protoErrf("readdir", "truncated NAME count")
	}
	if int(count) > pkt.r.Avail()/minNameEncodedSize {
		return nil, false, protoErrf("readdir", "name count %d implausible for remaining body", count)
	}
	names := make([]Name, 0, count)
	for i := uint32(0); i < count; i++ {
		var n Name
		pkt.r.B32String(&n.Filename).B32String(&n.Longname)
		n.Attrs = decodeAttrs(pkt.r)
		if pkt.r.Err() {
			return nil, false, protoErrf("readdir", "truncated Name entry %d of %d", i, count)
		}
		names = append(names, n)
	}
	return names, false, nil
}
