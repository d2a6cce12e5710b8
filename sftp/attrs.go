package sftp

import (
	"os"
	"time"

	"github.com/OpenListTeam/sftpd-openlist/binp"
)

// Attribute flag bits from the SSH_FILEXFER_ATTR_* group. AttrExtended
// is never set by this client when encoding: extended pairs are parsed
// and discarded on input, never re-emitted on output.
const (
	AttrSize        uint32 = 0x00000001
	AttrUidGid      uint32 = 0x00000002
	AttrPermissions uint32 = 0x00000004
	AttrAcModTime   uint32 = 0x00000008
	AttrExtended    uint32 = 0x80000000
)

// Attr is the client-side attribute record returned by STAT/FSTAT and
// carried (optionally) on OPEN and SETSTAT/FSETSTAT.
type Attr struct {
	Flags      uint32
	Size       uint64
	Uid, Gid   uint32
	Perms      os.FileMode
	ATime      time.Time
	MTime      time.Time
}

// IsDir reports whether the permissions field (if present) marks a
// directory (S_IFDIR = 0040000 in the wire encoding).
func (a *Attr) IsDir() bool { return a.Perms&os.ModeDir != 0 }

func permsToWire(m os.FileMode) uint32 {
	raw := uint32(m.Perm())
	switch {
	case m.IsDir():
		raw |= 0040000
	case m.IsRegular():
		raw |= 0100000
	}
	return raw
}

func permsFromWire(raw uint32) os.FileMode {
	m := os.FileMode(raw & 0777)
	if raw&0040000 != 0 {
		m |= os.ModeDir
	}
	return m
}

// FillFrom populates an Attr from a local os.FileInfo, for callers
// building an OPEN or SETSTAT request.
func (a *Attr) FillFrom(fi os.FileInfo) {
	*a = Attr{}
	a.Flags = AttrSize | AttrPermissions
	a.Size = uint64(fi.Size())
	a.Perms = fi.Mode()
	a.MTime = fi.ModTime()
}

// decodeAttrs reads the flags word, then each present field in wire
// order, and finally consumes (and drops) any AttrExtended pairs so
// the cursor lands correctly for whatever follows in the enclosing
// packet.
func decodeAttrs(r *binp.Reader) Attr {
	var a Attr
	r.B32(&a.Flags)
	if a.Flags&AttrSize != 0 {
		r.B64(&a.Size)
	}
	if a.Flags&AttrUidGid != 0 {
		r.B32(&a.Uid)
		r.B32(&a.Gid)
	}
	if a.Flags&AttrPermissions != 0 {
		var perms uint32
		r.B32(&perms)
		a.Perms = permsFromWire(perms)
	}
	if a.Flags&AttrAcModTime != 0 {
		var atime, mtime uint32
		r.B32(&atime)
		r.B32(&mtime)
		a.ATime = time.Unix(int64(atime), 0)
		a.MTime = time.Unix(int64(mtime), 0)
	}
	if a.Flags&AttrExtended != 0 {
		var count uint32
		r.B32(&count)
		for i := uint32(0); i < count; i++ {
			var k, v string
			r.B32String(&k).B32String(&v)
		}
	}
	return a
}

// encodeAttrs is the mirror of decodeAttrs, writing only the fields
// whose flag bit is set and never emitting an extended-pairs section.
func encodeAttrs(p *binp.Printer, a Attr) {
	p.B32(a.Flags)
	if a.Flags&AttrSize != 0 {
		p.B64(a.Size)
	}
	if a.Flags&AttrUidGid != 0 {
		p.B32(a.Uid)
		p.B32(a.Gid)
	}
	if a.Flags&AttrPermissions != 0 {
		p.B32(permsToWire(a.Perms))
	}
	if a.Flags&AttrAcModTime != 0 {
		p.B32(uint32(a.ATime.Unix()))
		p.B32(uint32(a.MTime.Unix()))
	}
}

// Name is one entry of a READDIR/REALPATH NAME response. Clone returns
// an independent copy.
type Name struct {
	Filename string
	Longname string
	Attrs    Attr
}

func (n Name) Clone() Name { return n }
