package bpp

import "github.com/OpenListTeam/sftpd-openlist/sshcrypto"

// Direction holds the per-direction crypto state that a NEWKEYS exchange
// replaces: the cipher and MAC handles, whether the MAC runs in
// encrypt-then-MAC mode, and the packet sequence counter fed to both.
// One of these exists for input, one for output; the engine owns both.
type Direction struct {
	Sequence uint32
	Cipher   sshcrypto.Cipher
	Mac      sshcrypto.Mac
	EtmMode  bool
}

// cipherBlockSize reports the block size the framing logic should use:
// any real block size under 8 is rounded up. A nil
// cipher (identity, never installed post-handshake but handy for tests)
// is treated as having a block size of 8 too.
func (d *Direction) cipherBlockSize() int {
	if d.Cipher == nil {
		return 8
	}
	if bs := d.Cipher.BlockSize(); bs >= 8 {
		return bs
	}
	return 8
}

func (d *Direction) macLen() int {
	if d.Mac == nil {
		return 0
	}
	return d.Mac.Len()
}

func (d *Direction) separateLength() bool {
	return d.Cipher != nil && d.Cipher.Flags()&sshcrypto.SeparateLength != 0
}

func (d *Direction) isCBC() bool {
	return d.Cipher != nil && d.Cipher.Flags()&sshcrypto.IsCBC != 0
}
