// Package bpp implements the SSH-2 Binary Packet Protocol engine: the
// resumable input state machine that turns a byte-chain of ciphertext
// into decoded PktIn packets, and the output formatter that turns a
// PktOut into the framed bytes the transport sends.
package bpp

import (
	"encoding/binary"

	"github.com/OpenListTeam/sftpd-openlist/bytechain"
	"github.com/OpenListTeam/sftpd-openlist/sshcrypto"
)

// V2PacketLimit is the sanity ceiling on a single SSH-2 packet's
// length field, independent of any real protocol limit, used to bound
// the CBC mac-then-encrypt retry loop and reject garbled length fields
// early.
const V2PacketLimit = 262144

// inputStage names where Pump should resume after a suspend. The
// resumable input machine is an explicit enum plus the per-iteration
// locals kept as Engine fields below, so a return for lack of bytes
// loses nothing.
type inputStage int

const (
	stageNewPacket inputStage = iota
	stageCBCReadMacLen
	stageCBCReadBlock
	stageEtmReadLen
	stageEtmReadRest
	stageStdReadBlock1
	stageStdReadRest
	stageWaitNewKeys
	stageDead // a transport-fatal error or clean close already fired
)

// Config carries the BPP's tunables. There is no CLI or config-file
// layer at this level; callers build the struct by hand.
type Config struct {
	// PacketLimit overrides V2PacketLimit; zero means use the default.
	PacketLimit uint32
	// RemoteBugs is a bitset of peer-quirk workarounds; bit
	// BugChokesOnIgnore suppresses the CBC IGNORE workaround.
	RemoteBugs uint32
}

const BugChokesOnIgnore uint32 = 1 << 0

// Engine is one direction-pair BPP instance: it owns the input and
// output crypto state, the resumable input machine, and the outbound
// packet queue. It is not safe for concurrent use; Pump and Drain must
// be serialized by the caller with respect to each other and with
// respect to InstallIncomingCrypto/InstallOutgoingCrypto.
type Engine struct {
	in, out Direction

	decomp sshcrypto.Decompressor
	comp   sshcrypto.Compressor

	cbcIgnoreWorkaround bool
	pendingNewKeys      bool
	expectClose         bool
	inputEOF            bool

	stats      *DataTransferStats
	remoteBugs uint32
	limit      uint32

	// --- input coroutine state, live across suspensions ---
	stage     inputStage
	data      []byte
	cipherblk int
	maclen    int
	lenVal    uint32
	pad       byte
	packetlen uint32
	lenHeader [4]byte // etm path's untouched-on-wire length prefix

	inQueue []*PktIn

	// --- output side ---
	outQueue []*PktOut // packets enqueued by Send, not yet formatted

	// --- logging / callbacks ---
	Logger  FieldLogger
	Debugf  func(format string, args ...interface{})
	Censor  CensorFunc

	OnAbort       func(err error)
	OnRemoteError func(err error)
	OnRemoteEOF   func()

	needRekeyIn, needRekeyOut bool
}

// NewEngine returns an Engine with identity compression installed in
// both directions and no cipher/MAC (plaintext), ready to Pump/Drain
// immediately — matching how a fresh SSH-2 connection starts before its
// first NEWKEYS.
func NewEngine(stats *DataTransferStats, cfg Config) *Engine {
	limit := cfg.PacketLimit
	if limit == 0 {
		limit = V2PacketLimit
	}
	return &Engine{
		stats:      stats,
		remoteBugs: cfg.RemoteBugs,
		limit:      limit,
		decomp:     sshcrypto.NewNoDecompressor(),
		comp:       sshcrypto.NewNoCompressor(),
		stage:      stageNewPacket,
	}
}

// ExpectClose marks that the upper layer has already sent or expects a
// clean session teardown, so an input EOF should be reported via
// OnRemoteEOF rather than OnRemoteError.
func (e *Engine) ExpectClose() { e.expectClose = true }

// InstallIncomingCrypto atomically swaps in new inbound cipher/MAC/
// compression handles and clears pending_newkeys. Prior handles are
// simply dropped; Go's GC reclaims their key material, but callers
// whose handles hold onto key bytes directly should zero them before
// calling this.
func (e *Engine) InstallIncomingCrypto(cipher sshcrypto.Cipher, mac sshcrypto.Mac, etm bool, decomp sshcrypto.Decompressor) {
	e.in.Cipher = cipher
	e.in.Mac = mac
	e.in.EtmMode = etm
	if decomp == nil {
		decomp = sshcrypto.NewNoDecompressor()
	}
	e.decomp = decomp
	e.pendingNewKeys = false
}

// InstallOutgoingCrypto is InstallIncomingCrypto's output-direction
// counterpart. Compression is never represented by a nil handle; pass
// sshcrypto.NewNoCompressor() for identity.
func (e *Engine) InstallOutgoingCrypto(cipher sshcrypto.Cipher, mac sshcrypto.Mac, etm bool, comp sshcrypto.Compressor) {
	e.out.Cipher = cipher
	e.out.Mac = mac
	e.out.EtmMode = etm
	if comp == nil {
		comp = sshcrypto.NewNoCompressor()
	}
	e.comp = comp
	e.cbcIgnoreWorkaround = e.out.isCBC() && e.remoteBugs&BugChokesOnIgnore == 0
}

// NeedRekeyIn/NeedRekeyOut report whether a ConsumeIn/Out call has
// crossed the configured rekey threshold; once raised, a flag stays
// set. The owner checks these after each Pump/Drain call.
func (e *Engine) NeedRekeyIn() bool  { return e.needRekeyIn }
func (e *Engine) NeedRekeyOut() bool { return e.needRekeyOut }

// InQueue drains and returns all PktIn decoded since the last call.
// Ownership of the returned packets passes to the caller.
func (e *Engine) InQueue() []*PktIn {
	q := e.inQueue
	e.inQueue = nil
	return q
}

// read attempts to consume exactly len(dst) bytes from chain into dst.
// It returns (true, nil) on success, (false, nil) if the chain doesn't
// yet have enough bytes (the caller must suspend and retry later). If
// the chain has hit EOF with no hope of ever supplying them, the engine
// goes terminal and either fires OnRemoteEOF and returns (false, nil)
// when a close was expected, or fires OnRemoteError and returns
// (false, err) otherwise.
func (e *Engine) read(chain *bytechain.Chain, dst []byte) (bool, error) {
	if chain.TryFetchConsume(dst) {
		return true, nil
	}
	if chain.EOF() {
		e.inputEOF = true
		e.stage = stageDead
		if e.expectClose {
			if e.OnRemoteEOF != nil {
				e.OnRemoteEOF()
			}
		} else {
			var err *FatalError
			if cause := chain.Err(); cause != nil {
				err = fatalWrap("Server unexpectedly closed network connection", cause)
			} else {
				err = fatalf("Server unexpectedly closed network connection")
			}
			if e.OnRemoteError != nil {
				e.OnRemoteError(err)
			}
			return false, err
		}
		return false, nil
	}
	return false, nil
}

func beU32(b []byte) uint32  { return binary.BigEndian.Uint32(b) }
func putU32(b []byte, v uint32) { binary.BigEndian.PutUint32(b, v) }

// abort fires OnAbort with a FatalError built from msg, marks the
// engine terminal, and returns that error so Pump can propagate it.
func (e *Engine) abort(msg string) error {
	e.stage = stageDead
	err := fatalf(msg)
	if e.OnAbort != nil {
		e.OnAbort(err)
	}
	return err
}

// Pump drives the input state machine as far forward as the bytes
// currently queued in chain allow, decoding zero or more packets onto
// InQueue, then returns. It is safe to call again once more bytes have
// been appended to chain, or once chain.SetEOF() has been called. It
// must not be called again after it returns a non-nil error.
func (e *Engine) Pump(chain *bytechain.Chain) error {
	for {
		if e.stage == stageDead {
			return nil
		}
		progressed, err := e.step(chain)
		if err != nil {
			return err
		}
		if !progressed {
			return nil
		}
	}
}

// step executes one transition of the input machine, returning whether
// it made progress (so Pump should call it again) or needs to suspend
// (not enough bytes yet).
func (e *Engine) step(chain *bytechain.Chain) (bool, error) {
	switch e.stage {
	case stageNewPacket:
		e.beginPacket()
		return true, nil

	case stageCBCReadMacLen:
		ok, err := e.read(chain, e.data[:e.maclen])
		if err != nil || !ok {
			return false, err
		}
		e.packetlen = 0
		e.in.Mac.Start()
		var seqBuf [4]byte
		putU32(seqBuf[:], e.in.Sequence)
		e.in.Mac.Put(seqBuf[:])
		e.stage = stageCBCReadBlock
		return true, nil

	case stageCBCReadBlock:
		dst := e.data[int(e.packetlen)+e.maclen : int(e.packetlen)+e.maclen+e.cipherblk]
		ok, err := e.read(chain, dst)
		if err != nil || !ok {
			return false, err
		}
		block := e.data[e.packetlen : e.packetlen+uint32(e.cipherblk)]
		e.in.Cipher.Decrypt(block)
		e.in.Mac.Put(block)
		e.packetlen += uint32(e.cipherblk)
		tag := e.data[e.packetlen : e.packetlen+uint32(e.maclen)]
		if e.in.Mac.VerifyResult(tag) && beU32(e.data[0:4]) == e.packetlen-4 {
			e.lenVal = e.packetlen - 4
			return true, e.finishPacket()
		}
		if e.packetlen >= e.limit {
			return false, e.abort("No valid incoming packet found")
		}
		return true, nil

	case stageEtmReadLen:
		ok, err := e.read(chain, e.lenHeader[:])
		if err != nil || !ok {
			return false, err
		}
		if e.in.separateLength() {
			var tmp [4]byte
			copy(tmp[:], e.lenHeader[:])
			e.in.Cipher.DecryptLength(tmp[:], e.in.Sequence)
			e.lenVal = beU32(tmp[:])
		} else {
			e.lenVal = beU32(e.lenHeader[:])
		}
		if e.lenVal > e.limit || (e.cipherblk > 0 && e.lenVal%uint32(e.cipherblk) != 0) {
			return false, e.abort("Incoming packet length field was garbled")
		}
		e.packetlen = e.lenVal + 4
		e.data = make([]byte, e.packetlen+uint32(e.maclen))
		copy(e.data[0:4], e.lenHeader[:])
		e.stage = stageEtmReadRest
		return true, nil

	case stageEtmReadRest:
		ok, err := e.read(chain, e.data[4:])
		if err != nil || !ok {
			return false, err
		}
		if e.in.Mac != nil && !e.in.Mac.Verify(e.data, int(e.lenVal)+4, e.in.Sequence) {
			return false, e.abort("Incorrect MAC received on packet")
		}
		if e.in.Cipher != nil {
			e.in.Cipher.Decrypt(e.data[4:e.packetlen])
		}
		return true, e.finishPacket()

	case stageStdReadBlock1:
		block := bytechain.AllocScratch(e.cipherblk)[:e.cipherblk]
		ok, err := e.read(chain, block)
		if err != nil || !ok {
			bytechain.FreeScratch(block)
			return false, err
		}
		if e.in.Cipher != nil {
			e.in.Cipher.Decrypt(block)
		}
		e.lenVal = beU32(block[0:4])
		if e.lenVal > e.limit || (e.lenVal+4)%uint32(e.cipherblk) != 0 {
			bytechain.FreeScratch(block)
			return false, e.abort("Incoming packet was garbled on decryption")
		}
		e.packetlen = e.lenVal + 4
		e.data = make([]byte, e.packetlen+uint32(e.maclen))
		copy(e.data[0:e.cipherblk], block)
		bytechain.FreeScratch(block)
		e.stage = stageStdReadRest
		return true, nil

	case stageStdReadRest:
		ok, err := e.read(chain, e.data[e.cipherblk:])
		if err != nil || !ok {
			return false, err
		}
		if e.in.Cipher != nil {
			e.in.Cipher.Decrypt(e.data[e.cipherblk:e.packetlen])
		}
		if e.in.Mac != nil && !e.in.Mac.Verify(e.data, int(e.lenVal)+4, e.in.Sequence) {
			return false, e.abort("Incorrect MAC received on packet")
		}
		return true, e.finishPacket()

	case stageWaitNewKeys:
		if e.pendingNewKeys {
			return false, nil
		}
		e.stage = stageNewPacket
		return true, nil
	}
	return false, nil
}

// beginPacket computes the per-packet framing parameters and
// dispatches to the path for the currently installed cipher/MAC
// combination.
func (e *Engine) beginPacket() {
	e.cipherblk = e.in.cipherBlockSize()
	e.maclen = e.in.macLen()

	switch {
	case e.in.isCBC() && e.in.Mac != nil && !e.in.EtmMode:
		e.data = make([]byte, e.limit+uint32(e.maclen))
		e.stage = stageCBCReadMacLen
	case e.in.Mac != nil && e.in.EtmMode:
		e.stage = stageEtmReadLen
	default:
		e.stage = stageStdReadBlock1
	}
}

// finishPacket runs the common tail shared by all three input paths:
// padding sanity, rekey accounting, sequencing, decompression, type
// extraction, logging, and either internal consumption or delivery to
// InQueue. It returns a non-nil error only for transport-fatal
// conditions; those already call abort internally.
func (e *Engine) finishPacket() error {
	maxlen := e.packetlen + uint32(e.maclen)
	e.pad = e.data[4]
	if e.pad < 4 || int64(e.lenVal)-int64(e.pad) < 1 {
		return e.abort("Invalid padding length on received packet")
	}
	length := e.packetlen - uint32(e.pad)

	if e.stats.ConsumeIn(uint64(e.packetlen)) {
		e.needRekeyIn = true
	}

	seq := e.in.Sequence
	e.in.Sequence++

	data := e.data
	if e.decomp != nil {
		if newPayload, ok := e.decomp.Decompress(data[5:length]); ok {
			newlen := uint32(len(newPayload))
			if maxlen < newlen+5 {
				newdata := make([]byte, newlen+5)
				copy(newdata[0:5], data[0:5])
				maxlen = newlen + 5
				for i := range data {
					data[i] = 0
				}
				data = newdata
			}
			copy(data[5:5+newlen], newPayload)
			length = 5 + newlen
		}
	}

	var typ MsgType
	var payload []byte
	if length <= 5 {
		typ = NoTypeCode
		payload = data[5:length]
	} else {
		typ = MsgType(data[5])
		payload = data[6:length]
	}

	if e.Logger != nil || e.Debugf != nil {
		e.logPacket(false, seq, byte(typ), data[5:length])
	}

	if typ != NoTypeCode && isUnimplementedRange(byte(typ)) {
		reply := NewPktOut(MsgUnimplemented)
		reply.B32(seq)
		e.Send(reply)
		e.stage = stageNewPacket
		return nil
	}

	pktin := newPktIn(typ, seq, payload)
	e.inQueue = append(e.inQueue, pktin)

	if byte(typ) == MsgNewKeys {
		e.pendingNewKeys = true
		e.stage = stageWaitNewKeys
		return nil
	}
	e.stage = stageNewPacket
	return nil
}
