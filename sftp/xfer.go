package sftp

import "math"

const (
	downloadChunk           = 32768
	defaultReqMaxSize       = 1048576
	infiniteFilesize uint64 = math.MaxUint64
)

// xferReq is one in-flight READ or WRITE, kept on Xfer's FIFO. The
// list is doubly linked because uploads complete out of order and need
// interior removal.
type xferReq struct {
	req      *Request
	offset   uint64
	length   uint32
	data     []byte
	retlen   int
	complete int8 // 0 = pending, +1 = ok, -1 = error/eof-sentinel
	next     *xferReq
	prev     *xferReq
}

// Xfer is a pipelined bulk READ or WRITE session over one open file
// handle.
type Xfer struct {
	client *Client
	handle []byte

	offset       uint64
	furthestData uint64
	filesize     uint64

	reqTotalSize uint32
	reqMaxSize   uint32
	chunk        uint32

	eof    bool
	upload bool
	err    error

	head, tail *xferReq
	byID       map[uint32]*xferReq
}

// Err reports the transfer-level failure, if any.
func (x *Xfer) Err() error { return x.err }

// Done reports whether the transfer has reached EOF/error and fully
// drained its in-flight queue.
func (x *Xfer) Done() bool { return (x.eof || x.err != nil) && x.head == nil }

func (x *Xfer) pushTail(n *xferReq) {
	n.prev = x.tail
	if x.tail != nil {
		x.tail.next = n
	} else {
		x.head = n
	}
	x.tail = n
	x.byID[n.req.ID] = n
}

func (x *Xfer) unlink(n *xferReq) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		x.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		x.tail = n.prev
	}
	delete(x.byID, n.req.ID)
}

// DownloadInit starts a download transfer reading handle from
// start_offset, and issues the first batch of pipelined reads.
func DownloadInit(client *Client, handle []byte, startOffset uint64) (*Xfer, [][]byte) {
	x := &Xfer{
		client:     client,
		handle:     handle,
		offset:     startOffset,
		filesize:   infiniteFilesize,
		reqMaxSize: client.opts.maxInFlightBytes(),
		chunk:      client.opts.windowChunk(),
		byID:       make(map[uint32]*xferReq),
	}
	return x, x.DownloadQueue()
}

// DownloadQueue issues as many new chunk-sized reads as the window
// allows and returns their wire bytes for the caller to send. Call
// this again after DownloadGotpkt has retired reads and freed window
// space.
func (x *Xfer) DownloadQueue() [][]byte {
	var frames [][]byte
	for x.reqTotalSize < x.reqMaxSize && !x.eof && x.err == nil {
		req, frame := x.client.Read(x.handle, x.offset, x.chunk)
		node := &xferReq{req: req, offset: x.offset, length: x.chunk}
		x.pushTail(node)
		x.offset += uint64(x.chunk)
		x.reqTotalSize += x.chunk
		frames = append(frames, frame)
	}
	return frames
}

// DownloadGotpkt matches an inbound response against this transfer's
// in-flight reads. mine reports whether pkt belonged to this transfer
// at all; callers should try other transfers/handlers when it's false.
func (x *Xfer) DownloadGotpkt(pkt *inPacket) (mine bool, err error) {
	node, ok := x.byID[pkt.ID]
	if !ok {
		return false, nil
	}

	data, eof, rerr := x.client.ReadRecv(pkt, node.req)
	switch {
	case eof || (rerr == nil && len(data) == 0):
		x.eof = true
		node.complete = -1
		node.retlen = 0
	case rerr != nil:
		x.err = rerr
		node.complete = -1
		x.reqTotalSize -= node.length
		return true, rerr
	default:
		node.complete = 1
		node.data = data
		node.retlen = len(data)
		if node.retlen > 0 && node.offset+uint64(node.retlen) > x.furthestData {
			x.furthestData = node.offset + uint64(node.retlen)
		}
		if uint32(node.retlen) < node.length {
			end := node.offset + uint64(node.retlen)
			if end < x.filesize {
				x.filesize = end
			}
		}
		if x.furthestData > x.filesize {
			x.err = protoErrf("download", "received a short buffer from FXP_READ, but not at EOF")
			node.complete = -1
			x.reqTotalSize -= node.length
			return true, x.err
		}
	}
	x.reqTotalSize -= node.length
	return true, nil
}

// DownloadData drains completed head nodes, skipping failed/EOF ones
// silently, and returns the first successful node's buffer along with
// its file offset. Completion order is issue order regardless of wire
// arrival order, which is what guarantees contiguous output.
func (x *Xfer) DownloadData() (offset uint64, data []byte, ok bool) {
	for x.head != nil && x.head.complete != 0 {
		n := x.head
		x.unlink(n)
		if n.complete == 1 {
			return n.offset, n.data, true
		}
	}
	return 0, nil, false
}

// UploadInit starts an upload transfer: eof is pre-set so Done()
// becomes "every outstanding WRITE has been acked".
func UploadInit(client *Client, handle []byte) *Xfer {
	return &Xfer{
		client:     client,
		handle:     handle,
		eof:        true,
		upload:     true,
		reqMaxSize: client.opts.maxInFlightBytes(),
		chunk:      client.opts.windowChunk(),
		byID:       make(map[uint32]*xferReq),
	}
}

// UploadReady reports whether the transport's pending-send buffer is
// empty, i.e. whether it's safe to call UploadData again without
// building up unbounded backlog. Callers supply that answer since only
// they know the transport's queue depth.
func (x *Xfer) UploadReady(transportQueueEmpty bool) bool { return transportQueueEmpty }

// UploadData issues a WRITE at the given offset and queues its node.
func (x *Xfer) UploadData(offset uint64, data []byte) []byte {
	req, frame := x.client.Write(x.handle, offset, data)
	node := &xferReq{req: req, offset: offset, length: uint32(len(data))}
	x.pushTail(node)
	return frame
}

// UploadGotpkt matches an inbound STATUS against this transfer's
// in-flight writes, unlinking the (possibly interior) node.
func (x *Xfer) UploadGotpkt(pkt *inPacket) (mine bool, err error) {
	node, ok := x.byID[pkt.ID]
	if !ok {
		return false, nil
	}
	x.unlink(node)
	okStatus, werr := x.client.WriteRecv(pkt, node.req)
	if werr != nil {
		x.err = werr
		return true, werr
	}
	if !okStatus {
		x.err = protoErrf("upload", "WRITE rejected by remote")
		return true, x.err
	}
	return true, nil
}

// Cleanup discards all still-pending nodes when a caller abandons the
// transfer mid-flight.
func (x *Xfer) Cleanup() {
	x.head, x.tail = nil, nil
	x.byID = make(map[uint32]*xferReq)
}
