package sftp

import "sort"

// firstRequestID is the floor below which request IDs are never
// allocated, reserving the low range for INIT/VERSION (which carry no
// request ID at all) and leaving headroom for callers that want to
// reserve a few fixed IDs of their own.
const firstRequestID = 256

// Request tracks one outstanding round-trip: the ID placed on the wire
// and whatever the caller needs to resume when the matching response
// arrives.
type Request struct {
	ID       uint32
	Userdata interface{}
}

// Registry allocates SFTP request IDs and tracks which are in flight.
// Allocation is first-fit-lowest: the smallest unused ID at or above
// firstRequestID. The backing store is a sorted slice; the first gap
// is found in O(log N) by binary search (see Alloc), with only the
// slice insert/remove itself left at O(N).
type Registry struct {
	ids  []uint32
	reqs map[uint32]*Request
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{reqs: make(map[uint32]*Request)}
}

// Alloc reserves the lowest free ID at or above firstRequestID and
// returns a Request tracking it. ids is sorted and dense up to the
// first gap: ids[i] == i+firstRequestID for every i before the gap and
// ids[i] > i+firstRequestID from the gap on, since ids is strictly
// increasing. That makes "does a gap exist at or before i" a monotonic
// predicate, so sort.Search finds the gap's index in O(log N) directly
// — the same index also happens to be where the new ID must be
// inserted to keep ids sorted, with no second search needed.
func (r *Registry) Alloc(userdata interface{}) *Request {
	gap := sort.Search(len(r.ids), func(i int) bool {
		return r.ids[i] != uint32(i)+firstRequestID
	})
	id := uint32(gap) + firstRequestID
	req := &Request{ID: id, Userdata: userdata}
	r.ids = append(r.ids, 0)
	copy(r.ids[gap+1:], r.ids[gap:])
	r.ids[gap] = id
	r.reqs[id] = req
	return req
}

// Find looks up the in-flight Request for id, if any.
func (r *Registry) Find(id uint32) (*Request, bool) {
	req, ok := r.reqs[id]
	return req, ok
}

// Remove retires id, freeing it for reuse by a future Alloc.
func (r *Registry) Remove(id uint32) {
	delete(r.reqs, id)
	idx := sort.Search(len(r.ids), func(i int) bool { return r.ids[i] >= id })
	if idx < len(r.ids) && r.ids[idx] == id {
		r.ids = append(r.ids[:idx], r.ids[idx+1:]...)
	}
}

// Len reports the number of in-flight requests.
func (r *Registry) Len() int { return len(r.ids) }
