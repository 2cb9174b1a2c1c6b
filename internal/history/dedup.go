// Package history holds the authoritative in-memory clipboard history: the
// deduplication index and the two-partition ordered store. Everything here is
// synchronous and unlocked; the engine serializes all access.
package history

// DedupIndex maps a content fingerprint to the id of the one live entry
// holding that content.
type DedupIndex struct {
	byFingerprint map[uint64]string
}

// NewDedupIndex returns an empty index.
func NewDedupIndex() *DedupIndex {
	return &DedupIndex{byFingerprint: make(map[uint64]string)}
}

// Lookup returns the id of the live entry for fp, if any.
func (d *DedupIndex) Lookup(fp uint64) (string, bool) {
	id, ok := d.byFingerprint[fp]
	return id, ok
}

// Register records id as the live entry for fp.
func (d *DedupIndex) Register(fp uint64, id string) {
	d.byFingerprint[fp] = id
}

// Release removes the mapping for fp so identical content can be re-added.
func (d *DedupIndex) Release(fp uint64) {
	delete(d.byFingerprint, fp)
}

// Reset empties the index in one step.
func (d *DedupIndex) Reset() {
	d.byFingerprint = make(map[uint64]string)
}

// Len reports the number of live fingerprints.
func (d *DedupIndex) Len() int { return len(d.byFingerprint) }
