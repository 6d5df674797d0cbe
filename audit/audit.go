// Package audit proves that the consumer received exactly what the producer
// sent.  Each side folds its stream into a SHA3-256 digest; equal digests
// and equal counts mean equal sequences.  The Report ties both digests to a
// run and is encoded as JSON.
package audit

import (
	"encoding/binary"
	"encoding/hex"
	"hash"
	"time"

	"github.com/google/uuid"
	"github.com/sugawarayuuta/sonnet"
	"golang.org/x/crypto/sha3"

	"cdcfifo/cdc"
)

// Result values stored in reports and run history.
const (
	ResultOK       = "ok"
	ResultMismatch = "mismatch"
	ResultTimeout  = "timeout"
	ResultError    = "error"
)

// Digest accumulates a running hash of a uint64 stream.  Not safe for
// concurrent use; each side owns its own.
type Digest struct {
	h     hash.Hash
	buf   [8]byte
	count uint64
}

// NewDigest returns an empty digest.
func NewDigest() *Digest {
	return &Digest{h: sha3.New256()}
}

// Add folds v into the digest.
func (d *Digest) Add(v uint64) {
	binary.LittleEndian.PutUint64(d.buf[:], v)
	d.h.Write(d.buf[:])
	d.count++
}

// Count is the number of values added.
func (d *Digest) Count() uint64 { return d.count }

// Sum returns the hex digest of everything added so far.  It does not
// reset the digest.
func (d *Digest) Sum() string {
	return hex.EncodeToString(d.h.Sum(nil))
}

// Report is the outcome of one simulation run.
type Report struct {
	ID        string    `json:"id"`
	StartedAt time.Time `json:"started_at"`
	Mode      string    `json:"mode"`
	Capacity  int       `json:"capacity"`

	Items       uint64 `json:"items"`
	Sent        uint64 `json:"sent"`
	Delivered   uint64 `json:"delivered"`
	OrderErrors uint64 `json:"order_errors"`

	ProducerDigest string `json:"producer_digest"`
	ConsumerDigest string `json:"consumer_digest"`

	EnqueueFull   uint64 `json:"enqueue_full"`
	DequeueEmpty  uint64 `json:"dequeue_empty"`
	ProducerSteps uint64 `json:"producer_steps"`
	ConsumerSteps uint64 `json:"consumer_steps"`

	// Occupancy each side could prove when the run ended.
	ProducerLevel int `json:"producer_level"`
	ConsumerLevel int `json:"consumer_level"`

	DurationNs int64  `json:"duration_ns"`
	Result     string `json:"result"`
	Error      string `json:"error,omitempty"`
}

// NewReport starts a report with a fresh run ID.
func NewReport(mode string, capacity int, items uint64, started time.Time) *Report {
	return &Report{
		ID:        uuid.NewString(),
		StartedAt: started,
		Mode:      mode,
		Capacity:  capacity,
		Items:     items,
	}
}

// SetStats copies the FIFO's cumulative step counts into r.
func (r *Report) SetStats(st cdc.Stats) {
	r.EnqueueFull = st.EnqueueFull
	r.DequeueEmpty = st.DequeueEmpty
	r.ProducerSteps = st.ProducerSteps
	r.ConsumerSteps = st.ConsumerSteps
}

// SetLevels records the final side-local occupancy views.
func (r *Report) SetLevels(producer, consumer int) {
	r.ProducerLevel, r.ConsumerLevel = producer, consumer
}

// Finish fills in the digests and derives the result.  A non-nil runErr
// marks the run as timed out or failed regardless of what was delivered.
func (r *Report) Finish(prod, cons *Digest, elapsed time.Duration, runErr error, timedOut bool) {
	r.Sent = prod.Count()
	r.Delivered = cons.Count()
	r.ProducerDigest = prod.Sum()
	r.ConsumerDigest = cons.Sum()
	r.DurationNs = elapsed.Nanoseconds()

	switch {
	case timedOut:
		r.Result = ResultTimeout
	case runErr != nil:
		r.Result = ResultError
	case !r.Verified():
		r.Result = ResultMismatch
	default:
		r.Result = ResultOK
	}
	if runErr != nil {
		r.Error = runErr.Error()
	}
}

// Verified reports whether every item arrived once, in order.
func (r *Report) Verified() bool {
	return r.OrderErrors == 0 &&
		r.Sent == r.Items &&
		r.Delivered == r.Sent &&
		r.ProducerDigest == r.ConsumerDigest
}

// Encode returns r as JSON.
func Encode(r *Report) ([]byte, error) {
	return sonnet.Marshal(r)
}

// Decode parses a report produced by Encode.
func Decode(data []byte) (*Report, error) {
	var r Report
	if err := sonnet.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}
