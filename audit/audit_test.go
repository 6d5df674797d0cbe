package audit

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cdcfifo/cdc"
)

func digestOf(vals ...uint64) *Digest {
	d := NewDigest()
	for _, v := range vals {
		d.Add(v)
	}
	return d
}

func TestDigest(t *testing.T) {
	a := digestOf(0, 1, 2, 3)
	b := digestOf(0, 1, 2, 3)
	assert.Equal(t, a.Sum(), b.Sum())
	assert.Equal(t, uint64(4), a.Count())
	assert.Len(t, a.Sum(), 64)

	assert.NotEqual(t, a.Sum(), digestOf(0, 2, 1, 3).Sum(), "order matters")
	assert.NotEqual(t, a.Sum(), digestOf(0, 1, 2).Sum(), "length matters")
	assert.NotEqual(t, NewDigest().Sum(), digestOf(0).Sum())

	// Sum must not disturb the running state.
	s1 := a.Sum()
	assert.Equal(t, s1, a.Sum())
	a.Add(4)
	assert.Equal(t, digestOf(0, 1, 2, 3, 4).Sum(), a.Sum())
}

func TestReportFinish(t *testing.T) {
	seq := []uint64{0, 1, 2, 3, 4}

	tests := []struct {
		name     string
		cons     []uint64
		orderErr uint64
		runErr   error
		timedOut bool
		want     string
	}{
		{"ok", seq, 0, nil, false, ResultOK},
		{"short", seq[:4], 0, nil, false, ResultMismatch},
		{"reordered", []uint64{0, 2, 1, 3, 4}, 2, nil, false, ResultMismatch},
		{"timeout", seq[:2], 0, errors.New("deadline"), true, ResultTimeout},
		{"error", seq, 0, errors.New("boom"), false, ResultError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReport("clocked", 16, uint64(len(seq)), time.Now())
			r.OrderErrors = tt.orderErr
			r.Finish(digestOf(seq...), digestOf(tt.cons...), time.Second, tt.runErr, tt.timedOut)
			assert.Equal(t, tt.want, r.Result)
			assert.Equal(t, tt.want == ResultOK, r.Verified() && tt.runErr == nil)
			if tt.runErr != nil {
				assert.Equal(t, tt.runErr.Error(), r.Error)
			}
		})
	}
}

func TestNewReportIDsUnique(t *testing.T) {
	a := NewReport("pinned", 8, 1, time.Now())
	b := NewReport("pinned", 8, 1, time.Now())
	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestEncodeDecode(t *testing.T) {
	started := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	r := NewReport("clocked", 16, 3, started)
	r.SetStats(cdc.Stats{EnqueueFull: 1, DequeueEmpty: 2, ProducerSteps: 5, ConsumerSteps: 7})
	r.SetLevels(2, 0)
	r.Finish(digestOf(0, 1, 2), digestOf(0, 1, 2), 250*time.Millisecond, nil, false)

	data, err := Encode(r)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"result":"ok"`)
	assert.NotContains(t, string(data), `"error"`)

	got, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, r.ID, got.ID)
	assert.True(t, started.Equal(got.StartedAt))
	assert.Equal(t, r.ProducerDigest, got.ConsumerDigest)
	assert.Equal(t, uint64(7), got.ConsumerSteps)
	assert.Equal(t, int64(250*time.Millisecond), got.DurationNs)
	assert.Equal(t, 2, got.ProducerLevel)
	assert.Equal(t, 0, got.ConsumerLevel)
	assert.True(t, got.Verified())
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode([]byte("{not json"))
	assert.Error(t, err)
}
