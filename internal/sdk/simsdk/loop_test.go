package simsdk

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventLoop_FIFO(t *testing.T) {
	q := newEventLoop()

	var got []int
	for i := 1; i <= 3; i++ {
		n := i
		require.True(t, q.enqueue(func() { got = append(got, n) }))
	}

	for {
		task, ok := q.tryDequeue()
		if !ok {
			break
		}
		task()
	}
	assert.Equal(t, []int{1, 2, 3}, got)
}

func TestEventLoop_EnqueueAfterClose(t *testing.T) {
	q := newEventLoop()
	q.close()
	q.close()

	assert.False(t, q.enqueue(func() {}))
}

func TestEventLoop_RunDrainsThenStopsOnClose(t *testing.T) {
	q := newEventLoop()
	ran := make(chan int, 2)
	q.enqueue(func() { ran <- 1 })
	q.enqueue(func() { ran <- 2 })
	q.close()

	q.run(context.Background())

	assert.Equal(t, 1, <-ran)
	assert.Equal(t, 2, <-ran)
	select {
	case <-q.done:
	default:
		t.Fatal("done should be closed after run returns")
	}
}

func TestEventLoop_RunStopsOnCancel(t *testing.T) {
	q := newEventLoop()
	ctx, cancel := context.WithCancel(context.Background())
	go q.run(ctx)
	cancel()

	select {
	case <-q.done:
	case <-time.After(time.Second):
		t.Fatal("loop did not stop")
	}
	assert.False(t, q.enqueue(func() {}))
}

func TestSeq_SurvivesReset(t *testing.T) {
	p := New()
	defer p.Close()
	assert.Equal(t, int64(0), p.Seq())

	p.record(OpConnect, "", nil)
	p.record(OpConnect, "", nil)
	p.ResetTrace()
	p.record(OpConnect, "", nil)

	trace := p.Trace()
	require.Len(t, trace, 1)
	assert.Equal(t, int64(3), trace[0].Seq)
	assert.Equal(t, int64(3), p.Seq())
}
