package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestQueueFIFO(t *testing.T) {
	q := NewQueue()
	var pushed []*Job
	for i := range 5 {
		job := NewJob(fmt.Sprintf("/m/%d.mkv", i), "/s.srt", "/o.mkv", 60)
		pushed = append(pushed, job)
		q.Push(job)
	}
	if q.Len() != 5 {
		t.Fatalf("len = %d", q.Len())
	}
	ctx := context.Background()
	for i, want := range pushed {
		got, err := q.Pop(ctx)
		if err != nil {
			t.Fatalf("pop %d: %v", i, err)
		}
		if got != want {
			t.Fatalf("pop %d returned %s, want %s", i, got.Name(), want.Name())
		}
	}
	if q.Len() != 0 {
		t.Fatalf("len after drain = %d", q.Len())
	}
}

func TestQueuePopBlocksUntilPush(t *testing.T) {
	q := NewQueue()
	job := NewJob("/m/a.mkv", "/s.srt", "/o.mkv", 60)
	result := make(chan *Job, 1)
	go func() {
		got, err := q.Pop(context.Background())
		if err != nil {
			result <- nil
			return
		}
		result <- got
	}()

	select {
	case <-result:
		t.Fatal("pop returned before push")
	case <-time.After(50 * time.Millisecond):
	}
	q.Push(job)
	select {
	case got := <-result:
		if got != job {
			t.Fatalf("pop returned %v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("pop did not wake after push")
	}
}

func TestQueuePopHonoursContext(t *testing.T) {
	q := NewQueue()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := q.Pop(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestQueueConcurrentPushPreservesAll(t *testing.T) {
	q := NewQueue()
	const producers, perProducer = 8, 50
	var wg sync.WaitGroup
	for p := range producers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range perProducer {
				q.Push(NewJob(fmt.Sprintf("/m/%d-%d.mkv", p, i), "/s.srt", "/o.mkv", 60))
			}
		}()
	}

	seen := make(map[*Job]struct{})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for len(seen) < producers*perProducer {
		job, err := q.Pop(ctx)
		if err != nil {
			t.Fatalf("pop: %v (got %d)", err, len(seen))
		}
		if _, dup := seen[job]; dup {
			t.Fatalf("job %s popped twice", job.Name())
		}
		seen[job] = struct{}{}
	}
	wg.Wait()
	if q.Len() != 0 {
		t.Fatalf("len = %d after draining", q.Len())
	}
}
