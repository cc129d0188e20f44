package fetch

import (
	"context"
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu      sync.Mutex
	applied []string
}

func (r *recorder) apply(query string, result string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.applied = append(r.applied, "err:"+err.Error())
		return
	}
	r.applied = append(r.applied, result)
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.applied...)
}

func echoFetch(_ context.Context, query string) (string, error) {
	return "result:" + query, nil
}

func TestDebouncerCoalescesRapidTriggers(t *testing.T) {
	rec := &recorder{}
	d := NewDebouncer(echoFetch, rec.apply, WithInterval(30*time.Millisecond))
	defer d.Close()

	d.Trigger("c")
	d.Trigger("ch")
	d.Trigger("cha")
	d.Trigger("chair")

	time.Sleep(150 * time.Millisecond)

	got := rec.snapshot()
	if len(got) != 1 || got[0] != "result:chair" {
		t.Fatalf("expected single coalesced fetch for final query, got %v", got)
	}
}

func TestDebouncerWaitsQuietInterval(t *testing.T) {
	rec := &recorder{}
	d := NewDebouncer(echoFetch, rec.apply, WithInterval(80*time.Millisecond))
	defer d.Close()

	d.Trigger("lamp")
	time.Sleep(30 * time.Millisecond)
	if got := rec.snapshot(); len(got) != 0 {
		t.Fatalf("fetch ran before the quiet interval elapsed: %v", got)
	}

	time.Sleep(150 * time.Millisecond)
	if got := rec.snapshot(); len(got) != 1 {
		t.Fatalf("expected exactly one fetch, got %v", got)
	}
}

func TestDebouncerSuppressesStaleResults(t *testing.T) {
	release := make(chan struct{})
	var once sync.Once
	slowFirst := func(ctx context.Context, query string) (string, error) {
		if query == "slow" {
			select {
			case <-release:
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
		return "result:" + query, nil
	}

	rec := &recorder{}
	d := NewDebouncer(slowFirst, rec.apply, WithInterval(10*time.Millisecond))
	defer d.Close()
	defer once.Do(func() { close(release) })

	d.Trigger("slow")
	time.Sleep(50 * time.Millisecond)

	// The slow request is now in flight; supersede it.
	d.Trigger("fast")
	time.Sleep(80 * time.Millisecond)
	once.Do(func() { close(release) })
	time.Sleep(50 * time.Millisecond)

	got := rec.snapshot()
	if len(got) != 1 || got[0] != "result:fast" {
		t.Fatalf("stale result must be dropped, got %v", got)
	}
}

func TestDebouncerCancelsInFlightContext(t *testing.T) {
	cancelled := make(chan struct{})
	blocking := func(ctx context.Context, query string) (string, error) {
		if query == "first" {
			<-ctx.Done()
			close(cancelled)
			return "", ctx.Err()
		}
		return "result:" + query, nil
	}

	rec := &recorder{}
	d := NewDebouncer(blocking, rec.apply, WithInterval(10*time.Millisecond))
	defer d.Close()

	d.Trigger("first")
	time.Sleep(50 * time.Millisecond)
	d.Trigger("second")

	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatalf("superseded request context was not cancelled")
	}
}

func TestDebouncerCloseSuppressesPending(t *testing.T) {
	rec := &recorder{}
	d := NewDebouncer(echoFetch, rec.apply, WithInterval(40*time.Millisecond))

	d.Trigger("rug")
	d.Close()
	time.Sleep(100 * time.Millisecond)

	if got := rec.snapshot(); len(got) != 0 {
		t.Fatalf("no apply may run after Close, got %v", got)
	}

	// Triggers after Close are ignored.
	d.Trigger("late")
	time.Sleep(100 * time.Millisecond)
	if got := rec.snapshot(); len(got) != 0 {
		t.Fatalf("trigger after Close must be ignored, got %v", got)
	}
}

func TestTriggerNowSkipsInterval(t *testing.T) {
	rec := &recorder{}
	d := NewDebouncer(echoFetch, rec.apply, WithInterval(time.Hour))
	defer d.Close()

	d.TriggerNow("vase")
	time.Sleep(50 * time.Millisecond)

	got := rec.snapshot()
	if len(got) != 1 || got[0] != "result:vase" {
		t.Fatalf("expected immediate fetch, got %v", got)
	}
}
