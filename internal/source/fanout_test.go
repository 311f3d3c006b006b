package source_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/dealhound/dealhound/internal/source"
	"github.com/dealhound/dealhound/internal/source/mock"
)

func newDispatcher(concurrency int) *source.Dispatcher {
	return source.NewDispatcher(source.DispatcherConfig{Concurrency: concurrency}, nil, zap.NewNop(), nil)
}

func TestDispatch(t *testing.T) {
	t.Run("joins results in task order", func(t *testing.T) {
		first := mock.New("first").WithListings([]source.RawListing{
			{Title: "A", Link: "https://a.com/1"},
		}).WithDelay(30 * time.Millisecond)
		second := mock.New("second").WithListings([]source.RawListing{
			{Title: "B", Link: "https://b.com/1"},
		})

		d := newDispatcher(2)
		out := d.Dispatch(context.Background(), []string{"term"}, []source.Adapter{first, second}, "", 1)

		if len(out) != 2 {
			t.Fatalf("got %d listings, want 2", len(out))
		}
		// first is slower but still comes first
		if out[0].Title != "A" || out[1].Title != "B" {
			t.Errorf("join order wrong: %q then %q", out[0].Title, out[1].Title)
		}
	})

	t.Run("failing adapter contributes nothing", func(t *testing.T) {
		failing := mock.New("failing").WithError(errors.New("down"))
		working := mock.New("working").WithListings([]source.RawListing{
			{Title: "Kept", Link: "https://a.com/1"},
		})

		d := newDispatcher(2)
		out := d.Dispatch(context.Background(), []string{"term"}, []source.Adapter{failing, working}, "", 1)

		if len(out) != 1 || out[0].Title != "Kept" {
			t.Errorf("got %v", out)
		}
	})

	t.Run("panicking adapter is contained", func(t *testing.T) {
		panicking := mock.New("panicking").WithPanic()
		working := mock.New("working").WithListings([]source.RawListing{
			{Title: "Kept", Link: "https://a.com/1"},
		})

		d := newDispatcher(2)
		out := d.Dispatch(context.Background(), []string{"term"}, []source.Adapter{panicking, working}, "", 1)

		if len(out) != 1 || out[0].Title != "Kept" {
			t.Errorf("got %v", out)
		}
	})

	t.Run("stamps the source name", func(t *testing.T) {
		adapter := mock.New("ebay").WithListings([]source.RawListing{
			{Title: "Item", Link: "https://a.com/1"},
		})

		d := newDispatcher(1)
		out := d.Dispatch(context.Background(), []string{"term"}, []source.Adapter{adapter}, "", 1)

		if len(out) != 1 || out[0].Source != "ebay" {
			t.Errorf("got %v", out)
		}
	})

	t.Run("every term reaches every adapter", func(t *testing.T) {
		a := mock.New("a")
		b := mock.New("b")

		d := newDispatcher(2)
		d.Dispatch(context.Background(), []string{"one", "two", "three"}, []source.Adapter{a, b}, "", 1)

		if a.Calls() != 3 || b.Calls() != 3 {
			t.Errorf("calls: a=%d b=%d, want 3 each", a.Calls(), b.Calls())
		}
	})

	t.Run("respects the concurrency cap", func(t *testing.T) {
		tracker := &concurrencyTracker{}
		adapters := []source.Adapter{
			&trackingAdapter{name: "a", tracker: tracker},
			&trackingAdapter{name: "b", tracker: tracker},
			&trackingAdapter{name: "c", tracker: tracker},
			&trackingAdapter{name: "d", tracker: tracker},
		}

		d := newDispatcher(2)
		d.Dispatch(context.Background(), []string{"term"}, adapters, "", 1)

		if tracker.Max() > 2 {
			t.Errorf("max concurrency %d exceeded cap 2", tracker.Max())
		}
	})

	t.Run("cancelled context stops dispatching", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		adapter := mock.New("a").WithListings([]source.RawListing{
			{Title: "Item", Link: "https://a.com/1"},
		})

		d := newDispatcher(1)
		out := d.Dispatch(ctx, []string{"term"}, []source.Adapter{adapter}, "", 1)

		if len(out) != 0 {
			t.Errorf("got %d listings, want 0", len(out))
		}
	})

	t.Run("empty inputs", func(t *testing.T) {
		d := newDispatcher(1)
		if out := d.Dispatch(context.Background(), nil, nil, "", 1); out != nil {
			t.Errorf("got %v, want nil", out)
		}
	})
}

type concurrencyTracker struct {
	mu      sync.Mutex
	current int
	max     int
}

func (c *concurrencyTracker) enter() {
	c.mu.Lock()
	c.current++
	if c.current > c.max {
		c.max = c.current
	}
	c.mu.Unlock()
}

func (c *concurrencyTracker) exit() {
	c.mu.Lock()
	c.current--
	c.mu.Unlock()
}

func (c *concurrencyTracker) Max() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.max
}

type trackingAdapter struct {
	name    string
	tracker *concurrencyTracker
}

func (a *trackingAdapter) Name() string { return a.name }

func (a *trackingAdapter) Search(ctx context.Context, term, location string, maxPages int) ([]source.RawListing, error) {
	a.tracker.enter()
	defer a.tracker.exit()
	time.Sleep(20 * time.Millisecond)
	return nil, nil
}
