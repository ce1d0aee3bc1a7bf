package resolver

import (
	"context"
	"image"
	"sync"
)

// FramePump runs frame analysis on a dedicated goroutine so it never blocks
// the camera's delivery path. At most one frame is in flight; frames
// submitted while the worker is busy are dropped, which also prevents
// overlapping resolution attempts against the same session from one device.
type FramePump struct {
	resolver  *Resolver
	uid       string
	onOutcome func(Outcome)

	frames chan image.Image
	done   chan struct{}
	once   sync.Once
}

// NewFramePump creates a pump for the signed-in user. onOutcome receives the
// terminal outcome of every frame that actually decoded; it is called from
// the worker goroutine.
func NewFramePump(r *Resolver, uid string, onOutcome func(Outcome)) *FramePump {
	return &FramePump{
		resolver:  r,
		uid:       uid,
		onOutcome: onOutcome,
		frames:    make(chan image.Image),
		done:      make(chan struct{}),
	}
}

// Start launches the worker. It returns immediately; the worker stops when
// ctx is cancelled or Stop is called.
func (p *FramePump) Start(ctx context.Context) {
	go func() {
		defer close(p.done)
		for {
			select {
			case <-ctx.Done():
				return
			case frame, ok := <-p.frames:
				if !ok {
					return
				}
				if result, decoded := p.resolver.ProcessFrame(ctx, p.uid, frame); decoded {
					p.onOutcome(result)
				}
			}
		}
	}()
}

// Submit offers a frame to the worker without blocking. It reports whether
// the frame was accepted; a false return means the worker was still busy
// with the previous frame and this one was dropped.
func (p *FramePump) Submit(frame image.Image) bool {
	select {
	case p.frames <- frame:
		return true
	default:
		return false
	}
}

// Stop shuts the pump down and waits for the in-flight frame to finish.
func (p *FramePump) Stop() {
	p.once.Do(func() { close(p.frames) })
	<-p.done
}
