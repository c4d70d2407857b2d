package eventbus

import "errors"

// ErrNotRunning is returned by Publish when the bus has not been started,
// or has already been stopped.
var ErrNotRunning = errors.New("eventbus: bus is not running")

// ErrQueueFull is returned by Publish when the queue stayed full for the
// duration of the publish context's deadline (or the bus's default
// OverflowTimeout if the context carries none). This is the "block with a
// timeout" overflow policy recommended by the design notes; callers that
// want a strict drop-on-overflow policy can pass a context with a
// near-zero deadline.
var ErrQueueFull = errors.New("eventbus: queue full")

// ErrAlreadyRunning names the already-running condition. Bus.Start does not
// return it: Start is idempotent, and a second call is a no-op that returns
// nil.
var ErrAlreadyRunning = errors.New("eventbus: bus already running")
