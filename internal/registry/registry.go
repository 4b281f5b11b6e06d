// Package registry implements the Operation Registry & Scheduler: identifier
// allocation, per-class concurrency permits, cancellation propagation, and
// the unified progress/lifecycle event stream. Grounded on the engine's
// Engine facade (engine.go) for the "one shared table, one event bus, one
// snapshot" shape, and on resources.Manager's bounded in-flight semaphore
// for per-class permits.
package registry

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/LuciferMornens/macos-optimizer-beta/internal/errclass"
	"github.com/LuciferMornens/macos-optimizer-beta/internal/eventbus"
	"github.com/LuciferMornens/macos-optimizer-beta/internal/models"
)

// DefaultPermits are the per-class concurrency limits from the design.
var DefaultPermits = map[models.OperationClass]int{
	models.ClassScan:             1,
	models.ClassClean:            2,
	models.ClassMemOptimize:      1,
	models.ClassMemOptimizeAdmin: 1,
	models.ClassEmptyTrash:       1,
	models.ClassDashboardRefresh: 4,
}

// minEmitInterval enforces the ≤10Hz per-operation progress rate limit.
const minEmitInterval = 100 * time.Millisecond

// operationGrace is how long a terminal operation's state stays
// introspectable via GetState before it is retired.
const operationGrace = 30 * time.Second

// Token is the cancellation latch for one operation. Flipping it is
// idempotent and observable from any goroutine; if the operation owns a
// supervised child process, flipping also best-effort kills it.
type Token struct {
	flag  atomicBool
	child Killable
	mu    sync.Mutex
}

// Killable is satisfied by a supervised child process handle.
type Killable interface {
	Kill() error
}

// Canceled reports whether the token has been flipped.
func (t *Token) Canceled() bool { return t.flag.Load() }

// Cancel flips the latch (idempotent) and best-effort kills any
// registered child process.
func (t *Token) Cancel() {
	if t.flag.CompareAndSwap(false, true) {
		t.mu.Lock()
		child := t.child
		t.mu.Unlock()
		if child != nil {
			_ = child.Kill()
		}
	}
}

// AttachChild registers a supervised child so cancellation can kill it.
func (t *Token) AttachChild(k Killable) {
	t.mu.Lock()
	t.child = k
	t.mu.Unlock()
	if t.Canceled() && k != nil {
		_ = k.Kill()
	}
}

type atomicBool struct {
	mu sync.Mutex
	v  bool
}

func (b *atomicBool) Load() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.v
}

func (b *atomicBool) CompareAndSwap(old, new bool) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.v != old {
		return false
	}
	b.v = new
	return true
}

type opEntry struct {
	mu           sync.Mutex
	state        models.OperationState
	token        *Token
	sem          chan struct{}
	acquired     bool
	lastEmit     time.Time
	lastStage    string
	rateStart    time.Time
	filesAtStart int64
	bytesAtStart int64
	retireTimer  *time.Timer
}

// Registry is the central lifecycle controller for all long-running work.
type Registry struct {
	mu   sync.RWMutex
	ops  map[string]*opEntry
	sems map[models.OperationClass]chan struct{}
	bus  eventbus.Bus
}

// New builds a Registry with default per-class permits and the given bus.
func New(bus eventbus.Bus) *Registry {
	r := &Registry{ops: make(map[string]*opEntry), sems: make(map[models.OperationClass]chan struct{}), bus: bus}
	for class, n := range DefaultPermits {
		r.sems[class] = make(chan struct{}, n)
	}
	return r
}

// Register allocates a new OperationId and CancellationToken for class.
// No resources are consumed yet; Acquire must be called before heavy work.
func (r *Registry) Register(class models.OperationClass) (string, *Token) {
	id := uuid.NewString()
	token := &Token{}
	sem := r.sems[class]
	if sem == nil {
		sem = make(chan struct{}, 1)
		r.sems[class] = sem
	}
	entry := &opEntry{
		state: models.OperationState{
			ID:          id,
			Class:       class,
			StartedAt:   time.Now(),
			Status:      models.StatusPending,
			Cancellable: true,
		},
		token: token,
		sem:   sem,
	}
	r.mu.Lock()
	r.ops[id] = entry
	r.mu.Unlock()
	return id, token
}

// Acquire blocks until a class permit is available, ctx is canceled, or the
// operation's own token is canceled. A cancel before acquisition results in
// immediate terminal emission and no resource use, per the cancellation
// contract.
func (r *Registry) Acquire(ctx context.Context, id string) error {
	entry, ok := r.get(id)
	if !ok {
		return errclass.New(errclass.Programmer, "registry.Acquire", errclass.ErrUnknownOperation)
	}
	if entry.token.Canceled() {
		r.EmitComplete(id, false, true, "canceled before acquisition")
		return context.Canceled
	}
	poll := time.NewTicker(10 * time.Millisecond)
	defer poll.Stop()
	for {
		select {
		case entry.sem <- struct{}{}:
			entry.mu.Lock()
			entry.acquired = true
			entry.state.Status = models.StatusRunning
			entry.rateStart = time.Now()
			entry.mu.Unlock()
			return nil
		case <-ctx.Done():
			return ctx.Err()
		case <-poll.C:
			if entry.token.Canceled() {
				r.EmitComplete(id, false, true, "canceled before acquisition")
				return context.Canceled
			}
		}
	}
}

// release returns the class permit if it was acquired. Safe to call more
// than once; only the first call has effect.
func (r *Registry) release(entry *opEntry) {
	entry.mu.Lock()
	acquired := entry.acquired
	entry.acquired = false
	entry.mu.Unlock()
	if acquired {
		<-entry.sem
	}
}

func (r *Registry) get(id string) (*opEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.ops[id]
	return e, ok
}

// Cancel flips id's token and returns whether id was known.
func (r *Registry) Cancel(id string) bool {
	entry, ok := r.get(id)
	if !ok {
		return false
	}
	entry.token.Cancel()
	return true
}

// GetState returns a copy of id's current state, or nil if unknown/retired.
func (r *Registry) GetState(id string) *models.OperationState {
	entry, ok := r.get(id)
	if !ok {
		return nil
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	st := entry.state
	return &st
}

// EmitStart publishes operation:start and sets the operation's stage to
// "start"; the Running status is set earlier, by Acquire.
func (r *Registry) EmitStart(id string, estimatedMS *int64) {
	entry, ok := r.get(id)
	if !ok {
		return
	}
	entry.mu.Lock()
	entry.state.Stage = "start"
	entry.mu.Unlock()
	r.bus.Publish(eventbus.Event{Type: eventbus.OperationStart, OperationID: id, Class: string(entry.state.Class), EstimatedMS: estimatedMS})
}

// EmitProgress publishes progress:update, rate-limited to ≤10Hz per
// operation except across a stage transition, which always flushes.
func (r *Registry) EmitProgress(id string, progress float64, message, stage string, canCancel bool, eta *int64, tp *models.Throughput) {
	entry, ok := r.get(id)
	if !ok {
		return
	}
	now := time.Now()
	entry.mu.Lock()
	stageChanged := stage != entry.state.Stage
	shouldEmit := stageChanged || now.Sub(entry.lastEmit) >= minEmitInterval
	entry.state.Stage = stage
	entry.state.Progress = progress
	entry.state.ETAMillis = eta
	entry.state.Throughput = tp
	if shouldEmit {
		entry.lastEmit = now
	}
	entry.mu.Unlock()
	if !shouldEmit {
		return
	}
	var evtp *eventbus.Throughput
	if tp != nil {
		evtp = &eventbus.Throughput{FilesPerSecond: tp.FilesPerSecond, MBPerSecond: tp.MBPerSecond}
	}
	r.bus.Publish(eventbus.Event{Type: eventbus.ProgressUpdate, OperationID: id, Stage: stage, Progress: progress, Message: message, CanCancel: canCancel, ETAMillis: eta, Throughput: evtp})
}

// EmitComplete publishes operation:complete, releases the class permit, and
// schedules the operation's retirement after a grace period. Per the
// registry invariant, every registered operation produces exactly one
// terminal event; a second call is a no-op, since the entry is already
// past Completed/Canceled/Failed.
func (r *Registry) EmitComplete(id string, success, canceled bool, message string) {
	entry, ok := r.get(id)
	if !ok {
		return
	}
	entry.mu.Lock()
	if entry.state.Status == models.StatusCompleted || entry.state.Status == models.StatusCanceled || entry.state.Status == models.StatusFailed {
		entry.mu.Unlock()
		return
	}
	switch {
	case canceled:
		entry.state.Status = models.StatusCanceled
	case success:
		entry.state.Status = models.StatusCompleted
	default:
		entry.state.Status = models.StatusFailed
	}
	entry.state.Cancellable = false
	duration := time.Since(entry.state.StartedAt)
	entry.mu.Unlock()

	r.release(entry)
	r.bus.Publish(eventbus.Event{Type: eventbus.OperationComplete, OperationID: id, Success: success, Canceled: canceled, Message: message, DurationMS: duration.Milliseconds()})
	r.scheduleRetire(id, entry)
}

// EmitError publishes operation:error, paired with a failing complete.
func (r *Registry) EmitError(id, message string) {
	r.bus.Publish(eventbus.Event{Type: eventbus.OperationError, OperationID: id, Message: message})
}

func (r *Registry) scheduleRetire(id string, entry *opEntry) {
	entry.retireTimer = time.AfterFunc(operationGrace, func() {
		r.mu.Lock()
		delete(r.ops, id)
		r.mu.Unlock()
	})
}

// ReportProgress lets a worker submit its cumulative filesDone/bytesDone;
// the registry derives a throughput sample and ETA = remaining/avg_rate,
// where avg_rate is the average since acquisition (there is no rolling
// window over recent ticks). totalFiles describes the whole unit of work
// (0 disables ETA); totalBytes is not used.
func (r *Registry) ReportProgress(id string, filesDone, totalFiles int64, bytesDone, totalBytes int64) (eta *int64, tp *models.Throughput) {
	entry, ok := r.get(id)
	if !ok {
		return nil, nil
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	elapsed := time.Since(entry.rateStart).Seconds()
	if elapsed <= 0 {
		return nil, nil
	}
	filesPerSec := float64(filesDone) / elapsed
	mbPerSec := float64(bytesDone) / elapsed / (1024 * 1024)
	if filesPerSec > 0 {
		tp = &models.Throughput{FilesPerSecond: filesPerSec, MBPerSecond: mbPerSec}
	}
	if totalFiles > 0 && filesPerSec > 0 {
		remaining := float64(totalFiles - filesDone)
		if remaining < 0 {
			remaining = 0
		}
		ms := int64(remaining / filesPerSec * 1000)
		eta = &ms
	}
	return eta, tp
}

// AttachChild registers id's supervised child process so Cancel can kill it.
func (r *Registry) AttachChild(id string, k Killable) {
	entry, ok := r.get(id)
	if !ok {
		return
	}
	entry.token.AttachChild(k)
}
