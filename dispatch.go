package askit

import "sync"

// DefaultCentralCapacity is the bounded capacity of the central event
// channel (§4.3).
const DefaultCentralCapacity = 4096

type eventKind int

const (
	evAgentOut eventKind = iota
	evBoardOut
)

// centralEvent is the single message type carried by the central event
// channel: either an AgentOut emission or a BoardOut write.
type centralEvent struct {
	kind eventKind
	src  string // AgentOut: the emitting agent id
	name string // BoardOut: the board name
	ctx  Context
	data Data
}

// centralBus wraps the bounded central channel with a close guard so a
// send racing quit() returns an error instead of panicking on a closed
// channel.
type centralBus struct {
	mu     sync.RWMutex
	ch     chan centralEvent
	closed bool
}

func newCentralBus(capacity int) *centralBus {
	if capacity <= 0 {
		capacity = DefaultCentralCapacity
	}
	return &centralBus{ch: make(chan centralEvent, capacity)}
}

// send is a suspension point: it blocks when the channel is full (§5).
func (b *centralBus) send(ev centralEvent) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return newErr(KindTxNotInitialized, "", "central channel is closed")
	}
	b.ch <- ev
	return nil
}

func (b *centralBus) close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.closed {
		b.closed = true
		close(b.ch)
	}
}

// dispatchLoop drains the central bus until it is closed, turning each
// AgentOut into zero or more Input deliveries and each BoardOut into a
// boardData write plus subscriber fan-out (§4.3).
func (kit *ASKit) dispatchLoop() {
	defer kit.dispatchWG.Done()
	for ev := range kit.central.ch {
		switch ev.kind {
		case evAgentOut:
			kit.deliverFromSource(ev.src, ev.ctx, ev.data)
		case evBoardOut:
			kit.boardDataMu.Lock()
			kit.boardData[ev.name] = ev.data
			kit.boardDataMu.Unlock()

			for _, subID := range kit.boardOutSubscribers(ev.name) {
				kit.deliverFromSource(subID, ev.ctx.WithPort(ev.name), ev.data)
			}
			kit.emitBoard(ev.name, ev.data)
		}
	}
}

// deliverFromSource walks src's outgoing edges and delivers to every
// matching target, applying source-handle filtering and target-handle
// rewrite (§4.3, §4.6). Failures to deliver to one target are logged and
// do not stop delivery to the others.
func (kit *ASKit) deliverFromSource(src string, ctx Context, data Data) {
	for _, e := range kit.edgesFor(src) {
		if e.SourceHandle != ctx.Port && e.SourceHandle != "*" {
			continue
		}
		targetPort := e.TargetHandle
		if e.TargetHandle == "*" {
			targetPort = ctx.Port
		}
		h := kit.getAgentHandle(e.Target)
		if h == nil {
			kit.logDebug("dispatch: target agent not found, dropping", "target", e.Target)
			continue
		}
		if err := h.deliver(ctx.WithPort(targetPort), targetPort, data); err != nil {
			kit.logDebug("dispatch: delivery failed", "target", e.Target, "error", err)
		}
	}
}

// TryOutput enqueues an AgentOut event on behalf of srcID. Concrete agent
// implementations call this (via the *ASKit handle they were constructed
// with) to emit on a port; it is the producer-facing half of the data
// flow described in §2.
func (kit *ASKit) TryOutput(srcID string, ctx Context, data Data) error {
	return kit.central.send(centralEvent{kind: evAgentOut, src: srcID, ctx: ctx, data: data})
}

// --- edge index (I2) ---

func (kit *ASKit) addEdgeIndex(e FlowEdge) error {
	if e.SourceHandle == "" {
		return newErr(KindEmptySourceHandle, e.ID, "")
	}
	if e.TargetHandle == "" {
		return newErr(KindEmptyTargetHandle, e.ID, "")
	}
	kit.edgesMu.Lock()
	defer kit.edgesMu.Unlock()
	if _, exists := kit.edgeByID[e.ID]; exists {
		return newErr(KindEdgeAlreadyExists, e.ID, "")
	}
	for _, existing := range kit.edgesBySource[e.Source] {
		if existing.SourceHandle == e.SourceHandle && existing.Target == e.Target && existing.TargetHandle == e.TargetHandle {
			return newErr(KindEdgeAlreadyExists, e.ID, "duplicate (source,sourceHandle,target,targetHandle)")
		}
	}
	kit.edgeByID[e.ID] = e
	kit.edgesBySource[e.Source] = append(kit.edgesBySource[e.Source], e)
	return nil
}

func (kit *ASKit) removeEdgeIndex(id string) error {
	kit.edgesMu.Lock()
	defer kit.edgesMu.Unlock()
	e, ok := kit.edgeByID[id]
	if !ok {
		return newErr(KindEdgeNotFound, id, "")
	}
	delete(kit.edgeByID, id)
	bucket := kit.edgesBySource[e.Source]
	out := bucket[:0]
	for _, existing := range bucket {
		if existing.ID != id {
			out = append(out, existing)
		}
	}
	if len(out) == 0 {
		delete(kit.edgesBySource, e.Source)
	} else {
		kit.edgesBySource[e.Source] = out
	}
	return nil
}

// edgesFor returns a snapshot of src's outgoing edges ("lock, clone,
// unlock" discipline).
func (kit *ASKit) edgesFor(src string) []FlowEdge {
	kit.edgesMu.Lock()
	defer kit.edgesMu.Unlock()
	bucket := kit.edgesBySource[src]
	out := make([]FlowEdge, len(bucket))
	copy(out, bucket)
	return out
}

// --- board data + subscribers (I4, I5) ---

// writeBoardDataEvent enqueues a BoardOut event; the actual boardData write
// and subscriber fan-out happen in dispatchLoop so writes are totally
// ordered per board (I5).
func (kit *ASKit) writeBoardDataEvent(name string, ctx Context, data Data) error {
	return kit.central.send(centralEvent{kind: evBoardOut, name: name, ctx: ctx, data: data})
}

func (kit *ASKit) readBoardData(name string) (Data, bool) {
	kit.boardDataMu.Lock()
	defer kit.boardDataMu.Unlock()
	d, ok := kit.boardData[name]
	return d, ok
}

func (kit *ASKit) subscribeBoardOut(name, agentID string) {
	kit.boardOutMu.Lock()
	defer kit.boardOutMu.Unlock()
	kit.boardOutAgents[name] = append(kit.boardOutAgents[name], agentID)
}

func (kit *ASKit) unsubscribeBoardOut(name, agentID string) {
	kit.boardOutMu.Lock()
	defer kit.boardOutMu.Unlock()
	bucket := kit.boardOutAgents[name]
	out := bucket[:0]
	for _, id := range bucket {
		if id != agentID {
			out = append(out, id)
		}
	}
	if len(out) == 0 {
		delete(kit.boardOutAgents, name)
	} else {
		kit.boardOutAgents[name] = out
	}
}

func (kit *ASKit) boardOutSubscribers(name string) []string {
	kit.boardOutMu.Lock()
	defer kit.boardOutMu.Unlock()
	bucket := kit.boardOutAgents[name]
	out := make([]string, len(bucket))
	copy(out, bucket)
	return out
}
