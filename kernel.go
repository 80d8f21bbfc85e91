package askit

import (
	"context"
	"fmt"
	"runtime"
	"sync"
)

// agentStatus is the per-agent lifecycle state (§4.10).
type agentStatus int32

const (
	statusInit agentStatus = iota
	statusStart
	statusStopping // transient: Stop() in flight, worker draining
)

func (s agentStatus) String() string {
	switch s {
	case statusInit:
		return "Init"
	case statusStart:
		return "Start"
	case statusStopping:
		return "Stop"
	default:
		return "Unknown"
	}
}

type messageKind int

const (
	msgInput messageKind = iota
	msgConfig
	msgStop
)

type message struct {
	kind messageKind
	ctx  Context
	port string
	data Data
	cfg  *Config
}

// mailbox is the single-consumer queue feeding one agent worker. Cooperative
// agents get a bounded channel (capacity 32); OS-thread agents get an
// unbounded queue so send never blocks the central dispatch loop (§4.2).
type mailbox interface {
	send(m message)
	trySend(m message) bool
	recv() (message, bool)
	close()
}

// boundedMailbox backs cooperative agents.
type boundedMailbox struct {
	ch chan message
}

func newBoundedMailbox(capacity int) *boundedMailbox {
	return &boundedMailbox{ch: make(chan message, capacity)}
}

func (b *boundedMailbox) send(m message) { b.ch <- m }

func (b *boundedMailbox) trySend(m message) bool {
	select {
	case b.ch <- m:
		return true
	default:
		return false
	}
}

func (b *boundedMailbox) recv() (message, bool) {
	m, ok := <-b.ch
	return m, ok
}

func (b *boundedMailbox) close() { close(b.ch) }

// unboundedMailbox backs nativeThread agents: send never fails or blocks
// the caller (§4.2, "the unbounded channel never fails on send").
type unboundedMailbox struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []message
	closed bool
}

func newUnboundedMailbox() *unboundedMailbox {
	m := &unboundedMailbox{}
	m.cond = sync.NewCond(&m.mu)
	return m
}

func (u *unboundedMailbox) send(m message) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.closed {
		return
	}
	u.queue = append(u.queue, m)
	u.cond.Signal()
}

func (u *unboundedMailbox) trySend(m message) bool {
	u.send(m)
	return true
}

func (u *unboundedMailbox) recv() (message, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	for len(u.queue) == 0 && !u.closed {
		u.cond.Wait()
	}
	if len(u.queue) == 0 {
		return message{}, false
	}
	m := u.queue[0]
	u.queue = u.queue[1:]
	return m, true
}

func (u *unboundedMailbox) close() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.closed = true
	u.cond.Broadcast()
}

// agentHandle is the kernel's per-agent runtime record: the agent
// instance, its status, and (while Start) its mailbox. callMu serializes
// Start/Stop/SetConfig/Process calls into the agent itself so at most
// one is ever in flight (§4.2, §5). mbMu is the separate lifecycle lock:
// it guards status and mb together, the same way the original looks up
// and clones an agent's sender under a mutex on every send (§5,
// agentTxs). Every read of mb, every status check that gates touching
// mb, and the nil-out in stop all happen under mbMu, so start/stop can
// never race deliver/setConfig/another start on the same handle.
type agentHandle struct {
	id      string
	defName string
	def     AgentDefinition
	kit     *ASKit

	callMu sync.Mutex
	agent  Agent

	mbMu   sync.Mutex
	status agentStatus
	mb     mailbox
	done   chan struct{}
}

func newAgentHandle(kit *ASKit, id, defName string, def AgentDefinition, agent Agent) *agentHandle {
	return &agentHandle{id: id, defName: defName, def: def, kit: kit, agent: agent, status: statusInit}
}

func (h *agentHandle) getStatus() agentStatus {
	h.mbMu.Lock()
	defer h.mbMu.Unlock()
	return h.status
}

// start transitions Init -> Start: a mailbox is created and a worker
// goroutine spawned. A no-op if already Start. The whole check-then-act
// sequence runs under mbMu so two concurrent StartAgent calls can never
// both observe Init and both spawn a worker (I3/P6: exactly one live
// mailbox per agent).
func (h *agentHandle) start() {
	h.mbMu.Lock()
	defer h.mbMu.Unlock()
	if h.status == statusStart {
		return
	}
	if h.def.NativeThread {
		h.mb = newUnboundedMailbox()
	} else {
		h.mb = newBoundedMailbox(32)
	}
	h.done = make(chan struct{})
	h.status = statusStart

	go h.run(h.mb, h.done, h.def.NativeThread)
}

// stop transitions Start -> Init via the transient Stopping label,
// sending a Stop message and blocking until the worker has fully
// drained (the done channel is the happens-before barrier). A no-op if
// not currently Start. The status flip to Stopping happens under mbMu
// before the mailbox reference is released, so any deliver/setConfig
// racing this call either still sees Start and uses the still-valid mb,
// or sees Stopping/Init and never touches mb at all; the final nil-out
// also happens under mbMu so it can never land between another call's
// status check and its mb read.
func (h *agentHandle) stop() {
	h.mbMu.Lock()
	if h.status != statusStart {
		h.mbMu.Unlock()
		return
	}
	h.status = statusStopping
	mb := h.mb
	done := h.done
	h.mbMu.Unlock()

	mb.send(message{kind: msgStop})
	<-done

	h.mbMu.Lock()
	h.mb = nil
	h.status = statusInit
	h.mbMu.Unlock()
}

// setConfig applies cfg inline if Init, or enqueues a Config message if
// Start (§4.5 setAgentConfig contract). The status check and mb read are
// a single critical section under mbMu, matching deliver below.
func (h *agentHandle) setConfig(cfg *Config) error {
	h.mbMu.Lock()
	if h.status == statusStart {
		mb := h.mb
		h.mbMu.Unlock()
		if !mb.trySend(message{kind: msgConfig, cfg: cfg}) {
			return newErr(KindSendMessageFailed, h.id, "config mailbox full")
		}
		return nil
	}
	h.mbMu.Unlock()
	h.callMu.Lock()
	defer h.callMu.Unlock()
	return h.agent.SetConfig(cfg)
}

// deliver enqueues an Input message. Cooperative mailboxes use the
// non-blocking trySend form on this synchronous dispatch path, so a full
// mailbox surfaces SendMessageFailed to the caller without blocking the
// central dispatch loop; unbounded mailboxes never fail. The status
// check and mb read happen together under mbMu so a concurrent stop()
// can never nil mb between them.
func (h *agentHandle) deliver(ctx Context, port string, data Data) error {
	h.mbMu.Lock()
	if h.status != statusStart {
		h.mbMu.Unlock()
		return newErr(KindAgentNotFound, h.id, "agent is not running")
	}
	mb := h.mb
	h.mbMu.Unlock()
	if !mb.trySend(message{kind: msgInput, ctx: ctx, port: port, data: data}) {
		return newErr(KindSendMessageFailed, h.id, "mailbox full")
	}
	return nil
}

func (h *agentHandle) run(mb mailbox, done chan struct{}, nativeThread bool) {
	if nativeThread {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
	}
	defer close(done)

	if err := h.callStart(); err != nil {
		h.kit.emitAgentError(h.id, err)
	}

	for {
		m, ok := mb.recv()
		if !ok {
			return
		}
		switch m.kind {
		case msgInput:
			h.kit.emitAgentIn(h.id, m.port)
			h.traceProcess(m.port, func() {
				if err := h.callProcess(m.ctx, m.port, m.data); err != nil {
					h.kit.emitAgentError(h.id, err)
				}
			})
		case msgConfig:
			if err := h.callSetConfig(m.cfg); err != nil {
				h.kit.emitAgentError(h.id, err)
			}
		case msgStop:
			if err := h.callStop(); err != nil {
				h.kit.emitAgentError(h.id, err)
			}
			return
		}
	}
}

// traceProcess wraps one Process call in a span when a Tracer is
// configured (§3.2); with no Tracer it is a direct call.
func (h *agentHandle) traceProcess(port string, fn func()) {
	if h.kit.tracer == nil {
		fn()
		return
	}
	_, span := h.kit.tracer.Start(context.Background(), "askit.process",
		StringAttr("agent.id", h.id), StringAttr("agent.port", port))
	defer span.End()
	fn()
}

func (h *agentHandle) callStart() (err error) {
	h.callMu.Lock()
	defer h.callMu.Unlock()
	defer recoverAgentPanic(&err)
	return h.agent.Start()
}

func (h *agentHandle) callStop() (err error) {
	h.callMu.Lock()
	defer h.callMu.Unlock()
	defer recoverAgentPanic(&err)
	return h.agent.Stop()
}

func (h *agentHandle) callSetConfig(cfg *Config) (err error) {
	h.callMu.Lock()
	defer h.callMu.Unlock()
	defer recoverAgentPanic(&err)
	return h.agent.SetConfig(cfg)
}

func (h *agentHandle) callProcess(ctx Context, port string, data Data) (err error) {
	h.callMu.Lock()
	defer h.callMu.Unlock()
	defer recoverAgentPanic(&err)
	return h.agent.Process(ctx, port, data)
}

// recoverAgentPanic turns a panic inside agent code into an error instead
// of crashing the worker goroutine, grounded on the "never propagate
// agent failures as panics across goroutines" ambient contract.
func recoverAgentPanic(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("agent panic: %v", r)
	}
}

// --- agents map: the kernel's agent registry (leaf lock, §5) ---

func (kit *ASKit) registerAgentHandle(h *agentHandle) error {
	kit.agentsMu.Lock()
	defer kit.agentsMu.Unlock()
	if _, exists := kit.agents[h.id]; exists {
		return newErr(KindAgentAlreadyExists, h.id, "")
	}
	kit.agents[h.id] = h
	return nil
}

func (kit *ASKit) getAgentHandle(id string) *agentHandle {
	kit.agentsMu.Lock()
	defer kit.agentsMu.Unlock()
	return kit.agents[id]
}

func (kit *ASKit) removeAgentHandle(id string) {
	kit.agentsMu.Lock()
	defer kit.agentsMu.Unlock()
	delete(kit.agents, id)
}

func (kit *ASKit) agentCount() int {
	kit.agentsMu.Lock()
	defer kit.agentsMu.Unlock()
	return len(kit.agents)
}
