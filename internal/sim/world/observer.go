package world

// ObserverJoinRequest registers a read-only session that receives one
// Snapshot per tick on Out. Slow readers lose the oldest frame.
type ObserverJoinRequest struct {
	SessionID string
	Out       chan Snapshot
	// Resp, when set, receives the current snapshot once registered.
	Resp chan Snapshot
}

type observerClient struct {
	id  string
	out chan Snapshot
}

func (w *World) handleObserverJoin(req ObserverJoinRequest) {
	if req.SessionID == "" || req.Out == nil {
		if req.Resp != nil {
			req.Resp <- Snapshot{}
		}
		return
	}
	w.observers[req.SessionID] = &observerClient{id: req.SessionID, out: req.Out}
	if req.Resp != nil {
		req.Resp <- w.Snapshot()
	}
}

func (w *World) handleObserverLeave(id string) {
	delete(w.observers, id)
}

func (w *World) broadcast(s Snapshot) {
	for _, c := range w.observers {
		sendLatest(c.out, s)
	}
}

func (w *World) ObserverCount() int { return len(w.observers) }
