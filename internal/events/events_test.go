package events

import "testing"

type recordingListener struct {
	created   []string
	cancelled []string
	expired   bool
}

func (r *recordingListener) OnOrderCreated(clientOrderID, exchangeOrderID string) {
	r.created = append(r.created, clientOrderID)
}
func (r *recordingListener) OnOrderFilled(string, float64, float64)       {}
func (r *recordingListener) OnOrderCompleted(string, float64, float64)    {}
func (r *recordingListener) OnOrderCancelled(clientOrderID string)        { r.cancelled = append(r.cancelled, clientOrderID) }
func (r *recordingListener) OnOrderFailed(string, string)                 {}

type expiringListener struct {
	recordingListener
}

func (e *expiringListener) OnOrderExpired(clientOrderID string) { e.expired = true }

func TestEmitOrderCreated(t *testing.T) {
	d := NewDispatcher()
	l := &recordingListener{}
	d.SetOrderListener(l)

	d.EmitOrderCreated("cid-1", "oid-1")
	if len(l.created) != 1 || l.created[0] != "cid-1" {
		t.Errorf("created = %v, want [cid-1]", l.created)
	}
}

func TestEmitOrderExpiredFallsBackToCancelled(t *testing.T) {
	d := NewDispatcher()
	l := &recordingListener{}
	d.SetOrderListener(l)

	d.EmitOrderExpired("cid-1")
	if len(l.cancelled) != 1 {
		t.Errorf("expected fallback to OnOrderCancelled, got cancelled=%v", l.cancelled)
	}
}

func TestEmitOrderExpiredUsesExpiringListener(t *testing.T) {
	d := NewDispatcher()
	l := &expiringListener{}
	d.SetOrderListener(l)

	d.EmitOrderExpired("cid-1")
	if !l.expired {
		t.Error("expected OnOrderExpired to be called on an ExpiringOrderListener")
	}
	if len(l.cancelled) != 0 {
		t.Error("expected OnOrderCancelled NOT to be called when ExpiringOrderListener handles it")
	}
}

func TestNoListenerIsNoOp(t *testing.T) {
	d := NewDispatcher()
	d.EmitOrderCreated("cid-1", "oid-1")
	d.EmitTrade("cid-1", "t1", 1, 1, "USDC", 0)
	d.EmitError("x", "y")
}
