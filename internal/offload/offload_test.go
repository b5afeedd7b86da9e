package offload

import (
	"testing"
	"time"

	"github.com/wildwinter/storydeck/internal/evaluator"
)

func stubFactory(stub *evaluator.Stub) EvaluatorFactory {
	return func(stateToken string) (evaluator.Evaluator, error) {
		if stateToken != "" {
			if err := stub.LoadState(stateToken); err != nil {
				return nil, err
			}
		}
		return stub, nil
	}
}

// waitEvent pulls the next event or fails the test after a timeout.
func waitEvent(t *testing.T, ch *Channel) Event {
	t.Helper()
	select {
	case ev, ok := <-ch.Events():
		if !ok {
			t.Fatal("event channel closed")
		}
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for worker event")
		return nil
	}
}

func TestInitSeedsWorkerEvaluator(t *testing.T) {
	stub := evaluator.NewStub()
	ch, err := Open(stubFactory(stub), 0)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer ch.Close()

	ch.Init("init-1", `{"courage": 3}`)
	ev := waitEvent(t, ch)
	done, ok := ev.(InitComplete)
	if !ok {
		t.Fatalf("unexpected event %T", ev)
	}
	if done.RequestID != "init-1" {
		t.Fatalf("request id = %q", done.RequestID)
	}
	if token, _ := stub.SerializeState(); token != `{"courage": 3}` {
		t.Fatalf("state = %s", token)
	}
}

func TestRefreshEmitsCompletionPerPool(t *testing.T) {
	stub := evaluator.NewStub()
	stub.SetBool("fn_street_market", true)
	stub.SetBool("fn_street_busker", true)
	stub.SetBool("fn_manor_ghost", true)

	ch, err := Open(stubFactory(stub), 2)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer ch.Close()

	ch.Register("main", []RecordSpec{
		{ID: "street_market"},
		{ID: "street_busker"},
	})
	ch.Register("side", []RecordSpec{{ID: "manor_ghost"}})
	ch.Refresh(nil, "", nil, nil)

	done := map[string][]string{}
	for i := 0; i < 2; i++ {
		ev := waitEvent(t, ch)
		rc, ok := ev.(RefreshComplete)
		if !ok {
			t.Fatalf("unexpected event %T: %+v", ev, ev)
		}
		done[rc.Pool] = rc.Hand
	}
	if len(done["main"]) != 2 {
		t.Fatalf("main hand = %v", done["main"])
	}
	if len(done["side"]) != 1 || done["side"][0] != "manor_ghost" {
		t.Fatalf("side hand = %v", done["side"])
	}
}

func TestRefreshHonorsGateDecisions(t *testing.T) {
	stub := evaluator.NewStub()
	stub.SetBool("fn_street_market", true)
	stub.SetBool("fn_manor_ghost", true)

	ch, err := Open(stubFactory(stub), 0)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer ch.Close()

	ch.Register("default", []RecordSpec{
		{ID: "street_market", GroupGate: "street"},
		{ID: "manor_ghost", GroupGate: "manor"},
	})
	ch.Refresh([]string{"default"}, "", map[string]bool{"street": true, "manor": false}, nil)

	ev := waitEvent(t, ch)
	rc, ok := ev.(RefreshComplete)
	if !ok {
		t.Fatalf("unexpected event %T", ev)
	}
	if len(rc.Hand) != 1 || rc.Hand[0] != "street_market" {
		t.Fatalf("hand = %v", rc.Hand)
	}
}

func TestMarkPlayedAppliesBeforeLaterRefresh(t *testing.T) {
	stub := evaluator.NewStub()
	stub.SetBool("fn_street_market", true)
	stub.SetBool("fn_street_busker", true)

	ch, err := Open(stubFactory(stub), 0)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer ch.Close()

	ch.Register("default", []RecordSpec{
		{ID: "street_market", DiscardAfterPlay: true},
		{ID: "street_busker"},
	})
	// FIFO on the request channel: the mark lands before the refresh runs.
	ch.MarkPlayed("street_market")
	ch.Refresh(nil, "", nil, nil)

	ev := waitEvent(t, ch)
	rc := ev.(RefreshComplete)
	if len(rc.Hand) != 1 || rc.Hand[0] != "street_busker" {
		t.Fatalf("hand = %v", rc.Hand)
	}
}

func TestRefreshEchoesGeneration(t *testing.T) {
	stub := evaluator.NewStub()
	stub.SetBool("fn_street_market", true)

	ch, err := Open(stubFactory(stub), 0)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer ch.Close()

	ch.Register("default", []RecordSpec{{ID: "street_market"}})
	ch.Refresh([]string{"default"}, "", nil, map[string]uint64{"default": 7})

	ev := waitEvent(t, ch)
	rc, ok := ev.(RefreshComplete)
	if !ok {
		t.Fatalf("unexpected event %T", ev)
	}
	if rc.Generation != 7 {
		t.Fatalf("generation = %d, want 7", rc.Generation)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	stub := evaluator.NewStub()
	stub.SetBool("fn_street_market", true)

	ch, err := Open(stubFactory(stub), 0)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer ch.Close()

	ch.Register("default", []RecordSpec{{ID: "street_market"}})
	ch.MarkPlayed("street_market")
	ch.Save("req-1")

	ev := waitEvent(t, ch)
	save, ok := ev.(SaveResult)
	if !ok {
		t.Fatalf("unexpected event %T", ev)
	}
	if save.RequestID != "req-1" {
		t.Fatalf("request id = %q", save.RequestID)
	}
	want := `{"default":[["street_market",true]]}`
	if string(save.Blob) != want {
		t.Fatalf("blob = %s", save.Blob)
	}

	ch.Reset()
	ch.Load(save.Blob)
	ch.Save("req-2")

	ev = waitEvent(t, ch)
	save = ev.(SaveResult)
	if save.RequestID != "req-2" || string(save.Blob) != want {
		t.Fatalf("after load: id=%q blob=%s", save.RequestID, save.Blob)
	}
}

func TestLoadBadBlobEmitsErrorAndWorkerSurvives(t *testing.T) {
	stub := evaluator.NewStub()
	stub.SetBool("fn_street_market", true)

	ch, err := Open(stubFactory(stub), 0)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer ch.Close()

	ch.Register("default", []RecordSpec{{ID: "street_market"}})
	ch.Load([]byte("{not json"))

	ev := waitEvent(t, ch)
	if _, ok := ev.(ErrorEvent); !ok {
		t.Fatalf("expected ErrorEvent, got %T", ev)
	}

	// The worker keeps serving after the failure.
	ch.Refresh(nil, "", nil, nil)
	ev = waitEvent(t, ch)
	if _, ok := ev.(RefreshComplete); !ok {
		t.Fatalf("expected RefreshComplete, got %T", ev)
	}
}

func TestCloseEndsEventStream(t *testing.T) {
	stub := evaluator.NewStub()
	ch, err := Open(stubFactory(stub), 0)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	ch.Close()

	select {
	case _, ok := <-ch.Events():
		if ok {
			t.Fatal("expected closed channel, got event")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("event channel never closed")
	}
}

func TestCloseUnblocksWorkerWithFullEventBuffer(t *testing.T) {
	stub := evaluator.NewStub()
	ch, err := Open(stubFactory(stub), 0)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	// Queue more saves than the event buffer can hold without pumping a
	// single event, then close. The worker must still be able to exit.
	ch.Register("default", []RecordSpec{{ID: "street_market"}})
	for i := 0; i < channelDepth+5; i++ {
		ch.Save("req")
	}
	ch.Close()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-ch.Events():
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("event channel never closed, worker stuck")
		}
	}
}
