// Package dispatch sends one email per contact record, in order, with
// resumable progress.
//
// An Engine loads the records from a contact.Source, skips the ones a
// previous run already finalized (as recorded by a CheckpointStore) and
// processes the rest strictly one at a time: render the body, compose the
// message, deliver it through a mailer.Transport, advance the checkpoint and
// wait the configured delay.
//
// # Failure classification
//
// When a delivery attempt fails the engine asks its netprobe.Prober whether
// the network is reachable. If it is, the record is recorded as a permanent
// FailureEntry and the run moves on. If it is not, the engine holds the same
// record, re-probes on an interval, and retries once connectivity returns.
// Network outages therefore never skip a recipient.
//
// # Control
//
// The host drives a run through a Control token:
//
//	eng, err := dispatch.New(transport, netprobe.New("", 0), store,
//		dispatch.WithFailureSink(sink),
//		dispatch.WithObserver(observer),
//	)
//	if err != nil {
//		return err
//	}
//	go func() {
//		<-stop
//		eng.Control().Cancel()
//	}()
//	summary := eng.Run(ctx, source, 2*time.Second)
//
// Pause stops new attempts from starting; Resume lifts it; Cancel ends the
// run after the in-flight attempt. Cancelling ctx is the same as Cancel.
// A cancelled run still writes accumulated failures to the sink and emits
// EventFinished.
//
// # Events
//
// Observers receive Events from a dedicated goroutine in emission order.
// Run returns only after EventFinished has been delivered.
package dispatch
