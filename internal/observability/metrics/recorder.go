package metrics

// Recorder is what the orchestrator reports to. Components depend on this
// interface so tests and runs without metrics can use NoopRecorder.
type Recorder interface {
	// RecordContacts sets the number of contacts loaded for this run.
	RecordContacts(count int)

	// RecordSMS records one send attempt with its outcome label and latency.
	RecordSMS(outcome string, seconds float64)

	// RecordConfirmation records one confirmation outcome label.
	RecordConfirmation(outcome string)

	// RecordRun records the run duration and whether it completed without a fatal error.
	RecordRun(seconds float64, success bool)
}

// NoopRecorder discards everything.
type NoopRecorder struct{}

func (NoopRecorder) RecordContacts(int)        {}
func (NoopRecorder) RecordSMS(string, float64) {}
func (NoopRecorder) RecordConfirmation(string) {}
func (NoopRecorder) RecordRun(float64, bool)   {}
