package application

// Dispatcher hands a batch off for background processing. The upload
// handler only ever sees this interface; whether the batch runs on a
// local goroutine or travels through a message broker is wiring.
type Dispatcher interface {
	Dispatch(batch Batch) error
}

// GoDispatcher runs batches on in-process goroutines. The default path
// when no broker is configured.
type GoDispatcher struct {
	orc *Orchestrator
}

func NewGoDispatcher(orc *Orchestrator) *GoDispatcher {
	return &GoDispatcher{orc: orc}
}

func (d *GoDispatcher) Dispatch(batch Batch) error {
	go d.orc.Run(batch)
	return nil
}
