package signal

import (
	"os"
	"os/signal"
	"syscall"
)

// interruptChannel receives shutdown signals from the OS.
var interruptChannel chan os.Signal

// addHandlerChannel registers a shutdown handler with the dispatch goroutine.
var addHandlerChannel = make(chan func())

// InterruptHandlersDone is closed after all shutdown handlers have run the
// first time an interrupt is signaled.
var InterruptHandlersDone = make(chan struct{})

var simulateInterruptChannel = make(chan struct{}, 1)

var signals = []os.Signal{os.Interrupt, syscall.SIGTERM}

// SimulateInterrupt requests the clean termination process from an internal
// component, as if an OS signal had arrived.
func SimulateInterrupt() {
	select {
	case simulateInterruptChannel <- struct{}{}:
	default:
	}
}

// mainInterruptHandler runs registered shutdown handlers in LIFO order once
// an interrupt arrives. It must be run as a goroutine.
func mainInterruptHandler() {
	var handlers []func()
	invoke := func() {
		for i := len(handlers) - 1; i >= 0; i-- {
			handlers[i]()
		}
		close(InterruptHandlersDone)
	}

	for {
		select {
		case <-interruptChannel:
			invoke()
			return
		case <-simulateInterruptChannel:
			invoke()
			return
		case handler := <-addHandlerChannel:
			handlers = append(handlers, handler)
		}
	}
}

// AddInterruptHandler adds a handler to call on shutdown. The first call
// starts the signal listener.
func AddInterruptHandler(handler func()) {
	if interruptChannel == nil {
		interruptChannel = make(chan os.Signal, 1)
		signal.Notify(interruptChannel, signals...)
		go mainInterruptHandler()
	}

	addHandlerChannel <- handler
}

// InterruptRequested reports whether shutdown has already been signaled.
func InterruptRequested() bool {
	select {
	case <-InterruptHandlersDone:
		return true
	default:
	}

	return false
}
