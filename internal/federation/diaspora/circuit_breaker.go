package diaspora

import (
	"fmt"
	"log"
	"sync"
	"time"
)

type circuitState int

const (
	stateClosed   circuitState = iota // Normal operation
	stateOpen                         // Pod is failing, skip it
	stateHalfOpen                     // Next probe decides
)

// circuitBreaker tracks consecutive failures per pod host
type circuitBreaker struct {
	now              func() time.Time
	failures         map[string]int
	lastFailure      map[string]time.Time
	state            map[string]circuitState
	failureThreshold int
	openDuration     time.Duration
	mu               sync.Mutex
}

func newCircuitBreaker(threshold int, openDuration time.Duration) *circuitBreaker {
	return &circuitBreaker{
		now:              time.Now,
		failureThreshold: threshold,
		openDuration:     openDuration,
		failures:         make(map[string]int),
		lastFailure:      make(map[string]time.Time),
		state:            make(map[string]circuitState),
	}
}

// canAttempt reports whether the host may be probed. An open circuit turns
// half-open once openDuration has passed since the last failure.
func (cb *circuitBreaker) canAttempt(host string) error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state[host] != stateOpen {
		return nil
	}

	nextRetry := cb.lastFailure[host].Add(cb.openDuration)
	if cb.now().After(nextRetry) {
		cb.state[host] = stateHalfOpen
		log.Printf("[DIASPORA-CIRCUIT] Circuit for pod '%s' is now HALF-OPEN (testing)", host)
		return nil
	}

	return fmt.Errorf("%w for pod '%s' (failures: %d, next retry: %s)",
		ErrCircuitOpen, host, cb.failures[host], nextRetry.Format("15:04:05"))
}

func (cb *circuitBreaker) recordSuccess(host string) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	old := cb.state[host]
	delete(cb.failures, host)
	delete(cb.lastFailure, host)
	delete(cb.state, host)

	if old != stateClosed {
		log.Printf("[DIASPORA-CIRCUIT] Circuit for pod '%s' is now CLOSED (recovered)", host)
	}
}

func (cb *circuitBreaker) recordFailure(host string, err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures[host]++
	cb.lastFailure[host] = cb.now()
	count := cb.failures[host]

	// A failed half-open probe reopens immediately
	if count >= cb.failureThreshold || cb.state[host] == stateHalfOpen {
		if cb.state[host] != stateOpen {
			log.Printf("[DIASPORA-CIRCUIT] Opening circuit for pod '%s' after %d consecutive failures. Last error: %v",
				host, count, err)
		}
		cb.state[host] = stateOpen
		return
	}

	log.Printf("[DIASPORA-CIRCUIT] Failure %d/%d for pod '%s': %v", count, cb.failureThreshold, host, err)
}
