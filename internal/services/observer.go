package services

import "time"

const OutcomeOK = "ok"

// Observer sees the order engine's operation boundary. Outcome is OutcomeOK or a Kind.
type Observer interface {
	OrderStarted(lineItems int)
	OrderFinished(outcome string, elapsed time.Duration)
}

// Observers fans out to every member.
type Observers []Observer

func (o Observers) OrderStarted(lineItems int) {
	for _, x := range o {
		x.OrderStarted(lineItems)
	}
}

func (o Observers) OrderFinished(outcome string, elapsed time.Duration) {
	for _, x := range o {
		x.OrderFinished(outcome, elapsed)
	}
}
