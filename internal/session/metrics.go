package session

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	opParseReceipt     = "parse_receipt"
	opInterpretCommand = "interpret_command"

	outcomeOK    = "ok"
	outcomeError = "error"
)

// interpreterCalls counts calls to the external interpreter by operation and
// outcome. The oracle is the only network-bound dependency, so its failure
// rate is the number worth watching.
var interpreterCalls = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "billchat_interpreter_calls_total",
		Help: "Calls to the external interpreter, by operation and outcome.",
	},
	[]string{"operation", "outcome"},
)

func observeInterpreterCall(operation, outcome string) {
	interpreterCalls.WithLabelValues(operation, outcome).Inc()
}
