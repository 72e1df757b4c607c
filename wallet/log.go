package wallet

import (
	"github.com/btcsuite/btclog/v2"
)

// Subsystem is this package's logging subsystem tag, registered by the
// gate package's top-level logger wiring.
const Subsystem = "APWAL"

// log is a logger initialized with no output filters; the package logs
// nothing until the caller requests it via UseLogger.
var log btclog.Logger = btclog.Disabled

// UseLogger uses a specified Logger to output package logging info. Called
// by gate's logger setup once the destination handler is known.
func UseLogger(logger btclog.Logger) {
	log = logger
}
