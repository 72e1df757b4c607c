package admission

import (
	"github.com/btcsuite/btclog/v2"
)

// Subsystem is this package's logging subsystem tag.
const Subsystem = "APADM"

var log btclog.Logger = btclog.Disabled

// UseLogger uses a specified Logger to output package logging info.
func UseLogger(logger btclog.Logger) {
	log = logger
}
