package gate

import (
	"os"

	"github.com/btcsuite/btclog/v2"
	"github.com/l402gate/tollgate/admission"
	"github.com/l402gate/tollgate/mac"
	"github.com/l402gate/tollgate/trust"
	"github.com/l402gate/tollgate/wallet"
	"github.com/lightninglabs/lndclient"
)

// Subsystem is this package's own logging subsystem tag.
const Subsystem = "GATE"

var (
	backendLog = btclog.NewDefaultHandler(logWriter{})
	log        = btclog.NewSLogger(backendLog.SubSystem(Subsystem))
)

func init() {
	addSubLogger(mac.Subsystem, mac.UseLogger)
	addSubLogger(wallet.Subsystem, wallet.UseLogger)
	addSubLogger(trust.Subsystem, trust.UseLogger)
	addSubLogger(admission.Subsystem, admission.UseLogger)
	addSubLogger("LNDC", lndclient.UseLogger)
}

// addSubLogger creates and registers the logger of a subsystem, deriving
// it from the shared handler via btclog/v2's handler-based API.
func addSubLogger(subsystem string, useLogger func(btclog.Logger)) {
	useLogger(btclog.NewSLogger(backendLog.SubSystem(subsystem)))
}

// logWriter implements io.Writer, writing to standard output. A deployment
// wanting file-based logging plugs a different io.Writer in here.
type logWriter struct{}

func (logWriter) Write(p []byte) (int, error) {
	return os.Stdout.Write(p)
}
