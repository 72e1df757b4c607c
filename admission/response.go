package admission

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/l402gate/tollgate/pricing"
)

// instructions are the human-readable steps embedded in a 402 response.
type instructions struct {
	Step1 string `json:"step1"`
	Step2 string `json:"step2"`
	Step3 string `json:"step3"`
}

// challengeBody is the JSON body of a 402 Payment Required response, per
// the external-interfaces wire contract.
type challengeBody struct {
	Status       int               `json:"status"`
	Message      string            `json:"message"`
	Protocol     string            `json:"protocol"`
	PaymentHash  string            `json:"paymentHash"`
	Invoice      string            `json:"invoice"`
	Macaroon     string            `json:"macaroon"`
	AmountSats   int64             `json:"amountSats"`
	ContextID    string            `json:"contextId"`
	Description  string            `json:"description"`
	Pricing      pricing.Breakdown `json:"pricing"`
	Instructions instructions      `json:"instructions"`
}

// writeChallenge writes a 402 response with the WWW-Authenticate header
// and JSON body the L402 protocol requires.
func writeChallenge(w http.ResponseWriter, body challengeBody) {
	w.Header().Set("WWW-Authenticate", fmt.Sprintf(
		`L402 invoice="%s", macaroon="%s"`, body.Invoice, body.Macaroon,
	))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusPaymentRequired)
	_ = json.NewEncoder(w).Encode(body)
}

// authFailureBody is the JSON body of a 401 response.
type authFailureBody struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

// writeUnauthorized writes a 401 response carrying detail as the failure
// reason.
func writeUnauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(authFailureBody{
		Error:  "Invalid L402 credentials",
		Detail: detail,
	})
}
