package event

// Wallet bridge topic constants. The pairing gateway forwards peer session
// requests on the request topics; the signing agent publishes terminal
// results on the result topics.
const (
	// Request Topics
	SignRequestTopic = "wallet.sign_request.*"

	// Result Topics (with wildcards)
	SignResultTopic = "wallet.sign_result.*"

	// Stream Names
	SignResultStream = "wallet"

	// Message Queue Names
	SignResultQueueName = "sign_result"
)

// FormatSignRequestTopic creates a specific sign request topic for a request ID
func FormatSignRequestTopic(requestID string) string {
	return "wallet.sign_request." + requestID
}

// FormatSignResultTopic creates a specific sign result topic for a request ID
func FormatSignResultTopic(requestID string) string {
	return "wallet.sign_result." + requestID
}
