package topics

const (
	// Ledger
	BetImported = "bet_imported"
	BetGraded   = "bet_graded"

	// Recaps
	RecapReady = "recap_ready"

	// Comandos vindos dos adapters (chat, webhook)
	GradeRequests = "grade_requests"

	// DLQs
	GradeRequestsDLQ = "grade_requests_dlq"
)
