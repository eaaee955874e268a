package escrow

// Ledger entry types. Every money-moving transition appends at most two rows;
// platform_commission and worker_payout are always written as a pair.
const (
	TransactionAdvancePayment     = "advance_payment"
	TransactionFinalPayment       = "final_payment"
	TransactionPlatformCommission = "platform_commission"
	TransactionWorkerPayout       = "worker_payout"
	TransactionRefund             = "refund"
)

// Ledger entry statuses.
const (
	TransactionPending   = "pending"
	TransactionCompleted = "completed"
	TransactionFailed    = "failed"
	TransactionRefunded  = "refunded"
)

// DefaultCurrency is recorded on ledger rows when none is configured.
const DefaultCurrency = "INR"

// MaxLedgerPageSize caps transaction listings so payment history responses
// stay bounded.
const MaxLedgerPageSize = 200
