package log

// Common field names for structured logging.
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldClientIP    = "client_ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldTransaction = "transaction_id"
	FieldProject     = "project_id"
	FieldEntry       = "entry_id"
	FieldDeferred    = "deferred_id"
	FieldInstallment = "installment_id"
	FieldBeneficiary = "beneficiary"
	FieldAmount      = "amount"
	FieldBalance     = "balance"
	FieldMirrorRef   = "mirror_ref"
)

// Standard component names.
const (
	ComponentLedger  = "ledger"
	ComponentHTTP    = "http"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentMirror  = "mirror"
)
