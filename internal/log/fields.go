package log

// Common field names for structured logging
const (
	FieldComponent     = "component"
	FieldOperation     = "operation"
	FieldError         = "error"
	FieldErrorType     = "error_type"
	FieldKey           = "key"
	FieldCount         = "count"
	FieldTransactionID = "transaction_id"
	FieldName          = "name"
	FieldAmount        = "amount"
	FieldType          = "type"
	FieldCategory      = "category"
	FieldExchange      = "exchange"
	FieldQueue         = "queue"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentCLI     = "cli"
	ComponentLedger  = "ledger"
	ComponentService = "service"
	ComponentBackend = "backend"
	ComponentWorker  = "worker"
)

// Operations defines standard operation names
const (
	OpLoad     = "load"
	OpAppend   = "append"
	OpRemove   = "remove"
	OpPublish  = "publish"
	OpValidate = "validate"
	OpShutdown = "shutdown"
)

// ErrorTypes defines standard error type categories
const (
	ErrorTypeValidation = "validation_error"
	ErrorTypeStorage    = "storage_error"
	ErrorTypeCorrupt    = "corrupt_data_error"
	ErrorTypeNetwork    = "network_error"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithError adds error and error type fields
func (f LogFields) WithError(err error, errorType string) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
		f[FieldErrorType] = errorType
	}
	return f
}

// WithKey adds the storage key field
func (f LogFields) WithKey(key string) LogFields {
	f[FieldKey] = key
	return f
}

// WithCount adds the count field
func (f LogFields) WithCount(n int) LogFields {
	f[FieldCount] = n
	return f
}

// WithTransaction adds transaction-related fields
func (f LogFields) WithTransaction(id, name, amount, typ, category string) LogFields {
	f[FieldTransactionID] = id
	f[FieldName] = name
	f[FieldAmount] = amount
	f[FieldType] = typ
	f[FieldCategory] = category
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
