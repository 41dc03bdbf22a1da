package log

// Field names shared across components.
const (
	FieldComponent      = "component"
	FieldRequestID      = "request_id"
	FieldClientIP       = "client_ip"
	FieldMethod         = "method"
	FieldPath           = "path"
	FieldStatusCode     = "status_code"
	FieldDuration       = "duration_ms"
	FieldError          = "error"
	FieldOperation      = "operation"
	FieldSubscriptionID = "subscription_id"
	FieldName           = "name"
	FieldPrice          = "price"
	FieldCurrency       = "currency"
	FieldBillingCycle   = "billing_cycle"
	FieldTab            = "tab"
	FieldRate           = "rate"
	FieldSheetsRef      = "sheets_ref"
)

// Component names.
const (
	ComponentApp          = "app"
	ComponentHTTP         = "http"
	ComponentSubscription = "subscription"
	ComponentStorage      = "storage"
	ComponentAMQP         = "amqp"
	ComponentWorker       = "worker"
	ComponentSheets       = "sheets"
	ComponentFX           = "fx"
	ComponentCache        = "cache"
	ComponentRateLimit    = "rate_limit"
	ComponentTrace        = "trace"
)

// Operation names.
const (
	OpCreate   = "create"
	OpRead     = "read"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpExport   = "export"
	OpImport   = "import"
	OpSync     = "sync"
	OpRefresh  = "refresh"
	OpRender   = "render"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)
