package log

import (
	"net/http"
	"time"
)

// Attribute keys shared across packages.
const (
	FieldComponent     = "component"
	FieldRequestID     = "request_id"
	FieldClientIP      = "client_ip"
	FieldMethod        = "method"
	FieldPath          = "path"
	FieldQuery         = "query"
	FieldStatusCode    = "status_code"
	FieldDuration      = "duration_ms"
	FieldUserAgent     = "user_agent"
	FieldError         = "error"
	FieldOperation     = "operation"
	FieldProjectID     = "project_id"
	FieldFinancialYear = "financial_year"
	FieldQuarter       = "quarter"
	FieldRef           = "ref"
	FieldJobID         = "job_id"
	FieldRows          = "rows"
	FieldSource        = "source"
)

// Component names.
const (
	ComponentApp      = "app"
	ComponentHTTP     = "http"
	ComponentAPI      = "api"
	ComponentChart    = "chart"
	ComponentImport   = "import"
	ComponentAMQP     = "amqp"
	ComponentWorker   = "worker"
	ComponentSheets   = "sheets"
	ComponentCache    = "cache"
	ComponentSecurity = "security"
	ComponentBackend  = "backend"
)

// Operation names.
const (
	OpCreate = "create"
	OpRead   = "read"
	OpList   = "list"
	OpImport = "import"
	OpExport = "export"
	OpRender = "render"
)

// Fields collects key/value attributes in insertion order. A key set twice
// keeps its first position and its last value.
type Fields struct {
	keys   []string
	values map[string]any
}

func NewFields() *Fields {
	return &Fields{values: make(map[string]any)}
}

// Set records one attribute.
func (f *Fields) Set(key string, value any) *Fields {
	if _, ok := f.values[key]; !ok {
		f.keys = append(f.keys, key)
	}
	f.values[key] = value
	return f
}

func (f *Fields) WithOperation(op string) *Fields {
	return f.Set(FieldOperation, op)
}

// WithError is a no-op for a nil error.
func (f *Fields) WithError(err error) *Fields {
	if err == nil {
		return f
	}
	return f.Set(FieldError, err.Error())
}

// WithRequest records method, path and query, plus the user agent when
// includeAgent is set.
func (f *Fields) WithRequest(r *http.Request, includeAgent bool) *Fields {
	f.Set(FieldMethod, r.Method).Set(FieldPath, r.URL.Path)
	if r.URL.RawQuery != "" {
		f.Set(FieldQuery, r.URL.RawQuery)
	}
	if includeAgent {
		f.Set(FieldUserAgent, r.UserAgent())
	}
	return f
}

func (f *Fields) WithResponse(statusCode int, elapsed time.Duration) *Fields {
	return f.Set(FieldStatusCode, statusCode).Set(FieldDuration, elapsed.Milliseconds())
}

// WithSnapshot identifies one quarterly report of a project.
func (f *Fields) WithSnapshot(projectID int64, financialYear string, quarter int) *Fields {
	return f.Set(FieldProjectID, projectID).
		Set(FieldFinancialYear, financialYear).
		Set(FieldQuarter, quarter)
}

// Args flattens the attributes for slog's variadic methods.
func (f *Fields) Args() []any {
	args := make([]any, 0, len(f.keys)*2)
	for _, k := range f.keys {
		args = append(args, k, f.values[k])
	}
	return args
}
