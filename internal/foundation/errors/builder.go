package errors

// ErrorBuilder provides a fluent API for creating ClassifiedError instances.
type ErrorBuilder struct {
	category ErrorCategory
	severity ErrorSeverity
	message  string
	cause    error
	context  ErrorContext
}

// NewError creates a new ErrorBuilder with the specified category and message.
func NewError(category ErrorCategory, message string) *ErrorBuilder {
	return &ErrorBuilder{
		category: category,
		severity: SeverityError,
		message:  message,
		context:  make(ErrorContext),
	}
}

// WrapError creates a new ErrorBuilder that wraps an existing error.
func WrapError(err error, category ErrorCategory, message string) *ErrorBuilder {
	return NewError(category, message).WithCause(err)
}

// WithCause sets the underlying error.
func (b *ErrorBuilder) WithCause(err error) *ErrorBuilder {
	b.cause = err
	return b
}

// WithSeverity sets the error severity.
func (b *ErrorBuilder) WithSeverity(severity ErrorSeverity) *ErrorBuilder {
	b.severity = severity
	return b
}

// WithContext adds a context key-value pair.
func (b *ErrorBuilder) WithContext(key string, value any) *ErrorBuilder {
	b.context = b.context.Set(key, value)
	return b
}

// Fatal sets the severity to fatal.
func (b *ErrorBuilder) Fatal() *ErrorBuilder {
	return b.WithSeverity(SeverityFatal)
}

// Build creates the final ClassifiedError.
func (b *ErrorBuilder) Build() *ClassifiedError {
	return &ClassifiedError{
		category: b.category,
		severity: b.severity,
		message:  b.message,
		cause:    b.cause,
		context:  b.context,
	}
}

// Convenience constructors for the vendoring taxonomy. All of them are fatal:
// a run either completes every step or fails.

// ConfigError creates a configuration error.
func ConfigError(message string) *ErrorBuilder {
	return NewError(CategoryConfig, message).Fatal()
}

// ValidationError creates a validation error.
func ValidationError(message string) *ErrorBuilder {
	return NewError(CategoryValidation, message).Fatal()
}

// ToolNotFound reports a required executable missing from PATH.
func ToolNotFound(tool string) *ErrorBuilder {
	return NewError(CategoryToolNotFound, "required tool not found on PATH").
		Fatal().
		WithContext("tool", tool)
}

// FetchFailure reports a failed clone, checkout or revision lookup.
func FetchFailure(message string) *ErrorBuilder {
	return NewError(CategoryFetch, message).Fatal()
}

// ClassificationFailure reports generator or manifest output that cannot be trusted.
func ClassificationFailure(message string) *ErrorBuilder {
	return NewError(CategoryClassification, message).Fatal()
}

// MaterializationFailure reports a classified file absent at copy time.
func MaterializationFailure(message string) *ErrorBuilder {
	return NewError(CategoryMaterialization, message).Fatal()
}

// FileSystemFailure wraps IO and permission errors during wipe, copy or write.
func FileSystemFailure(err error, operation string) *ErrorBuilder {
	return WrapError(err, CategoryFileSystem, "filesystem operation failed").
		Fatal().
		WithContext("operation", operation)
}

// InternalError creates an internal error.
func InternalError(message string) *ErrorBuilder {
	return NewError(CategoryInternal, message).Fatal()
}
