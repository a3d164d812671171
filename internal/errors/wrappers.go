package errors

import "fmt"

// Common error wrapping patterns used throughout the codebase

// WrapWithOperation wraps an error with an operation context
func WrapWithOperation(operation, item string, cause error) *BaseError {
	message := fmt.Sprintf("failed to %s %s", operation, item)
	return Wrap(UnknownErrorCode, message, cause)
}

// WrapFileSystemError wraps file system related errors
func WrapFileSystemError(operation, path string, cause error) *BaseError {
	message := fmt.Sprintf("failed to %s file '%s'", operation, path)
	return Wrap(FileSystemErrorCode, message, cause).
		WithContext("operation", operation).
		WithContext("path", path)
}

// WrapConfigurationError wraps configuration-related errors
func WrapConfigurationError(configType, operation string, cause error) *BaseError {
	message := fmt.Sprintf("failed to %s configuration '%s'", operation, configType)
	return Wrap(ConfigurationErrorCode, message, cause).
		WithContext("config_type", configType).
		WithContext("operation", operation)
}

// WrapMetadataError wraps failures talking to the schema metadata source
func WrapMetadataError(provider, table string, cause error) *BaseError {
	message := fmt.Sprintf("failed to read comments for table '%s'", table)
	return Wrap(MetadataErrorCode, message, cause).
		WithContext("provider", provider).
		WithContext("table", table)
}

// WrapRewriteError wraps failures applying edits to a source unit
func WrapRewriteError(file string, cause error) *BaseError {
	return Wrap(RewriteErrorCode, "failed to rewrite source", cause).
		WithLocation(SourceLocation{File: file})
}

// Convenience functions for common operations

// FileSystemError creates a file system error
func FileSystemError(operation, path, message string) *BaseError {
	fullMessage := fmt.Sprintf("failed to %s file '%s': %s", operation, path, message)
	return New(FileSystemErrorCode, fullMessage).
		WithContext("operation", operation).
		WithContext("path", path)
}

// ConfigurationError creates a configuration error
func ConfigurationError(configType, message string) *BaseError {
	fullMessage := fmt.Sprintf("configuration error in '%s': %s", configType, message)
	return New(ConfigurationErrorCode, fullMessage).
		WithContext("config_type", configType)
}

// MetadataError creates a metadata error without wrapping
func MetadataError(provider, message string) *BaseError {
	return New(MetadataErrorCode, message).WithContext("provider", provider)
}
