package core

// # Error Codes Reference
//
// User-facing messages with codes for support reference. Codes are grouped by
// category:
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - Source not found: The file could not be opened or read
//	          Action: Check the path and file permissions
//	          Patterns: "source not found"
//
//	FILE002 - Invalid CSV: File is not valid delimited text
//	          Action: Check quoting and that no row has more fields than the header
//	          Patterns: "invalid csv"
//
//	FILE003 - Empty file: The file has no header row
//	          Action: Provide a file whose first line names the columns
//	          Patterns: "empty file"
//
//	FILE004 - File too large: File exceeds the configured size limit
//	          Action: Split the file or raise LOAD_MAX_FILE_SIZE
//	          Patterns: "file too large"
//
// # Filter Errors (FLT001-FLT099)
//
//	FLT001 - Not loaded: Filtering was requested before a dataset was loaded
//	         Action: Load the dataset first
//	         Patterns: "dataset not loaded"
//
//	FLT002 - Arity mismatch: Columns and values differ in number
//	         Action: Supply exactly one value per column
//	         Patterns: "column and value count mismatch"
//
//	FLT003 - Unknown column: A filter names a column the dataset does not have
//	         Action: Check the column name against the file header
//	         Patterns: "unknown column"
//
//	FLT004 - Invalid tolerance: Tolerance is negative or not a number
//	         Action: Use a non-negative tolerance such as 0.01
//	         Patterns: "invalid tolerance"
//
// # Dataset Errors (DS001-DS099)
//
//	DS001 - Dataset not found: No loaded dataset has this ID
//	        Action: Load the file again and use the returned ID
//	        Patterns: "dataset not found"
//
//	DS002 - Server busy: Every load slot is in use
//	        Action: Retry after a short delay
//	        Patterns: "too many concurrent loads"
//
// # Request Errors (REQ001-REQ099)
//
//	REQ001 - Request cancelled  Patterns: "context canceled"
//	REQ002 - Request timeout    Patterns: "context deadline exceeded"
//
// # Default Error (ERR000)
//
// Fallback when no specific pattern matches.
//
// Error patterns are matched case-insensitively using strings.Contains. The
// first matching pattern wins, so more specific patterns come first.

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// File errors
	{
		pattern: "source not found",
		msg: UserMessage{
			Message: "The file could not be opened or read",
			Action:  "Check the path and file permissions",
			Code:    "FILE001",
		},
	},
	{
		pattern: "invalid csv",
		msg: UserMessage{
			Message: "File is not valid delimited text",
			Action:  "Check quoting and that no row has more fields than the header",
			Code:    "FILE002",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The file has no header row",
			Action:  "Provide a file whose first line names the columns",
			Code:    "FILE003",
		},
	},
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the configured size limit",
			Action:  "Split the file or raise LOAD_MAX_FILE_SIZE",
			Code:    "FILE004",
		},
	},

	// Filter errors
	{
		pattern: "dataset not loaded",
		msg: UserMessage{
			Message: "No dataset has been loaded yet",
			Action:  "Load the dataset before filtering",
			Code:    "FLT001",
		},
	},
	{
		pattern: "column and value count mismatch",
		msg: UserMessage{
			Message: "The number of columns and values differ",
			Action:  "Supply exactly one value per column",
			Code:    "FLT002",
		},
	},
	{
		pattern: "unknown column",
		msg: UserMessage{
			Message: "A filter names a column the dataset does not have",
			Action:  "Check the column name against the file header",
			Code:    "FLT003",
		},
	},
	{
		pattern: "invalid tolerance",
		msg: UserMessage{
			Message: "Tolerance must be a non-negative number",
			Action:  "Use a tolerance such as 0.01, or omit it for exact matches",
			Code:    "FLT004",
		},
	},

	// Dataset errors
	{
		pattern: "dataset not found",
		msg: UserMessage{
			Message: "Dataset not found",
			Action:  "Load the file again and use the returned ID",
			Code:    "DS001",
		},
	},
	{
		pattern: "too many concurrent loads",
		msg: UserMessage{
			Message: "The server is busy loading other files",
			Action:  "Retry after a short delay",
			Code:    "DS002",
		},
	},

	// Request errors
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "REQ001",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or try again later",
			Code:    "REQ002",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Check the logs for the underlying error",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// It searches through known error patterns (case-insensitive) and returns
// the first match. If no pattern matches, a generic fallback message with
// code ERR000 is returned.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern rather than the
// ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
