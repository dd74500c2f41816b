package core

// # Error Codes Reference
//
// This file defines user-facing error messages with codes for support
// reference. Every fatal pipeline error renders as one message in place of
// the charts; the code lets a user quote it to support.
//
// # Source Errors (SRC001-SRC099)
//
//	SRC001 - Source not found: the configured input file does not exist
//	         Action: Check the configured source path
//	         Matches: ErrSourceNotFound
//
//	SRC002 - Malformed source: no usable rows survived parsing
//	         Action: Check the export format, quoting and encoding
//	         Matches: ErrMalformedSource
//
// # Schema Errors (SCH001-SCH099)
//
//	SCH001 - Schema mismatch: a required column is absent at every header offset
//	         Action: Check that the file matches the selected variant
//	         Matches: ErrSchemaMismatch (the message lists the columns found)
//
// # Remote Errors (API001-API099)
//
//	API001 - Remote unavailable: the indicator service failed or returned non-2xx
//	         Action: Try again later
//	         Matches: ErrRemoteUnavailable (the message carries the status)
//
//	API002 - No data: the service answered but holds nothing for the query
//	         Action: Try a different indicator, region or year range
//	         Matches: ErrNoData
//
// # Request Errors (REQ001-REQ099)
//
//	REQ001 - Unknown variant: the requested schema variant is not registered
//	REQ002 - Invalid query: request parameters cannot be used
//	REQ003 - Timeout: the request ran past its deadline
//
// # Capacity (BUSY001)
//
//	BUSY001 - Pipeline busy: all pipeline slots are taken
//	          Matches: ErrPipelineBusy
//
// # Default Error (ERR000)
//
// Fallback when no known error is in the chain. Support staff should check
// application logs for the original technical error when users report ERR000.
//
// # Matching
//
// Errors are matched with errors.Is against the sentinels in errors.go, so
// wrapping with fmt.Errorf("...: %w", err) keeps the mapping intact. The first
// matching entry wins.

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorMapping ties a sentinel to its user message.
type errorMapping struct {
	target error
	msg    UserMessage
}

var errorMappings = []errorMapping{
	// =========================================================================
	// Source and schema errors
	// =========================================================================
	{
		target: ErrSourceNotFound,
		msg: UserMessage{
			Message: "The statistics source could not be found",
			Action:  "Check the configured source path",
			Code:    "SRC001",
		},
	},
	{
		target: ErrSchemaMismatch,
		msg: UserMessage{
			Message: "The source does not have the expected columns",
			Action:  "Check that the file matches the selected variant",
			Code:    "SCH001",
		},
	},
	{
		target: ErrMalformedSource,
		msg: UserMessage{
			Message: "The source contains no usable rows",
			Action:  "Check the export format, quoting and encoding",
			Code:    "SRC002",
		},
	},

	// =========================================================================
	// Remote indicator errors
	// =========================================================================
	{
		target: ErrRemoteUnavailable,
		msg: UserMessage{
			Message: "The indicator service is unavailable",
			Action:  "Please try again later",
			Code:    "API001",
		},
	},
	{
		target: ErrNoData,
		msg: UserMessage{
			Message: "No data is available for this selection",
			Action:  "Try a different indicator, region or year range",
			Code:    "API002",
		},
	},

	// =========================================================================
	// Request errors
	// =========================================================================
	{
		target: ErrUnknownVariant,
		msg: UserMessage{
			Message: "Unknown schema variant",
			Action:  "Choose one of the listed variants",
			Code:    "REQ001",
		},
	},
	{
		target: ErrInvalidQuery,
		msg: UserMessage{
			Message: "The request parameters are invalid",
			Action:  "Check the query parameters and try again",
			Code:    "REQ002",
		},
	},
	{
		target: ErrPipelineBusy,
		msg: UserMessage{
			Message: "The system is busy processing other requests",
			Action:  "Please wait a moment and try again",
			Code:    "BUSY001",
		},
	},
	{
		target: context.DeadlineExceeded,
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Please try again",
			Code:    "REQ003",
		},
	},
}

// defaultMessage is returned when no known error matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Structured errors add their diagnostics to the message: the missing column
// and the columns found, the source path, or the remote status code.
//
// Example:
//
//	err := &SchemaError{Column: "年齢各歳", Found: []string{"地域", "value"}}
//	msg := MapError(err)
//	// msg.Code == "SCH001"
//	// msg.Message == `The source does not have the expected columns: missing "年齢各歳"; found "地域", "value"`
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			msg := m.msg
			if detail := errorDetail(err); detail != "" {
				msg.Message += ": " + detail
			}
			return msg
		}
	}

	return defaultMessage
}

// errorDetail extracts the diagnostic data carried by structured errors.
func errorDetail(err error) string {
	var se *SchemaError
	if errors.As(err, &se) {
		found := "(none)"
		if len(se.Found) > 0 {
			found = quoteList(se.Found)
		}
		column := fmt.Sprintf("%q", se.Column)
		if len(se.Candidates) > 1 {
			column = "one of " + quoteList(se.Candidates)
		}
		return fmt.Sprintf("missing %s; found %s", column, found)
	}

	var src *SourceError
	if errors.As(err, &src) {
		return src.Path
	}

	var me *MalformedError
	if errors.As(err, &me) {
		if me.Line > 0 {
			return fmt.Sprintf("line %d: %s", me.Line, me.Reason)
		}
		return me.Reason
	}

	var re *RemoteError
	if errors.As(err, &re) {
		if re.StatusCode > 0 {
			return fmt.Sprintf("status %d", re.StatusCode)
		}
		return "no response"
	}

	var ve *VariantError
	if errors.As(err, &ve) {
		return fmt.Sprintf("%q", ve.Key)
	}

	var qe *QueryError
	if errors.As(err, &qe) {
		return strings.TrimSpace(qe.Param + " " + qe.Reason)
	}
	return ""
}

// IsUserFacing reports whether err maps to a known code rather than the
// generic ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
