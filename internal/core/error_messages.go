package core

// error_messages.go maps technical errors to user-facing messages with a
// code that can be quoted to support.
//
// # Sheet Errors (SHT001-SHT099)
//
//	SHT001 - spread_sheet_id missing          sheets.ErrMissingOption
//	SHT002 - spreadsheet could not be fetched sheets.ErrTransport
//	SHT003 - response is not a gviz export    sheets.ErrInvalidEnvelope
//	SHT004 - response is not valid JSON       sheets.ErrMalformedJSON
//	SHT005 - response has no rows             sheets.ErrMissingRows
//	SHT006 - unsupported column type          sheets.ErrUnsupportedColumnType
//	SHT007 - operation not supported          sheets.ErrUnsupportedOperation
//	SHT008 - invalid column definition        sheets.ErrInvalidColumn
//
// # Scan Errors (SCN001-SCN099)
//
//	SCN001 - scan session not found or expired
//	SCN002 - too many concurrent scans
//	SCN003 - catalog table not found
//	SCN004 - request cancelled
//	SCN005 - request timed out
//
// # Database Errors (DB001-DB099)
//
//	DB001 - no database configured
//	DB002 - table has no target_table
//	DB003 - target table columns do not match
//	DB004 - target table does not exist (SQLSTATE 42P01)
//	DB005 - target column does not exist (SQLSTATE 42703)
//	DB006 - constraint violated (SQLSTATE class 23)
//	DB007 - connection refused
//	DB008 - connection reset
//
// # Default Error (ERR000)
//
// Sentinel kinds are matched with errors.Is first, then Postgres SQLSTATE
// codes, then case-insensitive substrings. When a user reports ERR000 the
// technical error is in the server log next to the request id.

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JonMunkholm/sheetscan/internal/sheets"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorKind struct {
	target error
	msg    UserMessage
}

// errorKinds is checked in order with errors.Is.
var errorKinds = []errorKind{
	{sheets.ErrMissingOption, UserMessage{
		Message: "The spreadsheet id is missing",
		Action:  "Set spread_sheet_id for this table",
		Code:    "SHT001",
	}},
	{sheets.ErrTransport, UserMessage{
		Message: "The spreadsheet could not be fetched",
		Action:  "Check that the spreadsheet exists and is shared for link viewing",
		Code:    "SHT002",
	}},
	{sheets.ErrInvalidEnvelope, UserMessage{
		Message: "The response was not a spreadsheet export",
		Action:  "Check the spreadsheet id and the configured base URL",
		Code:    "SHT003",
	}},
	{sheets.ErrMalformedJSON, UserMessage{
		Message: "The spreadsheet export could not be read",
		Action:  "Please try again; if it persists, contact support",
		Code:    "SHT004",
	}},
	{sheets.ErrMissingRows, UserMessage{
		Message: "The spreadsheet export contained no rows",
		Action:  "Check the sheet id (gid) and that the sheet has data",
		Code:    "SHT005",
	}},
	{sheets.ErrUnsupportedColumnType, UserMessage{
		Message: "A column uses a data type that cannot be read from a spreadsheet",
		Action:  "Use bigint or text columns",
		Code:    "SHT006",
	}},
	{sheets.ErrUnsupportedOperation, UserMessage{
		Message: "This operation is not supported for spreadsheet tables",
		Action:  "Spreadsheet tables are read-only and scan forward once; start a new scan instead",
		Code:    "SHT007",
	}},
	{sheets.ErrInvalidColumn, UserMessage{
		Message: "A column definition is invalid",
		Action:  "Give every column a unique name and an ordinal of 1 or more",
		Code:    "SHT008",
	}},
	{ErrSessionNotFound, UserMessage{
		Message: "Scan session not found",
		Action:  "The scan may have expired. Please start a new scan",
		Code:    "SCN001",
	}},
	{ErrTooManyScans, UserMessage{
		Message: "System is busy fetching other spreadsheets",
		Action:  "Please wait a moment and try again",
		Code:    "SCN002",
	}},
	{ErrTableNotFound, UserMessage{
		Message: "Table not found",
		Action:  "Verify the table key is correct",
		Code:    "SCN003",
	}},
	{context.Canceled, UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "SCN004",
	}},
	{context.DeadlineExceeded, UserMessage{
		Message: "Request timed out",
		Action:  "Try again later or raise SHEETS_HTTP_TIMEOUT",
		Code:    "SCN005",
	}},
	{ErrNoDatabase, UserMessage{
		Message: "Loading is disabled because no database is configured",
		Action:  "Set DATABASE_URL and restart the service",
		Code:    "DB001",
	}},
	{ErrNotLoadable, UserMessage{
		Message: "This table has no target table",
		Action:  "Set target_table for this table in the catalog",
		Code:    "DB002",
	}},
	{ErrTargetMismatch, UserMessage{
		Message: "The target table does not match the catalog columns",
		Action:  "Add the missing columns or fix their types",
		Code:    "DB003",
	}},
}

// sqlStates maps Postgres SQLSTATE codes (or a class prefix) to messages.
var sqlStates = []struct {
	prefix string
	msg    UserMessage
}{
	{"42P01", UserMessage{
		Message: "The target table does not exist",
		Action:  "Create the table or fix target_table",
		Code:    "DB004",
	}},
	{"42703", UserMessage{
		Message: "A target column does not exist",
		Action:  "Check the catalog column names against the table",
		Code:    "DB005",
	}},
	{"23", UserMessage{
		Message: "Loaded rows violate a table constraint",
		Action:  "Check the sheet for duplicate or empty key values",
		Code:    "DB006",
	}},
}

// errorPatterns is the substring fallback for errors that carry no kind.
var errorPatterns = []struct {
	pattern string
	msg     UserMessage
}{
	{"connection refused", UserMessage{
		Message: "Unable to connect to database",
		Action:  "Please try again in a few moments",
		Code:    "DB007",
	}},
	{"connection reset", UserMessage{
		Message: "Database connection was interrupted",
		Action:  "Please try again",
		Code:    "DB008",
	}},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
//
//	err := a.BeginScan(ctx, opts) // missing table.rows
//	msg := MapError(err)
//	// msg.Code == "SHT005"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, k := range errorKinds {
		if errors.Is(err, k.target) {
			return k.msg
		}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		for _, s := range sqlStates {
			if strings.HasPrefix(pgErr.Code, s.prefix) {
				return s.msg
			}
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display:
// "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to something more specific than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
