// Package logging builds the slog loggers both command-line tools report
// through: a plain console handler by default and slog's JSON handler on
// request.
package logging
