// Package internal holds the process-wide plumbing shared by the router's
// packages: log setup, operation timing and prometheus collectors.
package internal
