// Package task holds the task vocabulary shared by the ownership resolver
// and the access evaluator: processing status codes and creation timestamps.
package task

import "fmt"

// Status is the integer processing stage stored on a task.
type Status int

const (
	// StatusQueued indicates the task is waiting for a processing node.
	StatusQueued Status = 10

	// StatusRunning indicates the task is being processed.
	StatusRunning Status = 20

	// StatusFailed indicates processing stopped with an error.
	StatusFailed Status = 30

	// StatusCompleted indicates processing finished successfully.
	StatusCompleted Status = 40

	// StatusCanceled indicates processing was canceled before completion.
	StatusCanceled Status = 50
)

var statusNames = map[Status]string{
	StatusQueued:    "QUEUED",
	StatusRunning:   "RUNNING",
	StatusFailed:    "FAILED",
	StatusCompleted: "COMPLETED",
	StatusCanceled:  "CANCELED",
}

// ValidStatuses returns all known status codes in lifecycle order.
func ValidStatuses() []Status {
	return []Status{StatusQueued, StatusRunning, StatusFailed, StatusCompleted, StatusCanceled}
}

// IsValid returns true if the status is a known code.
func (s Status) IsValid() bool {
	_, ok := statusNames[s]
	return ok
}

// String returns the status name, or "Unknown (<code>)" for codes outside
// the known set.
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Unknown (%d)", int(s))
}

// StatusName resolves a raw status code to its display name.
func StatusName(code int) string {
	return Status(code).String()
}
