package models

import "errors"

var (
	// ErrNotFound indicates that no task, subtask or category has the given id
	ErrNotFound = errors.New("not found")
	// ErrPersistence indicates that the local snapshot could not be written
	ErrPersistence = errors.New("persistence failed")
	// ErrSync indicates that pushing to or fetching from the remote store failed
	ErrSync = errors.New("remote sync failed")
	// ErrInvalidInput indicates a request that fails validation
	ErrInvalidInput = errors.New("invalid input")
)
