package query

import "errors"

var (
	ErrFileNotFound       = errors.New("query: file not found")
	ErrStorageElementDown = errors.New("query: resolved storage element is unreachable")
)
