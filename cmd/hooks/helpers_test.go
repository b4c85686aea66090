package main

import (
	stderrors "errors"
	"os"

	"github.com/vango-dev/hooks/internal/errors"
)

func writeStore(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o600)
}

func errDetail(err error) string {
	var he *errors.HookError
	if stderrors.As(err, &he) {
		return he.Detail
	}
	return ""
}
