//go:build !linux
// +build !linux

package faultline

import "errors"

func applyUlimit(ulimit string) error {
	return errors.New("adjusting resource limits is not supported on this platform")
}

func applyCoredumpFilter(value string) error {
	return errors.New("coredump filters are not supported on this platform")
}
