//go:build !linux

package main

import "errors"

func reboot() error {
	return errors.New("reboot not supported on this platform")
}
