//go:build !unix

package buildlock

import "os"

// Без flock остаётся только внутрипроцессная блокировка.
func lockFile(*os.File) error { return nil }

func unlockFile(*os.File) error { return nil }
