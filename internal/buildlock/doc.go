// Package buildlock serializes compilers that write into the same build
// directory. A lock is taken with Locker.LockForBuild and released with
// Guard.Unlock; locks are not reentrant.
package buildlock
