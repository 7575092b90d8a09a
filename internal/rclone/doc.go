// Package rclone wraps the rclone CLI used to relocate staged media to the
// archive remote, probe the remote, and report the installed version.
package rclone
