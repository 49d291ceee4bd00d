// Package storage detects removable media insertion through udev netlink
// events.
package storage
