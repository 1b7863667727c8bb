//go:build linux

package main

import "github.com/ardnew/fusionkbd/pkg/linux/usbid"

// deviceNames loads the system USB ID database. The keyboard itself is not
// listed there and is named explicitly.
func deviceNames(vid, pid uint16) namer {
	db := usbid.New()
	db.Load()
	db.Add(vid, pid, "", fusionName)
	return db
}
