//go:build !linux

package main

// staticNames names only the keyboard.
type staticNames struct {
	vid, pid uint16
}

func (n staticNames) Describe(vid, pid uint16) string {
	if vid == n.vid && pid == n.pid {
		return fusionName
	}
	return ""
}

func deviceNames(vid, pid uint16) namer {
	return staticNames{vid: vid, pid: pid}
}
