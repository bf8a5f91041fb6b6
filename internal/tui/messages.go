package tui

import (
	"github.com/dannyboland/loql/internal/browse"
	"github.com/dannyboland/loql/internal/session"
)

// ResponseMsg carries a session response back to the program.
type ResponseMsg struct {
	Request  session.Request
	Response session.Response

	seq int
}

// DirLoadedMsg is sent when a directory listing for the open-file modal completes.
type DirLoadedMsg struct {
	Dir     string
	Entries []browse.Entry
	Error   error
}

// DirChangedMsg is sent when the watched directory changes on disk.
type DirChangedMsg struct {
	Dir string
}

// noticeExpiredMsg removes a notification once its timer fires.
type noticeExpiredMsg struct {
	id int
}
