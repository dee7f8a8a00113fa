package commands

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/mattn/go-isatty"
)

// progress shows a spinner with the number of results received so far, it
// stays silent when not writing to a terminal.
type progress struct {
	s     *spinner.Spinner
	total int
}

func newProgress(w io.Writer, total int) progress {
	f, ok := w.(*os.File)
	if !ok || !isatty.IsTerminal(f.Fd()) {
		return progress{total: total}
	}
	s := spinner.New(spinner.CharSets[11], time.Millisecond*100, spinner.WithWriter(w))
	return progress{s: s, total: total}
}

func (p progress) Start() {
	if p.s == nil {
		return
	}
	p.Update(0)
	p.s.Start()
}

func (p progress) Update(done int) {
	if p.s == nil {
		return
	}
	p.s.Lock()
	p.s.Suffix = fmt.Sprintf(" converting %d/%d", done, p.total)
	p.s.Unlock()
}

func (p progress) Stop() {
	if p.s == nil {
		return
	}
	p.s.Stop()
}
