package listener

import (
	"bytes"
	"io"
)

// lineEndings adapts a terminal stream to plain "\n" lines. Reads turn
// "\r\n", "\r\x00" and a lone "\r" into "\n", including pairs split across
// reads. Writes send "\r\n".
type lineEndings struct {
	rw      io.ReadWriter
	afterCR bool
}

func newCRLFReadWriter(rw io.ReadWriter) io.ReadWriter {
	return &lineEndings{rw: rw}
}

func (l *lineEndings) Read(p []byte) (int, error) {
	for {
		n, err := l.rw.Read(p)
		out := p[:0]
		for _, b := range p[:n] {
			if l.afterCR {
				l.afterCR = false
				if b == '\n' || b == 0 {
					continue
				}
			}
			if b == '\r' {
				l.afterCR = true
				b = '\n'
			}
			out = append(out, b)
		}
		// A read that only finished a CR pair yields nothing; read again
		// rather than report a zero-length read.
		if len(out) > 0 || err != nil || n == 0 {
			return len(out), err
		}
	}
}

func (l *lineEndings) Write(p []byte) (int, error) {
	lines := bytes.ReplaceAll(p, []byte("\r\n"), []byte("\n"))
	_, err := l.rw.Write(bytes.ReplaceAll(lines, []byte("\n"), []byte("\r\n")))
	if err != nil {
		return 0, err
	}
	return len(p), nil
}
