package progress

import "io"

// Reader reports bytes read from the wrapped reader. Updates are sent when
// the completed tenth changes, and once more at EOF.
type Reader struct {
	r        io.Reader
	reporter Reporter
	total    int64
	read     int64
	step     int64
	done     bool
}

// NewReader wraps r and starts reporter with total bytes.
func NewReader(r io.Reader, reporter Reporter, total int64, description string) *Reader {
	reporter.Start(total, description)
	return &Reader{r: r, reporter: reporter, total: total, step: -1}
}

func (pr *Reader) Read(p []byte) (int, error) {
	n, err := pr.r.Read(p)
	pr.read += int64(n)

	if n > 0 && pr.total > 0 {
		if step := pr.read * 10 / pr.total; step != pr.step {
			pr.step = step
			pr.reporter.Update(pr.read, "")
		}
	}
	if err == io.EOF && !pr.done {
		pr.done = true
		pr.reporter.Update(pr.read, "")
		pr.reporter.Finish()
	}
	return n, err
}

// BytesRead returns the number of bytes read so far.
func (pr *Reader) BytesRead() int64 { return pr.read }
