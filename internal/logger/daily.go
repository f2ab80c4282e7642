package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const dayLayout = "2006-01-02"

// DailyFile is an io.WriteCloser that appends to <dir>/<prefix>.YYYY-MM-DD and switches
// to a new file on the first write of each day.
type DailyFile struct {
	dir    string
	prefix string
	now    func() time.Time

	mu   sync.Mutex
	day  string
	file *os.File
}

// NewDailyFile creates dir if needed and returns a writer for it.
func NewDailyFile(dir, prefix string) (*DailyFile, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
	}

	return &DailyFile{dir: dir, prefix: prefix, now: time.Now}, nil
}

func (d *DailyFile) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	day := d.now().Format(dayLayout)
	if d.file == nil || day != d.day {
		if err := d.rotate(day); err != nil {
			return 0, err
		}
	}

	return d.file.Write(p)
}

// Path returns the file currently written to, empty before the first write.
func (d *DailyFile) Path() string {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.file == nil {
		return ""
	}
	return d.file.Name()
}

func (d *DailyFile) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	return err
}

func (d *DailyFile) rotate(day string) error {
	if d.file != nil {
		if err := d.file.Close(); err != nil {
			return fmt.Errorf("failed to close log file: %w", err)
		}
		d.file = nil
	}

	name := filepath.Join(d.dir, d.prefix+"."+day)
	f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", name, err)
	}

	d.file = f
	d.day = day
	return nil
}
