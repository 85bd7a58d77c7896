package tail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/ghalamif/NetCandle/internal/ports"
)

const DefaultPath = "logs/lkim.log"

// headLen bytes from the start of the file identify its content across events.
const headLen = 64

// LineSink receives complete lines and reset markers.
type LineSink interface {
	Append(source, level, text string)
	Reset(source string)
}

// Follower tails an append-only log file by byte offset. It watches the
// parent directory so the file may appear, vanish or be recreated at any time.
type Follower struct {
	path    string
	source  string
	sink    LineSink
	obs     ports.Observability
	offset  int64
	partial []byte
	info    os.FileInfo
	head    []byte
	waiting bool
}

func NewFollower(path string, sink LineSink, obs ports.Observability) *Follower {
	if path == "" {
		path = DefaultPath
	}
	return &Follower{
		path:   filepath.Clean(path),
		source: "log",
		sink:   sink,
		obs:    obs,
	}
}

// Run blocks until ctx is done.
func (f *Follower) Run(ctx context.Context) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("tail: prepare %s: %w", dir, err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return fmt.Errorf("tail: watch %s: %w", dir, err)
	}

	f.catchUp()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != f.path {
				continue
			}
			switch {
			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				f.reset()
				f.catchUp()
			case ev.Op&(fsnotify.Write|fsnotify.Create) != 0:
				f.catchUp()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			f.obs.LogWarn("tail_watch_error", err, ports.Field{Key: "path", Value: f.path})
		}
	}
}

func (f *Follower) catchUp() {
	if err := f.readNew(); err != nil {
		f.obs.LogWarn("tail_read_failed", err, ports.Field{Key: "path", Value: f.path})
	}
}

func (f *Follower) readNew() error {
	fh, err := os.Open(f.path)
	if errors.Is(err, os.ErrNotExist) {
		f.markWaiting()
		return nil
	}
	if err != nil {
		return err
	}
	defer fh.Close()

	st, err := fh.Stat()
	if err != nil {
		return err
	}
	if f.waiting {
		f.waiting = false
		f.reset()
	}
	if f.offset > 0 && f.replaced(fh, st) {
		f.reset()
	}
	f.info = st
	if st.Size() == f.offset {
		return nil
	}

	if _, err := fh.Seek(f.offset, io.SeekStart); err != nil {
		return err
	}
	buf, err := io.ReadAll(fh)
	if err != nil {
		return err
	}
	if n := headLen - len(f.head); n > 0 {
		f.head = append(f.head, buf[:min(n, len(buf))]...)
	}
	f.offset += int64(len(buf))
	f.emit(buf)
	return nil
}

// replaced reports whether the file at path is no longer the one read up to
// offset: a new inode, a shorter file, or different leading bytes.
func (f *Follower) replaced(fh *os.File, st os.FileInfo) bool {
	if f.info != nil && !os.SameFile(f.info, st) {
		return true
	}
	if st.Size() < f.offset {
		return true
	}
	if len(f.head) == 0 {
		return false
	}
	cur := make([]byte, len(f.head))
	n, err := fh.ReadAt(cur, 0)
	if err != nil && !errors.Is(err, io.EOF) {
		return true
	}
	return !bytes.Equal(cur[:n], f.head)
}

func (f *Follower) markWaiting() {
	if f.waiting {
		return
	}
	f.waiting = true
	f.sink.Append(f.source, ports.LevelInfo, WaitingLine(f.path))
}

// WaitingLine is shown while the log file does not exist yet.
func WaitingLine(path string) string {
	return fmt.Sprintf("[SYSTEM] waiting for %s", path)
}

func (f *Follower) emit(buf []byte) {
	data := append(f.partial, buf...)
	for {
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			break
		}
		line := strings.TrimRight(string(data[:i]), "\r")
		data = data[i+1:]
		f.sink.Append(f.source, LevelOf(line), line)
	}
	f.partial = append([]byte(nil), data...)
}

func (f *Follower) reset() {
	f.offset = 0
	f.partial = nil
	f.info = nil
	f.head = nil
	f.sink.Reset(f.source)
	f.obs.LogDebug("tail_reset", ports.Field{Key: "path", Value: f.path})
}

// LevelOf classifies a log line by its bracketed prefix.
func LevelOf(line string) string {
	switch {
	case strings.HasPrefix(line, "[ALERT]"):
		return ports.LevelAlert
	case strings.HasPrefix(line, "[GUI ERROR]"), strings.HasPrefix(line, "[ERROR]"):
		return ports.LevelError
	default:
		return ports.LevelInfo
	}
}
