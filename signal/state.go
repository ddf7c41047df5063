package signal

import (
	"os"
	"path/filepath"
	"time"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
)

// LoadState reads a throttle state saved by SaveState. A missing file
// returns nil and no error so the caller starts a fresh day.
func LoadState(path string) (*ThrottleState, error) {
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "read throttle state")
	}
	var s ThrottleState
	if err := sonic.Unmarshal(b, &s); err != nil {
		return nil, errors.Wrapf(err, "decode throttle state %s", path)
	}
	if s.LastSignal == nil {
		s.LastSignal = make(map[string]time.Time)
	}
	if s.Today == nil {
		s.Today = make(map[string]int)
	}
	return &s, nil
}

// SaveState writes s atomically: a temp file in the same directory is
// renamed over path.
func SaveState(path string, s *ThrottleState) error {
	b, err := sonic.Marshal(s)
	if err != nil {
		return errors.Wrap(err, "encode throttle state")
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".throttle-*")
	if err != nil {
		return errors.Wrap(err, "save throttle state")
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return errors.Wrap(err, "save throttle state")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "save throttle state")
	}
	return errors.Wrap(os.Rename(tmp.Name(), path), "save throttle state")
}
