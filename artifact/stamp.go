package artifact

import (
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/genmesh/core"
)

// StampLayout is the second-granularity layout of artifact stamps.
const StampLayout = "20060102_150405"

// maxStampSuffix bounds the search for a free stamp within one second.
const maxStampSuffix = 10000

var kinds = []core.ArtifactKind{core.KindImage, core.KindModel}

// stamper hands out stamps that are unique across outstanding reservations
// and existing artifacts. A reservation is held until released, whatever the
// clock reads in the meantime.
type stamper struct {
	mu       sync.Mutex
	reserved map[string]struct{}
}

func (s *stamper) reserve(t time.Time, exists func(name string) (bool, error)) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reserved == nil {
		s.reserved = make(map[string]struct{})
	}
	base := t.Format(StampLayout)
	for n := 0; n < maxStampSuffix; n++ {
		stamp := base
		if n > 0 {
			stamp = fmt.Sprintf("%s_%d", base, n)
		}
		if _, taken := s.reserved[stamp]; taken {
			continue
		}
		free := true
		for _, k := range kinds {
			ok, err := exists(k.FileName(stamp))
			if err != nil {
				return "", err
			}
			if ok {
				free = false
				break
			}
		}
		if free {
			s.reserved[stamp] = struct{}{}
			return stamp, nil
		}
	}
	return "", fmt.Errorf("no free artifact stamp for %s", base)
}

func (s *stamper) release(stamp string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.reserved, stamp)
}
