package usage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"flaredrive/storage"

	"github.com/sirupsen/logrus"
)

// PageSize is the number of objects requested per listing page
const PageSize = storage.MaxPageSize

// ErrMissingCursor is returned when the store reports more results without a cursor to fetch them
var ErrMissingCursor = errors.New("usage: truncated page without continuation cursor")

// Recorder receives usage computation metrics
type Recorder interface {
	UsagePage(objects int)
	UsageTotal(total int64)
	UsageFailed()
}

// Service computes the aggregate size of every object in the bucket.
// The result is a point-in-time approximation: objects written or removed while
// the listing is in progress may or may not be counted.
type Service struct {
	lister   storage.Lister
	recorder Recorder
	logger   *logrus.Entry
}

// NewService creates a new usage service. recorder may be nil.
func NewService(lister storage.Lister, recorder Recorder, logger *logrus.Entry) *Service {
	if logger == nil {
		logger = logrus.WithField("component", "USAGE")
	}

	return &Service{
		lister:   lister,
		recorder: recorder,
		logger:   logger,
	}
}

// TotalSize walks the whole bucket one page at a time and returns the sum of
// object sizes. Any listing error aborts the walk; no partial total is returned.
func (s *Service) TotalSize(ctx context.Context) (int64, error) {
	startTime := time.Now()

	var total int64
	cursor := ""
	pages := 0
	objects := 0

	for {
		pages++
		page, err := s.lister.ListPage(ctx, storage.ListOptions{
			Cursor: cursor,
			Limit:  PageSize,
		})
		if err != nil {
			s.fail()
			return 0, fmt.Errorf("failed to list page %d: %w", pages, err)
		}

		for _, obj := range page.Objects {
			total += obj.Size
		}
		objects += len(page.Objects)
		if s.recorder != nil {
			s.recorder.UsagePage(len(page.Objects))
		}

		s.logger.Debugf("Page %d: %d objects, running total %d bytes", pages, len(page.Objects), total)

		if !page.Truncated {
			break
		}
		if page.Cursor == "" {
			s.fail()
			return 0, fmt.Errorf("page %d: %w", pages, ErrMissingCursor)
		}
		cursor = page.Cursor
	}

	if s.recorder != nil {
		s.recorder.UsageTotal(total)
	}
	s.logger.Infof("Computed storage usage: %d bytes in %d objects over %d pages, took: %v",
		total, objects, pages, time.Since(startTime))

	return total, nil
}

func (s *Service) fail() {
	if s.recorder != nil {
		s.recorder.UsageFailed()
	}
}
