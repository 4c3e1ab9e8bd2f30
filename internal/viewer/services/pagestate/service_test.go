package pagestate

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"folio/internal/domain"
	"folio/internal/eventbus"
)

func newService() (*Service, *[]eventbus.PageChangedEvent) {
	bus := eventbus.NewWithThrottle(0)
	var mu sync.Mutex
	events := &[]eventbus.PageChangedEvent{}
	bus.Subscribe(eventbus.EventPageChanged, func(e eventbus.DomainEvent) {
		mu.Lock()
		defer mu.Unlock()
		*events = append(*events, e.(eventbus.PageChangedEvent))
	})
	return NewService(bus), events
}

func TestAddFileInitialState(t *testing.T) {
	s, _ := newService()
	s.AddFile("a.txt", 10)

	require.Equal(t, domain.FileKey("a.txt"), s.CurrentFile())
	require.Equal(t, 1, s.CurrentPage("a.txt"))
	require.Equal(t, 1, s.ActivePage("a.txt"))
	require.Equal(t, 10, s.TotalPages("a.txt"))
}

func TestSetCurrentPageClampsAndBroadcasts(t *testing.T) {
	s, events := newService()
	s.AddFile("a.txt", 5)

	s.SetCurrentPage("a.txt", 10, SourceNavigation)
	require.Equal(t, 5, s.CurrentPage("a.txt"))

	s.SetCurrentPage("a.txt", 0, SourceNavigation)
	require.Equal(t, 1, s.CurrentPage("a.txt"))

	require.Len(t, *events, 2)
	require.Equal(t, 5, (*events)[0].Page)
	require.Equal(t, SourceNavigation, (*events)[0].By)
}

func TestSetCurrentPageUnknownFileIsNoOp(t *testing.T) {
	s, events := newService()
	s.SetCurrentPage("ghost.txt", 3, SourceNavigation)
	require.Empty(t, *events)
}

func TestActivePagePromotion(t *testing.T) {
	s, _ := newService()
	saved := []domain.FileKey{}
	s.SetOffsetFuncs(func(f domain.FileKey) { saved = append(saved, f) }, nil)
	s.AddFile("a.txt", 5)
	s.AddFile("b.txt", 5)
	require.Equal(t, domain.FileKey("a.txt"), s.CurrentFile())

	// Dominant page in another file promotes it and preserves a's offset
	s.SetActivePage("b.txt", 2)

	require.Equal(t, domain.FileKey("b.txt"), s.CurrentFile())
	require.Equal(t, 2, s.ActivePage("b.txt"))
	require.Equal(t, []domain.FileKey{"a.txt"}, saved)
}

func TestActivePagePromotionSuppressed(t *testing.T) {
	s, _ := newService()
	s.SetSuppressFunc(func() bool { return true })
	s.AddFile("a.txt", 5)
	s.AddFile("b.txt", 5)

	s.SetActivePage("b.txt", 2)

	require.Equal(t, domain.FileKey("a.txt"), s.CurrentFile())
	// Active page still updates, only the promotion is suppressed
	require.Equal(t, 2, s.ActivePage("b.txt"))
}

func TestSetCurrentFileRestoresOffset(t *testing.T) {
	s, _ := newService()
	var saved, restored []domain.FileKey
	s.SetOffsetFuncs(
		func(f domain.FileKey) { saved = append(saved, f) },
		func(f domain.FileKey) { restored = append(restored, f) },
	)
	s.AddFile("a.txt", 5)
	s.AddFile("b.txt", 5)

	s.SetCurrentFile("b.txt")

	require.Equal(t, domain.FileKey("b.txt"), s.CurrentFile())
	require.Equal(t, []domain.FileKey{"a.txt"}, saved)
	require.Equal(t, []domain.FileKey{"b.txt"}, restored)
}

func TestRemoveFileFallsBackToAnother(t *testing.T) {
	s, _ := newService()
	s.AddFile("a.txt", 5)
	s.AddFile("b.txt", 5)

	s.RemoveFile("a.txt")

	require.Equal(t, domain.FileKey("b.txt"), s.CurrentFile())
	_, ok := s.State("a.txt")
	require.False(t, ok)
}
