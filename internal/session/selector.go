package session

// VideoSelector is an ordered list of video URLs with a wrapping cursor.
type VideoSelector struct {
	videos []string
	index  int
}

// NewVideoSelector panics on an empty list.
func NewVideoSelector(videos []string) *VideoSelector {
	if len(videos) == 0 {
		panic("session: no videos")
	}
	return &VideoSelector{videos: append([]string(nil), videos...)}
}

// Select returns the current URL, or the next one when advance is set,
// without moving the cursor.
func (s *VideoSelector) Select(advance bool) string {
	i := s.index
	if advance {
		i++
	}
	return s.videos[i%len(s.videos)]
}

// Advance moves the cursor to the next URL, wrapping at the end.
func (s *VideoSelector) Advance() {
	s.index = (s.index + 1) % len(s.videos)
}

func (s *VideoSelector) Index() int { return s.index }
