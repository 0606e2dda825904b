package session

// Presenter is the presentation layer driven by the Machine. All methods are
// called from the Machine's Run goroutine.
type Presenter interface {
	// ConnectionEstablished makes the play control usable.
	ConnectionEstablished()
	// ConnectionLost reports that the signaling connection ended.
	ConnectionLost()
	// RemoteDescriptionReceived clears the loading indicator.
	RemoteDescriptionReceived()
	DurationChanged(text string, seekMax int)
	PositionChanged(text string, seekPos int)
	PhaseChanged(from, to Phase)
	Warn(msg string)

	// ReleaseSurface and BindSurface bracket the replacement of the media
	// engine during reinitialization.
	ReleaseSurface()
	BindSurface()
	StreamAttached(kind string)
}

// NopPresenter ignores everything.
type NopPresenter struct{}

func (NopPresenter) ConnectionEstablished()      {}
func (NopPresenter) ConnectionLost()             {}
func (NopPresenter) RemoteDescriptionReceived()  {}
func (NopPresenter) DurationChanged(string, int) {}
func (NopPresenter) PositionChanged(string, int) {}
func (NopPresenter) PhaseChanged(Phase, Phase)   {}
func (NopPresenter) Warn(string)                 {}
func (NopPresenter) ReleaseSurface()             {}
func (NopPresenter) BindSurface()                {}
func (NopPresenter) StreamAttached(string)       {}
