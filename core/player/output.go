package player

// Output is the native playback capability: a single shared audio element
// owned by the host. Commands are fire-and-forget; the host buffers and
// decodes on its own and failures stay inside it.
type Output interface {
	SetSource(url string)
	SetVolume(level float64)
	Play()
	Pause()
}

// Status is the playback state of the selected station.
type Status string

const (
	StatusIdle    Status = "idle" // nothing selected
	StatusPlaying Status = "playing"
	StatusPaused  Status = "paused"
)

// NopOutput discards every command.
type NopOutput struct{}

func (NopOutput) SetSource(string)  {}
func (NopOutput) SetVolume(float64) {}
func (NopOutput) Play()             {}
func (NopOutput) Pause()            {}
