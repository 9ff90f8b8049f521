package viewer

// Options configures the viewer window.
type Options struct {
	Title        string
	WindowWidth  int
	WindowHeight int
	// TPS is the number of update cycles per second.
	TPS int
}

func (o Options) withDefaults() Options {
	if o.Title == "" {
		o.Title = "noisesandbox"
	}
	if o.WindowWidth <= 0 {
		o.WindowWidth = 800
	}
	if o.WindowHeight <= 0 {
		o.WindowHeight = 800
	}
	if o.TPS <= 0 {
		o.TPS = 60
	}
	return o
}
