package observability

type Metrics interface {
	ObserveSearch(matchedField string, durMs float64, hits int)
	ObserveArchive(written int, durMs float64)
	ObserveResolve(source string, durMs float64)
	ObserveHTTP(method, route string, status int, durMs float64)
	ObserveIngest(processMs float64, ok bool)
	IncLiveHit()
	IncArchiveHit()
	IncResolveMiss()
}

type Noop struct{}

func NewNoop() Noop { return Noop{} }

func (Noop) ObserveSearch(string, float64, int)       {}
func (Noop) ObserveArchive(int, float64)              {}
func (Noop) ObserveResolve(string, float64)           {}
func (Noop) ObserveHTTP(string, string, int, float64) {}
func (Noop) ObserveIngest(float64, bool)              {}
func (Noop) IncLiveHit()                              {}
func (Noop) IncArchiveHit()                           {}
func (Noop) IncResolveMiss()                          {}
