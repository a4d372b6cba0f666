package poll

import "errors"

// ErrNoSources indicates that the source catalog is empty, so a pass has
// nothing to do. The worker treats this as a configuration problem.
var ErrNoSources = errors.New("no sources configured")
