// Package playback drives a signal graph into an audio sink: either a
// real device through oto or a synchronous headless renderer for tests
// and offline use.
package playback
