// Package audio plays raw 16-bit PCM produced by the speech engines through
// oto/v3. Playback blocks until the clip ends or the context is cancelled.
package audio
