// Package cache keeps synthesized speech so repeated messages do not hit the
// speech engine again: a small in-memory LRU in front of a zstd-compressed
// disk store.
package cache
